package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/spf13/viper"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/truckhub/cmd/truckhub/app/options"
	"github.com/autopeer-io/truckhub/internal/truckhub"
	"github.com/autopeer-io/truckhub/pkg/app"
)

const (
	commandName = "truckhub"
	commandDesc = `truckhub subscribes to the telemetry of registered trucks over MQTT,
decodes and normalizes it, keeps a bounded history per truck and publishes
commands back to them. An HTTP API serves the latest state, the history and
a live stream per truck.`
)

func NewApp() *app.App {
	opts := options.NewTruckHubOptions()

	var running atomic.Pointer[truckhub.TruckHubServer]
	application := app.NewApp(
		commandName,
		"Launch the truck telemetry hub",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts, &running)),
		app.WithCommands(newDecodeCommand()),
		app.WithConfigWatch(func(v *viper.Viper) {
			if s := running.Load(); s != nil {
				s.RegisterDevices(context.Background(), v.GetStringSlice("ingest.devices"))
			}
		}),
	)
	return application
}

func run(opts *options.TruckHubOptions, running *atomic.Pointer[truckhub.TruckHubServer]) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewTruckHubServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create truckhub server: %w", err)
		}
		running.Store(server)

		return server.Run(ctx)
	}
}
