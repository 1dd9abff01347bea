package truckhub

import (
	"context"
	"fmt"

	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/normalize"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/service"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/store"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/wire"
	"github.com/autopeer-io/truckhub/internal/truckhub/geolocation"
	"github.com/autopeer-io/truckhub/internal/truckhub/journal"
	"github.com/autopeer-io/truckhub/internal/truckhub/mirror"
	"github.com/autopeer-io/truckhub/internal/truckhub/notifier"
	"github.com/autopeer-io/truckhub/internal/truckhub/server"
	mqttserver "github.com/autopeer-io/truckhub/internal/truckhub/server/mqtt"
	"github.com/autopeer-io/truckhub/internal/truckhub/stream"
	"github.com/autopeer-io/truckhub/internal/truckhub/subscription"
	"github.com/autopeer-io/truckhub/pkg/log"
	pkgmqtt "github.com/autopeer-io/truckhub/pkg/mqtt"
	"github.com/autopeer-io/truckhub/pkg/mqtt/topic"
	"github.com/autopeer-io/truckhub/pkg/options"
)

type Config struct {
	MqttOptions    *options.MqttOptions
	HttpOptions    *options.HttpOptions
	GeoOptions     *options.GeoOptions
	IngestOptions  *options.IngestOptions
	JournalOptions *options.JournalOptions
	RedisOptions   *options.RedisOptions
	S3Options      *options.S3Options
}

func (cfg *Config) NewTruckHubServer(ctx context.Context) (*TruckHubServer, error) {
	// 1. Infrastructure: one broker session for telemetry and commands
	client, err := InitializeMQTTClient(cfg.MqttOptions)
	if err != nil {
		return nil, err
	}
	builder := topic.NewBuilder(cfg.MqttOptions.TopicRoot)

	// 2. Subscriptions follow the connection state. The handler is bound to
	// the ingestor below; no message arrives before the client starts.
	var ingest pkgmqtt.MessageHandler
	subs := subscription.NewManager(client, builder,
		func(ctx context.Context, t string, p []byte) { ingest(ctx, t, p) },
		subscription.Options{QoS: cfg.MqttOptions.QoS, Wildcard: cfg.IngestOptions.AutoRegister},
	)

	// 3. Outbound adapter for commands
	notifierAdapter, err := notifier.NewMQTTNotifier(client, cfg.MqttOptions.QoS)
	if err != nil {
		return nil, fmt.Errorf("failed to init notifier: %w", err)
	}

	// 4. Core Domain Service
	svc := service.New(store.New(cfg.IngestOptions.HistorySize), notifierAdapter, subs, builder)

	// 5. Ingestion pipeline and its sinks
	resolver, err := cfg.newResolver()
	if err != nil {
		return nil, err
	}
	normalizer := normalize.New(resolver,
		normalize.WithTimeout(cfg.GeoOptions.Timeout),
		normalize.WithRadio(cfg.GeoOptions.Radio),
	)
	decoder := wire.NewDecoder(wire.WithLegacyLayouts(cfg.IngestOptions.LegacyStatus))

	hub := stream.NewHub(64)
	sinks := []core.RecordSink{hub}

	var archiver *journal.Archiver
	if cfg.JournalOptions.Enabled {
		w, err := journal.NewWriter(cfg.JournalOptions.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to init journal: %w", err)
		}
		sinks = append(sinks, w)

		if archiver, err = cfg.newArchiver(ctx, w); err != nil {
			return nil, err
		}
	}

	var redisMirror *mirror.RedisMirror
	if cfg.RedisOptions.Enabled() {
		if redisMirror, err = mirror.NewRedisMirror(ctx, cfg.RedisOptions); err != nil {
			return nil, fmt.Errorf("failed to init redis mirror: %w", err)
		}
		sinks = append(sinks, redisMirror)
	}

	ingestor := svc.NewIngestor(service.IngestConfig{
		Workers:      cfg.IngestOptions.Workers,
		QueueSize:    cfg.IngestOptions.QueueSize,
		AutoRegister: cfg.IngestOptions.AutoRegister,
	}, decoder, normalizer, sinks...)
	ingest = mqttserver.Ingest(ingestor)

	// 6. Servers
	srvManager, err := server.NewManager(&server.Config{
		HttpOptions:   cfg.HttpOptions,
		Client:        client,
		Subscriptions: subs,
		Ingestor:      ingestor,
		Service:       svc,
		Hub:           hub,
		Archiver:      archiver,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init server manager: %w", err)
	}

	return &TruckHubServer{
		serverManager: srvManager,
		svc:           svc,
		devices:       cfg.IngestOptions.Devices,
		mirror:        redisMirror,
	}, nil
}

func (cfg *Config) newResolver() (core.Resolver, error) {
	if !cfg.GeoOptions.Enabled() {
		log.Warn("Geolocation disabled, cell-tower reports keep null coordinates")
		return nil, nil
	}
	geo, err := geolocation.New(geolocation.Config{
		URL:         cfg.GeoOptions.URL,
		Token:       cfg.GeoOptions.Token,
		MaxInFlight: cfg.GeoOptions.MaxInFlight,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init geolocation client: %w", err)
	}
	return geo, nil
}

func (cfg *Config) newArchiver(ctx context.Context, w *journal.Writer) (*journal.Archiver, error) {
	if !cfg.S3Options.Enabled() {
		return nil, nil
	}
	uploader, err := journal.NewMinIOUploader(cfg.S3Options)
	if err != nil {
		return nil, fmt.Errorf("failed to init object storage: %w", err)
	}
	if err := uploader.CheckBucket(ctx); err != nil {
		return nil, err
	}
	return journal.NewArchiver(w, uploader, cfg.JournalOptions.ArchiveInterval, cfg.JournalOptions.ArchivePrefix), nil
}
