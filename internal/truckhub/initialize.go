package truckhub

import (
	"fmt"
	"os"

	"github.com/autopeer-io/truckhub/pkg/log"
	"github.com/autopeer-io/truckhub/pkg/mqtt"
	"github.com/autopeer-io/truckhub/pkg/options"
)

func InitializeMQTTClient(opts *options.MqttOptions) (mqtt.Client, error) {
	cfg := opts.ToClientConfig()

	if cfg.ClientID == "" {
		hostname, _ := os.Hostname()
		cfg.ClientID = fmt.Sprintf("truckhub-%s", hostname)
	}

	mqttclient, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}

	return mqttclient, nil
}
