package notifier

import (
	"context"
	"errors"

	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	pkgmqtt "github.com/autopeer-io/truckhub/pkg/mqtt"
)

var _ core.CommandNotifier = (*MQTTNotifier)(nil)

// MQTTNotifier publishes commands on the shared broker session.
type MQTTNotifier struct {
	client pkgmqtt.Client
	qos    int
}

func NewMQTTNotifier(client pkgmqtt.Client, qos int) (*MQTTNotifier, error) {
	if client == nil {
		return nil, errors.New("mqtt client is required")
	}
	return &MQTTNotifier{client: client, qos: qos}, nil
}

// Notify sends the framed message as-is. It does not retain.
func (n *MQTTNotifier) Notify(ctx context.Context, cmd *model.CommandResult) error {
	return n.client.Publish(ctx, cmd.Topic, n.qos, false, []byte(cmd.Message))
}
