package core

import (
	"context"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
)

// CommandNotifier defines the interface for sending directives to trucks.
// In truckhub, this is implemented by the MQTT outbound adapter.
type CommandNotifier interface {
	// Notify publishes cmd.Message on cmd.Topic. Delivery is not confirmed.
	Notify(ctx context.Context, cmd *model.CommandResult) error
}

// DeviceSubscriber makes sure the telemetry topics of a device are subscribed.
// In truckhub, this is implemented by the subscription manager.
type DeviceSubscriber interface {
	// SubscribeDevice adds id to the known set and subscribes its topics when connected.
	SubscribeDevice(ctx context.Context, id string) error
}
