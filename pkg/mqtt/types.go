package mqtt

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by operations that need a live broker session.
var ErrNotConnected = errors.New("mqtt client is not connected")

// MessageHandler defines the callback function for processing received MQTT messages.
// Handlers run on the client's reader goroutine, in arrival order.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// ConnectionListener observes transitions of the underlying broker connection.
type ConnectionListener interface {
	// OnConnecting is called when a connection attempt starts, including automatic reconnects.
	OnConnecting()

	// OnConnectionUp is called when the broker acknowledges the connection.
	OnConnectionUp()

	// OnConnectionDown is called when the connection is lost or an attempt fails.
	OnConnectionDown(err error)
}

// Client defines the interface for a generic MQTT client.
// It abstracts the underlying paho implementation details.
type Client interface {
	// Start initiates the connection to the broker.
	// It is non-blocking and returns immediately. Use AwaitConnection to wait.
	Start(ctx context.Context) error

	// Disconnect cleanly closes the connection.
	Disconnect(ctx context.Context)

	// Publish sends a message to the specified topic.
	// It fails fast with ErrNotConnected while the session is down.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe registers a handler for a topic filter and sends a SUBSCRIBE
	// packet when connected. While disconnected only the handler is recorded;
	// the ConnectionListener is responsible for subscribing again once up.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error

	// Unsubscribe removes the handler and sends an UNSUBSCRIBE packet.
	Unsubscribe(ctx context.Context, topic string) error

	// AwaitConnection blocks until the client is connected to the broker.
	AwaitConnection(ctx context.Context) error

	// IsConnected returns true if the client is currently connected.
	IsConnected() bool

	// SetListener installs the connection listener. It must be called before Start.
	SetListener(l ConnectionListener)
}
