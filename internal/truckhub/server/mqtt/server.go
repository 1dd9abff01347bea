package mqtt

import (
	"context"
	"errors"
	"time"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/service"
	"github.com/autopeer-io/truckhub/pkg/log"
	pkgmqtt "github.com/autopeer-io/truckhub/pkg/mqtt"
)

// Server owns the broker session. Subscriptions are driven by the
// subscription manager installed as the client's connection listener.
type Server struct {
	client pkgmqtt.Client
}

// NewServer creates a new MQTT server (client).
func NewServer(client pkgmqtt.Client) *Server {
	return &Server{client: client}
}

// Start connects to the broker and blocks until ctx is done. Reconnects are
// handled by the client; a broker that is down at startup is not fatal.
func (s *Server) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return err
	}

	// Ensure MQTT disconnects when Start exits
	defer func() {
		log.Info("Disconnecting MQTT client...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(shutdownCtx)
		log.Info("MQTT client disconnected")
	}()

	log.Info("Waiting for MQTT connection...")
	if err := s.client.AwaitConnection(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	log.Info("MQTT Connected")

	<-ctx.Done()
	return nil
}

// Ingest returns the message handler that feeds inbound telemetry to ing.
func Ingest(ing *service.Ingestor) pkgmqtt.MessageHandler {
	return func(ctx context.Context, topic string, payload []byte) {
		if err := ing.Enqueue(ctx, topic, payload); err != nil {
			if errors.Is(err, service.ErrIngestorStopped) {
				return
			}
			log.Error(err, "Failed to enqueue telemetry", "topic", topic)
		}
	}
}
