package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autopeer-io/truckhub/internal/pkg/metrics"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	"github.com/autopeer-io/truckhub/pkg/log"
)

var (
	// ErrUnknownCommand is returned for command kinds outside model.CommandKinds.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrDeviceNotConnected is returned when commanding an unregistered device.
	ErrDeviceNotConnected = errors.New("device not connected")

	// ErrInvalidCommandValue is returned for values that would break the payload framing.
	ErrInvalidCommandValue = errors.New("invalid command value")
)

// PublishCommand sends a directive to a truck as "{value}" on the topic of
// its kind. The kind is checked first, then the device. Delivery is not
// confirmed; the result echoes the exact topic and message published.
func (s *Service) PublishCommand(ctx context.Context, id string, kind model.CommandKind, value string) (*model.CommandResult, error) {
	suffix, ok := kind.TopicSuffix()
	if !ok {
		metrics.CommandsSent.WithLabelValues(string(kind), "rejected").Inc()
		return nil, fmt.Errorf("%w: %q, expected one of %v", ErrUnknownCommand, kind, model.CommandKinds)
	}
	if !s.store.IsRegistered(id) {
		metrics.CommandsSent.WithLabelValues(string(kind), "rejected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotConnected, id)
	}
	if value == "" || strings.ContainsAny(value, "{},") {
		metrics.CommandsSent.WithLabelValues(string(kind), "rejected").Inc()
		return nil, fmt.Errorf("%w: %q", ErrInvalidCommandValue, value)
	}

	cmd := &model.CommandResult{
		ID:       s.newID(),
		DeviceID: id,
		Kind:     kind,
		Topic:    s.topics.Build(id, suffix),
		Message:  "{" + value + "}",
		SentAt:   s.clock.Now(),
	}

	if err := s.notifier.Notify(ctx, cmd); err != nil {
		metrics.CommandsSent.WithLabelValues(string(kind), "failed").Inc()
		return nil, fmt.Errorf("failed to publish command %s: %w", cmd.ID, err)
	}

	metrics.CommandsSent.WithLabelValues(string(kind), "success").Inc()
	log.Info("Command published", "imei", id, "kind", kind, "topic", cmd.Topic, "id", cmd.ID)
	return cmd, nil
}
