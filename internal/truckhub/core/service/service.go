package service

import (
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/store"
	"github.com/autopeer-io/truckhub/pkg/mqtt/topic"
)

// Service implements the query and command use cases of truckhub.
// It orchestrates the device store and the outbound adapters (ports).
type Service struct {
	store      *store.Store
	notifier   core.CommandNotifier
	subscriber core.DeviceSubscriber
	topics     *topic.Builder

	clock clock.PassiveClock
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used to stamp records and commands.
func WithClock(c clock.PassiveClock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// New creates a new instance of the truckhub core service.
// subscriber may be nil when registration should not touch the transport.
func New(
	st *store.Store,
	notifier core.CommandNotifier,
	subscriber core.DeviceSubscriber,
	builder *topic.Builder,
	opts ...Option,
) *Service {
	s := &Service{
		store:      st,
		notifier:   notifier,
		subscriber: subscriber,
		topics:     builder,
		clock:      clock.RealClock{},
		newID:      uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Store exposes the underlying device store.
func (s *Service) Store() *store.Store { return s.store }
