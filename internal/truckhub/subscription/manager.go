// Package subscription keeps the broker subscriptions of all known trucks in
// step with the connection state.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/looplab/fsm"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/truckhub/internal/pkg/metrics"
	"github.com/autopeer-io/truckhub/internal/pkg/mqtt/paths"
	fsmutil "github.com/autopeer-io/truckhub/internal/pkg/util/fsm"
	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/pkg/log"
	pkgmqtt "github.com/autopeer-io/truckhub/pkg/mqtt"
	"github.com/autopeer-io/truckhub/pkg/mqtt/topic"
)

const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"

	// EventConnect starts a connection attempt, including automatic reconnects.
	EventConnect = "connect"
	// EventAck marks the broker acknowledgement.
	EventAck = "ack"
	// EventLost marks a dropped session or a failed attempt.
	EventLost = "lost"
)

var (
	_ pkgmqtt.ConnectionListener = (*Manager)(nil)
	_ core.DeviceSubscriber      = (*Manager)(nil)
)

// Options configures a Manager.
type Options struct {
	// QoS used for telemetry subscriptions.
	QoS int

	// Wildcard subscribes {root}/+/{suffix} once per class instead of one
	// topic per device, so messages of unregistered trucks reach ingestion.
	Wildcard bool
}

// Manager tracks the known devices and resubscribes their telemetry topics on
// every transition into StateConnected.
type Manager struct {
	client  pkgmqtt.Client
	topics  *topic.Builder
	handler pkgmqtt.MessageHandler
	opts    Options

	fsm *fsm.FSM

	mu      sync.Mutex
	devices map[string]struct{}
}

// NewManager creates a Manager in StateDisconnected and installs it as the
// client's connection listener.
func NewManager(client pkgmqtt.Client, builder *topic.Builder, handler pkgmqtt.MessageHandler, opts Options) *Manager {
	m := &Manager{
		client:  client,
		topics:  builder,
		handler: handler,
		opts:    opts,
		devices: make(map[string]struct{}),
	}

	events := fsm.Events{
		{Name: EventConnect, Src: []string{StateDisconnected}, Dst: StateConnecting},
		{Name: EventAck, Src: []string{StateConnecting, StateDisconnected}, Dst: StateConnected},
		{Name: EventLost, Src: []string{StateConnected, StateConnecting}, Dst: StateDisconnected},
	}

	callbacks := fsm.Callbacks{
		"enter_state":             fsmutil.WrapEvent(m.actionEnterState),
		"enter_" + StateConnected: fsmutil.WrapEvent(m.actionEnterConnected),
	}

	m.fsm = fsm.NewFSM(StateDisconnected, events, callbacks)
	client.SetListener(m)
	return m
}

// State returns the current connection state.
func (m *Manager) State() string { return m.fsm.Current() }

// Connected reports whether the broker session is up and subscribed.
func (m *Manager) Connected() bool { return m.fsm.Is(StateConnected) }

// Devices returns the known device IDs in lexical order.
func (m *Manager) Devices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.devices))
	for id := range m.devices {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SubscribeDevice adds id to the known set and, when connected, subscribes
// its telemetry topics right away. Calling it again subscribes again.
func (m *Manager) SubscribeDevice(ctx context.Context, id string) error {
	m.mu.Lock()
	m.devices[id] = struct{}{}
	m.mu.Unlock()

	if m.opts.Wildcard || !m.Connected() {
		return nil
	}
	return m.subscribeDevice(ctx, id)
}

// --- pkgmqtt.ConnectionListener ---

func (m *Manager) OnConnecting()              { m.fire(EventConnect) }
func (m *Manager) OnConnectionUp()            { m.fire(EventAck) }
func (m *Manager) OnConnectionDown(err error) { m.fire(EventLost, err) }

// fire runs an event, ignoring those that do not apply in the current state.
func (m *Manager) fire(event string, args ...any) {
	err := m.fsm.Event(context.Background(), event, args...)

	var invalid fsm.InvalidEventError
	var noTransition fsm.NoTransitionError
	switch {
	case err == nil:
	case errors.As(err, &invalid), errors.As(err, &noTransition):
		log.Debug("Ignoring connection event", "event", event, "state", m.fsm.Current())
	default:
		log.Error(err, "Connection state transition failed", "event", event)
	}
}

// actionEnterState logs every transition and exports the state.
func (m *Manager) actionEnterState(_ context.Context, e *fsm.Event) error {
	kv := []any{"from", e.Src, "to", e.Dst, "event", e.Event}
	if len(e.Args) > 0 {
		if err, ok := e.Args[0].(error); ok && err != nil {
			kv = append(kv, "reason", err.Error())
		}
	}
	log.Info("MQTT connection state changed", kv...)

	if e.Dst == StateConnected {
		metrics.MQTTConnectionState.Set(1)
	} else {
		metrics.MQTTConnectionState.Set(0)
	}
	return nil
}

// actionEnterConnected subscribes everything again; broker sessions are not
// assumed to keep subscriptions across reconnects.
func (m *Manager) actionEnterConnected(ctx context.Context, _ *fsm.Event) error {
	if m.opts.Wildcard {
		var errs []error
		for _, suffix := range paths.Telemetry {
			if err := m.subscribe(ctx, m.topics.BuildWildcard(suffix)); err != nil {
				errs = append(errs, err)
			}
		}
		return utilerrors.NewAggregate(errs)
	}

	devices := m.Devices()
	var errs []error
	for _, id := range devices {
		if err := m.subscribeDevice(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	log.Info("Resubscribed telemetry topics", "devices", len(devices), "failed", len(errs))
	return utilerrors.NewAggregate(errs)
}

func (m *Manager) subscribeDevice(ctx context.Context, id string) error {
	var errs []error
	for _, suffix := range paths.Telemetry {
		if err := m.subscribe(ctx, m.topics.Build(id, suffix)); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

func (m *Manager) subscribe(ctx context.Context, t string) error {
	if err := m.client.Subscribe(ctx, t, m.opts.QoS, m.handler); err != nil {
		return fmt.Errorf("failed to subscribe to topic: %s, err: %w", t, err)
	}
	return nil
}
