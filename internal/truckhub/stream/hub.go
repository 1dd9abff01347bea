// Package stream fans stored records out to live subscribers of a device.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	"github.com/autopeer-io/truckhub/pkg/log"
)

var _ core.RecordSink = (*Hub)(nil)

// Message is what a subscriber receives for every stored record.
type Message struct {
	Class  model.Class  `json:"class"`
	Record model.Record `json:"record"`
}

// Subscription receives the encoded messages of one device. A subscriber
// that falls behind by more than the buffer loses messages.
type Subscription struct {
	deviceID string
	ch       chan []byte
}

// C returns the message channel. It is closed on Unsubscribe.
func (s *Subscription) C() <-chan []byte { return s.ch }

// Hub is safe for concurrent use.
type Hub struct {
	buffer int

	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// NewHub creates a Hub whose subscriptions buffer up to buffer messages.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[string]map[*Subscription]struct{}),
	}
}

func (h *Hub) Name() string { return "stream" }

// Subscribe registers a subscriber for deviceID.
func (h *Hub) Subscribe(deviceID string) *Subscription {
	s := &Subscription{deviceID: deviceID, ch: make(chan []byte, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[deviceID] == nil {
		h.subs[deviceID] = make(map[*Subscription]struct{})
	}
	h.subs[deviceID][s] = struct{}{}
	return s
}

// Unsubscribe removes s and closes its channel. It is safe to call twice.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[s.deviceID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.ch)
	if len(set) == 0 {
		delete(h.subs, s.deviceID)
	}
}

// Subscribers returns the number of subscribers of deviceID.
func (h *Hub) Subscribers(deviceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[deviceID])
}

// Accept broadcasts rec without blocking.
func (h *Hub) Accept(_ context.Context, rec model.Record) error {
	id := rec.Meta().DeviceID

	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.subs[id]
	if len(set) == 0 {
		return nil
	}

	data, err := json.Marshal(Message{Class: rec.Class(), Record: rec})
	if err != nil {
		return fmt.Errorf("failed to marshal stream message: %w", err)
	}

	for s := range set {
		select {
		case s.ch <- data:
		default:
			log.Debug("Stream subscriber is slow, message dropped", "imei", id)
		}
	}
	return nil
}
