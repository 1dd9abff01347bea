package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/truckhub/internal/pkg/metrics"
	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/normalize"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/wire"
	"github.com/autopeer-io/truckhub/pkg/log"
)

// ErrBadTopic is returned for topics that do not name a device and a telemetry class.
var ErrBadTopic = errors.New("topic is not a telemetry topic")

// ErrIngestorStopped is returned by Enqueue after Run has returned.
var ErrIngestorStopped = errors.New("ingestor stopped")

// Drop reasons reported on truckhub_messages_dropped_total.
const (
	dropBadTopic      = "bad_topic"
	dropUnknownDevice = "unknown_device"
	dropValidation    = "validation"
	dropShutdown      = "shutdown"
)

// envelope is one inbound message waiting for a worker.
type envelope struct {
	deviceID   string
	class      model.Class
	topic      string
	payload    string
	receivedAt time.Time
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	// Workers is the number of ingestion loops. Messages of one device always
	// go to the same loop, so per-device order is kept. Default 1.
	Workers int

	// QueueSize is the buffer of each loop's inbound channel. Default 256.
	QueueSize int

	// AutoRegister registers unknown devices on their first message instead
	// of dropping it.
	AutoRegister bool
}

// Ingestor drives the decode, normalize and store pipeline for messages
// handed over by the transport.
type Ingestor struct {
	svc        *Service
	decoder    *wire.Decoder
	normalizer *normalize.Normalizer
	sinks      []core.RecordSink

	autoRegister bool
	shards       []chan envelope
	done         chan struct{}
}

// NewIngestor creates an Ingestor feeding svc's store.
func (s *Service) NewIngestor(cfg IngestConfig, decoder *wire.Decoder, normalizer *normalize.Normalizer, sinks ...core.RecordSink) *Ingestor {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	shards := make([]chan envelope, cfg.Workers)
	for i := range shards {
		shards[i] = make(chan envelope, cfg.QueueSize)
	}

	return &Ingestor{
		svc:          s,
		decoder:      decoder,
		normalizer:   normalizer,
		sinks:        sinks,
		autoRegister: cfg.AutoRegister,
		shards:       shards,
		done:         make(chan struct{}),
	}
}

// Enqueue hands one message to the worker owning its device. It blocks while
// that worker's queue is full, until ctx is done or the Ingestor stops.
func (i *Ingestor) Enqueue(ctx context.Context, topic string, payload []byte) error {
	id, suffix, ok := i.svc.topics.Parse(topic)
	if !ok {
		metrics.MessagesDropped.WithLabelValues("", dropBadTopic).Inc()
		return fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	class, err := model.ParseClass(suffix)
	if err != nil {
		metrics.MessagesDropped.WithLabelValues("", dropBadTopic).Inc()
		return fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	metrics.MessagesReceived.WithLabelValues(string(class)).Inc()

	env := envelope{
		deviceID:   id,
		class:      class,
		topic:      topic,
		payload:    string(payload),
		receivedAt: i.svc.clock.Now(),
	}

	shard := i.shards[xxhash.Sum64String(id)%uint64(len(i.shards))]
	select {
	case shard <- env:
		return nil
	case <-i.done:
		metrics.MessagesDropped.WithLabelValues(string(class), dropShutdown).Inc()
		return ErrIngestorStopped
	case <-ctx.Done():
		metrics.MessagesDropped.WithLabelValues(string(class), dropShutdown).Inc()
		return ctx.Err()
	}
}

// Run starts the ingestion loops and blocks until ctx is cancelled.
func (i *Ingestor) Run(ctx context.Context) error {
	defer close(i.done)

	g, ctx := errgroup.WithContext(ctx)
	for n, shard := range i.shards {
		g.Go(func() error {
			log.Debug("Ingestion worker started", "worker", n)
			for {
				select {
				case <-ctx.Done():
					return nil
				case env := <-shard:
					i.process(ctx, env)
				}
			}
		})
	}

	log.Info("Ingestor running", "workers", len(i.shards), "autoRegister", i.autoRegister)
	return g.Wait()
}

// process runs one message to completion. Every failure is logged and
// counted; none stops the loop.
func (i *Ingestor) process(ctx context.Context, env envelope) {
	logger := log.WithValues("imei", env.deviceID, "topic", env.topic)

	if !i.svc.store.IsRegistered(env.deviceID) {
		if !i.autoRegister {
			metrics.MessagesDropped.WithLabelValues(string(env.class), dropUnknownDevice).Inc()
			logger.Warn("Dropping message for unregistered device")
			return
		}
		if i.svc.store.Register(env.deviceID) {
			metrics.RegisteredDevices.Set(float64(i.svc.store.Len()))
			logger.Info("Device registered on first message")
		}
	}

	rec, err := i.decoder.Decode(env.class, env.payload)
	if err != nil {
		metrics.MessagesDropped.WithLabelValues(string(env.class), dropValidation).Inc()
		logger.Warn("Dropping invalid payload", "error", err.Error(), "payload", env.payload)
		return
	}

	h := rec.Meta()
	h.DeviceID = env.deviceID
	h.Topic = env.topic
	h.ReceivedAt = env.receivedAt

	if err := i.normalizer.Normalize(ctx, rec); err != nil {
		i.reportLocationError(logger, err)
	}

	if err := i.svc.store.Append(env.deviceID, rec); err != nil {
		metrics.MessagesDropped.WithLabelValues(string(env.class), dropUnknownDevice).Inc()
		logger.Error(err, "Failed to store record")
		return
	}

	for _, sink := range i.sinks {
		if err := sink.Accept(ctx, rec); err != nil {
			logger.Error(err, "Record sink failed", "sink", sink.Name())
		}
	}
}

// reportLocationError counts the outcomes the resolver cannot see itself.
func (i *Ingestor) reportLocationError(logger log.Logger, err error) {
	var cellErr *normalize.CellError
	switch {
	case errors.As(err, &cellErr):
		metrics.GeolocationLookups.WithLabelValues("invalid_cell").Inc()
		logger.Warn("Invalid cell identifiers, location left empty", "error", err.Error())
	case errors.Is(err, normalize.ErrNoResolver):
		metrics.GeolocationLookups.WithLabelValues("disabled").Inc()
		logger.Debug("Geolocation disabled, location left empty")
	default:
		logger.Warn("Cell-tower lookup failed, location left empty", "error", err.Error())
	}
}
