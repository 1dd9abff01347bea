// Package mirror publishes the latest state of every truck to Redis, so other
// services can read it without going through the HTTP API.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	"github.com/autopeer-io/truckhub/pkg/options"
)

var _ core.RecordSink = (*RedisMirror)(nil)

// Event is the message published for every stored record.
type Event struct {
	Class  model.Class  `json:"class"`
	Record model.Record `json:"record"`
}

// RedisMirror writes, per record:
//
//	SET     {prefix}:device:{imei}:{class}   latest record as JSON
//	GEOADD  {prefix}:geo                     position, status records only
//	PUBLISH {prefix}:device:{imei}:events    Event
type RedisMirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisMirror connects to Redis and verifies the connection.
func NewRedisMirror(ctx context.Context, opts *options.RedisOptions) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisMirror{
		client: client,
		prefix: opts.KeyPrefix,
		ttl:    opts.TTL,
	}, nil
}

func (m *RedisMirror) Name() string { return "redis-mirror" }

// Close releases the connection pool.
func (m *RedisMirror) Close() error {
	return m.client.Close()
}

func (m *RedisMirror) Accept(ctx context.Context, rec model.Record) error {
	id := rec.Meta().DeviceID

	state, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	event, err := json.Marshal(Event{Class: rec.Class(), Record: rec})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := m.client.Pipeline()
	pipe.Set(ctx, StateKey(m.prefix, id, rec.Class()), state, m.ttl)
	if st, ok := rec.(*model.StatusRecord); ok {
		if loc, ok := st.Location(); ok {
			pipe.GeoAdd(ctx, GeoKey(m.prefix), &redis.GeoLocation{
				Name:      id,
				Longitude: loc.Lon,
				Latitude:  loc.Lat,
			})
		}
	}
	pipe.Publish(ctx, EventChannel(m.prefix, id), event)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// StateKey is the key holding the latest record of a class.
func StateKey(prefix, id string, c model.Class) string {
	return fmt.Sprintf("%s:device:%s:%s", prefix, id, c)
}

// GeoKey is the geo set of last known positions.
func GeoKey(prefix string) string {
	return prefix + ":geo"
}

// EventChannel is the pub/sub channel of a device.
func EventChannel(prefix, id string) string {
	return fmt.Sprintf("%s:device:%s:events", prefix, id)
}
