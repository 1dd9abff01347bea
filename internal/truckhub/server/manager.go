package server

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/truckhub/internal/truckhub/server/http"
	"github.com/autopeer-io/truckhub/internal/truckhub/server/mqtt"
	"github.com/autopeer-io/truckhub/pkg/log"
)

// Server defines the common interface for everything the manager runs.
type Server interface {
	Start(ctx context.Context) error
}

// RunFunc adapts a blocking loop to Server.
type RunFunc func(ctx context.Context) error

func (f RunFunc) Start(ctx context.Context) error { return f(ctx) }

// Manager manages the lifecycle of the broker session, the API and the
// background loops.
type Manager struct {
	servers []Server
}

// NewManager creates a new server manager and initializes all sub-servers.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg.Client == nil || cfg.Ingestor == nil || cfg.Service == nil {
		return nil, errors.New("server config requires an mqtt client, an ingestor and a service")
	}

	var servers []Server

	// Ingestion loops must be running before the first message arrives.
	servers = append(servers, RunFunc(cfg.Ingestor.Run))

	servers = append(servers, mqtt.NewServer(cfg.Client))

	ready := func() bool { return false }
	if cfg.Subscriptions != nil {
		ready = cfg.Subscriptions.Connected
	}
	servers = append(servers, http.NewServer(cfg.HttpOptions, cfg.Service, cfg.Hub, ready))

	if cfg.Archiver != nil {
		servers = append(servers, RunFunc(cfg.Archiver.Start))
	}

	return &Manager{
		servers: servers,
	}, nil
}

// Start launches all servers in parallel and waits for termination.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}
