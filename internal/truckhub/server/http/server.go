package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/truckhub/internal/pkg/metrics"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/service"
	"github.com/autopeer-io/truckhub/internal/truckhub/stream"
	"github.com/autopeer-io/truckhub/pkg/log"
	"github.com/autopeer-io/truckhub/pkg/options"
)

// Server serves the device API, the live stream and the probes.
type Server struct {
	server  *http.Server
	options *options.HttpOptions
}

// NewServer builds the router. ready reports broker connectivity for /readyz;
// hub may be nil, in which case the stream endpoint answers 404.
func NewServer(opts *options.HttpOptions, svc *service.Service, hub *stream.Hub, ready func() bool) *Server {
	h := &handler{svc: svc, hub: hub, ready: ready}

	return &Server{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           h.router(),
			ReadHeaderTimeout: opts.Timeout,
		},
		options: opts,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP Server", "addr", s.server.Addr)

	ln, err := net.Listen(s.options.Network, s.server.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeout := s.options.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (h *handler) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(logging)

	// Basic Liveness Probe
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// Readiness follows the broker session
	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if h.ready == nil || !h.ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("mqtt not connected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/devices", h.listDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices", h.registerDevice).Methods(http.MethodPost)
	api.HandleFunc("/devices/{imei}", h.getDevice).Methods(http.MethodGet)
	api.HandleFunc("/devices/{imei}/location", h.getLocation).Methods(http.MethodGet)
	api.HandleFunc("/devices/{imei}/locations", h.listLocations).Methods(http.MethodGet)
	api.HandleFunc("/devices/{imei}/stream", h.stream).Methods(http.MethodGet)
	api.HandleFunc("/devices/{imei}/commands", h.sendCommand).Methods(http.MethodPost)
	api.HandleFunc("/devices/{imei}/{class}", h.listRecords).Methods(http.MethodGet)

	return r
}

// logging records every request at debug level.
func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
