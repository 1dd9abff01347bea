// Package geolocation resolves serving cells to positions through an
// Unwired-Labs-compatible HTTP API.
package geolocation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/autopeer-io/truckhub/internal/pkg/metrics"
	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	"github.com/autopeer-io/truckhub/pkg/log"
)

var _ core.Resolver = (*Client)(nil)

// Config holds the settings of the lookup service.
type Config struct {
	URL   string
	Token string

	// MaxInFlight caps concurrent lookups. Default 4.
	MaxInFlight int

	// HTTPClient overrides the transport. The lookup deadline comes from the
	// caller's context, not from the client.
	HTTPClient *http.Client
}

type cell struct {
	LAC uint64 `json:"lac"`
	CID uint64 `json:"cid"`
}

type request struct {
	Token   string `json:"token"`
	Radio   string `json:"radio"`
	MCC     uint64 `json:"mcc"`
	MNC     uint64 `json:"mnc"`
	Cells   []cell `json:"cells"`
	Address int    `json:"address"`
}

type response struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy"`
}

// Client implements core.Resolver. Each lookup is a single attempt.
type Client struct {
	url   string
	token string
	http  *http.Client
	sem   *semaphore.Weighted
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("geolocation url is required")
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 4
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		url:   cfg.URL,
		token: cfg.Token,
		http:  hc,
		sem:   semaphore.NewWeighted(int64(cfg.MaxInFlight)),
	}, nil
}

// Resolve looks up q. A non-"ok" status wraps core.ErrLocationNotFound.
func (c *Client) Resolve(ctx context.Context, q core.CellQuery) (model.Location, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		metrics.GeolocationLookups.WithLabelValues("failed").Inc()
		return model.Location{}, fmt.Errorf("waiting for lookup slot: %w", err)
	}
	defer c.sem.Release(1)

	start := time.Now()
	loc, err := c.do(ctx, q)
	metrics.GeolocationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GeolocationLookups.WithLabelValues("failed").Inc()
		return model.Location{}, err
	}
	metrics.GeolocationLookups.WithLabelValues("ok").Inc()
	log.Debug("Resolved cell location", "mcc", q.MCC, "mnc", q.MNC, "lac", q.LAC, "cid", q.CellID, "lat", loc.Lat, "lon", loc.Lon)
	return loc, nil
}

func (c *Client) do(ctx context.Context, q core.CellQuery) (model.Location, error) {
	body, err := json.Marshal(request{
		Token: c.token,
		Radio: q.Radio,
		MCC:   q.MCC,
		MNC:   q.MNC,
		Cells: []cell{{LAC: q.LAC, CID: q.CellID}},
	})
	if err != nil {
		return model.Location{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return model.Location{}, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Location{}, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.Location{}, fmt.Errorf("lookup service returned %s", resp.Status)
	}

	var out response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return model.Location{}, fmt.Errorf("failed to decode lookup response: %w", err)
	}
	if out.Status != "ok" {
		return model.Location{}, fmt.Errorf("%w: status %q %s", core.ErrLocationNotFound, out.Status, out.Message)
	}
	return model.Location{Lat: out.Lat, Lon: out.Lon}, nil
}
