package server

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewManagerRequiresCore(t *testing.T) {
	if _, err := NewManager(&Config{}); err == nil {
		t.Error("expected error for an empty config")
	}
}

func TestStartStopsAllOnFirstError(t *testing.T) {
	boom := errors.New("listen failed")
	stopped := make(chan struct{})

	m := &Manager{servers: []Server{
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return nil
		}),
		RunFunc(func(context.Context) error { return boom }),
	}}

	if err := m.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Start() = %v, want %v", err, boom)
	}
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Error("sibling server was not cancelled")
	}
}

func TestStartReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{servers: []Server{
		RunFunc(func(ctx context.Context) error { <-ctx.Done(); return nil }),
	}}

	cancel()
	if err := m.Start(ctx); err != nil {
		t.Errorf("Start() = %v", err)
	}
}
