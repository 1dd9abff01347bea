package truckhub

import (
	"context"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/service"
	"github.com/autopeer-io/truckhub/internal/truckhub/mirror"
	"github.com/autopeer-io/truckhub/internal/truckhub/server"
	"github.com/autopeer-io/truckhub/pkg/log"
)

// TruckHubServer is the main application struct for truckhub.
type TruckHubServer struct {
	serverManager *server.Manager
	svc           *service.Service
	devices       []string

	// mirror is nil when redis is not configured.
	mirror *mirror.RedisMirror
}

// Run registers the configured devices and blocks until ctx is cancelled.
func (s *TruckHubServer) Run(ctx context.Context) error {
	log.Info("Starting truckhub...")
	s.RegisterDevices(ctx, s.devices)

	err := s.serverManager.Start(ctx)

	if s.mirror != nil {
		if cerr := s.mirror.Close(); cerr != nil {
			log.Error(cerr, "Failed to close redis mirror")
		}
	}
	return err
}

// RegisterDevices registers every id not yet known. Invalid ids are logged
// and skipped; new devices are logged by the service.
func (s *TruckHubServer) RegisterDevices(ctx context.Context, ids []string) {
	for _, id := range ids {
		if _, err := s.svc.Register(ctx, id); err != nil {
			log.Error(err, "Failed to register device", "imei", id)
		}
	}
}
