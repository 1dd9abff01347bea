package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autopeer-io/truckhub/internal/pkg/metrics"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	"github.com/autopeer-io/truckhub/pkg/log"
)

// ErrInvalidDeviceID is returned for identifiers that cannot be used as a topic level.
var ErrInvalidDeviceID = errors.New("invalid device id")

// ValidateDeviceID rejects empty identifiers and those containing MQTT
// separators or wildcards.
func ValidateDeviceID(id string) error {
	if id == "" || strings.ContainsAny(id, "/+#") || strings.TrimSpace(id) != id {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceID, id)
	}
	return nil
}

// Register creates the device histories and subscribes its telemetry topics.
// It is idempotent for state; topics are subscribed again on every call.
// The returned bool reports whether the device was new.
func (s *Service) Register(ctx context.Context, id string) (bool, error) {
	if err := ValidateDeviceID(id); err != nil {
		return false, err
	}

	created := s.store.Register(id)
	if created {
		metrics.RegisteredDevices.Set(float64(s.store.Len()))
		log.Info("Device registered", "imei", id)
	}

	if s.subscriber != nil {
		if err := s.subscriber.SubscribeDevice(ctx, id); err != nil {
			return created, fmt.Errorf("failed to subscribe topics for %s: %w", id, err)
		}
	}
	return created, nil
}

// Devices returns the registered device IDs.
func (s *Service) Devices() []string {
	return s.store.Devices()
}

// IsRegistered reports whether id is known.
func (s *Service) IsRegistered(id string) bool {
	return s.store.IsRegistered(id)
}

// Latest returns the newest record of class c for id.
func (s *Service) Latest(id string, c model.Class) (model.Record, bool) {
	return s.store.Latest(id, c)
}

// LatestStatus returns the newest status report of id.
func (s *Service) LatestStatus(id string) (*model.StatusRecord, bool) {
	return s.store.LatestStatus(id)
}

// LatestRFID returns the newest RFID event of id.
func (s *Service) LatestRFID(id string) (*model.RFIDEvent, bool) {
	return s.store.LatestRFID(id)
}

// LatestSMS returns the newest SMS event of id.
func (s *Service) LatestSMS(id string) (*model.SMSEvent, bool) {
	return s.store.LatestSMS(id)
}

// LatestGyroscope returns the newest gyroscope event of id.
func (s *Service) LatestGyroscope(id string) (*model.GyroscopeEvent, bool) {
	return s.store.LatestGyroscope(id)
}

// LatestSecurity returns the newest security alert of id.
func (s *Service) LatestSecurity(id string) (*model.SecurityAlert, bool) {
	return s.store.LatestSecurity(id)
}

// LatestLocation returns the newest known position of id.
func (s *Service) LatestLocation(id string) (model.Location, bool) {
	return s.store.LatestLocation(id)
}

// History returns up to limit records of class c, newest first.
func (s *Service) History(id string, c model.Class, limit int) ([]model.Record, error) {
	return s.store.History(id, c, limit)
}

// Locations returns up to limit positions of id, newest first.
func (s *Service) Locations(id string, limit int) ([]model.Location, error) {
	return s.store.Locations(id, limit)
}
