// Package store keeps the bounded in-memory telemetry history of every
// registered truck.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
)

// ErrUnknownDevice is returned when a record arrives for a device that was never registered.
var ErrUnknownDevice = errors.New("unknown device")

// deviceState holds one history per class plus the location history.
type deviceState struct {
	records   []*History[model.Record] // indexed by model.Class.Index
	locations *History[model.Location]
}

func newDeviceState(capacity int) *deviceState {
	ds := &deviceState{
		records:   make([]*History[model.Record], len(model.Classes)),
		locations: NewHistory[model.Location](capacity),
	}
	for i := range ds.records {
		ds.records[i] = NewHistory[model.Record](capacity)
	}
	return ds
}

func (ds *deviceState) history(c model.Class) *History[model.Record] {
	i := c.Index()
	if i < 0 || i >= len(ds.records) {
		return nil
	}
	return ds.records[i]
}

// Store maps device IDs to their histories. All access goes through one lock,
// so a reader never observes a partially appended record.
type Store struct {
	mu       sync.RWMutex
	capacity int
	devices  map[string]*deviceState
}

// New creates an empty Store. capacity <= 0 selects DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		devices:  make(map[string]*deviceState),
	}
}

// Register creates empty histories for id. It reports whether the device was
// new; registering a known device leaves its state untouched.
func (s *Store) Register(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[id]; ok {
		return false
	}
	s.devices[id] = newDeviceState(s.capacity)
	return true
}

// IsRegistered reports whether id has been registered.
func (s *Store) IsRegistered(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.devices[id]
	return ok
}

// Devices returns the registered IDs in lexical order.
func (s *Store) Devices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.devices))
	for id := range s.devices {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of registered devices.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}

// Append pushes rec onto the front of its class history. Status records with
// both coordinates also extend the location history.
func (s *Store) Append(id string, rec model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, ok := s.devices[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	h := ds.history(rec.Class())
	if h == nil {
		return fmt.Errorf("unsupported record class %q", rec.Class())
	}

	h.Push(rec)
	if st, ok := rec.(*model.StatusRecord); ok {
		if loc, ok := st.Location(); ok {
			ds.locations.Push(loc)
		}
	}
	return nil
}

// Latest returns the newest record of class c for id.
func (s *Store) Latest(id string, c model.Class) (model.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.devices[id]
	if !ok {
		return nil, false
	}
	h := ds.history(c)
	if h == nil {
		return nil, false
	}
	return h.Front()
}

// LatestLocation returns the newest known position of id.
func (s *Store) LatestLocation(id string) (model.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.devices[id]
	if !ok {
		return model.Location{}, false
	}
	return ds.locations.Front()
}

// History returns up to limit records of class c, newest first.
func (s *Store) History(id string, c model.Class, limit int) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	h := ds.history(c)
	if h == nil {
		return nil, fmt.Errorf("unsupported record class %q", c)
	}
	return h.Items(limit), nil
}

// Locations returns up to limit positions of id, newest first.
func (s *Store) Locations(id string, limit int) ([]model.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	return ds.locations.Items(limit), nil
}

// LatestStatus is Latest for the status class.
func (s *Store) LatestStatus(id string) (*model.StatusRecord, bool) {
	return latestAs[*model.StatusRecord](s, id, model.ClassStatus)
}

// LatestRFID is Latest for the rfid class.
func (s *Store) LatestRFID(id string) (*model.RFIDEvent, bool) {
	return latestAs[*model.RFIDEvent](s, id, model.ClassRFID)
}

// LatestSMS is Latest for the sms class.
func (s *Store) LatestSMS(id string) (*model.SMSEvent, bool) {
	return latestAs[*model.SMSEvent](s, id, model.ClassSMS)
}

// LatestGyroscope is Latest for the gyroscope class.
func (s *Store) LatestGyroscope(id string) (*model.GyroscopeEvent, bool) {
	return latestAs[*model.GyroscopeEvent](s, id, model.ClassGyroscope)
}

// LatestSecurity is Latest for the security class.
func (s *Store) LatestSecurity(id string) (*model.SecurityAlert, bool) {
	return latestAs[*model.SecurityAlert](s, id, model.ClassSecurity)
}

func latestAs[T model.Record](s *Store, id string, c model.Class) (T, bool) {
	var zero T
	rec, ok := s.Latest(id, c)
	if !ok {
		return zero, false
	}
	v, ok := rec.(T)
	return v, ok
}
