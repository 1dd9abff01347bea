package store

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
)

const imei = "123456789012345"

func status(counter int, lat, lon *float64) *model.StatusRecord {
	return &model.StatusRecord{Counter: counter, Lat: lat, Lon: lon}
}

func f(v float64) *float64 { return &v }

func TestHistorySlidingWindow(t *testing.T) {
	h := NewHistory[int](3)
	if _, ok := h.Front(); ok {
		t.Fatal("Front() on empty history reported a value")
	}

	for i := 1; i <= 4; i++ {
		h.Push(i)
	}

	if h.Len() != 3 || h.Cap() != 3 {
		t.Fatalf("Len/Cap = %d/%d, want 3/3", h.Len(), h.Cap())
	}
	got := h.Items(0)
	want := []int{4, 3, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Items() = %v, want %v", got, want)
		}
	}
	if items := h.Items(2); len(items) != 2 || items[0] != 4 || items[1] != 3 {
		t.Errorf("Items(2) = %v", items)
	}
	if items := h.Items(10); len(items) != 3 {
		t.Errorf("Items(10) len = %d", len(items))
	}
}

func TestNewHistoryDefaultCapacity(t *testing.T) {
	if c := NewHistory[string](0).Cap(); c != DefaultCapacity {
		t.Errorf("Cap() = %d, want %d", c, DefaultCapacity)
	}
}

func TestRegister(t *testing.T) {
	s := New(0)

	if !s.Register(imei) {
		t.Fatal("first Register() = false")
	}
	if err := s.Append(imei, status(1, nil, nil)); err != nil {
		t.Fatal(err)
	}
	if s.Register(imei) {
		t.Error("second Register() = true")
	}
	if _, ok := s.LatestStatus(imei); !ok {
		t.Error("re-registering cleared existing history")
	}
	if !s.IsRegistered(imei) || s.Len() != 1 {
		t.Errorf("IsRegistered/Len = %v/%d", s.IsRegistered(imei), s.Len())
	}
}

func TestAppendUnknownDevice(t *testing.T) {
	s := New(0)
	err := s.Append(imei, status(1, nil, nil))
	if !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("Append() error = %v, want ErrUnknownDevice", err)
	}
	if _, ok := s.Latest(imei, model.ClassStatus); ok {
		t.Error("record stored for unknown device")
	}
	if _, err := s.History(imei, model.ClassStatus, 0); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("History() error = %v", err)
	}
}

func TestAppendCapacityPlusOne(t *testing.T) {
	s := New(DefaultCapacity)
	s.Register(imei)

	for i := 0; i <= DefaultCapacity; i++ {
		if err := s.Append(imei, status(i, f(1), f(2))); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.History(imei, model.ClassStatus, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != DefaultCapacity {
		t.Fatalf("len = %d, want %d", len(recs), DefaultCapacity)
	}
	if front := recs[0].(*model.StatusRecord); front.Counter != DefaultCapacity {
		t.Errorf("front counter = %d, want %d", front.Counter, DefaultCapacity)
	}
	for _, r := range recs {
		if r.(*model.StatusRecord).Counter == 0 {
			t.Fatal("oldest record still present")
		}
	}

	locs, _ := s.Locations(imei, 0)
	if len(locs) != DefaultCapacity {
		t.Errorf("locations len = %d", len(locs))
	}
}

func TestLocationHistorySkipsNullCoordinates(t *testing.T) {
	s := New(0)
	s.Register(imei)

	if _, ok := s.LatestLocation(imei); ok {
		t.Fatal("location reported before any status")
	}

	_ = s.Append(imei, status(1, f(35.7), f(51.4)))
	_ = s.Append(imei, status(2, nil, nil))
	_ = s.Append(imei, status(3, f(10), nil))

	loc, ok := s.LatestLocation(imei)
	if !ok || loc.Lat != 35.7 || loc.Lon != 51.4 {
		t.Errorf("LatestLocation() = %+v, %v", loc, ok)
	}
	if locs, _ := s.Locations(imei, 0); len(locs) != 1 {
		t.Errorf("locations len = %d, want 1", len(locs))
	}
	if st, _ := s.LatestStatus(imei); st.Counter != 3 {
		t.Errorf("latest status counter = %d, want 3", st.Counter)
	}
}

func TestClassesAreIndependent(t *testing.T) {
	s := New(0)
	s.Register(imei)

	_ = s.Append(imei, &model.RFIDEvent{Serial: "04A1"})
	_ = s.Append(imei, &model.SMSEvent{PhoneNumber: "+98912"})
	_ = s.Append(imei, &model.GyroscopeEvent{Force: 2.5})
	_ = s.Append(imei, &model.SecurityAlert{AlertCode: "R"})

	if _, ok := s.LatestStatus(imei); ok {
		t.Error("status history should be empty")
	}
	if r, ok := s.LatestRFID(imei); !ok || r.Serial != "04A1" {
		t.Errorf("LatestRFID() = %+v, %v", r, ok)
	}
	if r, ok := s.LatestSMS(imei); !ok || r.PhoneNumber != "+98912" {
		t.Errorf("LatestSMS() = %+v, %v", r, ok)
	}
	if r, ok := s.LatestGyroscope(imei); !ok || r.Force != 2.5 {
		t.Errorf("LatestGyroscope() = %+v, %v", r, ok)
	}
	if r, ok := s.LatestSecurity(imei); !ok || r.AlertCode != "R" {
		t.Errorf("LatestSecurity() = %+v, %v", r, ok)
	}
	if _, ok := s.LatestLocation(imei); ok {
		t.Error("non-status records must not touch location history")
	}
}

func TestDevicesSorted(t *testing.T) {
	s := New(0)
	for _, id := range []string{"3", "1", "2"} {
		s.Register(id)
	}
	got := s.Devices()
	if len(got) != 3 || got[0] != "1" || got[2] != "3" {
		t.Errorf("Devices() = %v", got)
	}
}

func TestConcurrentAppend(t *testing.T) {
	s := New(50)
	const devices, perDevice = 8, 200

	for d := 0; d < devices; d++ {
		s.Register(strconv.Itoa(d))
	}

	var wg sync.WaitGroup
	for d := 0; d < devices; d++ {
		wg.Add(2)
		id := strconv.Itoa(d)
		go func() {
			defer wg.Done()
			for i := 0; i < perDevice; i++ {
				_ = s.Append(id, status(i, f(1), f(1)))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < perDevice; i++ {
				s.LatestStatus(id)
				s.LatestLocation(id)
			}
		}()
	}
	wg.Wait()

	for d := 0; d < devices; d++ {
		recs, _ := s.History(strconv.Itoa(d), model.ClassStatus, 0)
		if len(recs) != 50 {
			t.Errorf("device %d len = %d", d, len(recs))
		}
		if recs[0].(*model.StatusRecord).Counter != perDevice-1 {
			t.Errorf("device %d front = %d", d, recs[0].(*model.StatusRecord).Counter)
		}
	}
}
