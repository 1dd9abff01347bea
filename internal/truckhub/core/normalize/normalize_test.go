package normalize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
)

func TestSignalStrength(t *testing.T) {
	tests := []struct {
		rssi int
		want string
	}{
		{0, SignalNone},
		{1, SignalVeryWeak},
		{6, SignalVeryWeak},
		{7, SignalWeak},
		{12, SignalWeak},
		{13, SignalModerate},
		{20, SignalModerate},
		{21, SignalStrong},
		{26, SignalStrong},
		{27, SignalVeryStrong},
		{31, SignalVeryStrong},
		{32, SignalInvalid},
		{99, SignalInvalid},
		{-1, SignalInvalid},
	}

	for _, tt := range tests {
		if got := SignalStrength(tt.rssi); got != tt.want {
			t.Errorf("SignalStrength(%d) = %q, want %q", tt.rssi, got, tt.want)
		}
	}
}

func TestBatteryBand(t *testing.T) {
	tests := []struct {
		band int
		want string
	}{
		{0, "0 ~ 10"},
		{4, "40 ~ 50"},
		{9, "90 ~ 100"},
		{10, "100"},
		{42, "100"},
		{-3, BatteryInvalid},
	}

	for _, tt := range tests {
		if got := BatteryBand(tt.band); got != tt.want {
			t.Errorf("BatteryBand(%d) = %q, want %q", tt.band, got, tt.want)
		}
	}
}

func TestCodeMappings(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"gps G", GPSSource, "G", SourceGPS},
		{"gps B", GPSSource, "B", SourceCellTower},
		{"gps passthrough", GPSSource, "W", "W"},
		{"lock L", LockState, "L", LockLocked},
		{"lock U", LockState, "U", LockUnlocked},
		{"lock other", LockState, "X", LockUndefined},
		{"lock empty", LockState, "", LockUndefined},
		{"geofence Y", GeofenceState, "Y", GeofenceIn},
		{"geofence N", GeofenceState, "N", GeofenceOut},
		{"geofence passthrough", GeofenceState, "?", "?"},
		{"jamming J", Jamming, "J", FlagJamming},
		{"jamming V", Jamming, "V", ""},
		{"spoofing S", Spoofing, "S", FlagSpoofing},
		{"spoofing V", Spoofing, "V", ""},
		{"rfid L", RFIDAction, "L", ActionLock},
		{"rfid U", RFIDAction, "U", ActionUnlock},
		{"rfid other", RFIDAction, "Z", ActionUnknown},
		{"sms L", SMSAction, "L", ActionLock},
		{"sms U", SMSAction, "U", ActionUnlock},
		{"sms passthrough", SMSAction, "STATUS", "STATUS"},
		{"security R", SecurityAlert, "R", AlertRopeCut},
		{"security B", SecurityAlert, "B", AlertBoxOpened},
		{"security passthrough", SecurityAlert, "T7", "T7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseCellToken(t *testing.T) {
	tests := []struct {
		tok     string
		want    uint64
		wantErr bool
	}{
		{"432", 432, false},
		{"011", 11, false},
		{"1A2B", 0x1a2b, false},
		{"ff", 0xff, false},
		{"0x10", 0x10, false},
		{"0X1f", 0x1f, false},
		{"", 0, true},
		{"12G", 0, true},
		{"-5", 0, true},
		{"zz", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			got, err := ParseCellToken(tt.tok)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCellToken(%q) error = %v, wantErr %v", tt.tok, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCellToken(%q) = %d, want %d", tt.tok, got, tt.want)
			}
		})
	}
}

type stubResolver struct {
	loc   model.Location
	err   error
	calls int
	last  core.CellQuery
	delay time.Duration
}

func (s *stubResolver) Resolve(ctx context.Context, q core.CellQuery) (model.Location, error) {
	s.calls++
	s.last = q
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return model.Location{}, ctx.Err()
		}
	}
	return s.loc, s.err
}

func ptr(f float64) *float64 { return &f }

func cellRecord() *model.StatusRecord {
	return &model.StatusRecord{
		GPSSourceCode: "B",
		Lat:           ptr(1),
		Lon:           ptr(2),
		Cell:          &model.CellInfo{MCC: "432", MNC: "11", LAC: "1A2B", CellID: "15661"},
		RSSI:          18,
		Battery:       7,
		LockCode:      "L",
	}
}

func TestNormalizeGPSDoesNotResolve(t *testing.T) {
	res := &stubResolver{loc: model.Location{Lat: 9, Lon: 9}}
	n := New(res)

	rec := &model.StatusRecord{GPSSourceCode: "G", Lat: ptr(35.7), Lon: ptr(51.4), RSSI: 25, Battery: 3, LockCode: "U"}
	if err := n.Normalize(context.Background(), rec); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if res.calls != 0 {
		t.Errorf("resolver called %d times for GPS record", res.calls)
	}
	if *rec.Lat != 35.7 || *rec.Lon != 51.4 {
		t.Errorf("coordinates changed: %v, %v", *rec.Lat, *rec.Lon)
	}
	if rec.GPSSource != SourceGPS || rec.SignalStrength != SignalStrong || rec.BatteryBand != "30 ~ 40" || rec.LockState != LockUnlocked {
		t.Errorf("derived fields not applied: %+v", rec)
	}
}

func TestNormalizeCellTowerResolved(t *testing.T) {
	res := &stubResolver{loc: model.Location{Lat: 35.72, Lon: 51.82}}
	n := New(res, WithRadio("lte"))

	rec := cellRecord()
	if err := n.Normalize(context.Background(), rec); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := core.CellQuery{MCC: 432, MNC: 11, LAC: 0x1a2b, CellID: 15661, Radio: "lte"}
	if res.last != want {
		t.Errorf("query = %+v, want %+v", res.last, want)
	}
	if rec.Lat == nil || *rec.Lat != 35.72 || rec.Lon == nil || *rec.Lon != 51.82 {
		t.Errorf("coordinates = %v, %v", rec.Lat, rec.Lon)
	}
}

func TestNormalizeCellTowerFailures(t *testing.T) {
	tests := []struct {
		name     string
		resolver core.Resolver
		mutate   func(r *model.StatusRecord)
		check    func(t *testing.T, err error)
	}{
		{
			name:     "lookup error",
			resolver: &stubResolver{err: core.ErrLocationNotFound},
			check: func(t *testing.T, err error) {
				var le *LookupError
				if !errors.As(err, &le) || !errors.Is(err, core.ErrLocationNotFound) {
					t.Errorf("got %v, want LookupError wrapping ErrLocationNotFound", err)
				}
			},
		},
		{
			name:     "timeout",
			resolver: &stubResolver{delay: time.Second},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, context.DeadlineExceeded) {
					t.Errorf("got %v, want deadline exceeded", err)
				}
			},
		},
		{
			name:     "no resolver",
			resolver: nil,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNoResolver) {
					t.Errorf("got %v, want ErrNoResolver", err)
				}
			},
		},
		{
			name:     "invalid cell token",
			resolver: &stubResolver{loc: model.Location{Lat: 1, Lon: 1}},
			mutate:   func(r *model.StatusRecord) { r.Cell.LAC = "XYZ" },
			check: func(t *testing.T, err error) {
				var ce *CellError
				if !errors.As(err, &ce) || ce.Field != "lac" {
					t.Errorf("got %v, want CellError for lac", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.resolver, WithTimeout(20*time.Millisecond))
			rec := cellRecord()
			if tt.mutate != nil {
				tt.mutate(rec)
			}

			err := n.Normalize(context.Background(), rec)
			tt.check(t, err)

			if rec.Lat != nil || rec.Lon != nil {
				t.Errorf("coordinates should stay null, got %v, %v", rec.Lat, rec.Lon)
			}
			if rec.SignalStrength != SignalModerate || rec.LockState != LockLocked {
				t.Errorf("derived fields missing after failed lookup: %+v", rec)
			}
		})
	}
}
