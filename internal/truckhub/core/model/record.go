package model

import (
	"fmt"
	"time"

	"github.com/autopeer-io/truckhub/internal/pkg/mqtt/paths"
)

// Class identifies one of the telemetry message classes a truck publishes.
// Its value is the topic suffix the class arrives on.
type Class string

const (
	ClassStatus    Class = paths.Status
	ClassRFID      Class = paths.RFID
	ClassSMS       Class = paths.SMS
	ClassGyroscope Class = paths.Gyroscope
	ClassSecurity  Class = paths.Security
)

// Classes lists every message class in a stable order.
var Classes = []Class{ClassStatus, ClassRFID, ClassSMS, ClassGyroscope, ClassSecurity}

// ParseClass maps a topic suffix or API path segment to a Class.
func ParseClass(s string) (Class, error) {
	for _, c := range Classes {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown message class %q", s)
}

// Index returns the position of c in Classes, or -1.
func (c Class) Index() int {
	for i, cc := range Classes {
		if cc == c {
			return i
		}
	}
	return -1
}

// Record is implemented by every decoded telemetry message.
type Record interface {
	Class() Class
	Meta() *Header
}

// Header carries what every class shares: when and where it was received,
// the device-reported time of day and the raw wire fields.
type Header struct {
	DeviceID   string    `json:"imei"`
	Topic      string    `json:"topic"`
	ReceivedAt time.Time `json:"timestamp"`

	HH string `json:"HH"`
	MM string `json:"MM"`
	SS string `json:"SS"`

	// Fields are the trimmed wire fields in order, kept for the journal.
	Fields []string `json:"-"`
}

// Location is a resolved position.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CellInfo identifies the serving cell when the position comes from the
// cell network instead of GPS. Tokens are kept as sent; they may be hex or decimal.
type CellInfo struct {
	MCC    string `json:"mcc"`
	MNC    string `json:"mnc"`
	LAC    string `json:"lac"`
	CellID string `json:"cellId"`
}

// StatusRecord is the periodic status report.
type StatusRecord struct {
	Header

	// SchemaVersion is the wire layout the record was decoded from.
	SchemaVersion int `json:"schemaVersion"`

	// Lat and Lon are nil until known; cell-tower reports start out nil and
	// are filled by geolocation.
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`

	GPSSourceCode string    `json:"gpsSourceCode,omitempty"`
	GPSSource     string    `json:"gpsSource,omitempty"`
	Cell          *CellInfo `json:"cell,omitempty"`

	// Altitude is only present in the legacy layout.
	Altitude *float64 `json:"alt,omitempty"`

	Speed float64 `json:"speed"`

	Battery     int    `json:"batt"`
	BatteryBand string `json:"battery"`

	LockCode  string `json:"lockCode"`
	LockState string `json:"lockStatus"`

	Temperature float64 `json:"temperature"`

	RSSI           int    `json:"rssi"`
	SignalStrength string `json:"signalStrength"`

	Counter  int  `json:"cnt"`
	Queued   int  `json:"queued"`
	IsQueued bool `json:"isQueued"`

	GeofenceCode     string  `json:"geofenceCode,omitempty"`
	Geofence         string  `json:"geofence,omitempty"`
	GeofenceDistance float64 `json:"geofenceDistance"`

	SpoofingCode string `json:"spoofingCode,omitempty"`
	Spoofing     string `json:"spoofing"`
	JammingCode  string `json:"jammingCode,omitempty"`
	Jamming      string `json:"jamming"`
}

func (r *StatusRecord) Class() Class  { return ClassStatus }
func (r *StatusRecord) Meta() *Header { return &r.Header }

// Location returns the position when both coordinates are known.
func (r *StatusRecord) Location() (Location, bool) {
	if r.Lat == nil || r.Lon == nil {
		return Location{}, false
	}
	return Location{Lat: *r.Lat, Lon: *r.Lon}, true
}

// RFIDEvent is an RFID tag presented to the reader.
type RFIDEvent struct {
	Header

	Serial     string `json:"serial"`
	ActionCode string `json:"actionCode"`
	Action     string `json:"action"`
}

func (r *RFIDEvent) Class() Class  { return ClassRFID }
func (r *RFIDEvent) Meta() *Header { return &r.Header }

// SMSEvent is a command the device received by SMS.
type SMSEvent struct {
	Header

	PhoneNumber string `json:"phoneNumber"`
	ActionCode  string `json:"actionCode"`
	Action      string `json:"action"`
}

func (r *SMSEvent) Class() Class  { return ClassSMS }
func (r *SMSEvent) Meta() *Header { return &r.Header }

// GyroscopeEvent reports a detected force above the configured threshold.
type GyroscopeEvent struct {
	Header

	Force float64 `json:"force"`
}

func (r *GyroscopeEvent) Class() Class  { return ClassGyroscope }
func (r *GyroscopeEvent) Meta() *Header { return &r.Header }

// SecurityAlert reports tampering.
type SecurityAlert struct {
	Header

	AlertCode string `json:"alertCode"`
	Alert     string `json:"alert"`
}

func (r *SecurityAlert) Class() Class  { return ClassSecurity }
func (r *SecurityAlert) Meta() *Header { return &r.Header }
