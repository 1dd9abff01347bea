package wire

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
)

// gpsSourceCell is the raw source code of cell-tower positioned reports.
const gpsSourceCell = "B"

// ValidationError reports a payload that does not fit any accepted layout of
// its class, or a field that does not parse.
type ValidationError struct {
	Class model.Class
	// Field is set for field-level failures.
	Field string
	Value string
	// Expected and Got are set for arity mismatches.
	Expected []int
	Got      int
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s payload: field %s=%q: %v", e.Class, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s payload: got %d fields, expected %v", e.Class, e.Got, e.Expected)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Decoder parses raw payloads into typed records.
type Decoder struct {
	legacy bool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLegacyLayouts makes the decoder accept layouts marked Legacy.
func WithLegacyLayouts(enabled bool) Option {
	return func(d *Decoder) { d.legacy = enabled }
}

// NewDecoder creates a Decoder. By default only current layouts are accepted.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Split trims the payload, strips one pair of enclosing braces and returns the
// trimmed comma-separated fields.
func Split(payload string) []string {
	s := strings.TrimSpace(payload)
	if len(s) >= 2 && s[0] == '{' && s[len(s)-1] == '}' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Decode parses payload as a message of class. The returned record carries
// the time-of-day and raw fields in its Header; the caller fills in device,
// topic and receive time.
func (d *Decoder) Decode(class model.Class, payload string) (model.Record, error) {
	byArity, ok := registry[class]
	if !ok {
		return nil, fmt.Errorf("no wire schema for class %q", class)
	}

	fields := Split(payload)
	schema, ok := byArity[len(fields)]
	if !ok || (schema.Legacy && !d.legacy) {
		return nil, &ValidationError{Class: class, Expected: d.arities(byArity), Got: len(fields)}
	}

	r := &fieldReader{schema: schema, values: fields}
	rec := schema.decode(r)
	if r.err != nil {
		return nil, r.err
	}

	h := rec.Meta()
	h.HH, h.MM, h.SS = fields[0], fields[1], fields[2]
	h.Fields = fields
	return rec, nil
}

func (d *Decoder) arities(byArity map[int]*Schema) []int {
	out := make([]int, 0, len(byArity))
	for n, s := range byArity {
		if s.Legacy && !d.legacy {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// fieldReader reads typed values by index and keeps the first failure.
type fieldReader struct {
	schema *Schema
	values []string
	err    error
}

func (r *fieldReader) str(i int) string {
	return r.values[i]
}

func (r *fieldReader) fail(i int, err error) {
	if r.err != nil {
		return
	}
	r.err = &ValidationError{
		Class: r.schema.Class,
		Field: r.schema.Fields[i],
		Value: r.values[i],
		Err:   err,
	}
}

func (r *fieldReader) float(i int) float64 {
	v, err := strconv.ParseFloat(r.values[i], 64)
	if err != nil {
		r.fail(i, err)
	}
	return v
}

func (r *fieldReader) floatPtr(i int) *float64 {
	v := r.float(i)
	return &v
}

// optFloatPtr is floatPtr for fields a device may leave empty.
func (r *fieldReader) optFloatPtr(i int) *float64 {
	if r.values[i] == "" {
		return nil
	}
	return r.floatPtr(i)
}

func (r *fieldReader) integer(i int) int {
	v, err := strconv.Atoi(r.values[i])
	if err != nil {
		r.fail(i, err)
	}
	return v
}

func decodeStatusV1(r *fieldReader) model.Record {
	rec := &model.StatusRecord{
		SchemaVersion: 1,
		Lat:           r.floatPtr(3),
		Lon:           r.floatPtr(4),
		Altitude:      r.floatPtr(5),
		GPSSourceCode: "G",
		Battery:       r.integer(6),
		LockCode:      r.str(7),
		Temperature:   r.float(8),
		RSSI:          r.integer(9),
		Counter:       r.integer(10),
		Queued:        r.integer(11),
	}
	rec.IsQueued = rec.Queued != 0
	return rec
}

func decodeStatusV3(r *fieldReader) model.Record {
	rec := &model.StatusRecord{
		SchemaVersion:    3,
		GPSSourceCode:    r.str(5),
		Speed:            r.float(10),
		Battery:          r.integer(11),
		LockCode:         r.str(12),
		Temperature:      r.float(13),
		RSSI:             r.integer(14),
		Counter:          r.integer(15),
		Queued:           r.integer(16),
		GeofenceCode:     r.str(17),
		GeofenceDistance: r.float(18),
		SpoofingCode:     r.str(19),
		JammingCode:      r.str(20),
	}
	rec.IsQueued = rec.Queued != 0

	if rec.GPSSourceCode == gpsSourceCell {
		// Position is resolved later from the serving cell. Reported
		// coordinates may be empty but must still be numeric.
		rec.Lat = r.optFloatPtr(3)
		rec.Lon = r.optFloatPtr(4)
		rec.Cell = &model.CellInfo{
			MCC:    r.str(6),
			MNC:    r.str(7),
			LAC:    r.str(8),
			CellID: r.str(9),
		}
	} else {
		rec.Lat = r.floatPtr(3)
		rec.Lon = r.floatPtr(4)
	}
	return rec
}

func decodeRFID(r *fieldReader) model.Record {
	return &model.RFIDEvent{
		Serial:     r.str(3),
		ActionCode: r.str(4),
	}
}

func decodeSMS(r *fieldReader) model.Record {
	return &model.SMSEvent{
		PhoneNumber: r.str(3),
		ActionCode:  r.str(4),
	}
}

func decodeGyroscope(r *fieldReader) model.Record {
	return &model.GyroscopeEvent{
		Force: r.float(3),
	}
}

func decodeSecurity(r *fieldReader) model.Record {
	return &model.SecurityAlert{
		AlertCode: r.str(3),
	}
}
