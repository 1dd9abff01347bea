package wire

import (
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
)

// Schema is one versioned field layout of a message class.
type Schema struct {
	Class   model.Class
	Version int
	// Fields names every wire field in order; len(Fields) is the arity.
	Fields []string
	// Legacy layouts are only accepted when the decoder enables them.
	Legacy bool

	decode func(r *fieldReader) model.Record
}

// Arity returns the number of fields the layout carries.
func (s *Schema) Arity() int {
	return len(s.Fields)
}

// StatusV1 is the first dashboard layout, without cell or geofence data.
var StatusV1 = &Schema{
	Class:   model.ClassStatus,
	Version: 1,
	Legacy:  true,
	Fields: []string{
		"HH", "MM", "SS", "lat", "lon", "alt", "batt", "lock", "temp", "rssi", "cnt", "queued",
	},
	decode: decodeStatusV1,
}

// StatusV3 is the current status layout.
var StatusV3 = &Schema{
	Class:   model.ClassStatus,
	Version: 3,
	Fields: []string{
		"HH", "MM", "SS", "lat", "lon", "source", "mcc", "mnc", "lac", "cid",
		"speed", "batt", "lock", "temp", "rssi", "cnt", "queued",
		"geofence", "geofenceDistance", "spoofing", "jamming",
	},
	decode: decodeStatusV3,
}

var RFIDV1 = &Schema{
	Class:   model.ClassRFID,
	Version: 1,
	Fields:  []string{"HH", "MM", "SS", "serial", "action"},
	decode:  decodeRFID,
}

var SMSV1 = &Schema{
	Class:   model.ClassSMS,
	Version: 1,
	Fields:  []string{"HH", "MM", "SS", "phoneNumber", "action"},
	decode:  decodeSMS,
}

var GyroscopeV1 = &Schema{
	Class:   model.ClassGyroscope,
	Version: 1,
	Fields:  []string{"HH", "MM", "SS", "force"},
	decode:  decodeGyroscope,
}

var SecurityV1 = &Schema{
	Class:   model.ClassSecurity,
	Version: 1,
	Fields:  []string{"HH", "MM", "SS", "alert"},
	decode:  decodeSecurity,
}

// registry maps class -> arity -> schema.
var registry = map[model.Class]map[int]*Schema{}

func register(schemas ...*Schema) {
	for _, s := range schemas {
		byArity, ok := registry[s.Class]
		if !ok {
			byArity = map[int]*Schema{}
			registry[s.Class] = byArity
		}
		if _, dup := byArity[s.Arity()]; dup {
			panic("wire: duplicate arity for class " + string(s.Class))
		}
		byArity[s.Arity()] = s
	}
}

func init() {
	register(StatusV1, StatusV3, RFIDV1, SMSV1, GyroscopeV1, SecurityV1)
}

// Current returns the newest non-legacy schema of a class.
func Current(class model.Class) (*Schema, bool) {
	var cur *Schema
	for _, s := range registry[class] {
		if s.Legacy {
			continue
		}
		if cur == nil || s.Version > cur.Version {
			cur = s
		}
	}
	return cur, cur != nil
}

// Lookup returns the schema of class with the given version.
func Lookup(class model.Class, version int) (*Schema, bool) {
	for _, s := range registry[class] {
		if s.Version == version {
			return s, true
		}
	}
	return nil, false
}

// SchemaOf returns the layout rec was decoded from.
func SchemaOf(rec model.Record) (*Schema, bool) {
	if st, ok := rec.(*model.StatusRecord); ok && st.SchemaVersion != 0 {
		return Lookup(model.ClassStatus, st.SchemaVersion)
	}
	return Current(rec.Class())
}
