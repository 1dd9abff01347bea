// Package normalize derives display values from the coded fields of decoded
// telemetry and resolves positions reported by cell tower.
package normalize

import (
	"fmt"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
)

// Display values.
const (
	SignalNone       = "No Signal"
	SignalVeryWeak   = "Very Weak"
	SignalWeak       = "Weak"
	SignalModerate   = "Moderate"
	SignalStrong     = "Strong"
	SignalVeryStrong = "Very Strong"
	SignalInvalid    = "Invalid"

	SourceGPS       = "GPS"
	SourceCellTower = "cell-tower"

	LockLocked    = "Locked"
	LockUnlocked  = "Unlocked"
	LockUndefined = "Undefined"

	GeofenceIn  = "in-geofence"
	GeofenceOut = "out-of-geofence"

	FlagJamming  = "Jamming"
	FlagSpoofing = "Spoofing"

	BatteryFull    = "100"
	BatteryInvalid = "Invalid"

	ActionLock    = "Lock command"
	ActionUnlock  = "Unlock command"
	ActionUnknown = "Unknown command"

	AlertRopeCut   = "Rope cut"
	AlertBoxOpened = "Box opened"
)

// SignalStrength classifies a raw RSSI reading (0..31, modem CSQ scale).
func SignalStrength(rssi int) string {
	switch {
	case rssi == 0:
		return SignalNone
	case rssi >= 1 && rssi <= 6:
		return SignalVeryWeak
	case rssi >= 7 && rssi <= 12:
		return SignalWeak
	case rssi >= 13 && rssi <= 20:
		return SignalModerate
	case rssi >= 21 && rssi <= 26:
		return SignalStrong
	case rssi >= 27 && rssi <= 31:
		return SignalVeryStrong
	default:
		return SignalInvalid
	}
}

// GPSSource maps G and B; other codes pass through.
func GPSSource(code string) string {
	switch code {
	case "G":
		return SourceGPS
	case "B":
		return SourceCellTower
	default:
		return code
	}
}

// LockState maps L and U; anything else is undefined.
func LockState(code string) string {
	switch code {
	case "L":
		return LockLocked
	case "U":
		return LockUnlocked
	default:
		return LockUndefined
	}
}

// GeofenceState maps Y and N; other codes pass through.
func GeofenceState(code string) string {
	switch code {
	case "Y":
		return GeofenceIn
	case "N":
		return GeofenceOut
	default:
		return code
	}
}

// Jamming maps J to a flag and V (valid) to empty; other codes pass through.
func Jamming(code string) string {
	switch code {
	case "J":
		return FlagJamming
	case "V":
		return ""
	default:
		return code
	}
}

// Spoofing maps S to a flag and V (valid) to empty; other codes pass through.
func Spoofing(code string) string {
	switch code {
	case "S":
		return FlagSpoofing
	case "V":
		return ""
	default:
		return code
	}
}

// BatteryBand renders the device battery band 0..9 as a decile range.
func BatteryBand(band int) string {
	switch {
	case band < 0:
		return BatteryInvalid
	case band >= 10:
		return BatteryFull
	default:
		return fmt.Sprintf("%d ~ %d", band*10, (band+1)*10)
	}
}

// RFIDAction maps the reader action code.
func RFIDAction(code string) string {
	switch code {
	case "L":
		return ActionLock
	case "U":
		return ActionUnlock
	default:
		return ActionUnknown
	}
}

// SMSAction maps the SMS action code; unrecognised codes pass through.
func SMSAction(code string) string {
	switch code {
	case "L":
		return ActionLock
	case "U":
		return ActionUnlock
	default:
		return code
	}
}

// SecurityAlert maps the tamper alert code; unrecognised codes pass through.
func SecurityAlert(code string) string {
	switch code {
	case "R":
		return AlertRopeCut
	case "B":
		return AlertBoxOpened
	default:
		return code
	}
}

// Apply fills the derived display fields of rec in place.
func Apply(rec model.Record) {
	switch r := rec.(type) {
	case *model.StatusRecord:
		r.GPSSource = GPSSource(r.GPSSourceCode)
		r.BatteryBand = BatteryBand(r.Battery)
		r.LockState = LockState(r.LockCode)
		r.SignalStrength = SignalStrength(r.RSSI)
		r.Geofence = GeofenceState(r.GeofenceCode)
		r.Spoofing = Spoofing(r.SpoofingCode)
		r.Jamming = Jamming(r.JammingCode)
	case *model.RFIDEvent:
		r.Action = RFIDAction(r.ActionCode)
	case *model.SMSEvent:
		r.Action = SMSAction(r.ActionCode)
	case *model.SecurityAlert:
		r.Alert = SecurityAlert(r.AlertCode)
	}
}
