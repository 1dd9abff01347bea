package paths

// Topic suffixes of the truck protocol. Full topics are {root}/{IMEI}/{suffix}.

// Upstream: Truck -> Hub (telemetry)
const (
	// Status carries the periodic status report.
	// Pattern: truck/{IMEI}/status
	Status = "status"

	// RFID carries RFID reader events.
	// Pattern: truck/{IMEI}/rfid
	RFID = "rfid"

	// SMS carries commands received by the device over SMS.
	// Pattern: truck/{IMEI}/sms
	SMS = "sms"

	// Gyroscope carries detected-force events.
	// Pattern: truck/{IMEI}/gyroscope
	Gyroscope = "gyroscope"

	// Security carries tamper alerts (rope cut, box opened).
	// Pattern: truck/{IMEI}/security
	Security = "security"
)

// Downstream: Hub -> Truck (directives). Payload is "{value}".
const (
	// CommandLock locks or unlocks the device.
	CommandLock = "command/lock"

	// CommandConfigWIT updates the WIT sensor configuration.
	CommandConfigWIT = "command/config/wit"

	// CommandConfigRFID updates the RFID reader configuration.
	CommandConfigRFID = "command/config/rfid"

	// CommandConfigGyroscope updates the gyroscope sensitivity.
	CommandConfigGyroscope = "command/config/gyroscope"

	// CommandConfigPhoneNumber replaces the authorised phone number.
	CommandConfigPhoneNumber = "command/config/phoneNumber"
)

// Telemetry lists every upstream suffix a hub subscribes to per device.
var Telemetry = []string{Status, RFID, SMS, Gyroscope, Security}
