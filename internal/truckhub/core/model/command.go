package model

import (
	"time"

	"github.com/autopeer-io/truckhub/internal/pkg/mqtt/paths"
)

// CommandKind defines the type of directive sent to a truck.
type CommandKind string

const (
	CommandLock            CommandKind = "lock"
	CommandWITConfig       CommandKind = "wit-config"
	CommandRFIDConfig      CommandKind = "rfid-config"
	CommandGyroscopeConfig CommandKind = "gyroscope-config"
	CommandPhoneNumber     CommandKind = "phone-number"
)

// commandSuffixes maps each kind to its downstream topic suffix.
var commandSuffixes = map[CommandKind]string{
	CommandLock:            paths.CommandLock,
	CommandWITConfig:       paths.CommandConfigWIT,
	CommandRFIDConfig:      paths.CommandConfigRFID,
	CommandGyroscopeConfig: paths.CommandConfigGyroscope,
	CommandPhoneNumber:     paths.CommandConfigPhoneNumber,
}

// CommandKinds lists every supported kind.
var CommandKinds = []CommandKind{
	CommandLock, CommandWITConfig, CommandRFIDConfig, CommandGyroscopeConfig, CommandPhoneNumber,
}

// TopicSuffix returns the downstream topic suffix for k.
func (k CommandKind) TopicSuffix() (string, bool) {
	s, ok := commandSuffixes[k]
	return s, ok
}

// CommandResult describes a published directive. Delivery is not confirmed.
type CommandResult struct {
	// ID correlates the publish in logs.
	ID       string      `json:"id"`
	DeviceID string      `json:"imei"`
	Kind     CommandKind `json:"kind"`
	Topic    string      `json:"topic"`
	Message  string      `json:"message"`
	SentAt   time.Time   `json:"sentAt"`
}
