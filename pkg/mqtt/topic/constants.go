package topic

// MQTT wildcard tokens.
const (
	// Wildcard matches exactly one topic level.
	// Example: "truck/+/status" matches "truck/123456789012345/status".
	Wildcard = "+"

	// MultiWildcard matches the current level and all below it, and must be last.
	// Example: "truck/123456789012345/#" matches ".../command/config/wit".
	MultiWildcard = "#"
)
