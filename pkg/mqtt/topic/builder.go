package topic

import (
	"fmt"
	"strings"
)

// Builder constructs and parses the per-device topic strings.
// Pattern: {root}/{deviceID}/{suffix}, where suffix may span several levels
// (e.g. "command/config/wit").
type Builder struct {
	// root is the base namespace for all topics (e.g. "truck").
	root string
}

// NewBuilder creates a Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.Trim(root, "/")}
}

// Build returns {root}/{deviceID}/{suffix}.
func (b *Builder) Build(deviceID, suffix string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, deviceID, suffix)
}

// BuildWildcard returns the topic matching suffix for every device: {root}/+/{suffix}.
func (b *Builder) BuildWildcard(suffix string) string {
	return b.Build(Wildcard, suffix)
}

// Parse splits a concrete topic into device identifier and suffix.
// It reports false when the topic is outside the root namespace or has no suffix.
func (b *Builder) Parse(topic string) (deviceID, suffix string, ok bool) {
	rest, found := strings.CutPrefix(topic, b.root+"/")
	if !found {
		return "", "", false
	}
	deviceID, suffix, found = strings.Cut(rest, "/")
	if !found || deviceID == "" || suffix == "" {
		return "", "", false
	}
	return deviceID, suffix, true
}
