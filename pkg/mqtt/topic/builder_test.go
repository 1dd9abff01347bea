package topic

import "testing"

func TestBuilderBuild(t *testing.T) {
	b := NewBuilder("/truck/")

	if got := b.Build("123456789012345", "status"); got != "truck/123456789012345/status" {
		t.Errorf("Build() = %q", got)
	}
	if got := b.Build("123456789012345", "command/config/wit"); got != "truck/123456789012345/command/config/wit" {
		t.Errorf("Build() = %q", got)
	}
	if got := b.BuildWildcard("rfid"); got != "truck/+/rfid" {
		t.Errorf("BuildWildcard() = %q", got)
	}
}

func TestBuilderParse(t *testing.T) {
	b := NewBuilder("truck")

	tests := []struct {
		topic      string
		wantID     string
		wantSuffix string
		wantOK     bool
	}{
		{"truck/123456789012345/status", "123456789012345", "status", true},
		{"truck/42/command/config/rfid", "42", "command/config/rfid", true},
		{"truck/42", "", "", false},
		{"truck//status", "", "", false},
		{"car/42/status", "", "", false},
		{"truckers/42/status", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			id, suffix, ok := b.Parse(tt.topic)
			if ok != tt.wantOK || id != tt.wantID || suffix != tt.wantSuffix {
				t.Errorf("Parse(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.topic, id, suffix, ok, tt.wantID, tt.wantSuffix, tt.wantOK)
			}
		})
	}
}
