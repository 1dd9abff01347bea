package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*JournalOptions)(nil)

// JournalOptions configures the flat-file journal.
type JournalOptions struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Dir     string `json:"dir" mapstructure:"dir"`

	// ArchiveInterval is how often files are rotated and uploaded when S3 is configured.
	ArchiveInterval time.Duration `json:"archive-interval" mapstructure:"archive-interval"`

	// ArchivePrefix is prepended to object keys.
	ArchivePrefix string `json:"archive-prefix" mapstructure:"archive-prefix"`
}

// NewJournalOptions creates a JournalOptions object with default parameters.
func NewJournalOptions() *JournalOptions {
	return &JournalOptions{
		Dir:             "data/journal",
		ArchiveInterval: time.Hour,
		ArchivePrefix:   "journal",
	}
}

func (o *JournalOptions) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	errors := []error{}

	if o.Dir == "" {
		errors = append(errors, fmt.Errorf("--journal.dir is required when the journal is enabled"))
	}
	if o.ArchiveInterval < time.Minute {
		errors = append(errors, fmt.Errorf("--journal.archive-interval must be at least 1m"))
	}

	return errors
}

func (o *JournalOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "journal.enabled", o.Enabled, "Append every stored record to a per-truck CSV file.")
	fs.StringVar(&o.Dir, "journal.dir", o.Dir, "Directory of the journal files.")
	fs.DurationVar(&o.ArchiveInterval, "journal.archive-interval", o.ArchiveInterval, "Rotation and upload interval when S3 is configured.")
	fs.StringVar(&o.ArchivePrefix, "journal.archive-prefix", o.ArchivePrefix, "Object key prefix of archived journal files.")
}
