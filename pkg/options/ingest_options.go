package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*IngestOptions)(nil)

// IngestOptions tunes the telemetry pipeline and the device registry.
type IngestOptions struct {
	// Workers is the number of ingestion loops; messages are sharded by device.
	Workers int `json:"workers" mapstructure:"workers"`

	// QueueSize is the inbound buffer of each loop.
	QueueSize int `json:"queue-size" mapstructure:"queue-size"`

	// HistorySize is the number of records kept per device and class.
	HistorySize int `json:"history-size" mapstructure:"history-size"`

	// AutoRegister registers devices on their first message.
	AutoRegister bool `json:"auto-register" mapstructure:"auto-register"`

	// LegacyStatus also accepts the 12-field status layout.
	LegacyStatus bool `json:"legacy-status" mapstructure:"legacy-status"`

	// Devices are registered at startup and whenever the config file changes.
	Devices []string `json:"devices" mapstructure:"devices"`
}

// NewIngestOptions creates an IngestOptions object with default parameters.
func NewIngestOptions() *IngestOptions {
	return &IngestOptions{
		Workers:     1,
		QueueSize:   256,
		HistorySize: 100,
	}
}

func (o *IngestOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.Workers <= 0 {
		errors = append(errors, fmt.Errorf("--ingest.workers must be positive"))
	}
	if o.QueueSize <= 0 {
		errors = append(errors, fmt.Errorf("--ingest.queue-size must be positive"))
	}
	if o.HistorySize <= 0 {
		errors = append(errors, fmt.Errorf("--ingest.history-size must be positive"))
	}

	return errors
}

func (o *IngestOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.Workers, "ingest.workers", o.Workers, "Number of ingestion workers. Messages of one truck always go to the same worker.")
	fs.IntVar(&o.QueueSize, "ingest.queue-size", o.QueueSize, "Inbound queue size per worker.")
	fs.IntVar(&o.HistorySize, "ingest.history-size", o.HistorySize, "Records kept per truck and message class.")
	fs.BoolVar(&o.AutoRegister, "ingest.auto-register", o.AutoRegister, "Register unknown trucks on their first message instead of dropping it.")
	fs.BoolVar(&o.LegacyStatus, "ingest.legacy-status", o.LegacyStatus, "Also accept the legacy 12-field status layout.")
	fs.StringSliceVar(&o.Devices, "ingest.devices", o.Devices, "IMEIs registered at startup.")
}
