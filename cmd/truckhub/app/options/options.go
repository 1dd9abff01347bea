package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/truckhub/internal/truckhub"
	"github.com/autopeer-io/truckhub/pkg/app"
	"github.com/autopeer-io/truckhub/pkg/log"
	"github.com/autopeer-io/truckhub/pkg/options"
)

type TruckHubOptions struct {
	MqttOptions    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions    *options.HttpOptions    `json:"http" mapstructure:"http"`
	GeoOptions     *options.GeoOptions     `json:"geo" mapstructure:"geo"`
	IngestOptions  *options.IngestOptions  `json:"ingest" mapstructure:"ingest"`
	JournalOptions *options.JournalOptions `json:"journal" mapstructure:"journal"`
	RedisOptions   *options.RedisOptions   `json:"redis" mapstructure:"redis"`
	S3Options      *options.S3Options      `json:"s3" mapstructure:"s3"`
	Log            *log.Options            `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*TruckHubOptions)(nil)

func NewTruckHubOptions() *TruckHubOptions {
	o := &TruckHubOptions{
		MqttOptions:    options.NewMqttOptions(),
		HttpOptions:    options.NewHttpOptions(),
		GeoOptions:     options.NewGeoOptions(),
		IngestOptions:  options.NewIngestOptions(),
		JournalOptions: options.NewJournalOptions(),
		RedisOptions:   options.NewRedisOptions(),
		S3Options:      options.NewS3Options(),
		Log:            log.NewOptions(),
	}

	return o
}

func (o *TruckHubOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.GeoOptions.AddFlags(fss.FlagSet("geo"))
	o.IngestOptions.AddFlags(fss.FlagSet("ingest"))
	o.JournalOptions.AddFlags(fss.FlagSet("journal"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *TruckHubOptions) Complete() error {
	return nil
}

func (o *TruckHubOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.GeoOptions.Validate()...)
	errs = append(errs, o.IngestOptions.Validate()...)
	errs = append(errs, o.JournalOptions.Validate()...)
	errs = append(errs, o.RedisOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

// LogOptions exposes the logger settings to the app framework.
func (o *TruckHubOptions) LogOptions() *log.Options { return o.Log }

func (o *TruckHubOptions) Config() (*truckhub.Config, error) {
	return &truckhub.Config{
		MqttOptions:    o.MqttOptions,
		HttpOptions:    o.HttpOptions,
		GeoOptions:     o.GeoOptions,
		IngestOptions:  o.IngestOptions,
		JournalOptions: o.JournalOptions,
		RedisOptions:   o.RedisOptions,
		S3Options:      o.S3Options,
	}, nil
}
