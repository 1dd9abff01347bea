package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*GeoOptions)(nil)

// GeoOptions configures the cell-tower geolocation service.
type GeoOptions struct {
	// URL of the lookup endpoint. Empty disables lookups; cell-tower
	// reports are then stored without coordinates.
	URL   string `json:"url" mapstructure:"url"`
	Token string `json:"token" mapstructure:"token"`

	// Radio is the access technology sent with each lookup.
	Radio string `json:"radio" mapstructure:"radio"`

	// Timeout bounds a single lookup.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxInFlight caps concurrent lookups.
	MaxInFlight int `json:"max-inflight" mapstructure:"max-inflight"`
}

// NewGeoOptions creates a GeoOptions object with default parameters.
func NewGeoOptions() *GeoOptions {
	return &GeoOptions{
		Radio:       "gsm",
		Timeout:     5 * time.Second,
		MaxInFlight: 4,
	}
}

// Enabled reports whether lookups are configured.
func (o *GeoOptions) Enabled() bool {
	return o != nil && o.URL != ""
}

func (o *GeoOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.URL != "" {
		if u, err := url.Parse(o.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Errorf("--geo.url %q is not an absolute URL", o.URL))
		}
	}
	if o.Timeout <= 0 {
		errors = append(errors, fmt.Errorf("--geo.timeout must be positive"))
	}
	if o.MaxInFlight <= 0 {
		errors = append(errors, fmt.Errorf("--geo.max-inflight must be positive"))
	}

	return errors
}

func (o *GeoOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.URL, "geo.url", o.URL, "Cell-tower geolocation endpoint (Unwired Labs compatible). Empty disables lookups.")
	fs.StringVar(&o.Token, "geo.token", o.Token, "API token of the geolocation service.")
	fs.StringVar(&o.Radio, "geo.radio", o.Radio, "Radio type sent with lookups (gsm, umts, lte).")
	fs.DurationVar(&o.Timeout, "geo.timeout", o.Timeout, "Timeout of a single lookup.")
	fs.IntVar(&o.MaxInFlight, "geo.max-inflight", o.MaxInFlight, "Maximum number of concurrent lookups.")
}
