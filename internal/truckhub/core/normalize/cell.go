package normalize

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
)

// ErrNoResolver is reported for cell-tower records when no resolver is configured.
var ErrNoResolver = errors.New("no geolocation resolver configured")

// CellError reports a cell identifier that is neither decimal nor hexadecimal.
type CellError struct {
	Field string
	Token string
	Err   error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("invalid cell %s %q: %v", e.Field, e.Token, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// LookupError wraps a failed geolocation lookup.
type LookupError struct {
	Query core.CellQuery
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("geolocation lookup for cell %d/%d/%d/%d failed: %v",
		e.Query.MCC, e.Query.MNC, e.Query.LAC, e.Query.CellID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// ParseCellToken parses a cell identifier. A token containing any letter a-f
// (either case) is read as hexadecimal, with an optional 0x prefix; anything
// else as decimal.
func ParseCellToken(tok string) (uint64, error) {
	s := strings.TrimSpace(tok)
	if s == "" {
		return 0, errors.New("empty token")
	}

	lower := strings.ToLower(s)
	if trimmed, ok := strings.CutPrefix(lower, "0x"); ok {
		return strconv.ParseUint(trimmed, 16, 64)
	}
	if strings.ContainsAny(lower, "abcdef") {
		return strconv.ParseUint(lower, 16, 64)
	}
	return strconv.ParseUint(lower, 10, 64)
}

// CellQueryFor converts the raw cell tokens of a record.
func CellQueryFor(cell *model.CellInfo, radio string) (core.CellQuery, error) {
	q := core.CellQuery{Radio: radio}
	for _, f := range []struct {
		name string
		tok  string
		dst  *uint64
	}{
		{"mcc", cell.MCC, &q.MCC},
		{"mnc", cell.MNC, &q.MNC},
		{"lac", cell.LAC, &q.LAC},
		{"cid", cell.CellID, &q.CellID},
	} {
		v, err := ParseCellToken(f.tok)
		if err != nil {
			return core.CellQuery{}, &CellError{Field: f.name, Token: f.tok, Err: err}
		}
		*f.dst = v
	}
	return q, nil
}

// Normalizer applies display mappings and resolves cell-tower positions.
type Normalizer struct {
	resolver core.Resolver
	timeout  time.Duration
	radio    string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithTimeout bounds each geolocation lookup. Default 5s.
func WithTimeout(d time.Duration) Option {
	return func(n *Normalizer) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithRadio sets the radio type sent with lookups. Default "gsm".
func WithRadio(radio string) Option {
	return func(n *Normalizer) {
		if radio != "" {
			n.radio = radio
		}
	}
}

// New creates a Normalizer. resolver may be nil, in which case cell-tower
// records keep null coordinates.
func New(resolver core.Resolver, opts ...Option) *Normalizer {
	n := &Normalizer{
		resolver: resolver,
		timeout:  5 * time.Second,
		radio:    "gsm",
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize fills derived fields and, for cell-tower status records, looks up
// the position. A returned error only means the position stayed unresolved;
// the record itself is complete and should still be stored.
func (n *Normalizer) Normalize(ctx context.Context, rec model.Record) error {
	Apply(rec)

	st, ok := rec.(*model.StatusRecord)
	if !ok || st.GPSSource != SourceCellTower || st.Cell == nil {
		return nil
	}

	st.Lat, st.Lon = nil, nil

	q, err := CellQueryFor(st.Cell, n.radio)
	if err != nil {
		return err
	}
	if n.resolver == nil {
		return ErrNoResolver
	}

	lookupCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	loc, err := n.resolver.Resolve(lookupCtx, q)
	if err != nil {
		return &LookupError{Query: q, Err: err}
	}

	lat, lon := loc.Lat, loc.Lon
	st.Lat, st.Lon = &lat, &lon
	return nil
}
