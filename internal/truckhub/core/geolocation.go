package core

import (
	"context"
	"errors"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
)

// ErrLocationNotFound is returned by a Resolver when the service has no fix for a cell.
var ErrLocationNotFound = errors.New("location not found for cell")

// CellQuery identifies a serving cell in numeric form.
type CellQuery struct {
	MCC    uint64
	MNC    uint64
	LAC    uint64
	CellID uint64
	// Radio is the access technology, e.g. "gsm", "umts", "lte".
	Radio string
}

// Resolver turns a serving cell into a position.
// In truckhub, this is implemented by the HTTP geolocation adapter.
type Resolver interface {
	// Resolve performs a single lookup. Implementations must honour ctx.
	Resolve(ctx context.Context, q CellQuery) (model.Location, error)
}
