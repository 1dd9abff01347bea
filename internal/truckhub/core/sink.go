package core

import (
	"context"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
)

// RecordSink receives every record after it has been stored.
// Journal, state mirror and live stream implement it.
type RecordSink interface {
	// Name identifies the sink in logs.
	Name() string

	// Accept handles one stored record. Errors are logged by the caller and
	// never undo the store append.
	Accept(ctx context.Context, rec model.Record) error
}
