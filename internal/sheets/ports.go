package sheets

import (
	"context"

	"kousu/internal/core"
)

// RecordWriter appends an hour record to an external sheet and returns a
// reference to the written row.
type RecordWriter interface {
	Append(ctx context.Context, r core.Record) (rowRef string, err error)
}
