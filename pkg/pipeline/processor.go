package pipeline

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// Processor names, matching the config processor types
const (
	NameAddColumns     = "add_columns"
	NameDropColumns    = "drop_columns"
	NameCast           = "cast"
	NameColumnSplitter = "column_splitter"
)

// Processor is one stage of a pipeline.
//
// FitTransform applies the processor to tbl and returns the resulting table
// together with state updated to describe it. It runs once per fit pass.
//
// Transform applies the processor's configuration, and whatever it learned
// during FitTransform, to another table. It never touches State.
//
// Neither method modifies tbl. The returned table is a new reference the
// caller must release.
type Processor interface {
	Name() string
	FitTransform(ctx context.Context, tbl arrow.Record, state State) (arrow.Record, State, error)
	Transform(ctx context.Context, tbl arrow.Record) (arrow.Record, error)
}
