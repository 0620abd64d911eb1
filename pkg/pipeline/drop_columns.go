package pipeline

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/featurepipe/pkg/columnar"
)

// DropColumns removes columns. Names that are not present are ignored.
type DropColumns struct {
	columns []string
}

// NewDropColumns creates a processor dropping columns
func NewDropColumns(columns ...string) *DropColumns {
	return &DropColumns{columns: append([]string(nil), columns...)}
}

// Name implements Processor
func (d *DropColumns) Name() string { return NameDropColumns }

// Columns returns the names to drop
func (d *DropColumns) Columns() []string {
	return append([]string(nil), d.columns...)
}

// FitTransform removes the names from the schema and from any
// classification list, then delegates to Transform.
func (d *DropColumns) FitTransform(ctx context.Context, tbl arrow.Record, state State) (arrow.Record, State, error) {
	next := state.Clone()
	for _, name := range d.columns {
		next.removeColumn(name)
	}

	out, err := d.Transform(ctx, tbl)
	if err != nil {
		return nil, state, err
	}
	return out, next, nil
}

// Transform returns tbl without the listed columns
func (d *DropColumns) Transform(_ context.Context, tbl arrow.Record) (arrow.Record, error) {
	return columnar.DropColumns(tbl, d.columns...), nil
}
