package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/featurepipe/pkg/columnar"
	"github.com/ajitpratap0/featurepipe/pkg/errors"
	"github.com/ajitpratap0/featurepipe/pkg/schema"
)

// Cast converts columns to new logical types. Conversions that would lose
// data (overflow, fractional floats to integers, unparsable text) fail.
type Cast struct {
	columns []string
	types   map[string]schema.LogicalType
	storage map[string]arrow.DataType
}

// NewCast creates a Cast for a column to logical type mapping. It fails
// when a type has no storage equivalent.
func NewCast(to map[string]schema.LogicalType) (*Cast, error) {
	c := &Cast{
		columns: make([]string, 0, len(to)),
		types:   make(map[string]schema.LogicalType, len(to)),
		storage: make(map[string]arrow.DataType, len(to)),
	}
	for name, t := range to {
		dt, err := schema.ToStorageType(t)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("cast of column %q", name))
		}
		c.columns = append(c.columns, name)
		c.types[name] = t
		c.storage[name] = dt
	}
	sort.Strings(c.columns)
	return c, nil
}

// Name implements Processor
func (c *Cast) Name() string { return NameCast }

// Types returns a copy of the configured mapping
func (c *Cast) Types() map[string]schema.LogicalType {
	out := make(map[string]schema.LogicalType, len(c.types))
	for k, v := range c.types {
		out[k] = v
	}
	return out
}

// FitTransform overwrites the schema entry of every cast column, then
// delegates to Transform.
func (c *Cast) FitTransform(ctx context.Context, tbl arrow.Record, state State) (arrow.Record, State, error) {
	out, err := c.Transform(ctx, tbl)
	if err != nil {
		return nil, state, err
	}

	next := state.Clone()
	for name, t := range c.types {
		next.Schema[name] = t
	}
	return out, next, nil
}

// Transform casts every configured column. A missing column is an error.
func (c *Cast) Transform(ctx context.Context, tbl arrow.Record) (arrow.Record, error) {
	cols := make([]arrow.Array, 0, len(c.columns))
	defer func() {
		for _, col := range cols {
			col.Release()
		}
	}()

	for _, name := range c.columns {
		src, err := columnar.Column(tbl, name)
		if err != nil {
			return nil, err
		}
		out, err := columnar.Cast(ctx, src, c.storage[name])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeCast, fmt.Sprintf("casting column %q to %s", name, c.types[name])).
				WithDetail("column", name)
		}
		cols = append(cols, out)
	}

	return columnar.WithColumns(tbl, c.columns, cols)
}
