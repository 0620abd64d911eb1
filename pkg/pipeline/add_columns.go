package pipeline

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/featurepipe/pkg/columnar"
	"github.com/ajitpratap0/featurepipe/pkg/errors"
	"github.com/ajitpratap0/featurepipe/pkg/expr"
	"github.com/ajitpratap0/featurepipe/pkg/schema"
)

// Derivation describes one column computed by AddColumns
type Derivation struct {
	Name string
	Expr expr.Expr
	Type schema.LogicalType
}

// AddColumns appends derived columns, replacing any existing column with the
// same name in place.
type AddColumns struct {
	derivations []Derivation
	storage     []arrow.DataType
}

// NewAddColumns validates the derivations up front: every name must be
// unique and non-empty and every target type must have a storage type.
func NewAddColumns(derivations ...Derivation) (*AddColumns, error) {
	a := &AddColumns{
		derivations: make([]Derivation, len(derivations)),
		storage:     make([]arrow.DataType, len(derivations)),
	}
	seen := make(map[string]struct{}, len(derivations))
	for i, d := range derivations {
		if d.Name == "" {
			return nil, errors.Newf(errors.ErrorTypeConfig, "derivation %d has no column name", i)
		}
		if d.Expr == nil {
			return nil, errors.New(errors.ErrorTypeConfig, "derivation has no expression").
				WithDetail("column", d.Name)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, errors.New(errors.ErrorTypeConfig, "column derived twice").
				WithDetail("column", d.Name)
		}
		seen[d.Name] = struct{}{}

		dt, err := schema.ToStorageType(d.Type)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("column %q", d.Name))
		}
		a.derivations[i] = d
		a.storage[i] = dt
	}
	return a, nil
}

// Name implements Processor
func (a *AddColumns) Name() string { return NameAddColumns }

// Derivations returns the configured derivations
func (a *AddColumns) Derivations() []Derivation {
	out := make([]Derivation, len(a.derivations))
	copy(out, a.derivations)
	return out
}

// FitTransform records the derived columns' types, then delegates to
// Transform.
func (a *AddColumns) FitTransform(ctx context.Context, tbl arrow.Record, state State) (arrow.Record, State, error) {
	out, err := a.Transform(ctx, tbl)
	if err != nil {
		return nil, state, err
	}

	next := state.Clone()
	for _, d := range a.derivations {
		next.Schema[d.Name] = d.Type
	}
	return out, next, nil
}

// Transform evaluates every derivation against tbl as given; derivations do
// not see each other's results.
func (a *AddColumns) Transform(ctx context.Context, tbl arrow.Record) (arrow.Record, error) {
	names := make([]string, 0, len(a.derivations))
	cols := make([]arrow.Array, 0, len(a.derivations))
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	for i, d := range a.derivations {
		raw, err := expr.Eval(ctx, d.Expr, tbl)
		if err != nil {
			return nil, errors.Wrap(err, errors.TypeOf(err), fmt.Sprintf("deriving column %q", d.Name)).
				WithDetail("expr", d.Expr.String())
		}

		col, err := columnar.Cast(ctx, raw, a.storage[i])
		raw.Release()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeCast, fmt.Sprintf("deriving column %q", d.Name)).
				WithDetail("type", string(d.Type))
		}
		names = append(names, d.Name)
		cols = append(cols, col)
	}

	return columnar.WithColumns(tbl, names, cols)
}
