package pipeline

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
	"github.com/ajitpratap0/featurepipe/pkg/schema"
)

// State is the schema and column classification threaded through a fit
// pass. Processors treat it as a value: they Clone before changing it.
type State struct {
	Schema                      schema.Schema `json:"schema"`
	NumericalColumns            []string      `json:"numerical_columns"`
	CategoricalColumns          []string      `json:"categorical_columns"`
	NumericalCategoricalColumns []string      `json:"numerical_categorical_columns"`
}

// NewState starts a fit pass from a table's native schema. The
// classification lists are empty until a ColumnSplitter runs.
func NewState(s *arrow.Schema) State {
	return State{
		Schema:                      schema.FromArrow(s),
		NumericalColumns:            []string{},
		CategoricalColumns:          []string{},
		NumericalCategoricalColumns: []string{},
	}
}

// Clone returns a deep copy
func (s State) Clone() State {
	sc := schema.Schema{}
	if s.Schema != nil {
		sc = s.Schema.Clone()
	}
	return State{
		Schema:                      sc,
		NumericalColumns:            cloneNames(s.NumericalColumns),
		CategoricalColumns:          cloneNames(s.CategoricalColumns),
		NumericalCategoricalColumns: cloneNames(s.NumericalCategoricalColumns),
	}
}

// Classified returns every classified column name, numerical first
func (s State) Classified() []string {
	out := make([]string, 0, len(s.NumericalColumns)+len(s.CategoricalColumns)+len(s.NumericalCategoricalColumns))
	out = append(out, s.NumericalColumns...)
	out = append(out, s.CategoricalColumns...)
	out = append(out, s.NumericalCategoricalColumns...)
	return out
}

// check verifies the state against the columns of the table it describes:
// schema keys equal the columns, and the classification lists are disjoint
// and only name existing columns.
func (s State) check(columns []string) error {
	if !s.Schema.MatchesColumns(columns) {
		return errors.New(errors.ErrorTypeInternal, "schema does not match table columns").
			WithDetail("schema", s.Schema.Names()).
			WithDetail("columns", columns)
	}

	seen := make(map[string]struct{}, len(columns))
	for _, name := range s.Classified() {
		if _, ok := s.Schema[name]; !ok {
			return errors.New(errors.ErrorTypeInternal, "classified column not in schema").
				WithDetail("column", name)
		}
		if _, dup := seen[name]; dup {
			return errors.New(errors.ErrorTypeInternal, "column classified twice").
				WithDetail("column", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (s *State) removeColumn(name string) {
	delete(s.Schema, name)
	s.NumericalColumns = without(s.NumericalColumns, name)
	s.CategoricalColumns = without(s.CategoricalColumns, name)
	s.NumericalCategoricalColumns = without(s.NumericalCategoricalColumns, name)
}

func cloneNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

func without(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
