package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/featurepipe/pkg/columnar"
	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

// ColumnSplitter classifies every column as categorical, numerical or
// numerical-categorical. It does not change the table.
//
// Boolean, text and temporal columns are categorical. Any other column with
// fewer than Threshold distinct values is numerical-categorical, the rest
// are numerical. A threshold of zero or less makes every non-categorical
// column numerical.
type ColumnSplitter struct {
	threshold int

	mu                   sync.RWMutex
	numerical            []string
	categorical          []string
	numericalCategorical []string
}

// NewColumnSplitter creates a splitter with the given distinct-value
// threshold
func NewColumnSplitter(threshold int) *ColumnSplitter {
	return &ColumnSplitter{threshold: threshold}
}

// Name implements Processor
func (s *ColumnSplitter) Name() string { return NameColumnSplitter }

// Threshold returns the configured threshold
func (s *ColumnSplitter) Threshold() int { return s.threshold }

// Numerical returns the numerical columns found by the last fit
func (s *ColumnSplitter) Numerical() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNames(s.numerical)
}

// Categorical returns the categorical columns found by the last fit
func (s *ColumnSplitter) Categorical() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNames(s.categorical)
}

// NumericalCategorical returns the numerical-categorical columns found by
// the last fit
func (s *ColumnSplitter) NumericalCategorical() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNames(s.numericalCategorical)
}

// FitTransform classifies the columns of tbl in table order, stores the
// result on the returned State and on the splitter, and returns tbl.
func (s *ColumnSplitter) FitTransform(ctx context.Context, tbl arrow.Record, state State) (arrow.Record, State, error) {
	numerical := []string{}
	categorical := []string{}
	numericalCategorical := []string{}

	for i, field := range tbl.Schema().Fields() {
		if columnar.IsCategoricalType(field.Type) {
			categorical = append(categorical, field.Name)
			continue
		}
		if s.threshold <= 0 {
			numerical = append(numerical, field.Name)
			continue
		}

		distinct, err := columnar.CountDistinct(ctx, tbl.Column(i))
		if err != nil {
			return nil, state, errors.Wrap(err, errors.TypeOf(err), fmt.Sprintf("classifying column %q", field.Name))
		}
		if distinct < s.threshold {
			numericalCategorical = append(numericalCategorical, field.Name)
		} else {
			numerical = append(numerical, field.Name)
		}
	}

	s.mu.Lock()
	s.numerical = numerical
	s.categorical = categorical
	s.numericalCategorical = numericalCategorical
	s.mu.Unlock()

	next := state.Clone()
	next.NumericalColumns = cloneNames(numerical)
	next.CategoricalColumns = cloneNames(categorical)
	next.NumericalCategoricalColumns = cloneNames(numericalCategorical)

	return columnar.Retained(tbl), next, nil
}

// Transform returns tbl unchanged
func (s *ColumnSplitter) Transform(_ context.Context, tbl arrow.Record) (arrow.Record, error) {
	return columnar.Retained(tbl), nil
}
