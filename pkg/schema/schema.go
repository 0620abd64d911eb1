package schema

import (
	"sort"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

// Schema maps column names to logical types
type Schema map[string]LogicalType

// FromArrow translates an arrow schema through ToLogicalType
func FromArrow(s *arrow.Schema) Schema {
	out := make(Schema, s.NumFields())
	for _, f := range s.Fields() {
		out[f.Name] = ToLogicalType(f.Type)
	}
	return out
}

// ToArrow builds an arrow schema with the columns in order. Every column in
// order must be present in s with a type that has a storage equivalent.
func (s Schema) ToArrow(order []string) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(order))
	for _, name := range order {
		t, ok := s[name]
		if !ok {
			t = Unknown
		}
		dt, err := ToStorageType(t)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "column "+name).
				WithDetail("column", name)
		}
		fields = append(fields, arrow.Field{Name: name, Type: dt, Nullable: true})
	}
	return arrow.NewSchema(fields, nil), nil
}

// Clone returns an independent copy
func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Names returns the column names in sorted order
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both schemas hold the same entries
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// MatchesColumns reports whether the schema keys are exactly the given
// column names.
func (s Schema) MatchesColumns(columns []string) bool {
	if len(s) != len(columns) {
		return false
	}
	for _, c := range columns {
		if _, ok := s[c]; !ok {
			return false
		}
	}
	return true
}
