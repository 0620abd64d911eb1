// Package schema defines the logical type vocabulary of featurepipe and the
// mapping between logical types and arrow storage types.
package schema

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

// LogicalType is a column type as seen by the pipeline, decoupled from the
// arrow type the data is stored as.
type LogicalType string

const (
	String  LogicalType = "string"
	Uint8   LogicalType = "uint8"
	Uint16  LogicalType = "uint16"
	Uint32  LogicalType = "uint32"
	Uint64  LogicalType = "uint64"
	Int8    LogicalType = "int8"
	Int16   LogicalType = "int16"
	Int32   LogicalType = "int32"
	Int64   LogicalType = "int64"
	Float32 LogicalType = "float32"
	Float64 LogicalType = "float64"
	Bool    LogicalType = "bool"

	// Datetime is also what every unrecognized storage type maps to. It does
	// not imply the column holds temporal values.
	Datetime LogicalType = "datetime"

	// Unknown is returned alongside parse errors.
	Unknown LogicalType = "unknown"
)

var vocabulary = []LogicalType{
	String, Uint8, Uint16, Uint32, Uint64,
	Int8, Int16, Int32, Int64,
	Float32, Float64, Bool, Datetime,
}

// LogicalTypes returns every valid logical type
func LogicalTypes() []LogicalType {
	out := make([]LogicalType, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// ParseLogicalType validates s against the vocabulary. Matching is case
// insensitive and ignores surrounding whitespace.
func ParseLogicalType(s string) (LogicalType, error) {
	t := LogicalType(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range vocabulary {
		if t == v {
			return t, nil
		}
	}
	return Unknown, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unknown logical type %q", s)).
		WithDetail("type", s)
}

func (t LogicalType) String() string { return string(t) }
