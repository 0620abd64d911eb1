package schema

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

var toStorage = map[LogicalType]arrow.DataType{
	String:  arrow.BinaryTypes.String,
	Uint8:   arrow.PrimitiveTypes.Uint8,
	Uint16:  arrow.PrimitiveTypes.Uint16,
	Uint32:  arrow.PrimitiveTypes.Uint32,
	Uint64:  arrow.PrimitiveTypes.Uint64,
	Int8:    arrow.PrimitiveTypes.Int8,
	Int16:   arrow.PrimitiveTypes.Int16,
	Int32:   arrow.PrimitiveTypes.Int32,
	Int64:   arrow.PrimitiveTypes.Int64,
	Float32: arrow.PrimitiveTypes.Float32,
	Float64: arrow.PrimitiveTypes.Float64,
	// There is no boolean storage type on this side of the mapping; bool
	// columns are written as 0/1 bytes and read back as uint8.
	Bool: arrow.PrimitiveTypes.Uint8,
}

var toLogical = map[arrow.Type]LogicalType{
	arrow.STRING:       String,
	arrow.LARGE_STRING: String,
	arrow.UINT8:        Uint8,
	arrow.UINT16:       Uint16,
	arrow.UINT32:       Uint32,
	arrow.UINT64:       Uint64,
	arrow.INT8:         Int8,
	arrow.INT16:        Int16,
	arrow.INT32:        Int32,
	arrow.INT64:        Int64,
	arrow.FLOAT32:      Float32,
	arrow.FLOAT64:      Float64,
	arrow.BOOL:         Bool,
}

// ToStorageType returns the arrow type a column of logical type t is stored
// as. Logical types without a storage equivalent (datetime, unknown) are a
// configuration error.
func ToStorageType(t LogicalType) (arrow.DataType, error) {
	dt, ok := toStorage[t]
	if !ok {
		return nil, errors.New(errors.ErrorTypeConfig, "logical type has no storage type").
			WithDetail("type", string(t))
	}
	return dt, nil
}

// ToLogicalType is a best-effort reverse lookup. Storage types outside the
// mapping resolve to Datetime.
func ToLogicalType(dt arrow.DataType) LogicalType {
	if dt == nil {
		return Datetime
	}
	if t, ok := toLogical[dt.ID()]; ok {
		return t
	}
	return Datetime
}
