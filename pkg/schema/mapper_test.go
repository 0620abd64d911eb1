package schema

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

func TestToStorageType(t *testing.T) {
	tests := []struct {
		logical  LogicalType
		expected arrow.DataType
	}{
		{String, arrow.BinaryTypes.String},
		{Uint8, arrow.PrimitiveTypes.Uint8},
		{Uint16, arrow.PrimitiveTypes.Uint16},
		{Uint32, arrow.PrimitiveTypes.Uint32},
		{Int8, arrow.PrimitiveTypes.Int8},
		{Int16, arrow.PrimitiveTypes.Int16},
		{Int32, arrow.PrimitiveTypes.Int32},
		{Float32, arrow.PrimitiveTypes.Float32},
		{Bool, arrow.PrimitiveTypes.Uint8},
	}

	for _, tt := range tests {
		t.Run(string(tt.logical), func(t *testing.T) {
			dt, err := ToStorageType(tt.logical)
			require.NoError(t, err)
			assert.True(t, arrow.TypeEqual(tt.expected, dt), "got %s", dt)
		})
	}
}

func TestToStorageType_NoEquivalent(t *testing.T) {
	for _, lt := range []LogicalType{Datetime, Unknown, LogicalType("decimal")} {
		_, err := ToStorageType(lt)
		require.Error(t, err, lt)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	}
}

func TestToLogicalType(t *testing.T) {
	assert.Equal(t, String, ToLogicalType(arrow.BinaryTypes.String))
	assert.Equal(t, String, ToLogicalType(arrow.BinaryTypes.LargeString))
	assert.Equal(t, Bool, ToLogicalType(arrow.FixedWidthTypes.Boolean))
	assert.Equal(t, Uint32, ToLogicalType(arrow.PrimitiveTypes.Uint32))
	assert.Equal(t, Float32, ToLogicalType(arrow.PrimitiveTypes.Float32))

	// unmapped storage types fall through to the catch-all
	assert.Equal(t, Datetime, ToLogicalType(arrow.FixedWidthTypes.Timestamp_us))
	assert.Equal(t, Datetime, ToLogicalType(arrow.FixedWidthTypes.Date32))
	assert.Equal(t, Datetime, ToLogicalType(arrow.BinaryTypes.Binary))
	assert.Equal(t, Datetime, ToLogicalType(nil))
}

func TestRoundTrip(t *testing.T) {
	for _, lt := range LogicalTypes() {
		dt, err := ToStorageType(lt)
		if lt == Datetime {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)

		back := ToLogicalType(dt)
		if lt == Bool {
			assert.Equal(t, Uint8, back, "bool is stored as uint8")
			continue
		}
		assert.Equal(t, lt, back)
	}
}

func TestParseLogicalType(t *testing.T) {
	lt, err := ParseLogicalType(" Float32 ")
	require.NoError(t, err)
	assert.Equal(t, Float32, lt)

	lt, err = ParseLogicalType("varchar")
	require.Error(t, err)
	assert.Equal(t, Unknown, lt)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSchema(t *testing.T) {
	as := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Uint32},
		{Name: "category", Type: arrow.BinaryTypes.String},
		{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_s},
	}, nil)

	s := FromArrow(as)
	assert.Equal(t, Schema{"id": Uint32, "category": String, "ts": Datetime}, s)
	assert.Equal(t, []string{"category", "id", "ts"}, s.Names())
	assert.True(t, s.MatchesColumns([]string{"ts", "id", "category"}))
	assert.False(t, s.MatchesColumns([]string{"id", "category"}))

	clone := s.Clone()
	clone["id"] = Int32
	assert.Equal(t, Uint32, s["id"])
	assert.False(t, s.Equal(clone))

	_, err := s.ToArrow([]string{"id", "ts"})
	require.Error(t, err, "datetime has no storage type")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "column ts")

	out, err := s.ToArrow([]string{"category", "id"})
	require.NoError(t, err)
	require.Equal(t, 2, out.NumFields())
	assert.Equal(t, "category", out.Field(0).Name)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Uint32, out.Field(1).Type))
}
