package columnar

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

// Cast converts arr to the storage type to. Arrow's safe cast options are
// used: integer overflow, float truncation and unparsable strings are
// errors, never wrapped or zeroed. Booleans become 0/1 first since the
// logical bool is stored as a byte.
func Cast(ctx context.Context, arr arrow.Array, to arrow.DataType) (arrow.Array, error) {
	src := arr
	if arr.DataType().ID() == arrow.BOOL && to.ID() != arrow.BOOL {
		src = boolToUint8(ctx, arr.(*array.Boolean))
		defer src.Release()
	}

	if arrow.TypeEqual(src.DataType(), to) {
		src.Retain()
		return src, nil
	}

	out, err := compute.CastArray(ctx, src, compute.SafeCastOptions(to))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCast, "cast failed").
			WithDetail("from", arr.DataType().String()).
			WithDetail("to", to.String())
	}
	return out, nil
}

// CountDistinct returns the number of distinct values in arr, counting null
// as one value.
func CountDistinct(ctx context.Context, arr arrow.Array) (int, error) {
	uniq, err := compute.UniqueArray(ctx, arr)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeInternal, "distinct count failed").
			WithDetail("type", arr.DataType().String())
	}
	defer uniq.Release()
	return uniq.Len(), nil
}

func boolToUint8(ctx context.Context, arr *array.Boolean) arrow.Array {
	b := array.NewUint8Builder(compute.GetAllocator(ctx))
	defer b.Release()

	b.Reserve(arr.Len())
	for i := 0; i < arr.Len(); i++ {
		switch {
		case arr.IsNull(i):
			b.AppendNull()
		case arr.Value(i):
			b.Append(1)
		default:
			b.Append(0)
		}
	}
	return b.NewArray()
}

// IsCategoricalType reports whether values of dt are labels rather than
// quantities: booleans, text and temporal types.
func IsCategoricalType(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.BOOL,
		arrow.STRING, arrow.LARGE_STRING, arrow.DICTIONARY,
		arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64, arrow.TIME32, arrow.TIME64:
		return true
	default:
		return false
	}
}
