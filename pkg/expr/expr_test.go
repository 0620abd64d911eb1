package expr_test

import (
	"context"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
	"github.com/ajitpratap0/featurepipe/pkg/expr"
	"github.com/ajitpratap0/featurepipe/pkg/testutil"
)

func TestParse(t *testing.T) {
	tests := []struct {
		src      string
		expected string
		columns  []string
	}{
		{src: "score * 2", expected: "(score * 2)", columns: []string{"score"}},
		{src: "a + b * c", expected: "(a + (b * c))", columns: []string{"a", "b", "c"}},
		{src: "(a + b) * c", expected: "((a + b) * c)", columns: []string{"a", "b", "c"}},
		{src: "a - b - c", expected: "((a - b) - c)", columns: []string{"a", "b", "c"}},
		{src: "a / a / 2.5", expected: "((a / a) / 2.5)", columns: []string{"a"}},
		{src: "-x", expected: "(0 - x)", columns: []string{"x"}},
		{src: "-3", expected: "-3", columns: nil},
		{src: "1e3", expected: "1000.0", columns: nil},
		{src: "`user id` + 1", expected: "(`user id` + 1)", columns: []string{"user id"}},
		{src: "  srch_adults_cnt+srch_children_cnt ", expected: "(srch_adults_cnt + srch_children_cnt)",
			columns: []string{"srch_adults_cnt", "srch_children_cnt"}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, err := expr.Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, e.String())
			assert.Equal(t, tt.columns, e.Columns())

			// rendering is stable under re-parsing
			again, err := expr.Parse(e.String())
			require.NoError(t, err)
			assert.Equal(t, e.String(), again.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{"", "a +", "(a + b", "a b", "a % b", "`unterminated", ")"} {
		t.Run(src, func(t *testing.T) {
			_, err := expr.Parse(src)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestEval(t *testing.T) {
	ctx := context.Background()
	rec := testutil.Record(t,
		testutil.Col{Name: "score", Array: testutil.Int32s(1, 2, 3)},
		testutil.Col{Name: "weight", Array: testutil.Float64s(0.5, 1, 1.5)},
	)

	out, err := expr.Eval(ctx, expr.MustParse("score * 2"), rec)
	require.NoError(t, err)
	defer out.Release()
	require.Equal(t, 3, out.Len())

	doubled, err := expr.Eval(ctx, expr.Arith(expr.Mul, expr.Col("score"), expr.Col("weight")), rec)
	require.NoError(t, err)
	defer doubled.Release()
	require.Equal(t, arrow.FLOAT64, doubled.DataType().ID())
	assert.Equal(t, []float64{0.5, 2, 4.5}, doubled.(*array.Float64).Float64Values())
}

func TestEval_LiteralBroadcast(t *testing.T) {
	rec := testutil.Record(t,
		testutil.Col{Name: "id", Array: testutil.Uint32s(1, 2, 3, 4)},
	)

	out, err := expr.Eval(context.Background(), expr.MustParse("2 * 21"), rec)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, 4, out.Len())
	require.Equal(t, arrow.INT64, out.DataType().ID())
	assert.Equal(t, []int64{42, 42, 42, 42}, out.(*array.Int64).Int64Values())
}

func TestEval_UnknownColumn(t *testing.T) {
	rec := testutil.Record(t,
		testutil.Col{Name: "id", Array: testutil.Uint32s(1)},
	)

	_, err := expr.Eval(context.Background(), expr.MustParse("missing + 1"), rec)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestEval_TextOperand(t *testing.T) {
	rec := testutil.Record(t,
		testutil.Col{Name: "category", Array: testutil.Strings("a", "b")},
	)

	_, err := expr.Eval(context.Background(), expr.MustParse("category * 2"), rec)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCast))
}

func TestEval_IntegerDivisionIsTrueDivision(t *testing.T) {
	rec := testutil.Record(t,
		testutil.Col{Name: "a", Array: testutil.Int32s(3, 5)},
	)

	out, err := expr.Eval(context.Background(), expr.MustParse("a / 2"), rec)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, arrow.FLOAT64, out.DataType().ID())
	assert.Equal(t, []float64{1.5, 2.5}, out.(*array.Float64).Float64Values())
}

func TestEval_DivisionByZero(t *testing.T) {
	rec := testutil.Record(t,
		testutil.Col{Name: "a", Array: testutil.Int32s(3, 0)},
	)

	out, err := expr.Eval(context.Background(), expr.MustParse("a / 0"), rec)
	require.NoError(t, err)
	defer out.Release()

	values := out.(*array.Float64).Float64Values()
	require.Len(t, values, 2)
	assert.True(t, math.IsInf(values[0], 1))
	assert.True(t, math.IsNaN(values[1]))
}

func TestEval_BoolOperand(t *testing.T) {
	rec := testutil.Record(t,
		testutil.Col{Name: "is_mobile", Array: testutil.Bools(true, false, true)},
	)

	out, err := expr.Eval(context.Background(), expr.MustParse("is_mobile * 2"), rec)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, arrow.INT64, out.DataType().ID())
	assert.Equal(t, []int64{2, 0, 2}, out.(*array.Int64).Int64Values())
}

func TestEval_IntegerOverflow(t *testing.T) {
	rec := testutil.Record(t,
		testutil.Col{Name: "a", Array: testutil.Int32s(math.MaxInt32)},
	)

	_, err := expr.Eval(context.Background(), expr.MustParse("a + a"), rec)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCast))
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { expr.MustParse("a +") })
}
