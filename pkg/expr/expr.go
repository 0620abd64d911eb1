// Package expr implements the derivation expressions used by the AddColumns
// processor: column references, numeric literals and arithmetic over them,
// evaluated with arrow compute kernels against a table.
package expr

import (
	"context"
	"regexp"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/scalar"

	"github.com/ajitpratap0/featurepipe/pkg/columnar"
	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

// Expr is a derivation over the columns of a table. The set of
// implementations is closed: Col, Int, Float and Binary.
type Expr interface {
	// String renders the expression in the syntax accepted by Parse
	String() string
	// Columns lists the referenced column names, in first-use order
	Columns() []string

	datum(ctx context.Context, rec arrow.Record) (compute.Datum, error)
}

// Op is an arithmetic operator
type Op byte

const (
	Add Op = '+'
	Sub Op = '-'
	Mul Op = '*'
	Div Op = '/'
)

func (o Op) String() string { return string(o) }

// Eval evaluates e against rec and returns one value per row. Literal-only
// expressions are broadcast to the table's row count.
func Eval(ctx context.Context, e Expr, rec arrow.Record) (arrow.Array, error) {
	d, err := e.datum(ctx, rec)
	if err != nil {
		return nil, err
	}
	defer d.Release()

	switch v := d.(type) {
	case *compute.ArrayDatum:
		return v.MakeArray(), nil
	case *compute.ScalarDatum:
		arr, err := scalar.MakeArrayFromScalar(v.Value, int(rec.NumRows()), compute.GetAllocator(ctx))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "broadcasting literal").
				WithDetail("expr", e.String())
		}
		return arr, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "unexpected result kind %v", d.Kind())
	}
}

// column reads a column of the table by name
type column struct {
	name string
}

// Col references the column called name
func Col(name string) Expr { return column{name: name} }

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

func (c column) String() string {
	if plainIdent.MatchString(c.name) {
		return c.name
	}
	return "`" + c.name + "`"
}

func (c column) Columns() []string { return []string{c.name} }

func (c column) datum(_ context.Context, rec arrow.Record) (compute.Datum, error) {
	col, err := columnar.Column(rec, c.name)
	if err != nil {
		return nil, err
	}
	return compute.NewDatum(col), nil
}

type intLit int64

// Int is an integer literal, typed int64
func Int(v int64) Expr { return intLit(v) }

func (l intLit) String() string    { return strconv.FormatInt(int64(l), 10) }
func (l intLit) Columns() []string { return nil }

func (l intLit) datum(context.Context, arrow.Record) (compute.Datum, error) {
	return compute.NewDatum(scalar.NewInt64Scalar(int64(l))), nil
}

type floatLit float64

// Float is a floating point literal, typed float64
func Float(v float64) Expr { return floatLit(v) }

func (l floatLit) String() string {
	s := strconv.FormatFloat(float64(l), 'g', -1, 64)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		s += ".0"
	}
	return s
}

func (l floatLit) Columns() []string { return nil }

func (l floatLit) datum(context.Context, arrow.Record) (compute.Datum, error) {
	return compute.NewDatum(scalar.NewFloat64Scalar(float64(l))), nil
}

// Binary applies Op to the results of Left and Right. Boolean operands count
// as 0 and 1. Division always yields float64 and a zero divisor gives
// +Inf, -Inf or NaN; integer overflow in the other operators is an error.
type Binary struct {
	Op    Op
	Left  Expr
	Right Expr
}

// Arith builds a Binary expression
func Arith(op Op, left, right Expr) Expr {
	return Binary{Op: op, Left: left, Right: right}
}

func (b Binary) String() string {
	return "(" + b.Left.String() + " " + b.Op.String() + " " + b.Right.String() + ")"
}

func (b Binary) Columns() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range append(b.Left.Columns(), b.Right.Columns()...) {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (b Binary) datum(ctx context.Context, rec arrow.Record) (compute.Datum, error) {
	var fn func(context.Context, compute.ArithmeticOptions, compute.Datum, compute.Datum) (compute.Datum, error)
	switch b.Op {
	case Add:
		fn = compute.Add
	case Sub:
		fn = compute.Subtract
	case Mul:
		fn = compute.Multiply
	case Div:
		fn = compute.Divide
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported operator %q", string(b.Op))
	}

	left, err := b.operand(ctx, b.Left, rec)
	if err != nil {
		return nil, err
	}
	defer left.Release()

	right, err := b.operand(ctx, b.Right, rec)
	if err != nil {
		return nil, err
	}
	defer right.Release()

	// float division by zero is defined, so only the other operators check
	opts := compute.ArithmeticOptions{NoCheckOverflow: b.Op == Div}
	out, err := fn(ctx, opts, left, right)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCast, "arithmetic failed").
			WithDetail("expr", b.String())
	}
	return out, nil
}

// operand evaluates e and promotes it for b.Op: booleans become int64 and
// every operand of a division becomes float64.
func (b Binary) operand(ctx context.Context, e Expr, rec arrow.Record) (compute.Datum, error) {
	d, err := e.datum(ctx, rec)
	if err != nil {
		return nil, err
	}

	typed, ok := d.(interface{ Type() arrow.DataType })
	if !ok {
		return d, nil
	}

	var to arrow.DataType
	switch dt := typed.Type(); {
	case b.Op == Div && dt.ID() != arrow.FLOAT64 && (dt.ID() == arrow.BOOL || arrow.IsInteger(dt.ID()) || arrow.IsFloating(dt.ID())):
		to = arrow.PrimitiveTypes.Float64
	case dt.ID() == arrow.BOOL:
		to = arrow.PrimitiveTypes.Int64
	default:
		return d, nil
	}

	out, err := compute.CastDatum(ctx, d, compute.SafeCastOptions(to))
	d.Release()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCast, "promoting operand").
			WithDetail("expr", e.String()).
			WithDetail("type", to.String())
	}
	return out, nil
}
