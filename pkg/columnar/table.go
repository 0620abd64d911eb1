package columnar

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

// ColumnIndex returns the index of the first column called name, or -1
func ColumnIndex(rec arrow.Record, name string) int {
	idx := rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return -1
	}
	return idx[0]
}

// ColumnNames returns the column names in table order
func ColumnNames(rec arrow.Record) []string {
	fields := rec.Schema().Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Column looks a column up by name. The array is owned by rec.
func Column(rec arrow.Record, name string) (arrow.Array, error) {
	i := ColumnIndex(rec, name)
	if i < 0 {
		return nil, errors.New(errors.ErrorTypeNotFound, "column not found").
			WithDetail("column", name)
	}
	return rec.Column(i), nil
}

// NewRecord assembles a table from equally long columns
func NewRecord(names []string, cols []arrow.Array) (arrow.Record, error) {
	if len(names) != len(cols) {
		return nil, errors.Newf(errors.ErrorTypeInternal, "%d names for %d columns", len(names), len(cols))
	}

	var rows int64 = -1
	fields := make([]arrow.Field, len(cols))
	for i, col := range cols {
		if rows >= 0 && int64(col.Len()) != rows {
			return nil, errors.Newf(errors.ErrorTypeInternal, "column %q has %d rows, expected %d", names[i], col.Len(), rows)
		}
		rows = int64(col.Len())
		fields[i] = arrow.Field{Name: names[i], Type: col.DataType(), Nullable: true}
	}
	if rows < 0 {
		rows = 0
	}

	return array.NewRecord(arrow.NewSchema(fields, nil), cols, rows), nil
}

// WithColumns upserts columns: a name already in rec is replaced at its
// position, a new name is appended. Later entries win over earlier ones with
// the same name.
func WithColumns(rec arrow.Record, names []string, cols []arrow.Array) (arrow.Record, error) {
	if len(names) != len(cols) {
		return nil, errors.Newf(errors.ErrorTypeInternal, "%d names for %d columns", len(names), len(cols))
	}

	fields := append([]arrow.Field(nil), rec.Schema().Fields()...)
	arrays := append([]arrow.Array(nil), rec.Columns()...)

	for i, name := range names {
		col := cols[i]
		if int64(col.Len()) != rec.NumRows() {
			return nil, errors.Newf(errors.ErrorTypeInternal, "column %q has %d rows, table has %d", name, col.Len(), rec.NumRows()).
				WithDetail("column", name)
		}

		field := arrow.Field{Name: name, Type: col.DataType(), Nullable: true}
		pos := -1
		for j := range fields {
			if fields[j].Name == name {
				pos = j
				break
			}
		}
		if pos >= 0 {
			fields[pos] = field
			arrays[pos] = col
			continue
		}
		fields = append(fields, field)
		arrays = append(arrays, col)
	}

	return array.NewRecord(arrow.NewSchema(fields, nil), arrays, rec.NumRows()), nil
}

// DropColumns removes the named columns. Names not in rec are ignored.
func DropColumns(rec arrow.Record, names ...string) arrow.Record {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}

	schema := rec.Schema()
	fields := make([]arrow.Field, 0, schema.NumFields())
	arrays := make([]arrow.Array, 0, schema.NumFields())
	for i, f := range schema.Fields() {
		if _, ok := drop[f.Name]; ok {
			continue
		}
		fields = append(fields, f)
		arrays = append(arrays, rec.Column(i))
	}

	return array.NewRecord(arrow.NewSchema(fields, nil), arrays, rec.NumRows())
}

// Retained returns rec with one more reference, for stages that pass a
// table through unchanged.
func Retained(rec arrow.Record) arrow.Record {
	rec.Retain()
	return rec
}
