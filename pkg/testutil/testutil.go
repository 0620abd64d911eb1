// Package testutil provides testing utilities for featurepipe
package testutil

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/featurepipe/pkg/columnar"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext returns a background context for arrow compute calls
func TestContext(_ *testing.T) context.Context {
	return context.Background()
}

// Col pairs a column name with its values for Record
type Col struct {
	Name  string
	Array arrow.Array
}

// Record builds a table from columns and releases the column arrays, which
// the record now references. The record is released when the test ends.
func Record(t *testing.T, cols ...Col) arrow.Record {
	t.Helper()

	names := make([]string, len(cols))
	arrays := make([]arrow.Array, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		arrays[i] = c.Array
	}

	rec, err := columnar.NewRecord(names, arrays)
	if err != nil {
		t.Fatalf("building record: %v", err)
	}
	for _, a := range arrays {
		a.Release()
	}
	t.Cleanup(rec.Release)
	return rec
}

// Strings builds a string array
func Strings(vals ...string) arrow.Array {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

// Uint8s builds a uint8 array
func Uint8s(vals ...uint8) arrow.Array {
	b := array.NewUint8Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

// Uint32s builds a uint32 array
func Uint32s(vals ...uint32) arrow.Array {
	b := array.NewUint32Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

// Int32s builds an int32 array
func Int32s(vals ...int32) arrow.Array {
	b := array.NewInt32Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

// Int64s builds an int64 array
func Int64s(vals ...int64) arrow.Array {
	b := array.NewInt64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

// Float32s builds a float32 array
func Float32s(vals ...float32) arrow.Array {
	b := array.NewFloat32Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

// Float64s builds a float64 array
func Float64s(vals ...float64) arrow.Array {
	b := array.NewFloat64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

// Bools builds a boolean array
func Bools(vals ...bool) arrow.Array {
	b := array.NewBooleanBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}
