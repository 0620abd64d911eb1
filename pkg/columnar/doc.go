// Package columnar holds the table operations the pipeline is built on. A
// table is an arrow.Record; every function here treats its input as
// immutable and returns a new reference that the caller owns and must
// Release. Unchanged columns are shared between input and output, never
// copied.
package columnar
