// Package errors provides examples of structured error handling in featurepipe.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

// Example demonstrates basic error creation.
func Example() {
	err := errors.New(errors.ErrorTypeNotFound, "column not found").
		WithDetail("column", "score")

	fmt.Println(err.Error())

	// Output:
	// not_found: column not found
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeFile, "failed to read CSV file").
		WithDetail("file", "train.csv")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}
	fmt.Println(err)

	// Output:
	// This is a file error
	// file: failed to read CSV file: unexpected EOF
}

// ExampleTypeOf demonstrates recovering the category of an error chain.
func ExampleTypeOf() {
	castErr := errors.Newf(errors.ErrorTypeCast, "cannot cast %q to %s", "price", "uint8")
	stageErr := errors.Wrap(castErr, errors.TypeOf(castErr), "stage 0 (cast) failed")

	fmt.Println(errors.TypeOf(stageErr))
	fmt.Println(errors.TypeOf(io.EOF))

	// Output:
	// cast
	// internal
}

// ExampleIsType demonstrates checking error types.
func ExampleIsType() {
	cfgErr := errors.New(errors.ErrorTypeConfig, "no storage type for datetime")
	wrapped := errors.Wrap(cfgErr, errors.ErrorTypeInternal, "building pipeline")

	fmt.Printf("Is config error: %v\n", errors.IsType(cfgErr, errors.ErrorTypeConfig))
	fmt.Printf("Wrapped error is internal: %v\n", errors.IsType(wrapped, errors.ErrorTypeInternal))
	fmt.Printf("Wrapped error is config: %v\n", errors.IsType(wrapped, errors.ErrorTypeConfig))

	// Output:
	// Is config error: true
	// Wrapped error is internal: true
	// Wrapped error is config: false
}
