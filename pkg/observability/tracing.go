// Package observability wires OpenTelemetry tracing into featurepipe
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer used by featurepipe packages
const InstrumentationName = "github.com/ajitpratap0/featurepipe"

// Tracer returns the featurepipe tracer from the global provider. It is
// resolved on every call so a provider installed later is picked up.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StageTracer traces the stages of one named pipeline
type StageTracer struct {
	pipeline string
}

// NewStageTracer creates a tracer labelling spans with the pipeline name
func NewStageTracer(pipeline string) *StageTracer {
	return &StageTracer{pipeline: pipeline}
}

// StartPass starts the span covering a whole fit or transform pass
func (st *StageTracer) StartPass(ctx context.Context, phase string, rows int64, columns int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, fmt.Sprintf("pipeline.%s", phase),
		trace.WithAttributes(
			attribute.String("pipeline.name", st.pipeline),
			attribute.String("pipeline.phase", phase),
			attribute.Int64("table.rows", rows),
			attribute.Int("table.columns", columns),
		),
	)
}

// TraceStage runs fn inside a span for processor stage index
func (st *StageTracer) TraceStage(ctx context.Context, index int, processor, phase string, fn func(context.Context) error) error {
	ctx, span := Tracer().Start(ctx, fmt.Sprintf("processor.%s", processor),
		trace.WithAttributes(
			attribute.String("pipeline.name", st.pipeline),
			attribute.String("pipeline.phase", phase),
			attribute.String("processor.name", processor),
			attribute.Int("processor.index", index),
		),
	)
	defer span.End()

	err := fn(ctx)
	End(span, err)
	return err
}

// End sets the span status from err. It does not end the span.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
