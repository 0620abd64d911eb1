package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), DefaultTracingConfig())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestStageTracer(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.ServiceName = "featurepipe-test"
	cfg.Writer = &buf

	shutdown, err := InitTracing(context.Background(), cfg)
	require.NoError(t, err)

	st := NewStageTracer("hotels")
	ctx, pass := st.StartPass(context.Background(), "fit", 10, 3)

	require.NoError(t, st.TraceStage(ctx, 0, "cast", "fit", func(context.Context) error { return nil }))

	boom := errors.New("boom")
	err = st.TraceStage(ctx, 1, "add_columns", "fit", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	End(pass, err)
	pass.End()

	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "processor.cast")
	assert.Contains(t, out, "processor.add_columns")
	assert.Contains(t, out, "pipeline.fit")
	assert.Contains(t, out, "boom")
}
