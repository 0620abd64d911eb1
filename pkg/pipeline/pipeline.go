package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	"github.com/ajitpratap0/featurepipe/pkg/columnar"
	"github.com/ajitpratap0/featurepipe/pkg/errors"
	"github.com/ajitpratap0/featurepipe/pkg/metrics"
	"github.com/ajitpratap0/featurepipe/pkg/observability"
)

// FeatureExtractorPipeline runs processors in a fixed order. It is not safe
// for concurrent FitTransform calls since processors keep what they learn.
type FeatureExtractorPipeline struct {
	name       string
	processors []Processor
	logger     *zap.Logger
	metrics    *metrics.Collector
	tracer     *observability.StageTracer
}

// Option configures a FeatureExtractorPipeline
type Option func(*FeatureExtractorPipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(p *FeatureExtractorPipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithName sets the name used in logs, metrics and spans
func WithName(name string) Option {
	return func(p *FeatureExtractorPipeline) {
		if name != "" {
			p.name = name
		}
	}
}

// NewFeatureExtractorPipeline creates a pipeline running processors in the
// given order
func NewFeatureExtractorPipeline(processors []Processor, opts ...Option) *FeatureExtractorPipeline {
	p := &FeatureExtractorPipeline{
		name:       "featurepipe",
		processors: append([]Processor(nil), processors...),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("pipeline", p.name))
	p.metrics = metrics.NewCollector(p.name)
	p.tracer = observability.NewStageTracer(p.name)
	return p
}

// Name returns the pipeline name
func (p *FeatureExtractorPipeline) Name() string { return p.name }

// Processors returns the stages in execution order
func (p *FeatureExtractorPipeline) Processors() []Processor {
	return append([]Processor(nil), p.processors...)
}

// FitTransform runs every processor's FitTransform in order, starting from
// a State derived from tbl's schema. On error nothing is returned and every
// intermediate table is released.
func (p *FeatureExtractorPipeline) FitTransform(ctx context.Context, tbl arrow.Record) (arrow.Record, State, error) {
	ctx, span := p.tracer.StartPass(ctx, metrics.PhaseFit, tbl.NumRows(), int(tbl.NumCols()))
	defer span.End()

	start := time.Now()
	state := NewState(tbl.Schema())
	cur := columnar.Retained(tbl)

	p.logger.Debug("starting fit",
		zap.Int("processors", len(p.processors)),
		zap.Int64("rows", tbl.NumRows()),
		zap.Int64("columns", tbl.NumCols()))

	for i, proc := range p.processors {
		var (
			next      arrow.Record
			nextState State
		)
		timer := metrics.NewTimer()
		err := p.tracer.TraceStage(ctx, i, proc.Name(), metrics.PhaseFit, func(ctx context.Context) error {
			out, st, err := proc.FitTransform(ctx, cur, state)
			if err != nil {
				return err
			}
			if err := st.check(columnar.ColumnNames(out)); err != nil {
				out.Release()
				return err
			}
			next, nextState = out, st
			return nil
		})
		cur.Release()

		if err != nil {
			err = p.stageError(i, proc, metrics.PhaseFit, timer.Stop(), err)
			observability.End(span, err)
			return nil, State{}, err
		}
		p.stageDone(i, proc, metrics.PhaseFit, timer.Stop(), next)
		cur, state = next, nextState
	}

	p.metrics.SetColumnGroups(len(state.NumericalColumns), len(state.CategoricalColumns), len(state.NumericalCategoricalColumns))
	observability.End(span, nil)

	p.logger.Info("fit completed",
		zap.Int64("rows", cur.NumRows()),
		zap.Int64("columns", cur.NumCols()),
		zap.Strings("numerical", state.NumericalColumns),
		zap.Strings("categorical", state.CategoricalColumns),
		zap.Strings("numerical_categorical", state.NumericalCategoricalColumns),
		zap.Duration("duration", time.Since(start)))

	return cur, state, nil
}

// Transform replays every processor's Transform in order over tbl
func (p *FeatureExtractorPipeline) Transform(ctx context.Context, tbl arrow.Record) (arrow.Record, error) {
	ctx, span := p.tracer.StartPass(ctx, metrics.PhaseTransform, tbl.NumRows(), int(tbl.NumCols()))
	defer span.End()

	cur := columnar.Retained(tbl)
	for i, proc := range p.processors {
		var next arrow.Record
		timer := metrics.NewTimer()
		err := p.tracer.TraceStage(ctx, i, proc.Name(), metrics.PhaseTransform, func(ctx context.Context) error {
			out, err := proc.Transform(ctx, cur)
			next = out
			return err
		})
		cur.Release()

		if err != nil {
			err = p.stageError(i, proc, metrics.PhaseTransform, timer.Stop(), err)
			observability.End(span, err)
			return nil, err
		}
		p.stageDone(i, proc, metrics.PhaseTransform, timer.Stop(), next)
		cur = next
	}

	observability.End(span, nil)
	return cur, nil
}

func (p *FeatureExtractorPipeline) stageDone(i int, proc Processor, phase string, d time.Duration, out arrow.Record) {
	p.metrics.ObserveProcessor(proc.Name(), phase, d, out.NumRows(), "")
	p.logger.Debug("stage completed",
		zap.Int("stage", i),
		zap.String("processor", proc.Name()),
		zap.String("phase", phase),
		zap.Int64("rows", out.NumRows()),
		zap.Int64("columns", out.NumCols()),
		zap.Duration("duration", d))
}

// stageError records a failed stage and wraps err with its position,
// keeping the error's category.
func (p *FeatureExtractorPipeline) stageError(i int, proc Processor, phase string, d time.Duration, err error) error {
	errType := errors.TypeOf(err)
	p.metrics.ObserveProcessor(proc.Name(), phase, d, 0, string(errType))
	p.logger.Error("stage failed",
		zap.Int("stage", i),
		zap.String("processor", proc.Name()),
		zap.String("phase", phase),
		zap.Error(err))

	return errors.Wrap(err, errType, fmt.Sprintf("stage %d (%s) failed", i, proc.Name())).
		WithDetail("stage", i).
		WithDetail("processor", proc.Name())
}
