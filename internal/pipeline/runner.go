// Package pipeline runs a configured featurepipe job end to end: it reads
// the input dataset, fits the configured processors over it and writes the
// transformed table and the final pipeline state.
//
// # Basic Usage
//
//	cfg, err := config.Load("pipeline.yaml")
//	if err != nil {
//		return err
//	}
//	result, err := pipeline.NewRunner(cfg, logger).Run(ctx)
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/ajitpratap0/featurepipe/pkg/config"
	"github.com/ajitpratap0/featurepipe/pkg/errors"
	"github.com/ajitpratap0/featurepipe/pkg/formats"
	"github.com/ajitpratap0/featurepipe/pkg/logger"
	"github.com/ajitpratap0/featurepipe/pkg/metrics"
	core "github.com/ajitpratap0/featurepipe/pkg/pipeline"
	"github.com/ajitpratap0/featurepipe/pkg/schema"
)

// Runner executes one configured pipeline run
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
}

// Result summarises a finished run
type Result struct {
	RunID         string        `json:"run_id"`
	InputRows     int64         `json:"input_rows"`
	InputColumns  int64         `json:"input_columns"`
	OutputRows    int64         `json:"output_rows"`
	OutputColumns int64         `json:"output_columns"`
	State         core.State    `json:"state"`
	Duration      time.Duration `json:"duration"`
	// RSSBytes is the process resident set size when the run finished, zero
	// when it cannot be read
	RSSBytes uint64 `json:"rss_bytes"`
}

// NewRunner creates a runner for cfg. With a nil logger the run logs
// through the global logger, tagged from the run's context.
func NewRunner(cfg *config.Config, log *zap.Logger) *Runner {
	return &Runner{cfg: cfg, logger: log}
}

// Run reads the input, fits the pipeline and writes the configured outputs
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = context.WithValue(ctx, logger.PipelineKey, r.cfg.Name)
	ctx = context.WithValue(ctx, logger.RunIDKey, runID)
	log := logger.WithContext(ctx)
	if r.logger != nil {
		log = r.logger.With(zap.String("pipeline", r.cfg.Name), zap.String("run_id", runID))
	}

	procs, err := core.Build(r.cfg.Processors)
	if err != nil {
		return nil, err
	}

	readerCfg, err := readerConfig(r.cfg.Input)
	if err != nil {
		return nil, err
	}

	log.Info("reading input", zap.String("path", r.cfg.Input.Path))
	in, err := formats.ReadFile(ctx, r.cfg.Input.Path, readerCfg)
	if err != nil {
		return nil, err
	}
	defer in.Release()

	log.Info("input loaded",
		zap.Int64("rows", in.NumRows()),
		zap.Int64("columns", in.NumCols()),
		zap.Int("processors", len(procs)))

	p := core.NewFeatureExtractorPipeline(procs,
		core.WithName(r.cfg.Name),
		core.WithLogger(log.Named("fit")))

	out, state, err := p.FitTransform(ctx, in)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	if path := r.cfg.Output.Path; path != "" {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		if err := formats.WriteFile(path, out, formats.WriterConfig{
			Format:      formats.Format(r.cfg.Output.Format),
			Compression: r.cfg.Output.Compression,
		}); err != nil {
			return nil, err
		}
		log.Info("output written", zap.String("path", path))
	}

	if path := r.cfg.Output.StatePath; path != "" {
		if err := WriteState(path, state); err != nil {
			return nil, err
		}
		log.Info("state written", zap.String("path", path))
	}

	if path := r.cfg.Observability.MetricsFile; path != "" {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		if err := metrics.WriteTextfile(path); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics file").
				WithDetail("path", path)
		}
	}

	result := &Result{
		RunID:         runID,
		InputRows:     in.NumRows(),
		InputColumns:  in.NumCols(),
		OutputRows:    out.NumRows(),
		OutputColumns: out.NumCols(),
		State:         state,
		Duration:      time.Since(start),
		RSSBytes:      residentMemory(),
	}

	log.Info("run completed",
		zap.Int64("rows", result.OutputRows),
		zap.Int64("columns", result.OutputColumns),
		zap.Int("numerical", len(state.NumericalColumns)),
		zap.Int("categorical", len(state.CategoricalColumns)),
		zap.Int("numerical_categorical", len(state.NumericalCategoricalColumns)),
		zap.Uint64("rss_bytes", result.RSSBytes),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// WriteState writes state as indented JSON
func WriteState(path string, state core.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode state")
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write state file").
			WithDetail("path", path)
	}
	return nil
}

// ReadState loads a state written by WriteState
func ReadState(path string) (core.State, error) {
	var state core.State
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return state, errors.Wrap(err, errors.ErrorTypeFile, "failed to read state file").
			WithDetail("path", path)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, errors.Wrap(err, errors.ErrorTypeFile, "invalid state file").
			WithDetail("path", path)
	}
	return state, nil
}

func readerConfig(in config.InputConfig) (formats.ReaderConfig, error) {
	cfg := formats.ReaderConfig{
		Format:     formats.Format(in.Format),
		NullValues: in.NullValues,
		Columns:    in.Columns,
	}
	if in.Delimiter != "" {
		cfg.Delimiter, _ = utf8.DecodeRuneInString(in.Delimiter)
	}
	if len(in.Schema) > 0 {
		cfg.Schema = make(schema.Schema, len(in.Schema))
		for name, s := range in.Schema {
			t, err := schema.ParseLogicalType(s)
			if err != nil {
				return cfg, errors.Wrap(err, errors.ErrorTypeConfig, "input.schema").
					WithDetail("column", name)
			}
			cfg.Schema[name] = t
		}
	}
	return cfg, nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create directory").
			WithDetail("path", filepath.Dir(path))
	}
	return nil
}

func residentMemory() uint64 {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return 0
	}
	mem, err := proc.MemoryInfo()
	if err != nil || mem == nil {
		return 0
	}
	return mem.RSS
}
