package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/featurepipe/internal/pipeline"
	"github.com/ajitpratap0/featurepipe/pkg/config"
	"github.com/ajitpratap0/featurepipe/pkg/formats"
	"github.com/ajitpratap0/featurepipe/pkg/logger"
	"github.com/ajitpratap0/featurepipe/pkg/observability"
	core "github.com/ajitpratap0/featurepipe/pkg/pipeline"
	"github.com/ajitpratap0/featurepipe/pkg/schema"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FEATUREPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "featurepipe",
		Short: "featurepipe - columnar feature extraction pipelines",
		Long: `featurepipe fits a sequence of feature processors over a tabular dataset,
tracking each column's logical type and splitting columns into numerical,
categorical and numerical-categorical groups.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "Path to the pipeline YAML file")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	root.AddCommand(newVersionCommand(), newRunCommand(v), newValidateCommand(v), newInspectCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "featurepipe v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newRunCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fit a pipeline over a dataset",
		Long: `Run reads the input dataset named in the configuration file, fits every
processor in order and writes the transformed table and the final state.

Example:
  featurepipe run --config pipeline.yaml --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runPipeline(cmd, cfg)
		},
	}

	cmd.Flags().String("log-level", "", "Log level (debug, info, warn, error); overrides the file")
	cmd.Flags().Bool("trace", false, "Export OpenTelemetry spans to stderr")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	bindFlags(v, cmd, "log-level", "trace", "metrics-file")
	return cmd
}

func newValidateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a pipeline configuration file",
		Long: `Validate loads the configuration file, checks it and builds every
processor (parsing derived column expressions) without reading any data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if _, err := core.Build(cfg.Processors); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d processors, input %s\n", cfg.Name, len(cfg.Processors), cfg.Input.Path)
			return nil
		},
	}
	return cmd
}

func newInspectCommand() *cobra.Command {
	var format, delimiter string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the logical schema of a dataset file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formats.ParseFormat(format)
			if err != nil {
				return err
			}
			rcfg := formats.ReaderConfig{Format: f}
			if delimiter != "" {
				rcfg.Delimiter = []rune(delimiter)[0]
			}

			rec, err := formats.ReadFile(cmd.Context(), args[0], rcfg)
			if err != nil {
				return err
			}
			defer rec.Release()

			type column struct {
				Name    string             `json:"name"`
				Storage string             `json:"storage"`
				Logical schema.LogicalType `json:"logical"`
			}
			out := struct {
				Path    string   `json:"path"`
				Rows    int64    `json:"rows"`
				Columns []column `json:"columns"`
			}{Path: args[0], Rows: rec.NumRows()}
			for _, field := range rec.Schema().Fields() {
				out.Columns = append(out.Columns, column{
					Name:    field.Name,
					Storage: field.Type.String(),
					Logical: schema.ToLogicalType(field.Type),
				})
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "File format (csv, parquet, arrow, avro); detected from the extension by default")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "CSV field separator")
	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
}

// loadConfig reads the configuration file and applies flag and environment
// overrides on top of it
func loadConfig(v *viper.Viper) (*config.Config, error) {
	path := v.GetString("config")
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v.IsSet("log-level") && v.GetString("log-level") != "" {
		cfg.Logging.Level = v.GetString("log-level")
	}
	if v.GetBool("trace") {
		cfg.Observability.Tracing = true
	}
	if v.IsSet("metrics-file") && v.GetString("metrics-file") != "" {
		cfg.Observability.MetricsFile = v.GetString("metrics-file")
	}
	return cfg, nil
}

func runPipeline(cmd *cobra.Command, cfg *config.Config) error {
	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.Logging.Development,
	}); err != nil {
		return err
	}
	log := logger.Get()
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()

	tracing := observability.DefaultTracingConfig()
	tracing.Enabled = cfg.Observability.Tracing
	tracing.ServiceVersion = version
	shutdown, err := observability.InitTracing(ctx, tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	result, err := pipeline.NewRunner(cfg, nil).Run(ctx)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "rows: %d  columns: %d  duration: %s\n",
		result.OutputRows, result.OutputColumns, result.Duration.Round(time.Millisecond))
	fmt.Fprintf(cmd.OutOrStdout(), "numerical: %s\n", strings.Join(result.State.NumericalColumns, ", "))
	fmt.Fprintf(cmd.OutOrStdout(), "categorical: %s\n", strings.Join(result.State.CategoricalColumns, ", "))
	fmt.Fprintf(cmd.OutOrStdout(), "numerical-categorical: %s\n", strings.Join(result.State.NumericalCategoricalColumns, ", "))
	return nil
}
