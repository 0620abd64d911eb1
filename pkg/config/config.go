package config

import (
	"fmt"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
	"github.com/ajitpratap0/featurepipe/pkg/formats"
	"github.com/ajitpratap0/featurepipe/pkg/schema"
)

// Processor type names accepted in ProcessorConfig.Type
const (
	ProcessorAddColumns     = "add_columns"
	ProcessorDropColumns    = "drop_columns"
	ProcessorCast           = "cast"
	ProcessorColumnSplitter = "column_splitter"
)

// Dataset formats accepted in InputConfig.Format and OutputConfig.Format
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatArrow   = "arrow"
	FormatAvro    = "avro"
)

// Config is the top level description of a pipeline run
type Config struct {
	// Name labels logs, metrics and traces
	Name string `yaml:"name" json:"name"`

	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Input         InputConfig         `yaml:"input" json:"input"`
	Output        OutputConfig        `yaml:"output" json:"output"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// Processors run in the listed order
	Processors []ProcessorConfig `yaml:"processors" json:"processors"`
}

// LoggingConfig mirrors logger.Config
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Encoding    string `yaml:"encoding" json:"encoding"`
	Development bool   `yaml:"development" json:"development"`
}

// InputConfig locates the dataset the pipeline is fitted on
type InputConfig struct {
	Path string `yaml:"path" json:"path"`
	// Format is csv, parquet, arrow or avro; empty means detect from the
	// extension
	Format string `yaml:"format" json:"format"`
	// Delimiter is the CSV field separator, "," when empty
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	// NullValues are CSV cells read as null
	NullValues []string `yaml:"null_values,omitempty" json:"null_values,omitempty"`
	// Schema declares the logical type of every CSV column. Types are
	// inferred when it is empty.
	Schema map[string]string `yaml:"schema,omitempty" json:"schema,omitempty"`
	// Columns restricts a CSV read to these header columns; empty reads all
	Columns []string `yaml:"columns,omitempty" json:"columns,omitempty"`
}

// OutputConfig says where results go. Empty paths skip the write.
type OutputConfig struct {
	Path        string `yaml:"path" json:"path"`
	Format      string `yaml:"format" json:"format"`
	// Compression is the Parquet or Avro codec, snappy when empty. CSV and
	// Arrow outputs take none.
	Compression string `yaml:"compression" json:"compression"`
	StatePath   string `yaml:"state_path" json:"state_path"`
}

// ObservabilityConfig toggles tracing and the metrics textfile
type ObservabilityConfig struct {
	Tracing     bool   `yaml:"tracing" json:"tracing"`
	MetricsFile string `yaml:"metrics_file" json:"metrics_file"`
}

// ProcessorConfig configures one processor. Which fields apply depends on
// Type.
type ProcessorConfig struct {
	Type string `yaml:"type" json:"type"`

	// Columns lists the columns to remove (drop_columns)
	Columns []string `yaml:"columns,omitempty" json:"columns,omitempty"`
	// Cast maps column names to target logical types (cast)
	Cast map[string]string `yaml:"cast,omitempty" json:"cast,omitempty"`
	// Add lists derived columns (add_columns)
	Add []DerivedColumnConfig `yaml:"add,omitempty" json:"add,omitempty"`
	// Threshold is the distinct-value count below which a numeric column is
	// treated as categorical (column_splitter)
	Threshold int `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// DerivedColumnConfig is one add_columns entry
type DerivedColumnConfig struct {
	Name string `yaml:"name" json:"name"`
	Expr string `yaml:"expr" json:"expr"`
	Type string `yaml:"type" json:"type"`
}

// Default returns a configuration with every optional field filled in
func Default() *Config {
	return &Config{
		Name: "featurepipe",
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Input: InputConfig{
			Delimiter:  ",",
			NullValues: []string{"", "NA", "NULL"},
		},
	}
}

// ApplyDefaults fills empty optional fields from Default
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = d.Logging.Encoding
	}
	if c.Input.Delimiter == "" {
		c.Input.Delimiter = d.Input.Delimiter
	}
	if c.Input.NullValues == nil {
		c.Input.NullValues = d.Input.NullValues
	}
}

// Validate checks the whole configuration, including every processor
func (c *Config) Validate() error {
	if c.Input.Path == "" {
		return errors.New(errors.ErrorTypeConfig, "input.path is required")
	}
	if err := validateFormat("input.format", c.Input.Format); err != nil {
		return err
	}
	if err := validateFormat("output.format", c.Output.Format); err != nil {
		return err
	}
	if len([]rune(c.Input.Delimiter)) > 1 {
		return errors.New(errors.ErrorTypeConfig, "input.delimiter must be a single character").
			WithDetail("delimiter", c.Input.Delimiter)
	}
	if err := c.Output.validateCompression(); err != nil {
		return err
	}
	for col, t := range c.Input.Schema {
		if _, err := schema.ParseLogicalType(t); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("input.schema[%s]", col))
		}
	}
	for i := range c.Processors {
		if err := c.Processors[i].Validate(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("processors[%d]", i))
		}
	}
	return nil
}

// validateCompression checks the codec against the format the output is
// written in, taken from Format or else from the path's extension
func (o OutputConfig) validateCompression() error {
	format := formats.Format(o.Format)
	if format == "" && o.Path != "" {
		f, err := formats.DetectFormat(o.Path)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "output.path")
		}
		format = f
	}

	if format == "" {
		// no output file: accept any codec some writer knows
		if formats.CheckCompression(formats.Parquet, o.Compression) == nil ||
			formats.CheckCompression(formats.Avro, o.Compression) == nil {
			return nil
		}
		return errors.New(errors.ErrorTypeConfig, "unknown output.compression").
			WithDetail("compression", o.Compression)
	}

	if err := formats.CheckCompression(format, o.Compression); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "output.compression").
			WithDetail("format", string(format))
	}
	return nil
}

// Validate checks that the fields required by Type are well formed
func (p *ProcessorConfig) Validate() error {
	switch p.Type {
	case ProcessorDropColumns, ProcessorColumnSplitter:
		return nil
	case ProcessorCast:
		for col, t := range p.Cast {
			if _, err := schema.ParseLogicalType(t); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("cast[%s]", col))
			}
		}
		return nil
	case ProcessorAddColumns:
		seen := make(map[string]struct{}, len(p.Add))
		for i, a := range p.Add {
			if a.Name == "" || a.Expr == "" {
				return errors.Newf(errors.ErrorTypeConfig, "add[%d] needs name and expr", i)
			}
			if _, dup := seen[a.Name]; dup {
				return errors.Newf(errors.ErrorTypeConfig, "add[%d]: column %q derived twice", i, a.Name)
			}
			seen[a.Name] = struct{}{}
			if _, err := schema.ParseLogicalType(a.Type); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("add[%d]", i))
			}
		}
		return nil
	default:
		return errors.New(errors.ErrorTypeConfig, "unknown processor type").
			WithDetail("type", p.Type)
	}
}

func validateFormat(field, format string) error {
	switch format {
	case "", FormatCSV, FormatParquet, FormatArrow, FormatAvro:
		return nil
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown %s %q", field, format)
	}
}
