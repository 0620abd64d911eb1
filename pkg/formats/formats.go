// Package formats reads and writes whole datasets as arrow records. It is
// the file boundary around the pipeline core: CSV, Parquet, Arrow IPC and
// Avro container files are supported. CSV files may additionally be gzip,
// zstd or lz4 compressed, recognised by a trailing .gz, .zst or .lz4.
package formats

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
	"github.com/ajitpratap0/featurepipe/pkg/schema"
)

// Format identifies a dataset file format
type Format string

const (
	CSV     Format = "csv"
	Parquet Format = "parquet"
	Arrow   Format = "arrow"
	Avro    Format = "avro"
)

// ReaderConfig configures ReadFile
type ReaderConfig struct {
	// Format overrides detection from the file extension
	Format Format
	// Delimiter is the CSV field separator, ',' when zero
	Delimiter rune
	// NullValues are CSV cells read as null
	NullValues []string
	// Schema fixes the logical type of CSV columns; columns not listed are
	// inferred
	Schema schema.Schema
	// Columns restricts a CSV read to these header columns
	Columns []string
	// Allocator defaults to memory.DefaultAllocator
	Allocator memory.Allocator
}

// WriterConfig configures WriteFile
type WriterConfig struct {
	Format Format
	// Compression is the Parquet codec (none, snappy, gzip, zstd, lz4,
	// brotli) or the Avro block codec (none, snappy, deflate). Snappy when
	// empty. CSV and Arrow files take none; see CheckCompression.
	Compression string
	// Delimiter is the CSV field separator, ',' when zero
	Delimiter rune
	Allocator memory.Allocator
}

// DetectFormat picks a format from the file extension, ignoring a trailing
// stream compression extension
func DetectFormat(path string) (Format, error) {
	base, _ := splitStream(path)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv", ".tsv", ".txt":
		return CSV, nil
	case ".parquet", ".pq":
		return Parquet, nil
	case ".arrow", ".feather", ".ipc":
		return Arrow, nil
	case ".avro":
		return Avro, nil
	default:
		return "", errors.New(errors.ErrorTypeFile, "cannot detect format from extension").
			WithDetail("path", path)
	}
}

// ParseFormat validates a format name. The empty string means detect.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", CSV, Parquet, Arrow, Avro:
		return f, nil
	default:
		return "", errors.New(errors.ErrorTypeConfig, "unknown format").WithDetail("format", s)
	}
}

// ReadFile loads a whole file into one record owned by the caller
func ReadFile(ctx context.Context, path string, cfg ReaderConfig) (arrow.Record, error) {
	format, err := resolve(path, cfg.Format)
	if err != nil {
		return nil, err
	}
	mem := allocator(cfg.Allocator)

	var rec arrow.Record
	switch format {
	case CSV:
		rec, err = readCSV(path, cfg, mem)
	case Parquet:
		rec, err = readParquet(ctx, path, mem)
	case Arrow:
		rec, err = readArrow(path, mem)
	case Avro:
		rec, err = readAvro(path, mem)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read "+string(format)+" file").
			WithDetail("path", path)
	}
	return rec, nil
}

// WriteFile writes rec to path, replacing any existing file
func WriteFile(path string, rec arrow.Record, cfg WriterConfig) error {
	format, err := resolve(path, cfg.Format)
	if err != nil {
		return err
	}
	if err := CheckCompression(format, cfg.Compression); err != nil {
		return err
	}
	mem := allocator(cfg.Allocator)

	switch format {
	case CSV:
		err = writeCSV(path, rec, cfg)
	case Parquet:
		err = writeParquet(path, rec, cfg, mem)
	case Arrow:
		err = writeArrow(path, rec, mem)
	case Avro:
		err = writeAvro(path, rec, cfg)
	}
	if err != nil {
		return errors.Wrap(err, errors.TypeOf(err), "failed to write "+string(format)+" file").
			WithDetail("path", path)
	}
	return nil
}

// CheckCompression reports whether compression is a codec f can be written
// with. Parquet and Avro take block codecs. CSV and Arrow files are written
// without one; a CSV stream is compressed by its file suffix instead.
func CheckCompression(f Format, compression string) error {
	var err error
	switch f {
	case Parquet:
		_, err = parquetCodec(compression)
	case Avro:
		_, err = avroCodecName(compression)
	default:
		switch strings.ToLower(compression) {
		case "", "none":
		default:
			err = errors.Newf(errors.ErrorTypeConfig, "%s output takes no compression codec", f).
				WithDetail("compression", compression)
		}
	}
	return err
}

func resolve(path string, f Format) (Format, error) {
	var err error
	if f == "" {
		f, err = DetectFormat(path)
	} else {
		f, err = ParseFormat(string(f))
	}
	if err != nil {
		return "", err
	}

	if _, codec := splitStream(path); codec != streamNone && f != CSV {
		return "", errors.Newf(errors.ErrorTypeConfig, "%s compression is only supported for csv files", codec).
			WithDetail("path", path)
	}
	return f, nil
}

func allocator(mem memory.Allocator) memory.Allocator {
	if mem == nil {
		return memory.DefaultAllocator
	}
	return mem
}

// concatRecords joins record batches sharing schema s into one record.
// Zero batches give an empty record.
func concatRecords(s *arrow.Schema, batches []arrow.Record, mem memory.Allocator) (arrow.Record, error) {
	if len(batches) == 1 {
		return columnsRetained(batches[0]), nil
	}

	chunks := make([][]arrow.Array, s.NumFields())
	var rows int64
	for _, b := range batches {
		for i := range chunks {
			chunks[i] = append(chunks[i], b.Column(i))
		}
		rows += b.NumRows()
	}
	return concatColumns(s, chunks, rows, mem)
}

// concatColumns builds a record from per-column chunk lists
func concatColumns(s *arrow.Schema, chunks [][]arrow.Array, rows int64, mem memory.Allocator) (arrow.Record, error) {
	cols := make([]arrow.Array, len(chunks))
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()

	for i, parts := range chunks {
		var err error
		switch len(parts) {
		case 0:
			cols[i] = array.MakeArrayOfNull(mem, s.Field(i).Type, 0)
		case 1:
			parts[0].Retain()
			cols[i] = parts[0]
		default:
			cols[i], err = array.Concatenate(parts, mem)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeInternal, "concatenating column").
					WithDetail("column", s.Field(i).Name)
			}
		}
	}
	return array.NewRecord(s, cols, rows), nil
}

// columnsRetained copies a borrowed record into one the caller owns
func columnsRetained(rec arrow.Record) arrow.Record {
	return array.NewRecord(rec.Schema(), rec.Columns(), rec.NumRows())
}
