package formats

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

func readParquet(ctx context.Context, path string, mem memory.Allocator) (arrow.Record, error) {
	pf, err := file.OpenParquetFile(path, false, file.WithReadProps(parquet.NewReaderProperties(mem)))
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, err
	}

	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()

	chunks := make([][]arrow.Array, tbl.NumCols())
	for i := range chunks {
		chunks[i] = tbl.Column(i).Data().Chunks()
	}
	return concatColumns(tbl.Schema(), chunks, tbl.NumRows(), mem)
}

func writeParquet(path string, rec arrow.Record, cfg WriterConfig, mem memory.Allocator) error {
	codec, err := parquetCodec(cfg.Compression)
	if err != nil {
		return err
	}

	f, err := os.Create(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create file")
	}
	// the parquet writer closes sinks that implement io.Closer
	buf := bufio.NewWriter(f)

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithAllocator(mem),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(mem),
		pqarrow.WithStoreSchema(),
	)

	fw, err := pqarrow.NewFileWriter(rec.Schema(), buf, props, arrowProps)
	if err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create Parquet writer")
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write Parquet row group")
	}
	if err := fw.Close(); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close Parquet writer")
	}
	if err := buf.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close file")
	}
	return nil
}

func parquetCodec(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	default:
		return compress.Codecs.Uncompressed, errors.New(errors.ErrorTypeConfig, "unknown Parquet compression").
			WithDetail("compression", name)
	}
}
