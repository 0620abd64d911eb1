package formats

import (
	"bufio"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

func readCSV(path string, cfg ReaderConfig, mem memory.Allocator) (arrow.Record, error) {
	f, err := openStream(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	declared, err := cfg.Schema.ToArrow(cfg.Schema.Names())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "declared CSV schema")
	}
	types := make(map[string]arrow.DataType, declared.NumFields())
	for _, field := range declared.Fields() {
		types[field.Name] = field.Type
	}

	opts := []csv.Option{
		csv.WithAllocator(mem),
		csv.WithHeader(true),
		csv.WithChunk(-1),
		csv.WithComma(delimiter(cfg.Delimiter)),
		csv.WithNullReader(true, cfg.NullValues...),
		csv.WithColumnTypes(types),
	}
	if len(cfg.Columns) > 0 {
		opts = append(opts, csv.WithIncludeColumns(cfg.Columns))
	}

	r := csv.NewInferringReader(bufio.NewReader(f), opts...)
	defer r.Release()

	var batches []arrow.Record
	defer func() {
		for _, b := range batches {
			b.Release()
		}
	}()
	for r.Next() {
		rec := r.Record()
		rec.Retain()
		batches = append(batches, rec)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	s := r.Schema()
	if s == nil {
		return nil, errors.New(errors.ErrorTypeFile, "CSV file has no header")
	}
	return concatRecords(s, batches, mem)
}

func writeCSV(path string, rec arrow.Record, cfg WriterConfig) error {
	f, err := createStream(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create file")
	}

	w := csv.NewWriter(f, rec.Schema(),
		csv.WithHeader(true),
		csv.WithComma(delimiter(cfg.Delimiter)),
		csv.WithNullWriter(""),
	)
	if err := w.Write(rec); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write CSV rows")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush CSV writer")
	}
	if err := w.Error(); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "CSV writer failed")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close file")
	}
	return nil
}

func delimiter(r rune) rune {
	if r == 0 {
		return ','
	}
	return r
}
