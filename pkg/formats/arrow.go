package formats

import (
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

func readArrow(path string, mem memory.Allocator) (arrow.Record, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(mem))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	batches := make([]arrow.Record, 0, r.NumRecords())
	defer func() {
		for _, b := range batches {
			b.Release()
		}
	}()
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.RecordAt(i)
		if err != nil {
			return nil, err
		}
		batches = append(batches, rec)
	}
	return concatRecords(r.Schema(), batches, mem)
}

func writeArrow(path string, rec arrow.Record, mem memory.Allocator) error {
	f, err := os.Create(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create file")
	}

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create Arrow writer")
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write Arrow record")
	}
	if err := w.Close(); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close Arrow writer")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close file")
	}
	return nil
}
