package formats

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

// Stream compressions recognised from a trailing file extension. Only
// row-oriented formats (CSV) can be read through them.
const (
	streamNone = ""
	streamGzip = ".gz"
	streamZstd = ".zst"
	streamLZ4  = ".lz4"
)

// splitStream returns path without a known compression extension, and that
// extension
func splitStream(path string) (string, string) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case streamGzip, streamZstd, streamLZ4:
		return strings.TrimSuffix(path, filepath.Ext(path)), ext
	default:
		return path, streamNone
	}
}

type multiCloser struct {
	io.Reader
	io.Writer
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openStream opens path for reading, decompressing by extension
func openStream(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return nil, err
	}

	_, codec := splitStream(path)
	switch codec {
	case streamGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "invalid gzip stream")
		}
		return &multiCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case streamZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "invalid zstd stream")
		}
		rc := zr.IOReadCloser()
		return &multiCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
	case streamLZ4:
		return &multiCloser{Reader: lz4.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

// createStream creates path for writing, compressing by extension. Close
// flushes the compressor before closing the file.
func createStream(path string) (io.WriteCloser, error) {
	f, err := os.Create(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return nil, err
	}

	_, codec := splitStream(path)
	switch codec {
	case streamGzip:
		zw := gzip.NewWriter(f)
		return &multiCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case streamZstd:
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create zstd stream")
		}
		return &multiCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case streamLZ4:
		zw := lz4.NewWriter(f)
		return &multiCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	default:
		return f, nil
	}
}
