package formats

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/featurepipe/pkg/columnar"
	"github.com/ajitpratap0/featurepipe/pkg/errors"
	"github.com/ajitpratap0/featurepipe/pkg/schema"
	"github.com/ajitpratap0/featurepipe/pkg/testutil"
)

const hotelsCSV = `site_name,category,score
1,a,1.5
2,,2
3,b,4.25
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"train.csv":         CSV,
		"train.TSV":         CSV,
		"out/train.parquet": Parquet,
		"train.pq":          Parquet,
		"train.arrow":       Arrow,
		"train.feather":     Arrow,
	}
	for path, expected := range tests {
		f, err := DetectFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, expected, f, path)
	}

	_, err := DetectFormat("train.xlsx")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Parquet ")
	require.NoError(t, err)
	assert.Equal(t, Parquet, f)

	_, err = ParseFormat("orc")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestReadCSV_DeclaredSchema(t *testing.T) {
	path := writeTemp(t, "hotels.csv", hotelsCSV)

	rec, err := ReadFile(context.Background(), path, ReaderConfig{
		NullValues: []string{""},
		Schema:     schema.Schema{"site_name": schema.Uint8, "category": schema.String, "score": schema.Float32},
	})
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, []string{"site_name", "category", "score"}, columnar.ColumnNames(rec))
	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, schema.Schema{"site_name": schema.Uint8, "category": schema.String, "score": schema.Float32},
		schema.FromArrow(rec.Schema()))

	assert.Equal(t, []uint8{1, 2, 3}, rec.Column(0).(*array.Uint8).Uint8Values())
	assert.True(t, rec.Column(1).IsNull(1))
	assert.Equal(t, []float32{1.5, 2, 4.25}, rec.Column(2).(*array.Float32).Float32Values())
}

func TestReadCSV_Inferred(t *testing.T) {
	path := writeTemp(t, "hotels.txt", "a;b\n1;x\n2;y\n")

	rec, err := ReadFile(context.Background(), path, ReaderConfig{Format: CSV, Delimiter: ';'})
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, arrow.INT64, rec.Column(0).DataType().ID())
	assert.Equal(t, arrow.STRING, rec.Column(1).DataType().ID())
}

func TestReadCSV_IncludeColumns(t *testing.T) {
	path := writeTemp(t, "hotels.csv", hotelsCSV)

	rec, err := ReadFile(context.Background(), path, ReaderConfig{Columns: []string{"site_name", "score"}})
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, []string{"site_name", "score"}, columnar.ColumnNames(rec))
}

func TestReadCSV_BadDeclaredType(t *testing.T) {
	path := writeTemp(t, "hotels.csv", hotelsCSV)

	_, err := ReadFile(context.Background(), path, ReaderConfig{Schema: schema.Schema{"score": schema.Datetime}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	assert.Contains(t, err.Error(), "column score")
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.parquet"), ReaderConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func sampleRecord(t *testing.T) arrow.Record {
	return testutil.Record(t,
		testutil.Col{Name: "id", Array: testutil.Uint32s(1, 2, 3)},
		testutil.Col{Name: "category", Array: testutil.Strings("a", "b", "a")},
		testutil.Col{Name: "score", Array: testutil.Float32s(1.5, 2, 3)},
	)
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		file string
		cfg  WriterConfig
	}{
		{file: "out.parquet"},
		{file: "out.parquet", cfg: WriterConfig{Compression: "zstd"}},
		{file: "out.parquet", cfg: WriterConfig{Compression: "none"}},
		{file: "out.arrow"},
		{file: "out.ipc", cfg: WriterConfig{Format: Arrow}},
	} {
		t.Run(tc.file+"/"+tc.cfg.Compression, func(t *testing.T) {
			rec := sampleRecord(t)
			path := filepath.Join(t.TempDir(), tc.file)

			require.NoError(t, WriteFile(path, rec, tc.cfg))

			back, err := ReadFile(context.Background(), path, ReaderConfig{Format: tc.cfg.Format})
			require.NoError(t, err)
			defer back.Release()

			assert.Equal(t, schema.FromArrow(rec.Schema()), schema.FromArrow(back.Schema()))
			assert.Equal(t, rec.NumRows(), back.NumRows())
			assert.Equal(t, []uint32{1, 2, 3}, back.Column(0).(*array.Uint32).Uint32Values())
			assert.Equal(t, "b", back.Column(1).(*array.String).Value(1))
			assert.Equal(t, []float32{1.5, 2, 3}, back.Column(2).(*array.Float32).Float32Values())
		})
	}
}

func TestWriteCSV(t *testing.T) {
	rec := sampleRecord(t)
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, WriteFile(path, rec, WriterConfig{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,category,score\n1,a,1.5\n2,b,2\n3,a,3\n", string(data))
}

func TestWriteFile_UnknownCompression(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "out.parquet"), sampleRecord(t), WriterConfig{Compression: "rar"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestCheckCompression(t *testing.T) {
	tests := []struct {
		format      Format
		compression string
		wantErr     bool
	}{
		{Parquet, "", false},
		{Parquet, "brotli", false},
		{Parquet, "deflate", true},
		{Avro, "deflate", false},
		{Avro, "snappy", false},
		{Avro, "zstd", true},
		{Avro, "lz4", true},
		{CSV, "", false},
		{CSV, "none", false},
		{CSV, "gzip", true},
		{Arrow, "snappy", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format)+"/"+tt.compression, func(t *testing.T) {
			err := CheckCompression(tt.format, tt.compression)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestWriteFile_CodecNotForFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	err := WriteFile(path, sampleRecord(t), WriterConfig{Compression: "zstd"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing is written")
}

func TestCompressedCSV(t *testing.T) {
	for _, ext := range []string{".gz", ".zst", ".lz4"} {
		t.Run(ext, func(t *testing.T) {
			rec := sampleRecord(t)
			path := filepath.Join(t.TempDir(), "out.csv"+ext)

			f, err := DetectFormat(path)
			require.NoError(t, err)
			assert.Equal(t, CSV, f)

			require.NoError(t, WriteFile(path, rec, WriterConfig{}))

			back, err := ReadFile(context.Background(), path, ReaderConfig{
				Schema: schema.Schema{"id": schema.Uint32, "category": schema.String, "score": schema.Float32},
			})
			require.NoError(t, err)
			defer back.Release()

			assert.Equal(t, []uint32{1, 2, 3}, back.Column(0).(*array.Uint32).Uint32Values())
			assert.Equal(t, []float32{1.5, 2, 3}, back.Column(2).(*array.Float32).Float32Values())
		})
	}
}

func TestStreamCompressionRequiresCSV(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "out.parquet.gz"), sampleRecord(t), WriterConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestAvroRoundTrip(t *testing.T) {
	rec := testutil.Record(t,
		testutil.Col{Name: "site", Array: testutil.Uint8s(1, 2)},
		testutil.Col{Name: "id", Array: testutil.Uint32s(10, 20)},
		testutil.Col{Name: "category", Array: testutil.Strings("a", "b")},
		testutil.Col{Name: "score", Array: testutil.Float32s(1.5, 2)},
		testutil.Col{Name: "price", Array: testutil.Float64s(9.99, 10)},
		testutil.Col{Name: "is_mobile", Array: testutil.Bools(true, false)},
	)

	for _, compression := range []string{"", "none", "deflate"} {
		path := filepath.Join(t.TempDir(), "out.avro")
		require.NoError(t, WriteFile(path, rec, WriterConfig{Compression: compression}))

		back, err := ReadFile(context.Background(), path, ReaderConfig{})
		require.NoError(t, err, compression)

		assert.Equal(t, []string{"site", "id", "category", "score", "price", "is_mobile"}, columnar.ColumnNames(back))
		assert.Equal(t, []int32{1, 2}, back.Column(0).(*array.Int32).Int32Values())
		assert.Equal(t, []int64{10, 20}, back.Column(1).(*array.Int64).Int64Values())
		assert.Equal(t, "b", back.Column(2).(*array.String).Value(1))
		assert.Equal(t, []float32{1.5, 2}, back.Column(3).(*array.Float32).Float32Values())
		assert.Equal(t, []float64{9.99, 10}, back.Column(4).(*array.Float64).Float64Values())
		assert.True(t, back.Column(5).(*array.Boolean).Value(0))
		back.Release()
	}
}

func TestAvro_UnknownCompression(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "out.avro"), testutil.Record(t,
		testutil.Col{Name: "n", Array: testutil.Int64s(1)},
	), WriterConfig{Compression: "brotli"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
