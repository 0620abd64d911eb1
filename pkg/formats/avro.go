package formats

import (
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	json "github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

// avroType maps a storage type to the Avro primitive used to hold it.
// Every field is written as a ["null", T] union.
func avroType(dt arrow.DataType) (string, error) {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.UINT8, arrow.UINT16:
		return "int", nil
	case arrow.INT64, arrow.UINT32:
		return "long", nil
	case arrow.FLOAT32:
		return "float", nil
	case arrow.FLOAT64:
		return "double", nil
	case arrow.STRING, arrow.LARGE_STRING:
		return "string", nil
	case arrow.BOOL:
		return "boolean", nil
	default:
		return "", errors.New(errors.ErrorTypeConfig, "no Avro type for column storage type").
			WithDetail("type", dt.String())
	}
}

func storageForAvro(t string) (arrow.DataType, error) {
	switch t {
	case "int":
		return arrow.PrimitiveTypes.Int32, nil
	case "long":
		return arrow.PrimitiveTypes.Int64, nil
	case "float":
		return arrow.PrimitiveTypes.Float32, nil
	case "double":
		return arrow.PrimitiveTypes.Float64, nil
	case "string":
		return arrow.BinaryTypes.String, nil
	case "boolean":
		return arrow.FixedWidthTypes.Boolean, nil
	default:
		return nil, errors.New(errors.ErrorTypeFile, "unsupported Avro type").WithDetail("type", t)
	}
}

type avroField struct {
	Name string      `json:"name"`
	Type interface{} `json:"type"`
}

type avroSchema struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []avroField `json:"fields"`
}

func avroCodecName(compression string) (string, error) {
	switch strings.ToLower(compression) {
	case "", "snappy":
		return goavro.CompressionSnappyLabel, nil
	case "none", "null":
		return goavro.CompressionNullLabel, nil
	case "deflate", "gzip":
		return goavro.CompressionDeflateLabel, nil
	default:
		return "", errors.New(errors.ErrorTypeConfig, "unknown Avro compression").
			WithDetail("compression", compression)
	}
}

func writeAvro(path string, rec arrow.Record, cfg WriterConfig) error {
	codecName, err := avroCodecName(cfg.Compression)
	if err != nil {
		return err
	}

	s := avroSchema{Type: "record", Name: "features"}
	types := make([]string, rec.NumCols())
	for i, f := range rec.Schema().Fields() {
		t, err := avroType(f.Type)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "column "+f.Name)
		}
		types[i] = t
		s.Fields = append(s.Fields, avroField{Name: f.Name, Type: []string{"null", t}})
	}
	schemaJSON, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode Avro schema")
	}

	f, err := os.Create(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create file")
	}

	w, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               f,
		Schema:          string(schemaJSON),
		CompressionName: codecName,
	})
	if err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create Avro writer")
	}

	rows := make([]interface{}, 0, rec.NumRows())
	for r := 0; r < int(rec.NumRows()); r++ {
		row := make(map[string]interface{}, rec.NumCols())
		for c, field := range rec.Schema().Fields() {
			row[field.Name] = avroValue(rec.Column(c), r, types[c])
		}
		rows = append(rows, row)
	}
	if err := w.Append(rows); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write Avro rows")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close file")
	}
	return nil
}

func avroValue(arr arrow.Array, i int, t string) interface{} {
	if arr.IsNull(i) {
		return nil
	}
	var v interface{}
	switch a := arr.(type) {
	case *array.Int8:
		v = int32(a.Value(i))
	case *array.Int16:
		v = int32(a.Value(i))
	case *array.Int32:
		v = a.Value(i)
	case *array.Uint8:
		v = int32(a.Value(i))
	case *array.Uint16:
		v = int32(a.Value(i))
	case *array.Uint32:
		v = int64(a.Value(i))
	case *array.Int64:
		v = a.Value(i)
	case *array.Float32:
		v = a.Value(i)
	case *array.Float64:
		v = a.Value(i)
	case *array.String:
		v = a.Value(i)
	case *array.LargeString:
		v = a.Value(i)
	case *array.Boolean:
		v = a.Value(i)
	}
	return goavro.Union(t, v)
}

func readAvro(path string, mem memory.Allocator) (arrow.Record, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, err
	}

	var s avroSchema
	if err := json.Unmarshal([]byte(r.Codec().Schema()), &s); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "invalid Avro schema")
	}

	fields := make([]arrow.Field, len(s.Fields))
	types := make([]string, len(s.Fields))
	for i, af := range s.Fields {
		t, nullable := primitiveOf(af.Type)
		dt, err := storageForAvro(t)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "field "+af.Name)
		}
		types[i] = t
		fields[i] = arrow.Field{Name: af.Name, Type: dt, Nullable: nullable}
	}

	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()

	for r.Scan() {
		datum, err := r.Read()
		if err != nil {
			return nil, err
		}
		row, ok := datum.(map[string]interface{})
		if !ok {
			return nil, errors.New(errors.ErrorTypeFile, "Avro datum is not a record")
		}
		for i, af := range s.Fields {
			appendAvro(b.Field(i), unwrapUnion(row[af.Name], types[i]))
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	return b.NewRecord(), nil
}

// primitiveOf resolves "T" or ["null", "T"] to T
func primitiveOf(t interface{}) (string, bool) {
	switch v := t.(type) {
	case string:
		return v, false
	case []interface{}:
		nullable := false
		name := ""
		for _, u := range v {
			if s, ok := u.(string); ok {
				if s == "null" {
					nullable = true
				} else {
					name = s
				}
			}
		}
		return name, nullable
	default:
		return "", false
	}
}

func unwrapUnion(v interface{}, t string) interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m[t]
	}
	return v
}

func appendAvro(b array.Builder, v interface{}) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch bb := b.(type) {
	case *array.Int32Builder:
		bb.Append(v.(int32))
	case *array.Int64Builder:
		bb.Append(v.(int64))
	case *array.Float32Builder:
		bb.Append(v.(float32))
	case *array.Float64Builder:
		bb.Append(v.(float64))
	case *array.StringBuilder:
		bb.Append(v.(string))
	case *array.BooleanBuilder:
		bb.Append(v.(bool))
	default:
		b.AppendNull()
	}
}
