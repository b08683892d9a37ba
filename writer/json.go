package writer

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/tnqbao/gau-datagen-service/generator"
)

// jsonWriter streams a single JSON array, one object per record, preserving
// the schema's declared field order inside each object.
type jsonWriter struct {
	count  *countingWriter
	schema *generator.Schema
	buf    bytes.Buffer
	first  bool
}

func newJSONWriter(sink io.Writer, schema *generator.Schema) (RecordWriter, error) {
	w := &jsonWriter{count: &countingWriter{w: sink}, schema: schema, first: true}
	if _, err := w.count.Write([]byte("[\n")); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *jsonWriter) Write(rec *generator.Record) error {
	w.buf.Reset()
	if !w.first {
		w.buf.WriteString(",\n")
	}
	w.first = false

	w.buf.WriteByte('{')
	for i := range w.schema.Fields {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		fld := &w.schema.Fields[i]
		name, err := json.Marshal(fld.Name)
		if err != nil {
			return err
		}
		w.buf.Write(name)
		w.buf.WriteByte(':')
		val, err := json.Marshal(jsonValue(fld, rec.Value(i)))
		if err != nil {
			return err
		}
		w.buf.Write(val)
	}
	w.buf.WriteByte('}')

	_, err := w.count.Write(w.buf.Bytes())
	return err
}

func (w *jsonWriter) Close() error {
	_, err := w.count.Write([]byte("\n]\n"))
	return err
}

func (w *jsonWriter) BytesWritten() int64 {
	return w.count.n
}

func jsonValue(fld *generator.FieldSpec, v any) any {
	if t, ok := v.(time.Time); ok {
		if fld.Type == generator.FieldDate {
			return t.Format(dateLayout)
		}
		return t.Format(timestampLayout)
	}
	return v
}
