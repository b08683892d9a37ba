package writer

import (
	"encoding/csv"
	"io"

	"github.com/tnqbao/gau-datagen-service/generator"
)

// csvWriter emits one header row followed by one record per line.
// encoding/csv handles quoting of embedded delimiters, quotes and newlines.
type csvWriter struct {
	cw     *csv.Writer
	count  *countingWriter
	schema *generator.Schema
	row    []string
}

func newCSVWriter(sink io.Writer, schema *generator.Schema) (RecordWriter, error) {
	count := &countingWriter{w: sink}
	w := &csvWriter{
		cw:     csv.NewWriter(count),
		count:  count,
		schema: schema,
		row:    make([]string, len(schema.Fields)),
	}
	if err := w.cw.Write(schema.FieldNames()); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *csvWriter) Write(rec *generator.Record) error {
	for i := range w.schema.Fields {
		w.row[i] = textValue(&w.schema.Fields[i], rec.Value(i))
	}
	return w.cw.Write(w.row)
}

func (w *csvWriter) Close() error {
	w.cw.Flush()
	return w.cw.Error()
}

func (w *csvWriter) BytesWritten() int64 {
	return w.count.n
}
