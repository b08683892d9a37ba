package writer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tnqbao/gau-datagen-service/generator"
)

// sqlBatchSize bounds how many rows share one INSERT statement so no single
// statement grows pathologically large.
const sqlBatchSize = 500

// sqlWriter emits batched INSERT statements with standard single-quote
// escaping. The table name is the schema kind.
type sqlWriter struct {
	count   *countingWriter
	schema  *generator.Schema
	prefix  string
	buf     strings.Builder
	batched int
}

func newSQLWriter(sink io.Writer, schema *generator.Schema) (RecordWriter, error) {
	w := &sqlWriter{count: &countingWriter{w: sink}, schema: schema}

	cols := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		cols[i] = quoteIdent(f.Name)
	}
	w.prefix = "INSERT INTO " + quoteIdent(schema.Kind) + " (" + strings.Join(cols, ", ") + ") VALUES\n"
	return w, nil
}

func (w *sqlWriter) Write(rec *generator.Record) error {
	if w.batched == 0 {
		w.buf.WriteString(w.prefix)
	} else {
		w.buf.WriteString(",\n")
	}

	w.buf.WriteByte('(')
	for i := range w.schema.Fields {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		w.buf.WriteString(sqlLiteral(&w.schema.Fields[i], rec.Value(i)))
	}
	w.buf.WriteByte(')')
	w.batched++

	if w.batched >= sqlBatchSize {
		return w.flushBatch()
	}
	return nil
}

func (w *sqlWriter) flushBatch() error {
	if w.batched == 0 {
		return nil
	}
	w.buf.WriteString(";\n")
	_, err := io.WriteString(w.count, w.buf.String())
	w.buf.Reset()
	w.batched = 0
	return err
}

func (w *sqlWriter) Close() error {
	return w.flushBatch()
}

func (w *sqlWriter) BytesWritten() int64 {
	return w.count.n
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlLiteral(fld *generator.FieldSpec, v any) string {
	if v == nil {
		return "NULL"
	}
	switch x := v.(type) {
	case string:
		return quoteString(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		if fld.Type == generator.FieldDate {
			return "'" + x.Format(dateLayout) + "'"
		}
		return "'" + x.Format("2006-01-02 15:04:05") + "'"
	}
	return quoteString(textValue(fld, v))
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
