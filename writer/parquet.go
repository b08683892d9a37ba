package writer

import (
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/tnqbao/gau-datagen-service/generator"
)

// parquetBlockSize bounds how many records sit in the in-memory row group
// before it is flushed to the sink.
const parquetBlockSize = 1000

// parquetWriter maps the schema onto a parquet group of optional columns and
// flushes bounded row groups instead of holding the table in memory.
type parquetWriter struct {
	count   *countingWriter
	schema  *generator.Schema
	gw      *parquet.GenericWriter[map[string]any]
	pending int
}

func newParquetWriter(sink io.Writer, schema *generator.Schema) (RecordWriter, error) {
	group := parquet.Group{}
	for i := range schema.Fields {
		fld := &schema.Fields[i]
		node, err := parquetNode(fld)
		if err != nil {
			return nil, err
		}
		group[fld.Name] = parquet.Optional(node)
	}

	count := &countingWriter{w: sink}
	return &parquetWriter{
		count:  count,
		schema: schema,
		gw:     parquet.NewGenericWriter[map[string]any](count, parquet.NewSchema(schema.Kind, group)),
	}, nil
}

func parquetNode(fld *generator.FieldSpec) (parquet.Node, error) {
	switch fld.Type {
	case generator.FieldIdentifier, generator.FieldShortText, generator.FieldLongText,
		generator.FieldEmail, generator.FieldChoice, generator.FieldReference:
		return parquet.String(), nil
	case generator.FieldInteger:
		return parquet.Int(64), nil
	case generator.FieldDecimal:
		return parquet.Leaf(parquet.DoubleType), nil
	case generator.FieldBoolean:
		return parquet.Leaf(parquet.BooleanType), nil
	case generator.FieldDate:
		return parquet.Date(), nil
	case generator.FieldTimestamp:
		return parquet.Timestamp(parquet.Millisecond), nil
	}
	return nil, fmt.Errorf("no parquet mapping for field type %q", fld.Type)
}

func (w *parquetWriter) Write(rec *generator.Record) error {
	row := make(map[string]any, len(w.schema.Fields))
	for i := range w.schema.Fields {
		fld := &w.schema.Fields[i]
		v := rec.Value(i)
		if v == nil {
			continue
		}
		if t, ok := v.(time.Time); ok {
			if fld.Type == generator.FieldDate {
				v = int32(t.Unix() / 86400)
			} else {
				v = t.UnixMilli()
			}
		}
		row[fld.Name] = v
	}

	if _, err := w.gw.Write([]map[string]any{row}); err != nil {
		return err
	}
	w.pending++
	if w.pending >= parquetBlockSize {
		w.pending = 0
		return w.gw.Flush()
	}
	return nil
}

func (w *parquetWriter) Close() error {
	return w.gw.Close()
}

func (w *parquetWriter) BytesWritten() int64 {
	return w.count.n
}
