package writer

import (
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tnqbao/gau-datagen-service/generator"
)

const xlsxSheet = "Sheet1"

// xlsxWriter rides excelize's StreamWriter, which spools rows to a temp file
// instead of keeping the workbook in memory.
type xlsxWriter struct {
	file   *excelize.File
	sw     *excelize.StreamWriter
	sink   io.Writer
	schema *generator.Schema
	row    int
	bytes  int64
}

func newXLSXWriter(sink io.Writer, schema *generator.Schema) (RecordWriter, error) {
	file := excelize.NewFile()
	sw, err := file.NewStreamWriter(xlsxSheet)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	header := make([]interface{}, len(schema.Fields))
	for i, name := range schema.FieldNames() {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		_ = file.Close()
		return nil, err
	}

	return &xlsxWriter{file: file, sw: sw, sink: sink, schema: schema, row: 2}, nil
}

func (w *xlsxWriter) Write(rec *generator.Record) error {
	cells := make([]interface{}, len(w.schema.Fields))
	for i := range w.schema.Fields {
		fld := &w.schema.Fields[i]
		v := rec.Value(i)
		if t, ok := v.(time.Time); ok {
			// cell values as text keeps null/empty and types unambiguous
			cells[i] = textValue(fld, t)
		} else {
			cells[i] = v
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	w.row++
	return w.sw.SetRow(cell, cells)
}

func (w *xlsxWriter) Close() error {
	defer func() { _ = w.file.Close() }()
	if err := w.sw.Flush(); err != nil {
		return err
	}
	n, err := w.file.WriteTo(w.sink)
	w.bytes = n
	return err
}

func (w *xlsxWriter) BytesWritten() int64 {
	return w.bytes
}
