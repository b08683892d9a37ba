package writer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tnqbao/gau-datagen-service/generator"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatSQL     Format = "sql"
	FormatParquet Format = "parquet"
	FormatXLSX    Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown output format")

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON, FormatSQL, FormatParquet, FormatXLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatSQL, FormatParquet, FormatXLSX}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatSQL:
		return "application/sql"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

func (f Format) Extension() string {
	return string(f)
}

// RecordWriter serializes one record at a time to its sink. Implementations
// are streaming: memory is bounded by one record, one statement batch or one
// row-group block, never by the record set.
type RecordWriter interface {
	Write(rec *generator.Record) error
	Close() error
	BytesWritten() int64
}

// Open returns the streaming writer for the format, with the schema's header
// or preamble already emitted where the format has one.
func Open(format Format, sink io.Writer, schema *generator.Schema) (RecordWriter, error) {
	switch format {
	case FormatCSV:
		return newCSVWriter(sink, schema)
	case FormatJSON:
		return newJSONWriter(sink, schema)
	case FormatSQL:
		return newSQLWriter(sink, schema)
	case FormatParquet:
		return newParquetWriter(sink, schema)
	case FormatXLSX:
		return newXLSXWriter(sink, schema)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339
)

// textValue renders a scalar for the delimited-text formats. Null is the
// empty string; dates and timestamps format per the field's semantic type so
// a date never grows a spurious midnight time.
func textValue(fld *generator.FieldSpec, v any) string {
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if fld.Type == generator.FieldDate {
			return x.Format(dateLayout)
		}
		return x.Format(timestampLayout)
	}
	return fmt.Sprint(v)
}
