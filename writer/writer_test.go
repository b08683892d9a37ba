package writer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tnqbao/gau-datagen-service/generator"
)

func fptr(v float64) *float64 { return &v }

func testSchema(t *testing.T) *generator.Schema {
	t.Helper()
	s := &generator.Schema{
		Kind: "orders",
		Fields: []generator.FieldSpec{
			{Name: "id", Type: generator.FieldIdentifier, Hint: "ORD"},
			{Name: "customer", Type: generator.FieldShortText, Hint: "first_name"},
			{Name: "amount", Type: generator.FieldDecimal, Min: fptr(1), Max: fptr(100), Precision: 2},
			{Name: "quantity", Type: generator.FieldInteger, Min: fptr(1), Max: fptr(9)},
			{Name: "express", Type: generator.FieldBoolean},
			{Name: "ordered_on", Type: generator.FieldDate, From: "2023-01-01", To: "2024-12-31"},
			{Name: "updated_at", Type: generator.FieldTimestamp, From: "2024-01-01T00:00:00Z", To: "2024-12-31T00:00:00Z"},
			{Name: "note", Type: generator.FieldLongText, Nullable: true, NullRate: 0.5},
		},
	}
	require.NoError(t, s.Validate())
	return s
}

func generateInto(t *testing.T, format Format, schema *generator.Schema, count int, seed int64) ([]byte, int64) {
	t.Helper()
	gen, err := generator.New(schema, count, seed)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := Open(format, &buf, schema)
	require.NoError(t, err)
	for i := 0; i < count; i++ {
		rec, err := gen.Record(i)
		require.NoError(t, err)
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w.BytesWritten()
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		parsed, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	_, err := ParseFormat("yaml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = Open(Format("yaml"), &bytes.Buffer{}, testSchema(t))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestTextValue(t *testing.T) {
	dateFld := &generator.FieldSpec{Name: "d", Type: generator.FieldDate}
	tsFld := &generator.FieldSpec{Name: "ts", Type: generator.FieldTimestamp}
	strFld := &generator.FieldSpec{Name: "s", Type: generator.FieldShortText}

	at := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-09", textValue(dateFld, at))
	assert.Equal(t, "2024-03-09T14:30:00Z", textValue(tsFld, at))
	assert.Equal(t, "", textValue(strFld, nil))
	assert.Equal(t, "42", textValue(strFld, int64(42)))
	assert.Equal(t, "3.5", textValue(strFld, 3.5))
	assert.Equal(t, "true", textValue(strFld, true))
}

func TestCSVRoundTrip(t *testing.T) {
	const count, seed = 25, int64(4)
	schema := testSchema(t)
	out, written := generateInto(t, FormatCSV, schema, count, seed)
	assert.Equal(t, int64(len(out)), written)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, count+1)
	assert.Equal(t, schema.FieldNames(), rows[0])

	// cells must match a regenerated stream exactly
	gen, err := generator.New(schema, count, seed)
	require.NoError(t, err)
	for i := 0; i < count; i++ {
		rec, err := gen.Record(i)
		require.NoError(t, err)
		for j := range schema.Fields {
			assert.Equal(t, textValue(&schema.Fields[j], rec.Value(j)), rows[i+1][j],
				"row %d col %s", i, schema.Fields[j].Name)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	const count, seed = 15, int64(8)
	schema := testSchema(t)
	out, _ := generateInto(t, FormatJSON, schema, count, seed)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(out, &rows))
	require.Len(t, rows, count)

	for _, row := range rows {
		assert.Len(t, row, len(schema.Fields))
		assert.NotEmpty(t, row["id"])
		_, isNumber := row["quantity"].(float64)
		assert.True(t, isNumber, "quantity must decode as a JSON number")
		_, isBool := row["express"].(bool)
		assert.True(t, isBool, "express must decode as a JSON bool")
	}

	// field order inside each object follows the schema declaration
	text := string(out)
	firstObj := text[:strings.Index(text, "}")]
	assert.Less(t, strings.Index(firstObj, `"id"`), strings.Index(firstObj, `"customer"`))
	assert.Less(t, strings.Index(firstObj, `"customer"`), strings.Index(firstObj, `"note"`))
}

func TestJSONEmptyStreamIsValidArray(t *testing.T) {
	schema := testSchema(t)
	var buf bytes.Buffer
	w, err := Open(FormatJSON, &buf, schema)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.Empty(t, rows)
}

func TestSQLWriterStatements(t *testing.T) {
	const count, seed = 12, int64(6)
	schema := testSchema(t)
	out, _ := generateInto(t, FormatSQL, schema, count, seed)
	text := string(out)

	assert.True(t, strings.HasPrefix(text, `INSERT INTO "orders" ("id", "customer", `))
	assert.True(t, strings.HasSuffix(text, ";\n"))
	assert.Equal(t, 1, strings.Count(text, "INSERT INTO"))
	assert.Equal(t, count, strings.Count(text, "\n("), "one value tuple per record")
}

func TestSQLWriterBatches(t *testing.T) {
	schema := &generator.Schema{
		Kind: "items",
		Fields: []generator.FieldSpec{
			{Name: "id", Type: generator.FieldIdentifier},
			{Name: "qty", Type: generator.FieldInteger, Min: fptr(1), Max: fptr(3)},
		},
	}
	require.NoError(t, schema.Validate())

	out, _ := generateInto(t, FormatSQL, schema, sqlBatchSize+1, 2)
	assert.Equal(t, 2, strings.Count(string(out), "INSERT INTO"),
		"one extra record past the batch size starts a second statement")
}

func TestSQLLiteralEscaping(t *testing.T) {
	strFld := &generator.FieldSpec{Name: "s", Type: generator.FieldShortText}
	dateFld := &generator.FieldSpec{Name: "d", Type: generator.FieldDate}
	tsFld := &generator.FieldSpec{Name: "ts", Type: generator.FieldTimestamp}

	assert.Equal(t, "NULL", sqlLiteral(strFld, nil))
	assert.Equal(t, "'O''Brien'", sqlLiteral(strFld, "O'Brien"))
	assert.Equal(t, "TRUE", sqlLiteral(strFld, true))
	assert.Equal(t, "FALSE", sqlLiteral(strFld, false))
	assert.Equal(t, "7", sqlLiteral(strFld, int64(7)))

	at := time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)
	assert.Equal(t, "'2024-03-09'", sqlLiteral(dateFld, at))
	assert.Equal(t, "'2024-03-09 14:30:05'", sqlLiteral(tsFld, at))

	assert.Equal(t, `"with""quote"`, quoteIdent(`with"quote`))
}

func TestParquetRoundTrip(t *testing.T) {
	const count, seed = 60, int64(10)
	schema := testSchema(t)
	out, written := generateInto(t, FormatParquet, schema, count, seed)
	assert.Equal(t, int64(len(out)), written)

	group := parquet.Group{}
	for i := range schema.Fields {
		node, err := parquetNode(&schema.Fields[i])
		require.NoError(t, err)
		group[schema.Fields[i].Name] = parquet.Optional(node)
	}
	reader := parquet.NewGenericReader[map[string]any](bytes.NewReader(out),
		parquet.NewSchema(schema.Kind, group))
	rows := make([]map[string]any, count+1)
	for i := range rows {
		rows[i] = map[string]any{}
	}
	n, err := reader.Read(rows)
	if err == io.EOF {
		err = nil
	}
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	rows = rows[:n]
	require.Len(t, rows, count)

	for _, row := range rows {
		assert.NotNil(t, row["id"], "non-nullable column must carry a value")
		assert.NotNil(t, row["quantity"])
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	const count, seed = 10, int64(12)
	schema := testSchema(t)
	out, written := generateInto(t, FormatXLSX, schema, count, seed)
	assert.Equal(t, int64(len(out)), written)

	file, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, count+1)
	assert.Equal(t, schema.FieldNames(), rows[0])
}

func TestContentTypesAndExtensions(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "csv", FormatCSV.Extension())
	assert.Equal(t, "parquet", FormatParquet.Extension())
}
