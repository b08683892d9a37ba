package worker

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnqbao/gau-datagen-service/generator"
	"github.com/tnqbao/gau-datagen-service/writer"
)

func newTestGenerator(t *testing.T, count int) *generator.Generator {
	t.Helper()
	schema, err := generator.NewRegistry().Resolve("person")
	require.NoError(t, err)
	gen, err := generator.New(schema, count, 1234)
	require.NoError(t, err)
	return gen
}

func countCSVRows(t *testing.T, buf *bytes.Buffer) int {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	return len(rows)
}

func TestRunGenerationWritesAllRecords(t *testing.T) {
	gen := newTestGenerator(t, 25)

	var buf bytes.Buffer
	w, err := writer.Open(writer.FormatCSV, &buf, gen.Schema())
	require.NoError(t, err)

	var progress []float64
	err = runGeneration(context.Background(), gen, w, 10,
		func(written, total int) {
			progress = append(progress, chunkProgress(written, total))
		}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, 26, countCSVRows(t, &buf), "header plus every record")
	assert.Equal(t, []float64{40, 80, 100}, progress)
}

func TestRunGenerationStopsOnCancellation(t *testing.T) {
	gen := newTestGenerator(t, 50)

	var buf bytes.Buffer
	w, err := writer.Open(writer.FormatCSV, &buf, gen.Schema())
	require.NoError(t, err)

	checks := 0
	err = runGeneration(context.Background(), gen, w, 10, nil,
		func() (bool, error) {
			checks++
			return checks > 1, nil
		})
	require.ErrorIs(t, err, ErrCancelled)
	require.NoError(t, w.Close())

	// exactly one chunk made it out before the flag was observed
	assert.Equal(t, 11, countCSVRows(t, &buf))
}

func TestRunGenerationCancelledBeforeFirstChunk(t *testing.T) {
	gen := newTestGenerator(t, 10)

	var buf bytes.Buffer
	w, err := writer.Open(writer.FormatCSV, &buf, gen.Schema())
	require.NoError(t, err)

	err = runGeneration(context.Background(), gen, w, 10, nil,
		func() (bool, error) { return true, nil })
	require.ErrorIs(t, err, ErrCancelled)
	require.NoError(t, w.Close())
	assert.Equal(t, 1, countCSVRows(t, &buf), "only the header")
}

func TestRunGenerationHonorsContext(t *testing.T) {
	gen := newTestGenerator(t, 10)

	var buf bytes.Buffer
	w, err := writer.Open(writer.FormatCSV, &buf, gen.Schema())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = runGeneration(ctx, gen, w, 5, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunGenerationPropagatesCancelCheckError(t *testing.T) {
	gen := newTestGenerator(t, 10)

	var buf bytes.Buffer
	w, err := writer.Open(writer.FormatCSV, &buf, gen.Schema())
	require.NoError(t, err)

	checkErr := errors.New("redis unreachable")
	err = runGeneration(context.Background(), gen, w, 5, nil,
		func() (bool, error) { return false, checkErr })
	assert.ErrorIs(t, err, checkErr)
}

type failingWriter struct {
	err error
}

func (f *failingWriter) Write(*generator.Record) error { return f.err }
func (f *failingWriter) Close() error                  { return nil }
func (f *failingWriter) BytesWritten() int64           { return 0 }

func TestRunGenerationPropagatesWriteError(t *testing.T) {
	gen := newTestGenerator(t, 10)

	sinkErr := errors.New("sink closed")
	err := runGeneration(context.Background(), gen, &failingWriter{err: sinkErr}, 5, nil, nil)
	assert.ErrorIs(t, err, sinkErr)
}

func TestRunGenerationZeroRecords(t *testing.T) {
	gen := newTestGenerator(t, 0)

	var buf bytes.Buffer
	w, err := writer.Open(writer.FormatCSV, &buf, gen.Schema())
	require.NoError(t, err)

	require.NoError(t, runGeneration(context.Background(), gen, w, 10, nil, nil))
	require.NoError(t, w.Close())
	assert.Equal(t, 1, countCSVRows(t, &buf))
}

func TestChunkProgress(t *testing.T) {
	assert.Equal(t, 33.3, chunkProgress(1, 3))
	assert.Equal(t, 66.7, chunkProgress(2, 3))
	assert.Equal(t, 100.0, chunkProgress(3, 3))
	assert.Equal(t, 100.0, chunkProgress(0, 0))
	assert.Equal(t, 0.1, chunkProgress(1, 1000))
}
