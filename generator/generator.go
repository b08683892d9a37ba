package generator

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Generator produces a finite, lazy sequence of records for one schema.
// Record i is fully determined by (schema, seed, i): every record gets its
// own sub-seeded faker, so the stream can be generated in parallel chunks or
// resumed at an arbitrary offset and still reproduce identical values.
type Generator struct {
	schema *Schema
	count  int
	seed   uint64

	// pools holds the bounded value pools for reference fields, built once
	// per job so referential values repeat plausibly across records.
	pools map[string][]string
}

func New(schema *Schema, count int, seed int64) (*Generator, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative record count %d", ErrUnsatisfiableConstraint, count)
	}
	if err := schema.ensureSatisfiable(); err != nil {
		return nil, err
	}
	g := &Generator{
		schema: schema,
		count:  count,
		seed:   uint64(seed),
		pools:  make(map[string][]string),
	}
	for i := range schema.Fields {
		fld := &schema.Fields[i]
		if fld.Type != FieldReference {
			continue
		}
		g.pools[fld.Name] = buildPool(g.seed, fld)
	}
	return g, nil
}

func (g *Generator) Count() int      { return g.count }
func (g *Generator) Schema() *Schema { return g.schema }

// Record generates the record at the given index. Out-of-range indexes are
// programming errors on the caller's side.
func (g *Generator) Record(index int) (*Record, error) {
	if index < 0 || index >= g.count {
		return nil, fmt.Errorf("record index %d out of range [0,%d)", index, g.count)
	}
	f := gofakeit.New(recordSeed(g.seed, index))
	rec := newRecord(g.schema)
	for i := range g.schema.Fields {
		fld := &g.schema.Fields[i]
		rec.values[i] = g.fieldValue(f, fld)
	}
	if g.schema.Derive != nil {
		g.schema.Derive(f, rec)
	}
	return rec, nil
}

// Chunk generates up to n records starting at offset, clipped to the
// requested total. It never materializes more than one chunk.
func (g *Generator) Chunk(offset, n int) ([]*Record, error) {
	if offset < 0 || offset > g.count {
		return nil, fmt.Errorf("chunk offset %d out of range [0,%d]", offset, g.count)
	}
	end := offset + n
	if end > g.count {
		end = g.count
	}
	recs := make([]*Record, 0, end-offset)
	for i := offset; i < end; i++ {
		rec, err := g.Record(i)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (g *Generator) fieldValue(f *gofakeit.Faker, fld *FieldSpec) any {
	if rate := fld.nullRate(); rate > 0 && f.Float64Range(0, 1) < rate {
		return nil
	}

	switch fld.Type {
	case FieldIdentifier:
		return identifierValue(f, fld.Hint)
	case FieldShortText:
		return shortTextValue(f, fld.Hint)
	case FieldLongText:
		return longTextValue(f, fld.Hint)
	case FieldEmail:
		return f.Email()
	case FieldInteger:
		lo, hi := fld.numRange()
		return int64(f.Number(int(lo), int(hi)))
	case FieldDecimal:
		lo, hi := fld.numRange()
		return roundTo(f.Float64Range(lo, hi), fld.Precision)
	case FieldBoolean:
		return f.Float64Range(0, 1) < fld.trueRate()
	case FieldDate:
		d := f.DateRange(fld.fromTime, fld.toTime).UTC()
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	case FieldTimestamp:
		return f.DateRange(fld.fromTime, fld.toTime).UTC().Truncate(time.Second)
	case FieldChoice:
		return choiceValue(f, fld)
	case FieldReference:
		pool := g.pools[fld.Name]
		return pool[f.Number(0, len(pool)-1)]
	}
	// unreachable for validated schemas
	return nil
}

func choiceValue(f *gofakeit.Faker, fld *FieldSpec) string {
	if len(fld.Weights) == 0 {
		return f.RandomString(fld.Choices)
	}
	options := make([]any, len(fld.Choices))
	weights := make([]float32, len(fld.Weights))
	for i, c := range fld.Choices {
		options[i] = c
		weights[i] = float32(fld.Weights[i])
	}
	v, err := f.Weighted(options, weights)
	if err != nil {
		return f.RandomString(fld.Choices)
	}
	return v.(string)
}

func identifierValue(f *gofakeit.Faker, hint string) string {
	switch hint {
	case "", "uuid":
		return f.UUID()
	default:
		// prefixed identifier, e.g. ORD-3F2A9B71C4D8
		raw := strings.ToUpper(strings.ReplaceAll(f.UUID(), "-", ""))
		return hint + "-" + raw[:12]
	}
}

func shortTextValue(f *gofakeit.Faker, hint string) string {
	switch hint {
	case "first_name":
		return f.FirstName()
	case "last_name":
		return f.LastName()
	case "phone":
		return f.Phone()
	case "street":
		return f.Street()
	case "city":
		return f.City()
	case "state":
		return f.StateAbr()
	case "postal_code":
		return f.Zip()
	case "country":
		return f.Country()
	case "username":
		return f.Username()
	case "job_title":
		return f.JobTitle()
	case "company":
		return f.Company()
	case "url":
		return f.URL()
	default:
		return f.Word()
	}
}

func longTextValue(f *gofakeit.Faker, hint string) string {
	switch hint {
	case "address":
		return fmt.Sprintf("%s, %s, %s %s", f.Street(), f.City(), f.StateAbr(), f.Zip())
	default:
		return f.Sentence(12)
	}
}

// buildPool derives the reference pool for a field from the job seed only,
// so restarted generators see the same pool.
func buildPool(seed uint64, fld *FieldSpec) []string {
	size := fld.poolSize()
	pool := make([]string, size)
	base := seed ^ nameHash(fld.Name)
	for j := 0; j < size; j++ {
		f := gofakeit.New(mix64(base + uint64(j) + 1))
		pool[j] = identifierValue(f, fld.Hint)
	}
	return pool
}

func nameHash(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

// recordSeed spreads (seed, index) over the full 64-bit space with a
// splitmix64 finalizer so adjacent indexes do not produce correlated fakers.
func recordSeed(seed uint64, index int) uint64 {
	return mix64(seed + uint64(index)*0x9E3779B97F4A7C15)
}

func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	if x == 0 {
		x = 1 // gofakeit treats seed 0 as "pick one at random"
	}
	return x
}

func roundTo(v float64, precision int) float64 {
	if precision <= 0 {
		precision = 2
	}
	p := math.Pow10(precision)
	return math.Round(v*p) / p
}
