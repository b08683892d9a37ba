package generator

import (
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type FieldType string

// The closed set of semantic field types. Anything outside this set is an
// invalid definition, not a dispatch fallback.
const (
	FieldIdentifier FieldType = "identifier"
	FieldShortText  FieldType = "short_text"
	FieldLongText   FieldType = "long_text"
	FieldEmail      FieldType = "email"
	FieldInteger    FieldType = "integer"
	FieldDecimal    FieldType = "decimal"
	FieldBoolean    FieldType = "boolean"
	FieldDate       FieldType = "date"
	FieldTimestamp  FieldType = "timestamp"
	FieldChoice     FieldType = "choice"
	FieldReference  FieldType = "reference"
)

var fieldTypes = map[FieldType]bool{
	FieldIdentifier: true,
	FieldShortText:  true,
	FieldLongText:   true,
	FieldEmail:      true,
	FieldInteger:    true,
	FieldDecimal:    true,
	FieldBoolean:    true,
	FieldDate:       true,
	FieldTimestamp:  true,
	FieldChoice:     true,
	FieldReference:  true,
}

var (
	ErrUnknownKind             = errors.New("unknown schema kind")
	ErrInvalidDefinition       = errors.New("invalid schema definition")
	ErrUnsatisfiableConstraint = errors.New("unsatisfiable constraint")
)

const (
	defaultNullRate = 0.1
	defaultTrueRate = 0.5
	defaultPoolSize = 100
	dateLayout      = "2006-01-02"
)

// FieldSpec describes one field of a schema: its semantic type plus the
// constraints relevant to that type. The json tags double as the wire format
// for user-defined schema definitions.
type FieldSpec struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Nullable bool      `json:"nullable,omitempty"`
	NullRate float64   `json:"null_rate,omitempty"`

	// integer / decimal
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Precision int      `json:"precision,omitempty"`

	// boolean
	TrueRate float64 `json:"true_rate,omitempty"`

	// choice
	Choices []string  `json:"choices,omitempty"`
	Weights []float64 `json:"weights,omitempty"`

	// date / timestamp, "2006-01-02" or RFC3339
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// reference: size of the per-job value pool the field draws from
	PoolSize int `json:"pool_size,omitempty"`

	// Hint selects a realism flavor for identifier/text fields
	// (first_name, city, company, ...). Unknown hints fall back to words.
	Hint string `json:"hint,omitempty"`

	fromTime time.Time
	toTime   time.Time
}

func (f *FieldSpec) nullRate() float64 {
	if !f.Nullable {
		return 0
	}
	if f.NullRate > 0 {
		return f.NullRate
	}
	return defaultNullRate
}

func (f *FieldSpec) trueRate() float64 {
	if f.TrueRate > 0 {
		return f.TrueRate
	}
	return defaultTrueRate
}

func (f *FieldSpec) poolSize() int {
	if f.PoolSize > 0 {
		return f.PoolSize
	}
	return defaultPoolSize
}

func (f *FieldSpec) numRange() (float64, float64) {
	lo, hi := 0.0, 1000.0
	if f.Min != nil {
		lo = *f.Min
	}
	if f.Max != nil {
		hi = *f.Max
	}
	return lo, hi
}

// DeriveFunc computes cross-field correlations from already-generated sibling
// values within one record. It never sees other records.
type DeriveFunc func(f *gofakeit.Faker, r *Record)

// Schema is a named, ordered list of field descriptors. Builtin schemas may
// carry a Derive hook; frozen user definitions never do.
type Schema struct {
	Kind        string      `json:"kind"`
	Description string      `json:"description,omitempty"`
	Fields      []FieldSpec `json:"fields"`

	Derive DeriveFunc `json:"-"`

	index map[string]int
}

// Validate checks the definition exhaustively and resolves date ranges.
// All violations are reported as ErrInvalidDefinition.
func (s *Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: schema %q has no fields", ErrInvalidDefinition, s.Kind)
	}
	s.index = make(map[string]int, len(s.Fields))
	for i := range s.Fields {
		fld := &s.Fields[i]
		if fld.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidDefinition, i)
		}
		if _, dup := s.index[fld.Name]; dup {
			return fmt.Errorf("%w: duplicate field name %q", ErrInvalidDefinition, fld.Name)
		}
		s.index[fld.Name] = i

		if !fieldTypes[fld.Type] {
			return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidDefinition, fld.Name, fld.Type)
		}
		if fld.NullRate < 0 || fld.NullRate > 1 {
			return fmt.Errorf("%w: field %q null_rate %v outside [0,1]", ErrInvalidDefinition, fld.Name, fld.NullRate)
		}

		switch fld.Type {
		case FieldInteger, FieldDecimal:
			lo, hi := fld.numRange()
			if lo > hi {
				return fmt.Errorf("%w: field %q min %v > max %v", ErrInvalidDefinition, fld.Name, lo, hi)
			}
		case FieldBoolean:
			if fld.TrueRate < 0 || fld.TrueRate > 1 {
				return fmt.Errorf("%w: field %q true_rate %v outside [0,1]", ErrInvalidDefinition, fld.Name, fld.TrueRate)
			}
		case FieldChoice:
			if len(fld.Choices) == 0 {
				return fmt.Errorf("%w: field %q has an empty choice set", ErrInvalidDefinition, fld.Name)
			}
			if len(fld.Weights) > 0 {
				if len(fld.Weights) != len(fld.Choices) {
					return fmt.Errorf("%w: field %q has %d weights for %d choices",
						ErrInvalidDefinition, fld.Name, len(fld.Weights), len(fld.Choices))
				}
				for _, w := range fld.Weights {
					if w <= 0 {
						return fmt.Errorf("%w: field %q has non-positive weight %v", ErrInvalidDefinition, fld.Name, w)
					}
				}
			}
		case FieldReference:
			if fld.PoolSize < 0 {
				return fmt.Errorf("%w: field %q pool_size %d is negative", ErrInvalidDefinition, fld.Name, fld.PoolSize)
			}
		case FieldDate, FieldTimestamp:
			if err := fld.resolveTimeRange(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *FieldSpec) resolveTimeRange() error {
	var err error
	f.fromTime, err = parseFieldTime(f.From)
	if err != nil {
		return fmt.Errorf("%w: field %q from %q: %v", ErrInvalidDefinition, f.Name, f.From, err)
	}
	f.toTime, err = parseFieldTime(f.To)
	if err != nil {
		return fmt.Errorf("%w: field %q to %q: %v", ErrInvalidDefinition, f.Name, f.To, err)
	}
	if f.fromTime.IsZero() || f.toTime.IsZero() {
		now := time.Now().UTC().Truncate(24 * time.Hour)
		if f.toTime.IsZero() {
			f.toTime = now
		}
		if f.fromTime.IsZero() {
			span := 50
			if f.Type == FieldTimestamp {
				span = 1
			}
			f.fromTime = f.toTime.AddDate(-span, 0, 0)
		}
	}
	if f.fromTime.After(f.toTime) {
		return fmt.Errorf("%w: field %q range start %s after end %s",
			ErrInvalidDefinition, f.Name, f.fromTime.Format(dateLayout), f.toTime.Format(dateLayout))
	}
	return nil
}

func parseFieldTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ensureSatisfiable re-checks the constraints a frozen schema must meet for
// generation, so a bad definition fails before any record is emitted.
func (s *Schema) ensureSatisfiable() error {
	for i := range s.Fields {
		fld := &s.Fields[i]
		switch fld.Type {
		case FieldChoice:
			if len(fld.Choices) == 0 {
				return fmt.Errorf("%w: field %q has an empty choice set", ErrUnsatisfiableConstraint, fld.Name)
			}
			if len(fld.Weights) > 0 && len(fld.Weights) != len(fld.Choices) {
				return fmt.Errorf("%w: field %q weight/choice mismatch", ErrUnsatisfiableConstraint, fld.Name)
			}
		case FieldInteger, FieldDecimal:
			lo, hi := fld.numRange()
			if lo > hi {
				return fmt.Errorf("%w: field %q min %v > max %v", ErrUnsatisfiableConstraint, fld.Name, lo, hi)
			}
		case FieldReference:
			if fld.poolSize() <= 0 {
				return fmt.Errorf("%w: field %q has an empty reference pool", ErrUnsatisfiableConstraint, fld.Name)
			}
		case FieldDate, FieldTimestamp:
			if fld.fromTime.IsZero() || fld.toTime.IsZero() {
				if err := fld.resolveTimeRange(); err != nil {
					return fmt.Errorf("%w: field %q has an invalid time range", ErrUnsatisfiableConstraint, fld.Name)
				}
			}
			if fld.fromTime.After(fld.toTime) {
				return fmt.Errorf("%w: field %q has an inverted time range", ErrUnsatisfiableConstraint, fld.Name)
			}
		}
	}
	return nil
}

// FieldNames returns the declared field order, which every writer preserves.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func (s *Schema) fieldIndex(name string) (int, bool) {
	if s.index == nil {
		s.index = make(map[string]int, len(s.Fields))
		for i, f := range s.Fields {
			s.index[f.Name] = i
		}
	}
	i, ok := s.index[name]
	return i, ok
}

// Record is one generated row: scalar values aligned with the schema's
// declared field order. Values are string, int64, float64, bool, time.Time
// or nil.
type Record struct {
	schema *Schema
	values []any
}

func newRecord(s *Schema) *Record {
	return &Record{schema: s, values: make([]any, len(s.Fields))}
}

func (r *Record) Len() int      { return len(r.values) }
func (r *Record) Values() []any { return r.values }

func (r *Record) Value(i int) any { return r.values[i] }

func (r *Record) Get(name string) any {
	if i, ok := r.schema.fieldIndex(name); ok {
		return r.values[i]
	}
	return nil
}

func (r *Record) Set(name string, v any) {
	if i, ok := r.schema.fieldIndex(name); ok {
		r.values[i] = v
	}
}
