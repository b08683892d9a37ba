package generator

import (
	"fmt"
	"sort"
)

// Registry holds the builtin record schemas. Builtins are immutable:
// Resolve hands out a copy so callers can freeze or annotate it without
// touching the registered original.
type Registry struct {
	builtins map[string]*Schema
}

func NewRegistry() *Registry {
	r := &Registry{builtins: make(map[string]*Schema)}
	for _, s := range []*Schema{personSchema(), ecommerceSchema(), companySchema()} {
		if err := s.Validate(); err != nil {
			panic(fmt.Sprintf("builtin schema %q: %v", s.Kind, err))
		}
		r.builtins[s.Kind] = s
	}
	return r
}

func (r *Registry) Resolve(kind string) (*Schema, error) {
	s, ok := r.builtins[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s.clone(), nil
}

func (r *Registry) Has(kind string) bool {
	_, ok := r.builtins[kind]
	return ok
}

func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.builtins))
	for k := range r.builtins {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func (r *Registry) Schemas() []*Schema {
	out := make([]*Schema, 0, len(r.builtins))
	for _, k := range r.Kinds() {
		out = append(out, r.builtins[k].clone())
	}
	return out
}

func (s *Schema) clone() *Schema {
	cp := *s
	cp.Fields = make([]FieldSpec, len(s.Fields))
	copy(cp.Fields, s.Fields)
	cp.index = nil
	return &cp
}
