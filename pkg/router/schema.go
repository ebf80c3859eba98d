// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

// Package router describes the procedure tree of a tRPC router: the paths of
// its procedures, their kind and, optionally, the JSON Schema of their output.
//
// A Schema is the explicit, declarative stand-in for the router's type: it is
// built once (in code or from a YAML/JSON file) and every stub is derived
// from it.
package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultEndpoint is the URL path under which tRPC procedures are served.
const DefaultEndpoint = "/api/trpc"

// Kind is the procedure type.
type Kind string

const (
	// Query is a read procedure, sent as GET.
	Query Kind = "query"
	// Mutation is a write procedure, sent as POST.
	Mutation Kind = "mutation"
	// Subscription is a streaming procedure.
	Subscription Kind = "subscription"
)

// Valid reports whether k is a known procedure type.
func (k Kind) Valid() bool {
	switch k {
	case Query, Mutation, Subscription:
		return true
	}
	return false
}

// Procedure is a single named remote operation.
type Procedure struct {
	Path Path
	Kind Kind
	// GoType is the fully qualified Go type of the output
	// ("github.com/acme/app/api.User"), used by the code generator.
	GoType string
	// Output is an optional JSON Schema describing the procedure output.
	Output map[string]any

	output  *jsonschema.Schema
	partial *jsonschema.Schema
}

// Key returns the dot-joined wire key of the procedure.
func (p *Procedure) Key() string {
	return p.Path.String()
}

// HasOutputSchema reports whether the procedure declares an output schema.
func (p *Procedure) HasOutputSchema() bool {
	return p.output != nil
}

// ValidateOutput checks a complete output value against the output schema.
// It is a no-op when no schema is declared.
func (p *Procedure) ValidateOutput(v any) error {
	return validate(p.output, v)
}

// ValidatePartialOutput checks a partial output value: the output schema
// with every "required" constraint removed.
func (p *Procedure) ValidatePartialOutput(v any) error {
	return validate(p.partial, v)
}

func (p *Procedure) compile() error {
	if p.Output == nil {
		return nil
	}
	full, err := compileSchema(p.Key()+".output.json", p.Output)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidOutputSchema, p.Key(), err)
	}
	partial, err := compileSchema(p.Key()+".partial.json", relax(p.Output))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidOutputSchema, p.Key(), err)
	}
	p.output, p.partial = full, partial
	return nil
}

// Schema is the procedure tree of a router.
type Schema struct {
	// Endpoint is the URL path (or absolute URL) the procedures are served
	// under.
	Endpoint string

	procedures map[string]*Procedure
	root       *Node
}

// NewSchema validates procs and builds a Schema served at DefaultEndpoint.
// Procedures without a kind default to Query.
func NewSchema(procs ...Procedure) (*Schema, error) {
	s := &Schema{
		Endpoint:   DefaultEndpoint,
		procedures: make(map[string]*Procedure, len(procs)),
	}
	for i := range procs {
		p := procs[i]
		if err := p.Path.Validate(); err != nil {
			return nil, err
		}
		p.Path = append(Path(nil), p.Path...)
		if p.Kind == "" {
			p.Kind = Query
		}
		if !p.Kind.Valid() {
			return nil, fmt.Errorf("%w: %q for %s", ErrInvalidKind, p.Kind, p.Key())
		}
		if _, ok := s.procedures[p.Key()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, p.Key())
		}
		if err := p.compile(); err != nil {
			return nil, err
		}
		s.procedures[p.Key()] = &p
	}

	root, err := buildTree(s.Procedures())
	if err != nil {
		return nil, err
	}
	s.root = root
	return s, nil
}

// FromPaths builds a Schema of query procedures from dot-joined keys.
func FromPaths(paths ...string) (*Schema, error) {
	procs := make([]Procedure, 0, len(paths))
	for _, raw := range paths {
		p, err := ParsePath(raw)
		if err != nil {
			return nil, err
		}
		procs = append(procs, Procedure{Path: p, Kind: Query})
	}
	return NewSchema(procs...)
}

// Lookup returns the procedure at the dot-joined key.
func (s *Schema) Lookup(key string) (*Procedure, bool) {
	p, ok := s.procedures[key]
	return p, ok
}

// Procedures returns every procedure sorted by key.
func (s *Schema) Procedures() []*Procedure {
	out := lo.Values(s.procedures)
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Len returns the number of procedures.
func (s *Schema) Len() int {
	return len(s.procedures)
}

// Root returns the root router node of the procedure tree.
func (s *Schema) Root() *Node {
	return s.root
}

func compileSchema(name string, doc map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema to JSON: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return c.Compile(name)
}

// relax returns a deep copy of doc without "required" keywords. A property
// named "required" holds a schema, not an array, and is kept.
func relax(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if _, keyword := v.([]any); keyword && k == "required" {
			continue
		}
		out[k] = relaxValue(v)
	}
	return out
}

func relaxValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return relax(t)
	case []any:
		return lo.Map(t, func(item any, _ int) any { return relaxValue(item) })
	default:
		return v
	}
}

func validate(s *jsonschema.Schema, v any) error {
	if s == nil {
		return nil
	}
	// The validator works on decoded JSON, so round-trip Go values first.
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}
	return s.Validate(doc)
}
