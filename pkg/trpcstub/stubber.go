// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

// Package trpcstub builds a stub tree mirroring a tRPC router. Every
// procedure leaf of the tree can answer the network calls addressed to it
// with a fixed value, rewrite the real response, await the calls it handled,
// or report its dot-joined path.
//
//	s, err := trpcstub.New(network, schema)
//	...
//	err = s.MustProcedure("user.get").Returns(User{ID: 1})
//	ex, err := s.MustProcedure("user.get").Wait(ctx)
//
// The tree is built once from a router.Schema, so navigating to a name that
// the router does not declare is an error instead of a silently empty stub.
package trpcstub

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mcpany/trpcstub/pkg/intercept"
	"github.com/mcpany/trpcstub/pkg/router"
	"github.com/mcpany/trpcstub/pkg/transformer"
)

// DefaultWaitTimeout bounds Wait when neither the call nor the Stubber
// sets a timeout.
const DefaultWaitTimeout = 30 * time.Second

// Option configures a Stubber.
type Option func(*Stubber)

// WithTransformer sets the transformer used for both inputs and outputs.
func WithTransformer(t transformer.DataTransformer) Option {
	return func(s *Stubber) {
		if t != nil {
			s.transformer = transformer.Combine(t)
		}
	}
}

// WithCombinedTransformer sets distinct input and output transformers.
func WithCombinedTransformer(c transformer.Combined) Option {
	return func(s *Stubber) {
		if c.Input != nil {
			s.transformer.Input = c.Input
		}
		if c.Output != nil {
			s.transformer.Output = c.Output
		}
	}
}

// WithEndpoint overrides the endpoint declared by the schema. It may be a
// URL path ("/api/trpc") or an absolute URL.
func WithEndpoint(endpoint string) Option {
	return func(s *Stubber) {
		s.endpoint = endpoint
	}
}

// WithWaitTimeout sets the default timeout of Wait.
func WithWaitTimeout(d time.Duration) Option {
	return func(s *Stubber) {
		if d > 0 {
			s.waitTimeout = d
		}
	}
}

// Stubber is the root of a stub tree.
type Stubber struct {
	network     intercept.Network
	schema      *router.Schema
	transformer transformer.Combined
	endpoint    string
	waitTimeout time.Duration

	// endpointPath is the URL path part of endpoint.
	endpointPath string
	// host anchors patterns of an absolute endpoint.
	host string

	mocks map[string]*Mock
	root  *Router

	mu    sync.RWMutex
	stubs map[string]*stub
}

// New builds the stub tree of schema on top of network.
func New(network intercept.Network, schema *router.Schema, opts ...Option) (*Stubber, error) {
	if network == nil {
		return nil, fmt.Errorf("%w: nil network", ErrInvalidArgument)
	}
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidArgument)
	}
	s := &Stubber{
		network:     network,
		schema:      schema,
		transformer: transformer.Default,
		endpoint:    schema.Endpoint,
		waitTimeout: DefaultWaitTimeout,
		mocks:       make(map[string]*Mock, schema.Len()),
		stubs:       make(map[string]*stub),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.parseEndpoint(); err != nil {
		return nil, err
	}
	for _, p := range schema.Procedures() {
		s.mocks[p.Key()] = &Mock{s: s, proc: p}
	}
	s.root = &Router{s: s, node: schema.Root()}
	return s, nil
}

func (s *Stubber) parseEndpoint() error {
	ep := strings.TrimSuffix(s.endpoint, "/")
	if ep == "" {
		ep = router.DefaultEndpoint
	}
	u, err := url.Parse(ep)
	if err != nil {
		return fmt.Errorf("%w: endpoint %q: %w", ErrInvalidArgument, s.endpoint, err)
	}
	s.endpoint = ep
	if u.IsAbs() {
		s.host = u.Scheme + "://" + u.Host
		s.endpointPath = strings.TrimSuffix(u.Path, "/")
		return nil
	}
	if !strings.HasPrefix(ep, "/") {
		return fmt.Errorf("%w: endpoint %q must be an absolute path or URL", ErrInvalidArgument, s.endpoint)
	}
	s.endpointPath = ep
	return nil
}

// Endpoint returns the endpoint stubs are matched under.
func (s *Stubber) Endpoint() string {
	return s.endpoint
}

// Schema returns the schema the tree was built from.
func (s *Stubber) Schema() *router.Schema {
	return s.schema
}

// Procedure returns the leaf at the dot-joined path.
func (s *Stubber) Procedure(path string) (*Mock, error) {
	m, ok := s.mocks[path]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProcedure, path)
	}
	return m, nil
}

// MustProcedure is like Procedure but panics if path is unknown.
func (s *Stubber) MustProcedure(path string) *Mock {
	m, err := s.Procedure(path)
	if err != nil {
		panic(err)
	}
	return m
}

// Procedures returns every leaf sorted by path.
func (s *Stubber) Procedures() []*Mock {
	procs := s.schema.Procedures()
	out := make([]*Mock, 0, len(procs))
	for _, p := range procs {
		out = append(out, s.mocks[p.Key()])
	}
	return out
}

// Router returns the sub-router reached by following segments from the
// root. No segments returns the root.
func (s *Stubber) Router(segments ...string) (*Router, error) {
	r := s.root
	for _, seg := range segments {
		next, err := r.Router(seg)
		if err != nil {
			return nil, err
		}
		r = next
	}
	return r, nil
}

// Reset forgets every registered stub. Rules already registered with the
// network let their requests through afterwards.
func (s *Stubber) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs = make(map[string]*stub)
}
