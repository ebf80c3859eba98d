// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package trpcstub

import (
	"fmt"

	"github.com/mcpany/trpcstub/pkg/router"
)

// Router is an inner node of the stub tree.
type Router struct {
	s    *Stubber
	node *router.Node
}

// Path returns the dot-joined path of the router ("" for the root).
func (r *Router) Path() string {
	return r.node.Path.String()
}

// Router returns the direct sub-router called name.
func (r *Router) Router(name string) (*Router, error) {
	c, ok := r.node.Child(name)
	if !ok || c.IsProcedure() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRouter, r.node.Path.Child(name).String())
	}
	return &Router{s: r.s, node: c}, nil
}

// Procedure returns the direct procedure leaf called name.
func (r *Router) Procedure(name string) (*Mock, error) {
	c, ok := r.node.Child(name)
	if !ok || !c.IsProcedure() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProcedure, r.node.Path.Child(name).String())
	}
	return r.s.Procedure(c.Procedure.Key())
}

// Routers returns the names of the direct sub-routers, sorted.
func (r *Router) Routers() []string {
	var out []string
	for _, c := range r.node.Children() {
		if !c.IsProcedure() {
			out = append(out, c.Name())
		}
	}
	return out
}

// Procedures returns the direct procedure leaves, sorted by name.
func (r *Router) Procedures() []*Mock {
	var out []*Mock
	for _, c := range r.node.Children() {
		if c.IsProcedure() {
			out = append(out, r.s.mocks[c.Procedure.Key()])
		}
	}
	return out
}
