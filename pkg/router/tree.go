// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"fmt"
	"sort"
)

// Node is an element of the procedure tree: either a router with children
// or a procedure leaf.
type Node struct {
	Path      Path
	Procedure *Procedure

	children map[string]*Node
}

// Name returns the last segment of the node path ("" for the root).
func (n *Node) Name() string {
	return n.Path.Name()
}

// IsProcedure reports whether the node is a leaf.
func (n *Node) IsProcedure() bool {
	return n.Procedure != nil
}

// Child returns the direct child called name.
func (n *Node) Child(name string) (*Node, bool) {
	c, ok := n.children[name]
	return c, ok
}

// Children returns the direct children sorted by name.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Walk visits n and its descendants depth-first, children in name order.
func (n *Node) Walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.Children() {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

func buildTree(procs []*Procedure) (*Node, error) {
	root := &Node{children: map[string]*Node{}}
	for _, p := range procs {
		cur := root
		for i, seg := range p.Path {
			if cur.IsProcedure() {
				return nil, fmt.Errorf("%w: %s is a procedure and a prefix of %s", ErrPathConflict, cur.Path, p.Key())
			}
			next, ok := cur.children[seg]
			if !ok {
				next = &Node{Path: p.Path[:i+1:i+1], children: map[string]*Node{}}
				cur.children[seg] = next
			}
			cur = next
		}
		if len(cur.children) > 0 {
			return nil, fmt.Errorf("%w: %s is a procedure and a router", ErrPathConflict, p.Key())
		}
		cur.Procedure = p
	}
	return root, nil
}
