// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"fmt"
	"strings"
	"unicode"
)

// Separator joins path segments into the wire key of a procedure.
const Separator = "."

// Path is the ordered sequence of names identifying a procedure (or a nested
// router) in the router tree, e.g. ["user", "get"].
type Path []string

// ParsePath splits a dot-joined key such as "user.get" into a Path and
// validates each segment.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	p := Path(strings.Split(s, Separator))
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate reports whether every segment can be used on the wire.
func (p Path) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for i, seg := range p {
		if seg == "" {
			return fmt.Errorf("%w: %q has an empty segment at position %d", ErrInvalidPath, p.String(), i)
		}
		if strings.ContainsAny(seg, "./,?#") || strings.IndexFunc(seg, unicode.IsSpace) >= 0 {
			return fmt.Errorf("%w: segment %q contains a reserved character", ErrInvalidPath, seg)
		}
	}
	return nil
}

// String returns the dot-joined form of the path.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Name returns the last segment, or "" for the root.
func (p Path) Name() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Child returns a new path with name appended. The receiver is not modified.
func (p Path) Child(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// HasPrefix reports whether prefix is a leading sub-path of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}
