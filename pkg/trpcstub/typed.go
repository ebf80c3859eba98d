// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package trpcstub

import (
	"context"

	"github.com/mcpany/trpcstub/pkg/intercept"
)

// TypedMock is a Mock whose output values are checked by the compiler.
type TypedMock[Out any] struct {
	m *Mock
}

// Typed binds m to the output type Out.
func Typed[Out any](m *Mock) TypedMock[Out] {
	return TypedMock[Out]{m: m}
}

// Mock returns the untyped leaf.
func (t TypedMock[Out]) Mock() *Mock {
	return t.m
}

// Path returns the dot-joined path of the procedure.
func (t TypedMock[Out]) Path() string {
	return t.m.Path()
}

// Returns is Mock.Returns for a complete output value.
func (t TypedMock[Out]) Returns(value Out) error {
	return t.m.Returns(value)
}

// ReturnsPartial is Mock.ReturnsPartial. Partial values have no Go type of
// their own, so any value that serializes to a subset of Out is accepted,
// typically a map or a struct of pointer fields tagged omitempty.
func (t TypedMock[Out]) ReturnsPartial(value any) error {
	return t.m.ReturnsPartial(value)
}

// Intercept is Mock.Intercept with the output decoded into Out.
func (t TypedMock[Out]) Intercept(fn func(Out) (Out, error)) error {
	if fn == nil {
		return t.m.intercept(nil)
	}
	out := t.m.s.transformer.Output
	return t.m.intercept(func(data []byte) ([]byte, error) {
		var v Out
		if err := out.Deserialize(data, &v); err != nil {
			return nil, err
		}
		nv, err := fn(v)
		if err != nil {
			return nil, err
		}
		return out.Serialize(nv)
	})
}

// Wait is Mock.Wait.
func (t TypedMock[Out]) Wait(ctx context.Context, opts ...WaitOptions) (*intercept.Exchange, error) {
	return t.m.Wait(ctx, opts...)
}
