// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package trpcstub

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/mcpany/trpcstub/pkg/intercept"
	"github.com/mcpany/trpcstub/pkg/logging"
	"github.com/mcpany/trpcstub/pkg/router"
	"github.com/tidwall/gjson"
)

// Operation names a terminal operation of a procedure leaf.
type Operation string

const (
	OpReturns        Operation = "returns"
	OpReturnsPartial Operation = "returnsPartial"
	OpIntercept      Operation = "intercept"
	OpWait           Operation = "wait"
	OpPath           Operation = "path"
)

// Operations lists every terminal operation.
var Operations = []Operation{OpReturns, OpReturnsPartial, OpIntercept, OpWait, OpPath}

// Valid reports whether o is a known operation.
func (o Operation) Valid() bool {
	return slices.Contains(Operations, o)
}

// TransformFunc rewrites the deserialized output of an intercepted call.
type TransformFunc func(value any) (any, error)

// WaitOptions tunes Wait.
type WaitOptions struct {
	// Timeout bounds the wait. Zero uses the Stubber default.
	Timeout time.Duration
}

// Mock is a procedure leaf of the stub tree.
type Mock struct {
	s    *Stubber
	proc *router.Procedure
}

// Path returns the dot-joined path of the procedure. It has no network
// side effect.
func (m *Mock) Path() string {
	return m.proc.Key()
}

// Procedure returns the schema entry of the leaf.
func (m *Mock) Procedure() *router.Procedure {
	return m.proc
}

// Returns answers every later call to the procedure with value, wrapped in
// the tRPC success envelope, without reaching the server. Only the exact
// procedure path is matched, alone or inside a batch: stubbing user.get
// leaves a sibling such as user.getAll untouched.
func (m *Mock) Returns(value any) error {
	if err := m.proc.ValidateOutput(value); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutputMismatch, m.Path(), err)
	}
	return m.returns(OpReturns, value)
}

// ReturnsPartial is like Returns but accepts a value missing arbitrary
// nested fields of the procedure output.
func (m *Mock) ReturnsPartial(value any) error {
	if err := m.proc.ValidatePartialOutput(value); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutputMismatch, m.Path(), err)
	}
	return m.returns(OpReturnsPartial, value)
}

func (m *Mock) returns(op Operation, value any) error {
	data, err := m.s.transformer.Output.Serialize(value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", m.Path(), op, err)
	}
	return m.register(op, &stub{kind: kindFixed, data: data})
}

// Intercept lets later calls reach the server and replaces the output of
// each response with fn applied to it. A nil fn passes responses through
// unmodified, which still makes them available to Wait.
func (m *Mock) Intercept(fn TransformFunc) error {
	var rewrite func([]byte) ([]byte, error)
	if fn != nil {
		out := m.s.transformer.Output
		rewrite = func(data []byte) ([]byte, error) {
			var v any
			if err := out.Deserialize(data, &v); err != nil {
				return nil, err
			}
			nv, err := fn(v)
			if err != nil {
				return nil, err
			}
			return out.Serialize(nv)
		}
	}
	return m.intercept(rewrite)
}

func (m *Mock) intercept(rewrite func([]byte) ([]byte, error)) error {
	return m.register(OpIntercept, &stub{kind: kindIntercept, rewrite: rewrite})
}

func (m *Mock) register(op Operation, st *stub) error {
	rule := intercept.Rule{
		Alias:        m.Path(),
		Pattern:      m.s.pattern(m.Path()),
		Handler:      m.s.handle,
		ExtraAliases: m.s.stubbedMembers,
	}
	if err := m.s.network.Route(rule); err != nil {
		return fmt.Errorf("failed to register %s.%s: %w", m.Path(), op, err)
	}
	m.s.setStub(m.Path(), st)
	logging.GetLogger().Debug("Registered tRPC stub", "procedure", m.Path(), "operation", string(op))
	return nil
}

// Wait blocks until the next call handled by a stub of this procedure has
// completed. Each call is returned once, in completion order. The returned
// error wraps the handler failure when the call could not be answered.
func (m *Mock) Wait(ctx context.Context, opts ...WaitOptions) (*intercept.Exchange, error) {
	timeout := m.s.waitTimeout
	if len(opts) > 0 && opts[0].Timeout > 0 {
		timeout = opts[0].Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ex, err := m.s.network.Wait(ctx, m.Path())
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", m.Path(), OpWait, err)
	}
	if ex.Err != nil {
		return ex, fmt.Errorf("%s call failed: %w", m.Path(), ex.Err)
	}
	return ex, nil
}

// Input decodes the input the procedure was called with in ex into v. GET
// calls carry it in the "input" query parameter, other calls in the body;
// batched calls carry one entry per procedure keyed by position.
func (m *Mock) Input(ex *intercept.Exchange, v any) error {
	if ex == nil || ex.Request == nil {
		return fmt.Errorf("%w: %s", ErrNoInput, m.Path())
	}
	req := ex.Request
	var raw []byte
	if req.Method == http.MethodGet || req.Method == "" {
		raw = []byte(req.Query("input"))
	} else {
		raw = req.Body
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: %s", ErrNoInput, m.Path())
	}
	if isBatch(req) {
		idx := slices.Index(m.s.members(req), m.Path())
		if idx < 0 {
			return fmt.Errorf("%w: %s is not part of the batch", ErrNoInput, m.Path())
		}
		res := gjson.GetBytes(raw, strconv.Itoa(idx))
		if !res.Exists() {
			return fmt.Errorf("%w: %s", ErrNoInput, m.Path())
		}
		raw = []byte(res.Raw)
	}
	if err := m.s.transformer.Input.Deserialize(raw, v); err != nil {
		return fmt.Errorf("failed to decode input of %s: %w", m.Path(), err)
	}
	return nil
}
