// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package trpcstub

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Dispatch performs an operation named by a dot-joined access chain, such
// as "user.get.returns". The last segment names the operation and the rest
// the procedure. It returns the path for "path", the exchange for "wait" and
// nil otherwise.
//
// Arguments by operation:
//   - returns, returnsPartial: exactly one value.
//   - intercept: none, nil, a TransformFunc or a func(any) (any, error).
//   - wait: none, a WaitOptions, a *WaitOptions or a time.Duration.
//   - path: none.
func (s *Stubber) Dispatch(ctx context.Context, access string, args ...any) (any, error) {
	i := strings.LastIndex(access, ".")
	if i <= 0 {
		return nil, fmt.Errorf("%w: %q has no procedure", ErrUnknownProcedure, access)
	}
	path, op := access[:i], Operation(access[i+1:])
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q on %s", ErrUnknownOperation, string(op), path)
	}
	m, err := s.Procedure(path)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpPath:
		if len(args) != 0 {
			return nil, argError(op, "no arguments", args)
		}
		return m.Path(), nil
	case OpReturns, OpReturnsPartial:
		if len(args) != 1 {
			return nil, argError(op, "exactly one value", args)
		}
		if op == OpReturns {
			return nil, m.Returns(args[0])
		}
		return nil, m.ReturnsPartial(args[0])
	case OpIntercept:
		fn, err := transformArg(args)
		if err != nil {
			return nil, err
		}
		return nil, m.Intercept(fn)
	case OpWait:
		opts, err := waitArgs(args)
		if err != nil {
			return nil, err
		}
		ex, err := m.Wait(ctx, opts...)
		if ex == nil {
			return nil, err
		}
		return ex, err
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, string(op))
}

func transformArg(args []any) (TransformFunc, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) > 1 {
		return nil, argError(OpIntercept, "at most one transform", args)
	}
	switch fn := args[0].(type) {
	case nil:
		return nil, nil
	case TransformFunc:
		return fn, nil
	case func(any) (any, error):
		return fn, nil
	}
	return nil, argError(OpIntercept, "a func(any) (any, error)", args)
}

func waitArgs(args []any) ([]WaitOptions, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) > 1 {
		return nil, argError(OpWait, "at most one option", args)
	}
	switch o := args[0].(type) {
	case WaitOptions:
		return []WaitOptions{o}, nil
	case *WaitOptions:
		if o == nil {
			return nil, nil
		}
		return []WaitOptions{*o}, nil
	case time.Duration:
		return []WaitOptions{{Timeout: o}}, nil
	}
	return nil, argError(OpWait, "WaitOptions or time.Duration", args)
}

func argError(op Operation, want string, args []any) error {
	return fmt.Errorf("%w: %s takes %s, got %d argument(s) %v", ErrInvalidArgument, op, want, len(args), args)
}
