// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package trpcstub

import "errors"

var (
	// ErrUnknownProcedure is returned when a path names no procedure of the
	// router.
	ErrUnknownProcedure = errors.New("unknown procedure")
	// ErrUnknownRouter is returned when a name is not a sub-router.
	ErrUnknownRouter = errors.New("unknown router")
	// ErrUnknownOperation is returned by Dispatch for a terminal name other
	// than returns, returnsPartial, intercept, wait or path.
	ErrUnknownOperation = errors.New("unknown stub operation")
	// ErrInvalidArgument is returned for arguments of the wrong type.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOutputMismatch is returned when a value does not conform to the
	// output schema of its procedure.
	ErrOutputMismatch = errors.New("value does not match procedure output")
	// ErrNoInput is returned by Input when the exchange carries no input for
	// the procedure.
	ErrNoInput = errors.New("exchange carries no procedure input")
)
