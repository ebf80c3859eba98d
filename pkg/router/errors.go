// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package router

import "errors"

var (
	// ErrInvalidPath is returned for empty paths or segments that cannot be
	// addressed on the wire.
	ErrInvalidPath = errors.New("invalid procedure path")
	// ErrDuplicate is returned when a procedure path is declared twice.
	ErrDuplicate = errors.New("duplicate procedure")
	// ErrPathConflict is returned when a path is both a procedure and the
	// prefix of another procedure.
	ErrPathConflict = errors.New("procedure path conflicts with a router")
	// ErrInvalidKind is returned for procedure types other than query,
	// mutation and subscription.
	ErrInvalidKind = errors.New("invalid procedure type")
	// ErrInvalidOutputSchema is returned when an output schema does not
	// compile.
	ErrInvalidOutputSchema = errors.New("invalid output schema")
	// ErrUnsupportedFormat is returned by Load for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported schema file format")
)
