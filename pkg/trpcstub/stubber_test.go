// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package trpcstub

import (
	"testing"
	"time"

	"github.com/mcpany/trpcstub/pkg/intercept"
	"github.com/mcpany/trpcstub/pkg/router"
	"github.com/mcpany/trpcstub/pkg/transformer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func testSchema(t *testing.T) *router.Schema {
	t.Helper()
	s, err := router.NewSchema(
		router.Procedure{
			Path: router.Path{"user", "get"},
			Kind: router.Query,
			Output: map[string]any{
				"type":     "object",
				"required": []any{"id", "name"},
				"properties": map[string]any{
					"id":   map[string]any{"type": "integer"},
					"name": map[string]any{"type": "string"},
				},
			},
		},
		router.Procedure{Path: router.Path{"user", "list"}, Kind: router.Query},
		router.Procedure{Path: router.Path{"user", "fail"}, Kind: router.Query},
		router.Procedure{Path: router.Path{"post", "byId"}, Kind: router.Query},
		router.Procedure{Path: router.Path{"post", "create"}, Kind: router.Mutation},
		router.Procedure{Path: router.Path{"post", "comment", "add"}, Kind: router.Mutation},
		router.Procedure{Path: router.Path{"health"}, Kind: router.Query},
	)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	network := intercept.NewMockNetwork(ctrl)
	schema := testSchema(t)

	t.Run("defaults", func(t *testing.T) {
		s, err := New(network, schema)
		require.NoError(t, err)
		assert.Equal(t, router.DefaultEndpoint, s.Endpoint())
		assert.Equal(t, DefaultWaitTimeout, s.waitTimeout)
		assert.Equal(t, transformer.Default, s.transformer)
		assert.Same(t, schema, s.Schema())
	})

	t.Run("options", func(t *testing.T) {
		s, err := New(network, schema,
			WithEndpoint("http://localhost:3000/trpc/"),
			WithWaitTimeout(time.Second),
			WithTransformer(transformer.SuperJSON{}),
		)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000/trpc", s.Endpoint())
		assert.Equal(t, "http://localhost:3000", s.host)
		assert.Equal(t, "/trpc", s.endpointPath)
		assert.Equal(t, time.Second, s.waitTimeout)
		assert.Equal(t, transformer.Combine(transformer.SuperJSON{}), s.transformer)
	})

	t.Run("combined transformer keeps unset side", func(t *testing.T) {
		s, err := New(network, schema, WithCombinedTransformer(transformer.Combined{Output: transformer.SuperJSON{}}))
		require.NoError(t, err)
		assert.Equal(t, transformer.JSON{}, s.transformer.Input)
		assert.Equal(t, transformer.SuperJSON{}, s.transformer.Output)
	})

	tests := []struct {
		name    string
		network intercept.Network
		schema  *router.Schema
		opts    []Option
	}{
		{name: "nil network", schema: schema},
		{name: "nil schema", network: network},
		{name: "relative endpoint", network: network, schema: schema, opts: []Option{WithEndpoint("api/trpc")}},
		{name: "malformed endpoint", network: network, schema: schema, opts: []Option{WithEndpoint("http://[::1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.network, tt.schema, tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestStubber_Navigation(t *testing.T) {
	ctrl := gomock.NewController(t)
	s, err := New(intercept.NewMockNetwork(ctrl), testSchema(t))
	require.NoError(t, err)

	m, err := s.Procedure("post.comment.add")
	require.NoError(t, err)
	assert.Equal(t, "post.comment.add", m.Path())
	assert.Equal(t, router.Mutation, m.Procedure().Kind)

	_, err = s.Procedure("post.comment")
	assert.ErrorIs(t, err, ErrUnknownProcedure)
	_, err = s.Procedure("nope")
	assert.ErrorIs(t, err, ErrUnknownProcedure)
	assert.Panics(t, func() { s.MustProcedure("user.delete") })

	root, err := s.Router()
	require.NoError(t, err)
	assert.Equal(t, "", root.Path())
	assert.Equal(t, []string{"post", "user"}, root.Routers())
	require.Len(t, root.Procedures(), 1)
	assert.Equal(t, "health", root.Procedures()[0].Path())

	comment, err := s.Router("post", "comment")
	require.NoError(t, err)
	assert.Equal(t, "post.comment", comment.Path())
	add, err := comment.Procedure("add")
	require.NoError(t, err)
	assert.Same(t, m, add, "navigation yields the same leaf as lookup")

	post, err := root.Router("post")
	require.NoError(t, err)
	_, err = post.Router("byId")
	assert.ErrorIs(t, err, ErrUnknownRouter, "a procedure is not a router")
	_, err = post.Procedure("comment")
	assert.ErrorIs(t, err, ErrUnknownProcedure, "a router is not a procedure")
	_, err = s.Router("post", "missing")
	assert.ErrorIs(t, err, ErrUnknownRouter)

	var paths []string
	for _, p := range s.Procedures() {
		paths = append(paths, p.Path())
	}
	assert.Equal(t, []string{"health", "post.byId", "post.comment.add", "post.create", "user.fail", "user.get", "user.list"}, paths)
}

func TestMock_PathHasNoSideEffect(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No expectations: any call on the network fails the test.
	s, err := New(intercept.NewMockNetwork(ctrl), testSchema(t))
	require.NoError(t, err)

	assert.Equal(t, "user.get", s.MustProcedure("user.get").Path())
	assert.Equal(t, "health", s.MustProcedure("health").Path())
}
