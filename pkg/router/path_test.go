// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Path
		wantErr bool
	}{
		{name: "single segment", in: "health", want: Path{"health"}},
		{name: "nested", in: "user.get", want: Path{"user", "get"}},
		{name: "deep", in: "admin.user.role.list", want: Path{"admin", "user", "role", "list"}},
		{name: "empty", in: "", wantErr: true},
		{name: "leading dot", in: ".user", wantErr: true},
		{name: "trailing dot", in: "user.", wantErr: true},
		{name: "double dot", in: "user..get", wantErr: true},
		{name: "comma", in: "user.get,list", wantErr: true},
		{name: "slash", in: "user/get", wantErr: true},
		{name: "query", in: "user.get?x", wantErr: true},
		{name: "space", in: "user.get all", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestPath_Helpers(t *testing.T) {
	p := Path{"user", "role", "list"}

	assert.Equal(t, "list", p.Name())
	assert.Equal(t, Path{"user", "role"}, p.Parent())
	assert.True(t, p.HasPrefix(Path{"user"}))
	assert.True(t, p.HasPrefix(Path{"user", "role", "list"}))
	assert.False(t, p.HasPrefix(Path{"role"}))
	assert.False(t, p.HasPrefix(Path{"user", "role", "list", "x"}))
	assert.Equal(t, "", Path(nil).Name())
	assert.Nil(t, Path(nil).Parent())

	parent := p.Parent()
	a := parent.Child("get")
	b := parent.Child("delete")
	assert.Equal(t, Path{"user", "role", "get"}, a)
	assert.Equal(t, Path{"user", "role", "delete"}, b)
	assert.Equal(t, Path{"user", "role", "list"}, p, "Child must not alias the receiver")
}
