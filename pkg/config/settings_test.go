// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/mcpany/trpcstub/pkg/logging"
	"github.com/mcpany/trpcstub/pkg/router"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaYAML = `
endpoint: /trpc/
procedures:
  user.get:
    type: query
  post.create:
    type: mutation
`

// run executes a command carrying every flag set and returns the settings
// it loaded.
func run(t *testing.T, fs afero.Fs, args ...string) *Settings {
	t.Helper()
	viper.Reset()
	logging.ForTestsOnlyResetLogger()
	t.Cleanup(logging.ForTestsOnlyResetLogger)

	s := NewSettings()
	cmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.Load(cmd, fs)
		},
	}
	cmd.SetErr(&bytes.Buffer{})
	BindRootFlags(cmd)
	BindSchemaFlags(cmd)
	BindGenFlags(cmd)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return s
}

func TestSettings_Defaults(t *testing.T) {
	s := run(t, afero.NewMemMapFs())
	assert.Equal(t, slog.LevelInfo, s.LogLevel())
	assert.Equal(t, "text", s.LogFormat())
	assert.Empty(t, s.SchemaPath())
	assert.Empty(t, s.Endpoint())
	assert.Empty(t, s.Out())
	assert.Equal(t, "stubs", s.Package())
	assert.Equal(t, "Stub", s.TypeName())

	_, err := s.Schema()
	assert.ErrorIs(t, err, ErrNoSchema)
}

func TestSettings_Flags(t *testing.T) {
	s := run(t, afero.NewMemMapFs(),
		"--log-level", "warn", "--log-format", "JSON",
		"-s", "router.yaml", "--endpoint", "http://localhost:3000/api/trpc",
		"-o", "stubs_gen.go", "--package", "e2e", "--type-name", "API",
	)
	assert.Equal(t, slog.LevelWarn, s.LogLevel())
	assert.Equal(t, "json", s.LogFormat())
	assert.Equal(t, "router.yaml", s.SchemaPath())
	assert.Equal(t, "http://localhost:3000/api/trpc", s.Endpoint())
	assert.Equal(t, "stubs_gen.go", s.Out())
	assert.Equal(t, "e2e", s.Package())
	assert.Equal(t, "API", s.TypeName())
}

func TestSettings_DebugWins(t *testing.T) {
	s := run(t, afero.NewMemMapFs(), "--log-level", "error", "--debug")
	assert.Equal(t, slog.LevelDebug, s.LogLevel())
}

func TestSettings_Env(t *testing.T) {
	t.Setenv("TRPCSTUB_SCHEMA", "from-env.yaml")
	t.Setenv("TRPCSTUB_LOG_LEVEL", "debug")
	t.Setenv("TRPCSTUB_TYPE_NAME", "Router")

	s := run(t, afero.NewMemMapFs())
	assert.Equal(t, "from-env.yaml", s.SchemaPath())
	assert.Equal(t, slog.LevelDebug, s.LogLevel())
	assert.Equal(t, "Router", s.TypeName())

	s = run(t, afero.NewMemMapFs(), "--schema", "from-flag.yaml")
	assert.Equal(t, "from-flag.yaml", s.SchemaPath(), "flags take precedence over env")
}

func TestSettings_Schema(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "router.yaml", []byte(schemaYAML), 0o644))

	s := run(t, fs, "--schema", "router.yaml")
	schema, err := s.Schema()
	require.NoError(t, err)
	assert.Equal(t, "/trpc", schema.Endpoint)
	assert.Equal(t, 2, schema.Len())
	p, ok := schema.Lookup("post.create")
	require.True(t, ok)
	assert.Equal(t, router.Mutation, p.Kind)

	s = run(t, fs, "--schema", "router.yaml", "--endpoint", "/api/trpc/")
	schema, err = s.Schema()
	require.NoError(t, err)
	assert.Equal(t, "/api/trpc", schema.Endpoint)

	s = run(t, fs, "--schema", "missing.yaml")
	_, err = s.Schema()
	assert.Error(t, err)
}

func TestSettings_LogFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	s := run(t, fs, "--logfile", "trpcstub.log", "--log-format", "json")

	logging.GetLogger().Info("hello")
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "Close is idempotent")
	b, err := afero.ReadFile(fs, "trpcstub.log")
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)

	assert.NoError(t, run(t, fs).Close(), "nothing to close without a log file")
}
