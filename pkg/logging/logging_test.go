// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// setup is a helper function to reset the logger for each test.
func setup(t *testing.T) {
	t.Helper()
	ForTestsOnlyResetLogger()
	t.Cleanup(ForTestsOnlyResetLogger)
}

func TestGetLogger_DefaultInitialization(t *testing.T) {
	setup(t)

	logger := GetLogger()
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestInit_FirstTime(t *testing.T) {
	setup(t)

	var buf bytes.Buffer
	Init(slog.LevelDebug, &buf)

	logger := GetLogger()
	logger.Debug("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestInit_IsNoOpAfterFirstCall(t *testing.T) {
	setup(t)

	var buf1, buf2 bytes.Buffer
	Init(slog.LevelDebug, &buf1)
	Init(slog.LevelInfo, &buf2)

	GetLogger().Debug("test message")

	assert.Contains(t, buf1.String(), "test message")
	assert.Empty(t, buf2.String(), "second Init call should be a no-op")
}

func TestInit_JSONFormat(t *testing.T) {
	setup(t)

	var buf bytes.Buffer
	Init(slog.LevelInfo, &buf, "json")
	GetLogger().Info("stub registered", "path", "user.get")

	out := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
	assert.Contains(t, out, `"path":"user.get"`)
}

func TestGetLogger_ReturnsSingleton(t *testing.T) {
	setup(t)

	assert.Same(t, GetLogger(), GetLogger())
}

func TestToSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSlogLevel(tt.in))
		})
	}
}
