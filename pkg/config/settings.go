// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mcpany/trpcstub/pkg/logging"
	"github.com/mcpany/trpcstub/pkg/router"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrNoSchema is returned by Schema when no schema path is configured.
var ErrNoSchema = errors.New("no router schema given (use --schema or TRPCSTUB_SCHEMA)")

// Settings is the resolved configuration of one command invocation.
type Settings struct {
	debug      bool
	logLevel   string
	logFormat  string
	logFile    string
	schemaPath string
	endpoint   string
	out        string
	pkg        string
	typeName   string
	fs         afero.Fs
	logOut     afero.File
}

// NewSettings returns empty settings; call Load to populate them.
func NewSettings() *Settings {
	return &Settings{}
}

// Load reads the bound flags and environment and initializes logging.
// Logs go to stderr unless a log file is configured, so generated output on
// stdout stays clean. A configured log file stays open until Close.
func (s *Settings) Load(cmd *cobra.Command, fs afero.Fs) error {
	if err := s.Close(); err != nil {
		return err
	}
	s.fs = fs
	s.debug = viper.GetBool("debug")
	s.logLevel = viper.GetString("log-level")
	s.logFormat = viper.GetString("log-format")
	s.logFile = viper.GetString("logfile")
	s.schemaPath = viper.GetString("schema")
	s.endpoint = viper.GetString("endpoint")
	s.out = viper.GetString("out")
	s.pkg = viper.GetString("package")
	s.typeName = viper.GetString("type-name")

	var logOutput io.Writer = cmd.ErrOrStderr()
	if s.logFile != "" {
		f, err := fs.OpenFile(s.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open logfile: %w", err)
		}
		s.logOut = f
		logOutput = f
	}
	logging.Init(s.LogLevel(), logOutput, s.LogFormat())
	return nil
}

// Close closes the log file opened by Load, if any.
func (s *Settings) Close() error {
	if s.logOut == nil {
		return nil
	}
	f := s.logOut
	s.logOut = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close logfile: %w", err)
	}
	return nil
}

// LogLevel returns the configured level; --debug wins over --log-level.
func (s *Settings) LogLevel() slog.Level {
	if s.debug {
		return slog.LevelDebug
	}
	return logging.ToSlogLevel(s.logLevel)
}

// LogFormat returns "json" or "text".
func (s *Settings) LogFormat() string {
	if strings.EqualFold(s.logFormat, "json") {
		return "json"
	}
	return "text"
}

// SchemaPath returns the configured schema file.
func (s *Settings) SchemaPath() string {
	return s.schemaPath
}

// Endpoint returns the endpoint override, if any.
func (s *Settings) Endpoint() string {
	return s.endpoint
}

// Out returns the output file of gen ("" for stdout).
func (s *Settings) Out() string {
	return s.out
}

// Package returns the package clause of generated stubs.
func (s *Settings) Package() string {
	return s.pkg
}

// TypeName returns the root struct name of generated stubs.
func (s *Settings) TypeName() string {
	return s.typeName
}

// Schema loads the configured router schema, applying the endpoint
// override.
func (s *Settings) Schema() (*router.Schema, error) {
	if s.schemaPath == "" {
		return nil, ErrNoSchema
	}
	schema, err := router.Load(s.fs, s.schemaPath)
	if err != nil {
		return nil, err
	}
	if s.endpoint != "" {
		schema.Endpoint = strings.TrimSuffix(s.endpoint, "/")
	}
	logging.GetLogger().Debug("Loaded router schema", "path", s.schemaPath, "procedures", schema.Len(), "endpoint", schema.Endpoint)
	return schema, nil
}
