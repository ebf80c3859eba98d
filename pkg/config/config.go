// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

// Package config binds the command-line flags and environment variables of
// the trpcstub command.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the command.
const EnvPrefix = "TRPCSTUB"

// BindRootFlags binds the logging flags shared by every sub-command.
func BindRootFlags(cmd *cobra.Command) {
	viper.AutomaticEnv()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging. Env: TRPCSTUB_DEBUG")
	cmd.PersistentFlags().String("log-level", "info", "Set the log level (debug, info, warn, error). Env: TRPCSTUB_LOG_LEVEL")
	cmd.PersistentFlags().String("log-format", "text", "Set the log format (text, json). Env: TRPCSTUB_LOG_FORMAT")
	cmd.PersistentFlags().String("logfile", "", "Path to a file to write logs to. If not set, logs are written to stderr.")

	bind(cmd, "debug", "log-level", "log-format", "logfile")
}

// BindSchemaFlags binds the flags locating the router schema.
func BindSchemaFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("schema", "s", "", "Path to the router schema (YAML or JSON). Env: TRPCSTUB_SCHEMA")
	cmd.PersistentFlags().String("endpoint", "", "Override the endpoint declared by the schema. Env: TRPCSTUB_ENDPOINT")

	bind(cmd, "schema", "endpoint")
}

// BindGenFlags binds the flags of the gen sub-command.
func BindGenFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", "", "File to write the generated stubs to. Defaults to stdout. Env: TRPCSTUB_OUT")
	cmd.Flags().String("package", "stubs", "Package clause of the generated file. Env: TRPCSTUB_PACKAGE")
	cmd.Flags().String("type-name", "Stub", "Name of the generated root struct. Env: TRPCSTUB_TYPE_NAME")

	for _, name := range []string{"out", "package", "type-name"} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", name, err)
			os.Exit(1)
		}
	}
}

func bind(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := viper.BindPFlag(name, cmd.PersistentFlags().Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", name, err)
			os.Exit(1)
		}
	}
}
