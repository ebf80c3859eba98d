// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

// Package main implements the trpcstub command line interface: it checks
// router schemas, lists the procedure URLs they stub, and generates typed
// stub trees.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/mcpany/trpcstub/pkg/config"
	"github.com/mcpany/trpcstub/pkg/gen"
	"github.com/mcpany/trpcstub/pkg/logging"
	"github.com/mcpany/trpcstub/pkg/router"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"
)

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "trpcstub",
		Short:        "trpcstub builds network stubs for tRPC routers",
		SilenceUsage: true,
	}
	config.BindRootFlags(rootCmd)
	config.BindSchemaFlags(rootCmd)

	load := func(cmd *cobra.Command) (*config.Settings, *router.Schema, error) {
		cfg := config.NewSettings()
		if err := cfg.Load(cmd, fs); err != nil {
			return nil, nil, fmt.Errorf("configuration load failed: %w", err)
		}
		schema, err := cfg.Schema()
		if err != nil {
			_ = cfg.Close()
			return nil, nil, err
		}
		return cfg, schema, nil
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the router schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, schema, err := load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cfg.Close() }()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Schema is valid: %d procedures under %s.\n", schema.Len(), schema.Endpoint)
			return err
		},
	}

	pathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "List the procedures of the router schema and the URLs they are stubbed at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, schema, err := load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cfg.Close() }()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range schema.Procedures() {
				typ := p.GoType
				if typ == "" {
					typ = "-"
				}
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s/%s\t%s\n", p.Key(), p.Kind, schema.Endpoint, p.Key(), typ); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}

	genCmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a typed stub tree for the router schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, schema, err := load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cfg.Close() }()
			src, err := gen.Generate(schema, gen.Options{Package: cfg.Package(), TypeName: cfg.TypeName()})
			if err != nil {
				return fmt.Errorf("failed to generate stubs: %w", err)
			}
			if cfg.Out() == "" || cfg.Out() == "-" {
				_, err = cmd.OutOrStdout().Write(src)
				return err
			}
			if err := fs.MkdirAll(filepath.Dir(cfg.Out()), 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			if err := afero.WriteFile(fs, cfg.Out(), src, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", cfg.Out(), err)
			}
			logging.GetLogger().Info("Generated stubs", "out", cfg.Out(), "procedures", schema.Len())
			return nil
		},
	}
	config.BindGenFlags(genCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of trpcstub",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "trpcstub version %s\n", Version)
			return err
		},
	}

	rootCmd.AddCommand(validateCmd, pathsCmd, genCmd, versionCmd)
	return rootCmd
}
