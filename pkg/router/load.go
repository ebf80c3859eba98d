// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a Schema.
//
//	endpoint: /api/trpc
//	procedures:
//	  user.get:
//	    type: query
//	    go_type: github.com/acme/app/api.User
//	    output: {type: object, required: [id]}
type File struct {
	Endpoint   string                   `yaml:"endpoint" json:"endpoint"`
	Procedures map[string]ProcedureFile `yaml:"procedures" json:"procedures"`
}

// ProcedureFile is the on-disk form of a Procedure.
type ProcedureFile struct {
	Type   string         `yaml:"type" json:"type"`
	GoType string         `yaml:"go_type" json:"go_type"`
	Output map[string]any `yaml:"output" json:"output"`
}

// Load reads a schema file. The format is chosen by extension: .yaml/.yml or
// .json.
func Load(fs afero.Fs, path string) (*Schema, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	s, err := Parse(b, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a schema document. format is a file extension (".yaml",
// ".yml", ".json") with or without the leading dot.
func Parse(b []byte, format string) (*Schema, error) {
	var f File
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return f.Schema()
}

// Schema converts the file form into a validated Schema.
func (f *File) Schema() (*Schema, error) {
	procs := make([]Procedure, 0, len(f.Procedures))
	for key, pf := range f.Procedures {
		p, err := ParsePath(key)
		if err != nil {
			return nil, err
		}
		procs = append(procs, Procedure{
			Path:   p,
			Kind:   Kind(strings.ToLower(pf.Type)),
			GoType: pf.GoType,
			Output: pf.Output,
		})
	}
	s, err := NewSchema(procs...)
	if err != nil {
		return nil, err
	}
	if f.Endpoint != "" {
		s.Endpoint = strings.TrimRight(f.Endpoint, "/")
	}
	return s, nil
}
