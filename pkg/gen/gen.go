// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

// Package gen generates a typed stub tree for a router schema: one struct per
// router node, with a field per child router and per procedure, so stubs are
// reached through checked field access instead of string paths.
package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"path"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/mcpany/trpcstub/pkg/router"
	"github.com/samber/lo"
)

// StubImportPath is the import path of the stub runtime.
const StubImportPath = "github.com/mcpany/trpcstub/pkg/trpcstub"

var (
	// ErrNameCollision is returned when two names of the schema map to the
	// same Go identifier.
	ErrNameCollision = errors.New("generated name collision")
	// ErrInvalidName is returned when a name yields no Go identifier.
	ErrInvalidName = errors.New("name has no Go identifier")
	// ErrInvalidGoType is returned for a malformed go_type.
	ErrInvalidGoType = errors.New("invalid go type")
	// ErrEmptySchema is returned for a schema without procedures.
	ErrEmptySchema = errors.New("schema has no procedures")
)

// Options tunes the generated file.
type Options struct {
	// Package is the package clause of the file. Defaults to "stubs".
	Package string
	// TypeName is the name of the root struct. Defaults to "Stub".
	TypeName string
}

type field struct {
	Name string
	Type string
	// Ctor is set for child routers.
	Ctor string
	// Key and GoType are set for procedures.
	Key    string
	GoType string
}

type stubType struct {
	Name          string
	Ctor          string
	Path          string
	Fields        []field
	HasProcedures bool
}

type goImport struct {
	Alias string
	Path  string
}

type file struct {
	Package string
	Root    stubType
	Imports []goImport
	Types   []stubType
}

// Generate returns the formatted Go source of the typed stub tree of schema.
func Generate(schema *router.Schema, opts Options) ([]byte, error) {
	if schema == nil || schema.Len() == 0 {
		return nil, ErrEmptySchema
	}
	if opts.Package == "" {
		opts.Package = "stubs"
	}
	if opts.TypeName == "" {
		opts.TypeName = "Stub"
	}
	if !token.IsIdentifier(opts.Package) {
		return nil, fmt.Errorf("%w: package %q", ErrInvalidName, opts.Package)
	}
	if !token.IsIdentifier(opts.TypeName) || !token.IsExported(opts.TypeName) {
		return nil, fmt.Errorf("%w: type %q must be an exported identifier", ErrInvalidName, opts.TypeName)
	}

	g := &generator{
		rootName: opts.TypeName,
		imports:  map[string]string{StubImportPath: "trpcstub"},
		aliases:  map[string]string{"trpcstub": StubImportPath},
		types:    map[string]string{},
	}
	// Identifiers declared inside the generated constructors.
	for _, local := range []string{"s", "m", "out", "err"} {
		g.aliases[local] = ""
	}
	if err := g.assignImports(schema); err != nil {
		return nil, err
	}
	if err := g.collect(schema.Root()); err != nil {
		return nil, err
	}

	f := file{Package: opts.Package, Root: g.out[0], Types: g.out}
	for p, alias := range g.imports {
		f.Imports = append(f.Imports, goImport{Alias: alias, Path: p})
	}
	sort.Slice(f.Imports, func(i, j int) bool { return f.Imports[i].Path < f.Imports[j].Path })

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, f); err != nil {
		return nil, fmt.Errorf("failed to render stubs: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated stubs: %w", err)
	}
	return src, nil
}

type generator struct {
	rootName string
	// imports maps import paths to aliases, aliases the reverse.
	imports map[string]string
	aliases map[string]string
	// types maps generated type names to the router path that owns them.
	types map[string]string
	out   []stubType
}

func (g *generator) typeName(p router.Path) (string, error) {
	var b strings.Builder
	for _, seg := range p {
		id, err := Identifier(seg)
		if err != nil {
			return "", err
		}
		b.WriteString(id)
	}
	name := b.String() + g.rootName
	if owner, ok := g.types[name]; ok && owner != p.String() {
		return "", fmt.Errorf("%w: routers %q and %q both map to type %s", ErrNameCollision, owner, p.String(), name)
	}
	g.types[name] = p.String()
	return name, nil
}

func (g *generator) collect(n *router.Node) error {
	name, err := g.typeName(n.Path)
	if err != nil {
		return err
	}
	t := stubType{
		Name: name,
		Ctor: "new" + name,
		Path: n.Path.String(),
	}
	g.out = append(g.out, t)
	idx := len(g.out) - 1

	seen := map[string]string{}
	var fields []field
	for _, c := range n.Children() {
		id, err := Identifier(c.Name())
		if err != nil {
			return err
		}
		if other, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q and %q both map to field %s", ErrNameCollision, n.Path.Child(other).String(), c.Path.String(), id)
		}
		seen[id] = c.Name()

		if c.IsProcedure() {
			goType, err := g.goType(c.Procedure.GoType)
			if err != nil {
				return fmt.Errorf("%s: %w", c.Procedure.Key(), err)
			}
			typ := "*trpcstub.Mock"
			if goType != "" {
				typ = "trpcstub.TypedMock[" + goType + "]"
			}
			fields = append(fields, field{Name: id, Type: typ, Key: c.Procedure.Key(), GoType: goType})
			g.out[idx].HasProcedures = true
			continue
		}

		childName, err := g.typeName(c.Path)
		if err != nil {
			return err
		}
		fields = append(fields, field{Name: id, Type: childName, Ctor: "new" + childName})
		if err := g.collect(c); err != nil {
			return err
		}
	}
	g.out[idx].Fields = fields
	return nil
}

// assignImports hands out import aliases in import path order, so an alias
// only depends on the set of imported packages.
func (g *generator) assignImports(schema *router.Schema) error {
	var pkgs []string
	for _, p := range schema.Procedures() {
		_, pkgPath, _, err := splitGoType(p.GoType)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Key(), err)
		}
		if pkgPath != "" {
			pkgs = append(pkgs, pkgPath)
		}
	}
	pkgs = lo.Uniq(pkgs)
	sort.Strings(pkgs)
	for _, pkgPath := range pkgs {
		g.importAlias(pkgPath)
	}
	return nil
}

// goType renders a go_type such as "github.com/acme/app/api.User" or
// "[]*github.com/acme/app/api.User" as a qualified Go type, registering the
// import it needs. Predeclared types pass through.
func (g *generator) goType(raw string) (string, error) {
	prefix, pkgPath, name, err := splitGoType(raw)
	if err != nil || name == "" {
		return "", err
	}
	if pkgPath == "" {
		return prefix + name, nil
	}
	return prefix + g.importAlias(pkgPath) + "." + name, nil
}

// splitGoType splits a go_type into its "[]" and "*" prefix, the import path
// and the type name. The import path is empty for predeclared types.
func splitGoType(raw string) (prefix, pkgPath, name string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", "", nil
	}
	rest := raw
	for {
		switch {
		case strings.HasPrefix(rest, "[]"):
			prefix += "[]"
			rest = rest[2:]
			continue
		case strings.HasPrefix(rest, "*"):
			prefix += "*"
			rest = rest[1:]
			continue
		}
		break
	}
	dot := strings.LastIndex(rest, ".")
	if dot < 0 {
		if !token.IsIdentifier(rest) {
			return "", "", "", fmt.Errorf("%w: %q", ErrInvalidGoType, raw)
		}
		return prefix, "", rest, nil
	}
	pkgPath, name = rest[:dot], rest[dot+1:]
	if pkgPath == "" || !token.IsIdentifier(name) || !token.IsExported(name) || strings.ContainsAny(pkgPath, " \t\"") {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidGoType, raw)
	}
	return prefix, pkgPath, name, nil
}

func (g *generator) importAlias(pkgPath string) string {
	if alias, ok := g.imports[pkgPath]; ok {
		return alias
	}
	base := strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, path.Base(pkgPath))
	if !token.IsIdentifier(base) {
		base = "pkg"
	}
	alias := base
	for i := 2; ; i++ {
		if _, taken := g.aliases[alias]; !taken {
			break
		}
		alias = base + strconv.Itoa(i)
	}
	g.imports[pkgPath] = alias
	g.aliases[alias] = pkgPath
	return alias
}

// Identifier returns the exported Go identifier for a path segment:
// "byId" becomes "ById" and "2fa" becomes "X2Fa".
func Identifier(seg string) (string, error) {
	id := lo.PascalCase(seg)
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, seg)
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "X" + id
	}
	if !token.IsIdentifier(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, seg)
	}
	return id, nil
}

var fileTemplate = template.Must(template.New("stubs").Parse(`// Code generated by trpcstub gen. DO NOT EDIT.

package {{ .Package }}

import (
{{- range .Imports }}
	{{ .Alias }} "{{ .Path }}"
{{- end }}
)

// New{{ .Root.Name }} binds the typed stub tree to s.
func New{{ .Root.Name }}(s *trpcstub.Stubber) (*{{ .Root.Name }}, error) {
	out, err := {{ .Root.Ctor }}(s)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
{{ range .Types }}
// {{ .Name }} is the stub tree of {{ if .Path }}the {{ .Path }} router{{ else }}the root router{{ end }}.
type {{ .Name }} struct {
{{- range .Fields }}
	{{ .Name }} {{ .Type }}
{{- end }}
}

func {{ .Ctor }}(s *trpcstub.Stubber) ({{ .Name }}, error) {
	var (
		out {{ .Name }}
		err error
{{- if .HasProcedures }}
		m   *trpcstub.Mock
{{- end }}
	)
{{- range .Fields }}
{{- if .Ctor }}
	if out.{{ .Name }}, err = {{ .Ctor }}(s); err != nil {
		return out, err
	}
{{- else }}
	if m, err = s.Procedure({{ printf "%q" .Key }}); err != nil {
		return out, err
	}
	out.{{ .Name }} = {{ if .GoType }}trpcstub.Typed[{{ .GoType }}](m){{ else }}m{{ end }}
{{- end }}
{{- end }}
	return out, nil
}
{{ end }}`))
