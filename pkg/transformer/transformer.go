// Copyright 2026 Author(s) of MCP Any
// SPDX-License-Identifier: Apache-2.0

// Package transformer implements the data transformer convention of tRPC:
// values are serialized before they are put on the wire and deserialized
// when read back. A Combined transformer carries one convention for
// procedure inputs and one for outputs.
package transformer

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DataTransformer encodes values to and decodes values from their wire form.
type DataTransformer interface {
	// Serialize returns the JSON wire form of v.
	Serialize(v any) ([]byte, error)
	// Deserialize decodes the JSON wire form data into v, which must be a
	// pointer.
	Deserialize(data []byte, v any) error
}

// Combined pairs the transformers used for procedure inputs and outputs.
type Combined struct {
	Input  DataTransformer
	Output DataTransformer
}

// Combine returns a Combined that uses t in both directions.
func Combine(t DataTransformer) Combined {
	return Combined{Input: t, Output: t}
}

// Default is the identity convention of tRPC's default transformer.
var Default = Combine(JSON{})

// JSON serializes values as plain JSON.
type JSON struct{}

// Serialize implements DataTransformer.
func (JSON) Serialize(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize value: %w", err)
	}
	return b, nil
}

// Deserialize implements DataTransformer.
func (JSON) Deserialize(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to deserialize value: %w", err)
	}
	return nil
}

// SuperJSON wraps values the way superjson does for plain JSON data:
// {"json": <value>}. On decode only the "json" member is read; "meta"
// annotations (dates, maps, sets) are not revived.
type SuperJSON struct{}

type superJSONEnvelope struct {
	JSON any `json:"json"`
}

// Serialize implements DataTransformer.
func (SuperJSON) Serialize(v any) ([]byte, error) {
	b, err := json.Marshal(superJSONEnvelope{JSON: v})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize value: %w", err)
	}
	return b, nil
}

// Deserialize implements DataTransformer.
func (SuperJSON) Deserialize(data []byte, v any) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("failed to deserialize value: invalid JSON")
	}
	inner := gjson.GetBytes(data, "json")
	raw := []byte("null")
	if inner.Exists() {
		raw = []byte(inner.Raw)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to deserialize value: %w", err)
	}
	return nil
}
