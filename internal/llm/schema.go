package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON Schema describing a structured reply.
type Schema struct {
	Name     string
	raw      json.RawMessage
	compiled *gojsonschema.Schema
}

// NewSchema compiles raw as a JSON Schema document.
func NewSchema(name string, raw string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{Name: name, raw: json.RawMessage(raw), compiled: compiled}, nil
}

// MustSchema is NewSchema for package-level schemas.
func MustSchema(name string, raw string) *Schema {
	s, err := NewSchema(name, raw)
	if err != nil {
		panic(err)
	}
	return s
}

// JSON returns the schema document.
func (s *Schema) JSON() json.RawMessage {
	return s.raw
}

// Decode checks data against the schema and unmarshals it into target.
func (s *Schema) Decode(data []byte, target any) error {
	data = stripCodeFence(data)
	if !json.Valid(data) {
		return &DecodeError{Raw: string(data), Err: errors.New("reply is not valid JSON")}
	}
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &DecodeError{Raw: string(data), Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			msgs = append(msgs, field+": "+desc.Description())
		}
		return &DecodeError{Raw: string(data), Err: fmt.Errorf("schema %s: %s", s.Name, strings.Join(msgs, "; "))}
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &DecodeError{Raw: string(data), Err: err}
	}
	return nil
}

// Some models wrap JSON in a markdown fence even when asked not to.
func stripCodeFence(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("```")) {
		return trimmed
	}
	trimmed = bytes.TrimPrefix(trimmed, []byte("```"))
	if nl := bytes.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	}
	trimmed = bytes.TrimSuffix(bytes.TrimSpace(trimmed), []byte("```"))
	return bytes.TrimSpace(trimmed)
}
