package decoders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/brettbedarf/resmgr"
	"gopkg.in/yaml.v3"
)

// RegisterBuiltins binds the built-in decoders to their extensions
func RegisterBuiltins(r *Registry) {
	for _, ext := range []string{"txt", "md", "xml", "glsl", "vert", "frag"} {
		r.Register(ext, Func(Text))
	}
	r.Register("json", Func(JSON))
	r.Register("yaml", Func(YAML))
	r.Register("yml", Func(YAML))
}

// Raw returns a private copy of data
func Raw(_ string, data []byte) (any, error) {
	return slices.Clone(data), nil
}

// Text returns data as a string; invalid UTF-8 is a decode failure
func Text(p string, data []byte) (any, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: invalid UTF-8: %w", p, resmgr.ErrDecodeFailure)
	}
	return string(data), nil
}

// JSON decodes a single JSON document into generic values
func JSON(p string, data []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", p, resmgr.ErrDecodeFailure, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%s: trailing data after JSON document: %w", p, resmgr.ErrDecodeFailure)
	}
	return v, nil
}

// YAML decodes a single YAML document into generic values.
// An empty document decodes to nil.
func YAML(p string, data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", p, resmgr.ErrDecodeFailure, err)
	}
	return v, nil
}
