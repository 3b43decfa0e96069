// Package modifier implements the custom YAML tags understood in fixture
// files. A tagged value is kept as a Modifier until a response is cast, and
// is written back under the same tag when a file is saved.
//
//	!hollow.inject_string ./body.txt     the text of a file
//	!hollow.to_json {a: 1}               a value encoded as a JSON string
//	!hollow.error {code: X, message: Y}  a service fault
package modifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/shell"
)

// Tags handled by this package.
const (
	TagInjectString = "!hollow.inject_string"
	TagToJSON       = "!hollow.to_json"
	TagError        = "!hollow.error"
)

// Modifier is a tagged configuration value. The set of variants is closed:
// *InjectString, *ToJSON and *Error.
type Modifier interface {
	// Tag returns the YAML tag the value is written with.
	Tag() string
	// Resolve produces the plain value the modifier stands for.
	Resolve() (any, error)
	// MarshalYAML encodes the modifier back to its tagged form.
	MarshalYAML() (any, error)

	sealed()
}

// InjectString stands for the contents of a text file.
type InjectString struct {
	// Original is the path as written in the document.
	Original string
	// Absolute is Original expanded and resolved against the document's
	// directory.
	Absolute string
}

// NewInjectString expands "~" and environment variables in path and
// resolves it against dir.
func NewInjectString(path, dir string) (*InjectString, error) {
	fields, err := shell.Fields(path, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", TagInjectString, path, err)
	}
	if len(fields) != 1 {
		return nil, fmt.Errorf("%s %q: expected a single path, got %d words", TagInjectString, path, len(fields))
	}

	abs := fields[0]
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(dir, abs)
	}
	return &InjectString{Original: path, Absolute: filepath.Clean(abs)}, nil
}

func (m *InjectString) Tag() string { return TagInjectString }

func (m *InjectString) Resolve() (any, error) {
	data, err := os.ReadFile(m.Absolute)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", TagInjectString, m.Original, err)
	}
	return string(data), nil
}

func (m *InjectString) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagInjectString, Value: m.Original}, nil
}

func (*InjectString) sealed() {}

// ToJSON stands for the JSON encoding of Value.
type ToJSON struct {
	Value any
}

func (m *ToJSON) Tag() string { return TagToJSON }

func (m *ToJSON) Resolve() (any, error) {
	value, err := ResolveAll(m.Value)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TagToJSON, err)
	}
	return string(data), nil
}

func (m *ToJSON) MarshalYAML() (any, error) {
	node := &yaml.Node{}
	if err := node.Encode(m.Value); err != nil {
		return nil, err
	}
	node.Tag = TagToJSON
	node.Style &^= yaml.TaggedStyle
	return node, nil
}

func (*ToJSON) sealed() {}

// Error stands for a service fault response.
type Error struct {
	Code    string `yaml:"code"`
	Message string `yaml:"message"`
}

func (m *Error) Tag() string { return TagError }

// Resolve returns the error document in the shape the SDK reports it.
func (m *Error) Resolve() (any, error) {
	return map[string]any{
		"Error": map[string]any{
			"Code":    m.Code,
			"Message": m.Message,
		},
	}, nil
}

func (m *Error) MarshalYAML() (any, error) {
	node := &yaml.Node{}
	if err := node.Encode(struct {
		Code    string `yaml:"code"`
		Message string `yaml:"message"`
	}{m.Code, m.Message}); err != nil {
		return nil, err
	}
	node.Tag = TagError
	node.Style = yaml.FlowStyle
	return node, nil
}

func (*Error) sealed() {}

// ResolveAll returns a copy of v in which every Modifier, at any depth, is
// replaced by its resolved value.
func ResolveAll(v any) (any, error) {
	switch t := v.(type) {
	case Modifier:
		resolved, err := t.Resolve()
		if err != nil {
			return nil, err
		}
		return ResolveAll(resolved)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			r, err := ResolveAll(item)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			r, err := ResolveAll(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}
	return v, nil
}
