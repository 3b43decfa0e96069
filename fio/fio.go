// Package fio reads and writes fixture data in YAML, TOML or JSON files.
//
// Fixture data may live anywhere in a larger file, under a key prefix such
// as "tests.fixtures". Only the clients and sessions sections under the
// prefix are read or written. Existing YAML files are edited in place so
// that the rest of the file, tags and anchors included, survives a write.
package fio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Paranoid-AF/hollow"
	"github.com/Paranoid-AF/hollow/docedit"
	"github.com/Paranoid-AF/hollow/modifier"
	"github.com/google/renameio"
	"gopkg.in/yaml.v3"
)

// Supported file formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Sections kept from a file.
var sections = []string{docedit.ClientsKey, docedit.SessionsKey}

// UnknownTagError is returned when a YAML document uses a tag that is not
// one of the fixture modifiers.
type UnknownTagError = modifier.UnknownTagError

// ParsePrefix splits a dotted prefix into keys. Keys containing dots must be
// given as a list instead.
func ParsePrefix(prefix string) []string {
	if prefix == "" {
		return nil
	}
	return strings.Split(prefix, ".")
}

// DetectFormat returns format when given, and otherwise infers it from the
// file extension. Files that are neither YAML nor TOML are read as JSON.
func DetectFormat(path, format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatTOML:
		return FormatTOML, nil
	case FormatJSON:
		return FormatJSON, nil
	case "":
	default:
		return "", &hollow.ConfigError{Path: path, Err: fmt.Errorf("unsupported file format %q", format)}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return FormatJSON, nil
}

// Read returns the clients and sessions sections found under prefix. A
// missing prefix yields empty data; a missing file is a *hollow.ConfigError.
func Read(path string, prefix []string, format string) (map[string]any, error) {
	path, err := absPath(path)
	if err != nil {
		return nil, err
	}
	format, err = DetectFormat(path, format)
	if err != nil {
		return nil, err
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, &hollow.ConfigError{Path: path, Err: err}
	}

	data, err := decode(contents, format, filepath.Dir(path))
	var tagErr *UnknownTagError
	if errors.As(err, &tagErr) {
		slog.Debug("falling back to block extraction", "path", path, "tag", tagErr.Tag)
		return readBlocks(string(contents), prefix, filepath.Dir(path))
	}
	if err != nil {
		return nil, &hollow.ConfigError{Path: path, Err: err}
	}
	return sectionsOf(descend(data, prefix)), nil
}

// readBlocks decodes only the fixture blocks of a YAML document whose other
// parts use tags that cannot be decoded.
func readBlocks(contents string, prefix []string, dir string) (map[string]any, error) {
	clients, sessions, _ := docedit.Extract(contents, prefix)
	out := map[string]any{}
	for _, block := range []docedit.Block{clients, sessions} {
		if !block.Found() {
			continue
		}
		data, err := decodeYAML([]byte(block.OuterBody()), dir)
		if err != nil {
			return nil, &hollow.ConfigError{Err: fmt.Errorf("%s block: %w", block.Key, err)}
		}
		for k, v := range data {
			out[k] = v
		}
	}
	return out, nil
}

// Write stores the clients and sessions sections of data under prefix.
// Existing YAML files are edited in place; other files are decoded, updated
// and encoded again. Missing files are created.
func Write(path string, data map[string]any, prefix []string, format string) error {
	path, err := absPath(path)
	if err != nil {
		return err
	}
	format, err = DetectFormat(path, format)
	if err != nil {
		return err
	}
	source := sectionsOf(data)

	existing, err := os.ReadFile(path)
	exists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &hollow.ConfigError{Path: path, Err: err}
	}

	if exists && format == FormatYAML {
		out, err := docedit.Rewrite(string(existing), source, prefix)
		if err != nil {
			return &hollow.ConfigError{Path: path, Err: err}
		}
		return writeFile(path, []byte(out))
	}

	root := map[string]any{}
	if exists {
		decoded, err := decode(existing, format, filepath.Dir(path))
		if err != nil {
			return &hollow.ConfigError{Path: path, Err: err}
		}
		if m, ok := decoded.(map[string]any); ok {
			root = m
		}
	}

	child := root
	for _, key := range prefix {
		next, ok := child[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			child[key] = next
		}
		child = next
	}
	for k, v := range source {
		child[k] = v
	}

	out, err := Encode(root, format)
	if err != nil {
		return &hollow.ConfigError{Path: path, Err: err}
	}
	return writeFile(path, out)
}

// Encode serializes data in the given format.
func Encode(data map[string]any, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(data); err != nil {
			return nil, err
		}
	case FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, err
		}
		buf.Write(out)
		buf.WriteByte('\n')
	default:
		return nil, fmt.Errorf("unsupported file format %q", format)
	}
	return buf.Bytes(), nil
}

func decode(contents []byte, format, dir string) (any, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(contents, dir)
	case FormatTOML:
		var out map[string]any
		if _, err := toml.Decode(string(contents), &out); err != nil {
			return nil, err
		}
		return normalize(out), nil
	default:
		if len(bytes.TrimSpace(contents)) == 0 {
			return map[string]any{}, nil
		}
		var out any
		if err := json.Unmarshal(contents, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func decodeYAML(contents []byte, dir string) (map[string]any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(contents, &node); err != nil {
		return nil, err
	}
	if node.Kind == 0 {
		return map[string]any{}, nil
	}
	v, err := modifier.Decode(&node, dir)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping at the top of the document, got %T", v)
	}
	return m, nil
}

// normalize turns the typed slices produced by the TOML decoder into []any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalize(item)
		}
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	}
	return v
}

// descend follows prefix through nested mappings. A missing key yields an
// empty mapping.
func descend(data any, prefix []string) map[string]any {
	current, _ := data.(map[string]any)
	for _, key := range prefix {
		current, _ = current[key].(map[string]any)
	}
	if current == nil {
		return map[string]any{}
	}
	return current
}

func sectionsOf(data map[string]any) map[string]any {
	out := map[string]any{}
	for _, key := range sections {
		if v, ok := data[key]; ok {
			out[key] = v
		}
	}
	return out
}

func absPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", &hollow.ConfigError{Path: path, Err: err}
		}
		path = filepath.Join(home, path[2:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &hollow.ConfigError{Path: path, Err: err}
	}
	return abs, nil
}

func writeFile(path string, data []byte) error {
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return &hollow.ConfigError{Path: path, Err: err}
	}
	slog.Debug("wrote fixture file", "path", path, "bytes", len(data))
	return nil
}
