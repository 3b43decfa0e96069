package modifier

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnknownTagError is returned when a document uses a custom tag this package
// does not handle.
type UnknownTagError struct {
	Tag  string
	Line int
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("line %d: unknown tag %s", e.Line, e.Tag)
}

// Parse builds the modifier for a node carrying one of the handled tags.
// Relative paths are resolved against dir.
func Parse(node *yaml.Node, dir string) (Modifier, error) {
	switch node.Tag {
	case TagInjectString:
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: %s expects a path", node.Line, TagInjectString)
		}
		return NewInjectString(node.Value, dir)

	case TagToJSON:
		value, err := decodeUntagged(node, dir)
		if err != nil {
			return nil, err
		}
		return &ToJSON{Value: value}, nil

	case TagError:
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: %s expects a mapping with code and message", node.Line, TagError)
		}
		value, err := decodeUntagged(node, dir)
		if err != nil {
			return nil, err
		}
		fields := value.(map[string]any)
		m := &Error{}
		for k, v := range fields {
			switch strings.ToLower(k) {
			case "code":
				m.Code = fmt.Sprint(v)
			case "message":
				m.Message = fmt.Sprint(v)
			}
		}
		return m, nil
	}
	return nil, &UnknownTagError{Tag: node.Tag, Line: node.Line}
}

// Decode converts a YAML node tree into plain Go values (map[string]any,
// []any and scalars), turning handled tags into modifiers. Anchors, aliases
// and merge keys are honoured.
func Decode(node *yaml.Node, dir string) (any, error) {
	if node == nil {
		return nil, nil
	}
	if isCustomTag(node.Tag) {
		return Parse(node, dir)
	}
	return decodeUntagged(node, dir)
}

func decodeUntagged(node *yaml.Node, dir string) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return Decode(node.Content[0], dir)

	case yaml.AliasNode:
		return Decode(node.Alias, dir)

	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := Decode(item, dir)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.MappingNode:
		return decodeMapping(node, dir)

	case yaml.ScalarNode:
		if isCustomTag(node.Tag) {
			// The tag was consumed by Parse.
			return node.Value, nil
		}
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unexpected node kind %d", node.Line, node.Kind)
}

func decodeMapping(node *yaml.Node, dir string) (map[string]any, error) {
	out := make(map[string]any, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.Tag == "!!merge" {
			continue
		}
		key, err := decodeKey(keyNode, dir)
		if err != nil {
			return nil, err
		}
		v, err := Decode(valueNode, dir)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}

	// Merged keys never override explicit ones; earlier sources win.
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Tag != "!!merge" {
			continue
		}
		sources := []*yaml.Node{node.Content[i+1]}
		if src := resolveAlias(node.Content[i+1]); src.Kind == yaml.SequenceNode {
			sources = src.Content
		}
		for _, src := range sources {
			src = resolveAlias(src)
			if src.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge key expects a mapping", src.Line)
			}
			merged, err := decodeMapping(src, dir)
			if err != nil {
				return nil, err
			}
			for k, v := range merged {
				if _, ok := out[k]; ok {
					continue
				}
				out[k] = v
			}
		}
	}
	return out, nil
}

func decodeKey(node *yaml.Node, dir string) (string, error) {
	node = resolveAlias(node)
	if node.Kind == yaml.ScalarNode && !isCustomTag(node.Tag) {
		return node.Value, nil
	}
	v, err := Decode(node, dir)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isCustomTag(tag string) bool {
	return strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!")
}
