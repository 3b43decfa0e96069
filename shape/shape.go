// Package shape models the type graph of a service specification and
// resolves it into self-contained per-method type trees.
//
// A Shape is either an inline definition or a reference ({"shape": name})
// into the graph's shape table. Specifications are routinely self-referential
// (a DynamoDB AttributeValue contains maps and lists of AttributeValue), so
// resolution is bounded by a depth limit instead of following cycles.
package shape

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Shape type names used by service specifications.
const (
	TypeStructure = "structure"
	TypeList      = "list"
	TypeMap       = "map"
	TypeString    = "string"
	TypeBlob      = "blob"
	TypeInteger   = "integer"
	TypeLong      = "long"
	TypeFloat     = "float"
	TypeDouble    = "double"
	TypeBoolean   = "boolean"
	TypeTimestamp = "timestamp"
	// TypeAny is assigned to shapes past the resolution depth bound.
	TypeAny = "any"
)

// Shape is one node of a service specification's type graph.
type Shape struct {
	// Ref names another shape in the graph. It is kept on resolved shapes
	// for diagnostics.
	Ref         string   `json:"shape,omitempty" yaml:"shape,omitempty"`
	Type        string   `json:"type,omitempty" yaml:"type,omitempty"`
	Members     Members  `json:"members,omitempty" yaml:"members,omitempty"`
	Required    []string `json:"required,omitempty" yaml:"required,omitempty"`
	Member      *Shape   `json:"member,omitempty" yaml:"member,omitempty"`
	Key         *Shape   `json:"key,omitempty" yaml:"key,omitempty"`
	Value       *Shape   `json:"value,omitempty" yaml:"value,omitempty"`
	Streaming   bool     `json:"streaming,omitempty" yaml:"streaming,omitempty"`
	EventStream bool     `json:"eventstream,omitempty" yaml:"eventstream,omitempty"`
	Exception   bool     `json:"exception,omitempty" yaml:"exception,omitempty"`
	Payload     string   `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Clone returns a deep copy of s.
func (s *Shape) Clone() *Shape {
	if s == nil {
		return nil
	}
	out := *s
	if s.Required != nil {
		out.Required = append([]string(nil), s.Required...)
	}
	if s.Members != nil {
		out.Members = make(Members, len(s.Members))
		for i, m := range s.Members {
			out.Members[i] = Member{Name: m.Name, Shape: m.Shape.Clone()}
		}
	}
	out.Member = s.Member.Clone()
	out.Key = s.Key.Clone()
	out.Value = s.Value.Clone()
	return &out
}

// TypeName returns the declared type, or "" for a nil shape.
func (s *Shape) TypeName() string {
	if s == nil {
		return ""
	}
	return s.Type
}

// IsRequired reports whether name is listed in the shape's required members.
func (s *Shape) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// merge overlays the non-zero fields of src onto s.
func (s *Shape) merge(src *Shape) {
	if src == nil {
		return
	}
	if src.Ref != "" {
		s.Ref = src.Ref
	}
	if src.Type != "" {
		s.Type = src.Type
	}
	if src.Members != nil {
		s.Members = src.Members
	}
	if src.Required != nil {
		s.Required = src.Required
	}
	if src.Member != nil {
		s.Member = src.Member
	}
	if src.Key != nil {
		s.Key = src.Key
	}
	if src.Value != nil {
		s.Value = src.Value
	}
	if src.Payload != "" {
		s.Payload = src.Payload
	}
	s.Streaming = s.Streaming || src.Streaming
	s.EventStream = s.EventStream || src.EventStream
	s.Exception = s.Exception || src.Exception
}

// Member is one named member of a structure shape.
type Member struct {
	Name  string
	Shape *Shape
}

// Members keeps structure members in declaration order, which is the order
// positional call arguments are mapped onto.
type Members []Member

// Get returns the member shape with the given name.
func (m Members) Get(name string) (*Shape, bool) {
	for _, member := range m {
		if member.Name == name {
			return member.Shape, true
		}
	}
	return nil, false
}

// Names returns member names in declaration order.
func (m Members) Names() []string {
	names := make([]string, len(m))
	for i, member := range m {
		names[i] = member.Name
	}
	return names
}

// UnmarshalJSON decodes a JSON object of member shapes, keeping key order.
func (m *Members) UnmarshalJSON(data []byte) error {
	parsed := gjson.ParseBytes(data)
	if parsed.Type == gjson.Null {
		*m = nil
		return nil
	}
	if !parsed.IsObject() {
		return fmt.Errorf("members must be an object, got %s", parsed.Type)
	}

	out := Members{}
	var err error
	parsed.ForEach(func(key, value gjson.Result) bool {
		s := &Shape{}
		if err = json.Unmarshal([]byte(value.Raw), s); err != nil {
			err = fmt.Errorf("member %s: %w", key.String(), err)
			return false
		}
		out = append(out, Member{Name: key.String(), Shape: s})
		return true
	})
	if err != nil {
		return err
	}
	*m = out
	return nil
}

// MarshalJSON encodes members as a JSON object in declaration order.
func (m Members) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, member := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(member.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(member.Shape)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a YAML mapping of member shapes, keeping key order.
func (m *Members) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: members must be a mapping", node.Line)
	}
	out := make(Members, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		s := &Shape{}
		if err := node.Content[i+1].Decode(s); err != nil {
			return fmt.Errorf("member %s: %w", node.Content[i].Value, err)
		}
		out = append(out, Member{Name: node.Content[i].Value, Shape: s})
	}
	*m = out
	return nil
}

// MarshalYAML encodes members as a YAML mapping in declaration order.
func (m Members) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, member := range m {
		value := &yaml.Node{}
		if err := value.Encode(member.Shape); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: member.Name},
			value,
		)
	}
	return node, nil
}
