package shape

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DefaultDepth bounds how many levels of references are inlined.
const DefaultDepth = 10

// Operation is one callable method of a service.
type Operation struct {
	Name   string   `json:"name" yaml:"name"`
	Input  *Shape   `json:"input,omitempty" yaml:"input,omitempty"`
	Output *Shape   `json:"output,omitempty" yaml:"output,omitempty"`
	Errors []*Shape `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Document is the decoded form of a specification file or overlay.
type Document struct {
	Version    string                `json:"version,omitempty" yaml:"version,omitempty"`
	Metadata   map[string]any        `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Operations map[string]*Operation `json:"operations" yaml:"operations"`
	Shapes     map[string]*Shape     `json:"shapes" yaml:"shapes"`
}

// ParseDocument decodes a JSON service specification.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode specification: %w", err)
	}
	return &doc, nil
}

// Graph holds one service's operation table and shape definitions.
// It is immutable once built.
type Graph struct {
	Service  string
	Version  string
	Metadata map[string]any
	// Operations is keyed by OperationKey of the operation name.
	Operations map[string]*Operation
	Shapes     map[string]*Shape
	// Exceptions maps error shape names referenced by operations to their
	// definitions.
	Exceptions map[string]*Shape
	// Depth is the resolution bound used by Resolve and Method.
	Depth int
}

// NewGraph builds a graph from a base specification document. Overlay
// operations and shapes replace base entries of the same name.
func NewGraph(service string, base *Document, overlays ...*Document) *Graph {
	g := &Graph{
		Service:    service,
		Version:    "1.0",
		Metadata:   map[string]any{},
		Operations: map[string]*Operation{},
		Shapes:     map[string]*Shape{},
		Exceptions: map[string]*Shape{},
		Depth:      DefaultDepth,
	}

	docs := append([]*Document{base}, overlays...)
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if doc.Version != "" && doc == base {
			g.Version = doc.Version
		}
		for k, v := range doc.Metadata {
			g.Metadata[k] = v
		}
		for name, op := range doc.Operations {
			if op == nil {
				continue
			}
			if op.Name == "" {
				op.Name = name
			}
			g.Operations[OperationKey(name)] = op
		}
		for name, s := range doc.Shapes {
			g.Shapes[name] = s
		}
	}

	for _, op := range g.Operations {
		for _, e := range op.Errors {
			if e == nil || e.Ref == "" {
				continue
			}
			if s, ok := g.Shapes[e.Ref]; ok {
				g.Exceptions[e.Ref] = s
			}
		}
	}
	return g
}

// OperationKey normalizes an operation name so that "GetObject",
// "get_object" and "getobject" all refer to the same operation.
func OperationKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "")
}

// Lookup returns the operation for a method name in any casing.
func (g *Graph) Lookup(method string) (*Operation, bool) {
	op, ok := g.Operations[OperationKey(method)]
	return op, ok
}

// Has reports whether the graph defines the method.
func (g *Graph) Has(method string) bool {
	_, ok := g.Lookup(method)
	return ok
}

// Shape returns the named shape definition.
func (g *Graph) Shape(name string) (*Shape, bool) {
	s, ok := g.Shapes[name]
	return s, ok
}

// OperationNames returns the declared operation names, sorted.
func (g *Graph) OperationNames() []string {
	names := make([]string, 0, len(g.Operations))
	for _, op := range g.Operations {
		names = append(names, op.Name)
	}
	sort.Strings(names)
	return names
}

// Resolve inlines ref against this graph down to the graph's depth bound.
func (g *Graph) Resolve(ref *Shape) *Shape {
	depth := g.Depth
	if depth == 0 {
		depth = DefaultDepth
	}
	return Resolve(g, ref, depth)
}

// Method returns a resolvable view of the named operation.
func (g *Graph) Method(name string) (*Method, bool) {
	op, ok := g.Lookup(name)
	if !ok {
		return nil, false
	}
	return &Method{Name: name, Service: g.Service, Operation: op, graph: g}, true
}

// Method is an operation bound to the name it was called by. Input and
// output trees are resolved on first use.
type Method struct {
	Name      string
	Service   string
	Operation *Operation

	graph  *Graph
	input  *Shape
	output *Shape
}

// Input returns the resolved input shape, or nil if the operation takes none.
func (m *Method) Input() *Shape {
	if m.input == nil && m.Operation.Input != nil {
		m.input = m.graph.Resolve(m.Operation.Input)
	}
	return m.input
}

// Output returns the resolved output shape, or nil if the operation has no body.
func (m *Method) Output() *Shape {
	if m.output == nil && m.Operation.Output != nil {
		m.output = m.graph.Resolve(m.Operation.Output)
	}
	return m.output
}

// OutputType returns the output's declared type, "structure" when unset.
func (m *Method) OutputType() string {
	if t := m.Output().TypeName(); t != "" {
		return t
	}
	return TypeStructure
}

// Errors returns the names of the exception shapes the operation declares.
func (m *Method) Errors() []string {
	var names []string
	for _, e := range m.Operation.Errors {
		if e != nil && e.Ref != "" {
			names = append(names, e.Ref)
		}
	}
	return names
}
