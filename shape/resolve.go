package shape

// Resolve returns a deep copy of ref in which every shape reference is
// replaced by the definition it points to, down to depth levels. Past the
// bound, recursion stops and the type is forced to "any" when unset, which
// is what keeps self-referential graphs finite. The graph is never mutated.
func Resolve(g *Graph, ref *Shape, depth int) *Shape {
	if ref == nil {
		return nil
	}

	out := ref.Clone()
	depth--
	if depth < 0 {
		if out.Type == "" {
			out.Type = TypeAny
		}
		return out
	}

	if out.Type == TypeMap {
		out.Key = Resolve(g, out.Key, depth)
		out.Value = Resolve(g, out.Value, depth)
	}

	if out.Member != nil {
		out.Member = Resolve(g, out.Member, depth)
	}

	for i := range out.Members {
		out.Members[i].Shape = Resolve(g, out.Members[i].Shape, depth)
	}

	if out.Ref != "" {
		target, ok := g.Shapes[out.Ref]
		if !ok {
			// Dangling reference: treat like an exhausted branch.
			if out.Type == "" {
				out.Type = TypeAny
			}
			return out
		}
		out.merge(Resolve(g, target, depth))
	}

	return out
}
