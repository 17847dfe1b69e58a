package graph

// FindRoot returns the single subject of g that never appears as a named
// node object. Blank node subjects are never candidates: they only describe
// nodes inlined under another subject. A graph with no such subject, or
// with more than one, has no root and ok is false.
//
// The result does not depend on map iteration order: every statement is
// visited before the candidate set is inspected.
func FindRoot(g *Graph) (root string, ok bool) {
	if g == nil || len(g.things) == 0 {
		return "", false
	}

	candidates := make(map[string]struct{}, len(g.things))
	for subject := range g.things {
		if !IsBlank(subject) {
			candidates[subject] = struct{}{}
		}
	}

	for _, t := range g.things {
		for _, set := range t.Predicates {
			for _, object := range set.NamedNodes {
				delete(candidates, object)
			}
		}
	}

	if len(candidates) != 1 {
		return "", false
	}
	for subject := range candidates {
		root = subject
	}
	return root, true
}
