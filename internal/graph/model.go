// Package graph provides the RDF graph model the inbox client operates on.
//
// A Graph maps subject IRIs to Things; a Thing maps predicate IRIs to the
// set of objects stated for that predicate. Objects come in three kinds:
// named nodes (IRIs), literals (keyed by datatype or by language tag) and
// blank nodes, which are kept opaque and never followed.
//
// Graphs are assembled by a Builder and are read-only afterwards, so a Graph
// and every Thing it hands out may be shared freely between goroutines.
package graph

import "strings"

// ObjectSet holds every object stated for one subject/predicate pair.
type ObjectSet struct {
	// NamedNodes are IRI objects in statement order. Duplicates are kept.
	NamedNodes []string

	// Literals maps a datatype IRI to the lexical values typed with it.
	Literals map[string][]string

	// LangStrings maps a language tag to the language-tagged values.
	LangStrings map[string][]string

	// BlankNodes are blank node labels. They are recorded so that readers
	// can notice them, but nothing resolves them.
	BlankNodes []string
}

// Empty reports whether the set has no objects at all.
func (o *ObjectSet) Empty() bool {
	return o == nil ||
		(len(o.NamedNodes) == 0 && len(o.Literals) == 0 && len(o.LangStrings) == 0 && len(o.BlankNodes) == 0)
}

// Thing is one subject and all statements about it.
//
// A Thing is a view into the Graph that produced it; it is only valid for as
// long as that Graph is.
type Thing struct {
	// Subject is the subject IRI.
	Subject string

	// Predicates maps predicate IRIs to their objects.
	Predicates map[string]*ObjectSet
}

// Objects returns the object set for predicate, or nil.
func (t *Thing) Objects(predicate string) *ObjectSet {
	if t == nil {
		return nil
	}
	return t.Predicates[predicate]
}

// BlankPrefix starts every blank node label in a Graph.
const BlankPrefix = "_:"

// IsBlank reports whether subject is a blank node label.
func IsBlank(subject string) bool {
	return strings.HasPrefix(subject, BlankPrefix)
}

// BlankLabel returns label with the blank node prefix, adding it when the
// parser reported a bare label.
func BlankLabel(label string) string {
	if IsBlank(label) {
		return label
	}
	return BlankPrefix + label
}

// Graph is the default graph of one RDF document.
type Graph struct {
	things map[string]*Thing
	count  int
	base   string
}

// Base returns the IRI the document was parsed against: the URL it was
// finally served from, after redirects. It is empty for graphs built
// without one.
func (g *Graph) Base() string {
	if g == nil {
		return ""
	}
	return g.base
}

// Thing returns the Thing for subject, or nil when the graph has no
// statements about it.
func (g *Graph) Thing(subject string) *Thing {
	if g == nil {
		return nil
	}
	return g.things[subject]
}

// Things returns every Thing in the graph, in no particular order.
func (g *Graph) Things() []*Thing {
	if g == nil {
		return nil
	}
	out := make([]*Thing, 0, len(g.things))
	for _, t := range g.things {
		out = append(out, t)
	}
	return out
}

// SubjectCount returns the number of distinct subjects.
func (g *Graph) SubjectCount() int {
	if g == nil {
		return 0
	}
	return len(g.things)
}

// TripleCount returns the number of statements added to the graph.
func (g *Graph) TripleCount() int {
	if g == nil {
		return 0
	}
	return g.count
}
