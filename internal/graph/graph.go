package graph

import (
	"sort"
)

// Builder accumulates statements into a Graph.
//
// A Builder is not safe for concurrent use. Call Graph once all statements
// have been added; the builder must not be used afterwards.
type Builder struct {
	things map[string]*Thing
	count  int
	base   string
	done   bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		things: make(map[string]*Thing),
	}
}

// objects returns the object set for subject/predicate, creating both the
// Thing and the set if needed.
func (b *Builder) objects(subject, predicate string) *ObjectSet {
	if b.done {
		panic("graph: builder used after Graph()")
	}

	t, ok := b.things[subject]
	if !ok {
		t = &Thing{Subject: subject, Predicates: make(map[string]*ObjectSet)}
		b.things[subject] = t
	}

	set, ok := t.Predicates[predicate]
	if !ok {
		set = &ObjectSet{}
		t.Predicates[predicate] = set
	}

	b.count++
	return set
}

// AddNamedNode records (subject, predicate, <object>).
func (b *Builder) AddNamedNode(subject, predicate, object string) *Builder {
	set := b.objects(subject, predicate)
	set.NamedNodes = append(set.NamedNodes, object)
	return b
}

// AddLiteral records a literal typed with datatype.
func (b *Builder) AddLiteral(subject, predicate, value, datatype string) *Builder {
	set := b.objects(subject, predicate)
	if set.Literals == nil {
		set.Literals = make(map[string][]string)
	}
	set.Literals[datatype] = append(set.Literals[datatype], value)
	return b
}

// AddLangString records a language-tagged literal.
func (b *Builder) AddLangString(subject, predicate, value, lang string) *Builder {
	set := b.objects(subject, predicate)
	if set.LangStrings == nil {
		set.LangStrings = make(map[string][]string)
	}
	set.LangStrings[lang] = append(set.LangStrings[lang], value)
	return b
}

// SetBase records the IRI the document was parsed against.
func (b *Builder) SetBase(base string) *Builder {
	b.base = base
	return b
}

// AddBlankNode records a blank node object.
func (b *Builder) AddBlankNode(subject, predicate, label string) *Builder {
	set := b.objects(subject, predicate)
	set.BlankNodes = append(set.BlankNodes, label)
	return b
}

// Graph finalizes the builder and returns the read-only graph.
func (b *Builder) Graph() *Graph {
	b.done = true
	return &Graph{things: b.things, count: b.count, base: b.base}
}

// Subjects returns every subject IRI in lexical order.
func (g *Graph) Subjects() []string {
	if g == nil {
		return nil
	}
	out := make([]string, 0, len(g.things))
	for s := range g.things {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// PredicateIRIs returns the predicate IRIs of t in lexical order.
func (t *Thing) PredicateIRIs() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.Predicates))
	for p := range t.Predicates {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
