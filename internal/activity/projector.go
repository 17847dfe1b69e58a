package activity

import (
	"sort"

	"go.uber.org/zap"

	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/jsonld"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// Projector renders any Thing as a flat key/value object for display and
// for the extra properties of encoded objects. It needs no schema.
type Projector struct {
	logger *zap.Logger
}

// NewProjector creates a projector that reports dropped blank nodes to
// logger. A nil logger discards them.
func NewProjector(logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{logger: logger}
}

// Project returns one key per predicate of t. Keys are predicate IRIs with
// the AS2 namespace removed, rdf:type becoming "type". Values list named
// nodes first, then literal values; AS2 IRIs among them are shortened the
// same way. A single value collapses to a scalar.
//
// Blank node objects cannot be represented and are dropped with a warning.
func (p *Projector) Project(t *graph.Thing) *jsonld.Object {
	out := jsonld.NewObject()
	if t == nil {
		return out
	}

	for _, predicate := range t.PredicateIRIs() {
		set := t.Predicates[predicate]

		if len(set.BlankNodes) > 0 {
			p.logger.Warn("dropping blank node objects",
				zap.String("subject", t.Subject),
				zap.String("predicate", predicate),
				zap.Int("count", len(set.BlankNodes)),
			)
		}

		values := collectValues(set)
		if len(values) == 0 {
			continue
		}
		for i, v := range values {
			values[i] = vocab.StripAS(v)
		}

		out.Set(displayKey(predicate), jsonld.Collapse(values))
	}

	return out
}

// displayKey maps a predicate IRI to its display key.
func displayKey(predicate string) string {
	if predicate == vocab.RDFType {
		return "type"
	}
	return vocab.StripAS(predicate)
}

// collectValues returns named nodes followed by literal values. Literal
// groups are visited in datatype order, then language-tag order.
func collectValues(set *graph.ObjectSet) []string {
	values := make([]string, 0, len(set.NamedNodes))
	values = append(values, set.NamedNodes...)

	for _, dt := range sortedKeys(set.Literals) {
		values = append(values, set.Literals[dt]...)
	}
	for _, lang := range sortedKeys(set.LangStrings) {
		values = append(values, set.LangStrings[lang]...)
	}
	return values
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
