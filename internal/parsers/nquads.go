package parsers

import (
	"errors"
	"io"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// NQuadsParser parses N-Quads with github.com/cayleygraph/quad.
type NQuadsParser struct{}

// NewNQuadsParser creates an N-Quads parser.
func NewNQuadsParser() *NQuadsParser {
	return &NQuadsParser{}
}

// Format returns the serialization name.
func (p *NQuadsParser) Format() string {
	return "n-quads"
}

// MediaTypes returns the media types this parser handles.
func (p *NQuadsParser) MediaTypes() []string {
	return []string{MediaTypeNQuads}
}

// Parse decodes every quad of r. N-Quads carries absolute IRIs only, so
// base is only recorded on the graph.
func (p *NQuadsParser) Parse(base string, r io.Reader) (*graph.Graph, error) {
	qr := nquads.NewReader(r, true)

	b := graph.NewBuilder().SetBase(base)
	for {
		q, err := qr.ReadQuad()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		addQuad(b, q)
	}
	return b.Graph(), nil
}

func addQuad(b *graph.Builder, q quad.Quad) {
	subject := valueString(q.Subject)
	predicate := valueString(q.Predicate)

	switch obj := q.Object.(type) {
	case quad.IRI:
		b.AddNamedNode(subject, predicate, string(obj))
	case quad.BNode:
		b.AddBlankNode(subject, predicate, graph.BlankLabel(string(obj)))
	case quad.String:
		b.AddLiteral(subject, predicate, string(obj), vocab.XSDString)
	case quad.LangString:
		b.AddLangString(subject, predicate, string(obj.Value), obj.Lang)
	case quad.TypedString:
		b.AddLiteral(subject, predicate, string(obj.Value), string(obj.Type))
	case quad.TypedStringer:
		ts := obj.TypedString()
		b.AddLiteral(subject, predicate, string(ts.Value), string(ts.Type))
	}
}

// valueString returns the bare IRI or the prefixed blank node label of a
// subject or predicate.
func valueString(v quad.Value) string {
	switch val := v.(type) {
	case quad.IRI:
		return string(val)
	case quad.BNode:
		return graph.BlankLabel(string(val))
	default:
		return quad.StringOf(v)
	}
}
