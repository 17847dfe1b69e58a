package parsers

import (
	"errors"
	"fmt"
	"io"

	"github.com/knakk/rdf"

	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// TextParser parses the line- and text-oriented triple formats
// (Turtle, N-Triples) with github.com/knakk/rdf.
type TextParser struct {
	format     rdf.Format
	name       string
	mediaTypes []string
}

// NewTurtleParser creates a Turtle parser.
func NewTurtleParser() *TextParser {
	return &TextParser{
		format:     rdf.Turtle,
		name:       "turtle",
		mediaTypes: []string{MediaTypeTurtle, "application/x-turtle"},
	}
}

// NewNTriplesParser creates an N-Triples parser.
func NewNTriplesParser() *TextParser {
	return &TextParser{
		format:     rdf.NTriples,
		name:       "n-triples",
		mediaTypes: []string{MediaTypeNTriples},
	}
}

// Format returns the serialization name.
func (p *TextParser) Format() string {
	return p.name
}

// MediaTypes returns the media types this parser handles.
func (p *TextParser) MediaTypes() []string {
	return p.mediaTypes
}

// Parse decodes every triple of r.
func (p *TextParser) Parse(base string, r io.Reader) (*graph.Graph, error) {
	dec := rdf.NewTripleDecoder(r, p.format)
	if base != "" && p.format == rdf.Turtle {
		iri, err := rdf.NewIRI(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base IRI %q: %w", base, err)
		}
		if err := dec.SetOption(rdf.Base, iri); err != nil {
			return nil, fmt.Errorf("setting base IRI: %w", err)
		}
	}

	b := graph.NewBuilder().SetBase(base)
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		addTriple(b, tr)
	}
	return b.Graph(), nil
}

func addTriple(b *graph.Builder, tr rdf.Triple) {
	subject := tr.Subj.String()
	if _, ok := tr.Subj.(rdf.Blank); ok {
		subject = graph.BlankLabel(subject)
	}
	predicate := tr.Pred.String()

	switch obj := tr.Obj.(type) {
	case rdf.IRI:
		b.AddNamedNode(subject, predicate, obj.String())
	case rdf.Blank:
		b.AddBlankNode(subject, predicate, graph.BlankLabel(obj.String()))
	case rdf.Literal:
		if lang := obj.Lang(); lang != "" {
			b.AddLangString(subject, predicate, obj.String(), lang)
			return
		}
		datatype := obj.DataType.String()
		if datatype == "" {
			datatype = vocab.XSDString
		}
		b.AddLiteral(subject, predicate, obj.String(), datatype)
	}
}
