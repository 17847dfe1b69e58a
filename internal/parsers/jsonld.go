package parsers

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/piprate/json-gold/ld"

	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// JSONLDParser converts JSON-LD documents to RDF with
// github.com/piprate/json-gold. Remote contexts are fetched once and
// cached for the lifetime of the parser.
type JSONLDParser struct {
	proc   *ld.JsonLdProcessor
	loader ld.DocumentLoader
}

// NewJSONLDParser creates a JSON-LD parser that loads remote contexts
// with client. A nil client uses http.DefaultClient.
func NewJSONLDParser(client *http.Client) *JSONLDParser {
	if client == nil {
		client = http.DefaultClient
	}
	return &JSONLDParser{
		proc:   ld.NewJsonLdProcessor(),
		loader: &syncLoader{next: ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(client))},
	}
}

// syncLoader serializes access to a document loader whose cache is not
// safe for concurrent use.
type syncLoader struct {
	mu   sync.Mutex
	next ld.DocumentLoader
}

func (l *syncLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.LoadDocument(u)
}

// Format returns the serialization name.
func (p *JSONLDParser) Format() string {
	return "json-ld"
}

// MediaTypes returns the media types this parser handles.
func (p *JSONLDParser) MediaTypes() []string {
	return []string{MediaTypeJSONLD, MediaTypeJSON}
}

// Parse expands r against base and converts it to triples.
func (p *JSONLDParser) Parse(base string, r io.Reader) (*graph.Graph, error) {
	doc, err := ld.DocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	opts := ld.NewJsonLdOptions(base)
	opts.DocumentLoader = p.loader

	out, err := p.proc.ToRDF(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("converting to RDF: %w", err)
	}
	dataset, ok := out.(*ld.RDFDataset)
	if !ok {
		return nil, fmt.Errorf("unexpected ToRDF result %T", out)
	}

	b := graph.NewBuilder().SetBase(base)
	for _, quads := range dataset.Graphs {
		for _, q := range quads {
			addLDQuad(b, q)
		}
	}
	return b.Graph(), nil
}

// addLDQuad adds one json-gold quad. json-gold hands out its nodes as
// values, not pointers.
func addLDQuad(b *graph.Builder, q *ld.Quad) {
	subject := q.Subject.GetValue()
	if ld.IsBlankNode(q.Subject) {
		subject = graph.BlankLabel(subject)
	}
	predicate := q.Predicate.GetValue()

	switch obj := q.Object.(type) {
	case ld.IRI:
		b.AddNamedNode(subject, predicate, obj.Value)
	case ld.BlankNode:
		b.AddBlankNode(subject, predicate, graph.BlankLabel(obj.Attribute))
	case ld.Literal:
		if obj.Language != "" {
			b.AddLangString(subject, predicate, obj.Value, obj.Language)
			return
		}
		datatype := obj.Datatype
		if datatype == "" {
			datatype = vocab.XSDString
		}
		b.AddLiteral(subject, predicate, obj.Value, datatype)
	}
}
