// Package parsers turns RDF documents into graphs.
//
// Each serialization is handled by its own Parser; a Registry picks the
// parser for a response's media type. Only the triples of a document are
// kept: quads in named graphs are merged into the default graph.
package parsers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/phochste/AcmeInboxViewer/internal/graph"
)

// Media types understood by the built-in parsers.
const (
	MediaTypeTurtle   = "text/turtle"
	MediaTypeNTriples = "application/n-triples"
	MediaTypeNQuads   = "application/n-quads"
	MediaTypeJSONLD   = "application/ld+json"
	MediaTypeJSON     = "application/json"
)

// ErrUnsupportedMediaType is returned for documents no parser accepts.
// Callers treat it like any other "not RDF" failure.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// Parser defines the interface for RDF serialization parsers.
type Parser interface {
	// Parse reads one document. Relative IRIs are resolved against base.
	Parse(base string, r io.Reader) (*graph.Graph, error)

	// Format returns the serialization name, for logs.
	Format() string

	// MediaTypes returns the media types this parser handles.
	MediaTypes() []string
}

// Registry dispatches documents to parsers by media type.
type Registry struct {
	parsers []Parser
	byType  map[string]Parser
}

// NewRegistry creates a registry. When two parsers claim the same media
// type the first one wins.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{byType: make(map[string]Parser)}
	for _, p := range parsers {
		r.parsers = append(r.parsers, p)
		for _, mt := range p.MediaTypes() {
			if _, ok := r.byType[mt]; !ok {
				r.byType[mt] = p
			}
		}
	}
	return r
}

// NewDefaultRegistry returns a registry with the Turtle, N-Triples,
// N-Quads and JSON-LD parsers. client is used to load remote JSON-LD
// contexts; nil means http.DefaultClient.
func NewDefaultRegistry(client *http.Client) *Registry {
	return NewRegistry(
		NewTurtleParser(),
		NewNTriplesParser(),
		NewNQuadsParser(),
		NewJSONLDParser(client),
	)
}

// Parse parses body with the parser registered for mediaType. mediaType
// may carry parameters, as in a Content-Type header.
func (r *Registry) Parse(mediaType, base string, body io.Reader) (*graph.Graph, error) {
	p, err := r.lookup(mediaType)
	if err != nil {
		return nil, err
	}

	g, err := p.Parse(base, body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s from %s: %w", p.Format(), base, err)
	}
	return g, nil
}

// Supports reports whether a parser is registered for mediaType.
func (r *Registry) Supports(mediaType string) bool {
	_, err := r.lookup(mediaType)
	return err == nil
}

// Accept returns an Accept header value listing every registered media
// type, preferring registration order.
func (r *Registry) Accept() string {
	var parts []string
	seen := make(map[string]bool)
	for _, p := range r.parsers {
		for _, mt := range p.MediaTypes() {
			if seen[mt] {
				continue
			}
			seen[mt] = true
			if len(parts) == 0 {
				parts = append(parts, mt)
			} else {
				parts = append(parts, mt+";q=0.9")
			}
		}
	}
	return strings.Join(parts, ", ")
}

func (r *Registry) lookup(mediaType string) (Parser, error) {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
	}
	p, ok := r.byType[strings.ToLower(mt)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mt)
	}
	return p, nil
}

// Parse parses body with the default registry.
func Parse(mediaType, base string, body io.Reader) (*graph.Graph, error) {
	return NewDefaultRegistry(nil).Parse(mediaType, base, body)
}
