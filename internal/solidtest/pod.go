// Package solidtest provides an in-process Solid pod for tests.
package solidtest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Paths of the seeded resources.
const (
	ProfilePath  = "/alice/profile/card"
	InboxPath    = "/alice/inbox/"
	OfferPath    = "/alice/inbox/offer"
	AnnouncePath = "/alice/inbox/announce"
	JunkPath     = "/alice/inbox/junk"
	BobInboxPath = "/bob/inbox/"
)

type document struct {
	contentType string
	body        string
}

// Pod serves Turtle documents and accepts LDN deliveries.
//
// Seeded state: Alice's profile advertises her inbox; the inbox holds an
// Offer from Bob (newest), an Announce from Carol and an HTML page. Bob's
// inbox accepts deliveries.
type Pod struct {
	*httptest.Server

	mu      sync.Mutex
	docs    map[string]document
	posted  map[string][][]byte
	deleted []string
}

// NewPod starts a pod that is closed when t ends.
func NewPod(t testing.TB) *Pod {
	t.Helper()

	p := &Pod{
		docs:   make(map[string]document),
		posted: make(map[string][][]byte),
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Close)

	p.PutTurtle(ProfilePath, `
@prefix foaf: <http://xmlns.com/foaf/0.1/> .
@prefix ldp: <http://www.w3.org/ns/ldp#> .
@prefix pim: <http://www.w3.org/ns/pim/space#> .

<{base}/alice/profile/card#me> a foaf:Person ;
    foaf:name "Alice" ;
    ldp:inbox <{base}/alice/inbox/> ;
    pim:storage <{base}/alice/> .
`)
	p.PutTurtle(InboxPath, `
@prefix ldp: <http://www.w3.org/ns/ldp#> .
@prefix dct: <http://purl.org/dc/terms/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

<{base}/alice/inbox/> a ldp:BasicContainer ;
    ldp:contains <{base}/alice/inbox/announce>, <{base}/alice/inbox/junk>, <{base}/alice/inbox/offer> .

<{base}/alice/inbox/offer> dct:modified "2024-05-03T10:00:00Z"^^xsd:dateTime .
<{base}/alice/inbox/announce> dct:modified "2024-05-02T10:00:00Z"^^xsd:dateTime .
<{base}/alice/inbox/junk> dct:modified "2024-05-01T10:00:00Z"^^xsd:dateTime .
`)
	p.PutTurtle(OfferPath, `
@prefix as: <https://www.w3.org/ns/activitystreams#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

<{base}/alice/inbox/offer#act> a as:Offer ;
    as:published "2024-05-03T10:00:00Z"^^xsd:dateTime ;
    as:actor <{base}/bob/profile#me> ;
    as:object <{base}/bob/papers/1> .

<{base}/bob/profile#me> a as:Person ;
    as:name "Bob" ;
    as:inbox <{base}/bob/inbox/> .

<{base}/bob/papers/1> a as:Document ;
    as:name "Linked Inboxes" .
`)
	p.PutTurtle(AnnouncePath, `
@prefix as: <https://www.w3.org/ns/activitystreams#> .

<{base}/alice/inbox/announce#act> a as:Announce ;
    as:actor <{base}/carol/profile#me> ;
    as:object <{base}/carol/notes/9> .
`)
	p.Put(JunkPath, "text/html", "<html><body>not RDF</body></html>")
	return p
}

// Put stores a document. "{base}" in body is replaced by the pod URL.
func (p *Pod) Put(path, contentType, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[path] = document{contentType: contentType, body: strings.ReplaceAll(body, "{base}", p.URL)}
}

// PutTurtle stores a Turtle document.
func (p *Pod) PutTurtle(path, body string) {
	p.Put(path, "text/turtle", body)
}

// WebID returns Alice's WebID.
func (p *Pod) WebID() string {
	return p.URL + ProfilePath + "#me"
}

// Posted returns the bodies delivered to path.
func (p *Pod) Posted(path string) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.posted[path]...)
}

// Deleted returns the deleted paths in order.
func (p *Pod) Deleted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.deleted...)
}

func (p *Pod) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		doc, ok := p.docs[r.URL.Path]
		if !ok {
			if _, isContainer := p.docs[r.URL.Path+"/"]; isContainer {
				http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
				return
			}
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", doc.contentType)
		_, _ = io.WriteString(w, doc.body)

	case http.MethodPost:
		if !strings.HasSuffix(r.URL.Path, "/") {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		data, _ := io.ReadAll(r.Body)
		p.posted[r.URL.Path] = append(p.posted[r.URL.Path], data)
		w.Header().Set("Location", fmt.Sprintf("%s%sn%d", p.URL, r.URL.Path, len(p.posted[r.URL.Path])))
		w.WriteHeader(http.StatusCreated)

	case http.MethodDelete:
		if _, ok := p.docs[r.URL.Path]; !ok {
			http.NotFound(w, r)
			return
		}
		delete(p.docs, r.URL.Path)
		p.deleted = append(p.deleted, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
