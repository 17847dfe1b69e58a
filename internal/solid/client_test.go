package solid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phochste/AcmeInboxViewer/internal/jsonld"
	"github.com/phochste/AcmeInboxViewer/internal/parsers"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// pod is a minimal Solid server for tests.
type pod struct {
	*httptest.Server

	mu        sync.Mutex
	posted    [][]byte
	postType  string
	deleted   []string
	authSeen  string
	failures  atomic.Int32
	postCode  int
	resources map[string]string
}

func newPod(t *testing.T) *pod {
	t.Helper()

	p := &pod{postCode: http.StatusCreated, resources: make(map[string]string)}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Close)

	base := p.URL
	p.resources["/inbox/"] = fmt.Sprintf(`
@prefix ldp: <http://www.w3.org/ns/ldp#> .
@prefix dct: <http://purl.org/dc/terms/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

<%[1]s/inbox/> a ldp:BasicContainer ;
    ldp:contains <%[1]s/inbox/b.ttl>, <%[1]s/inbox/a.ttl>, <%[1]s/inbox/archive/> .

<%[1]s/inbox/a.ttl> dct:modified "2024-05-01T10:00:00Z"^^xsd:dateTime .
<%[1]s/inbox/b.ttl> dct:modified "2024-05-02T10:00:00Z"^^xsd:dateTime .
<%[1]s/inbox/archive/> a ldp:Container .
`, base)
	p.resources["/relative/"] = `
@prefix ldp: <http://www.w3.org/ns/ldp#> .
<> a ldp:BasicContainer ; ldp:contains <n1.ttl> .
`
	p.resources["/profile/card"] = fmt.Sprintf(`
@prefix foaf: <http://xmlns.com/foaf/0.1/> .
@prefix ldp: <http://www.w3.org/ns/ldp#> .
@prefix pim: <http://www.w3.org/ns/pim/space#> .

<%[1]s/profile/card> a foaf:PersonalProfileDocument ;
    foaf:primaryTopic <%[1]s/profile/card#me> .

<%[1]s/profile/card#me> a foaf:Person ;
    foaf:givenName "Ada" ;
    foaf:familyName "Lovelace" ;
    foaf:img <%[1]s/profile/ada.png> ;
    ldp:inbox <%[1]s/inbox/> ;
    pim:storage <%[1]s/> .
`, base)
	return p
}

func (p *pod) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.authSeen = r.Header.Get("Authorization")
	p.mu.Unlock()

	switch {
	case r.URL.Path == "/broken":
		p.failures.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	case r.URL.Path == "/html":
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html></html>")
		return
	}

	switch r.Method {
	case http.MethodGet:
		body, ok := p.resources[r.URL.Path]
		if !ok {
			if _, isContainer := p.resources[r.URL.Path+"/"]; isContainer {
				http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
				return
			}
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/turtle; charset=utf-8")
		_, _ = io.WriteString(w, body)
	case http.MethodPost:
		data, _ := io.ReadAll(r.Body)
		p.mu.Lock()
		p.posted = append(p.posted, data)
		p.postType = r.Header.Get("Content-Type")
		code := p.postCode
		p.mu.Unlock()
		if code/100 == 2 {
			w.Header().Set("Location", p.URL+r.URL.Path+"n42")
		}
		w.WriteHeader(code)
	case http.MethodDelete:
		if _, ok := p.resources[r.URL.Path]; !ok {
			http.NotFound(w, r)
			return
		}
		p.mu.Lock()
		p.deleted = append(p.deleted, r.URL.Path)
		p.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestClient_Fetch(t *testing.T) {
	t.Parallel()

	p := newPod(t)
	c := NewClient(Options{})

	g, err := c.Fetch(context.Background(), p.URL+"/inbox/")
	require.NoError(t, err)

	container := g.Thing(p.URL + "/inbox/")
	require.NotNil(t, container)
	assert.Equal(t, []string{vocab.LDPBasicContainer}, container.Types())
}

func TestClient_FetchErrors(t *testing.T) {
	t.Parallel()

	p := newPod(t)
	c := NewClient(Options{})
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		t.Parallel()
		_, err := c.Fetch(ctx, p.URL+"/nope")
		require.Error(t, err)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
		assert.True(t, IsNotFound(err))
	})

	t.Run("NotRDF", func(t *testing.T) {
		t.Parallel()
		_, err := c.Fetch(ctx, p.URL+"/html")
		assert.ErrorIs(t, err, parsers.ErrUnsupportedMediaType)
	})

	t.Run("Cancelled", func(t *testing.T) {
		t.Parallel()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.Fetch(cctx, p.URL+"/inbox/")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_Headers(t *testing.T) {
	t.Parallel()

	p := newPod(t)
	c := NewClient(Options{AuthToken: "s3cret"})

	_, err := c.Fetch(context.Background(), p.URL+"/inbox/")
	require.NoError(t, err)

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, "Bearer s3cret", p.authSeen)
}

func TestClient_CircuitBreaker(t *testing.T) {
	t.Parallel()

	p := newPod(t)
	c := NewClient(Options{Breaker: BreakerConfig{MaxFailures: 2, Timeout: time.Minute}})
	ctx := context.Background()

	t.Run("ClientErrorsDoNotTrip", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			_, err := c.Fetch(ctx, p.URL+"/nope")
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrCircuitOpen)
		}
		assert.Equal(t, "closed", c.BreakerState())
	})

	t.Run("ServerErrorsTrip", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			_, err := c.Fetch(ctx, p.URL+"/broken")
			require.Error(t, err)
		}
		assert.Equal(t, "open", c.BreakerState())

		_, err := c.Fetch(ctx, p.URL+"/inbox/")
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.Equal(t, int32(2), p.failures.Load(), "open circuit does not reach the server")
	})
}

func TestClient_Deliver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	doc := jsonld.NewObject().
		SetString("@context", vocab.ASCtx).
		SetString("id", "urn:uuid:1").
		SetString("type", "Announce")

	t.Run("Created", func(t *testing.T) {
		t.Parallel()
		p := newPod(t)
		c := NewClient(Options{})

		result, err := c.Deliver(ctx, p.URL+"/inbox/", doc)
		require.NoError(t, err)
		assert.True(t, result.Delivered)
		assert.Equal(t, http.StatusCreated, result.StatusCode)
		assert.Equal(t, p.URL+"/inbox/n42", result.Location)

		p.mu.Lock()
		defer p.mu.Unlock()
		require.Len(t, p.posted, 1)
		assert.Equal(t, parsers.MediaTypeJSONLD, p.postType)

		var sent map[string]any
		require.NoError(t, json.Unmarshal(p.posted[0], &sent))
		assert.Equal(t, "urn:uuid:1", sent["id"])
	})

	t.Run("Rejected", func(t *testing.T) {
		t.Parallel()
		p := newPod(t)
		p.postCode = http.StatusBadRequest
		c := NewClient(Options{})

		result, err := c.Deliver(ctx, p.URL+"/inbox/", doc)
		require.NoError(t, err)
		assert.False(t, result.Delivered)
		assert.Equal(t, http.StatusBadRequest, result.StatusCode)
		assert.Empty(t, result.Location)
	})

	t.Run("Unreachable", func(t *testing.T) {
		t.Parallel()
		p := newPod(t)
		url := p.URL + "/inbox/"
		p.Close()

		_, err := NewClient(Options{}).Deliver(ctx, url, doc)
		assert.Error(t, err)
	})
}

func TestClient_Delete(t *testing.T) {
	t.Parallel()

	p := newPod(t)
	c := NewClient(Options{})
	ctx := context.Background()

	require.NoError(t, c.Delete(ctx, p.URL+"/profile/card"))
	assert.True(t, IsNotFound(c.Delete(ctx, p.URL+"/inbox/zzz")))

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, []string{"/profile/card"}, p.deleted)
}
