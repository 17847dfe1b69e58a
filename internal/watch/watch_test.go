package watch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func TestParseMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg      string
		expected Event
		ok       bool
	}{
		{"pub https://pod.example/inbox/", Event{Kind: KindPub, URL: "https://pod.example/inbox/"}, true},
		{"ack https://pod.example/inbox/\n", Event{Kind: KindAck, URL: "https://pod.example/inbox/"}, true},
		{"", Event{}, false},
		{"protocol solid-0.1", Event{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			t.Parallel()
			ev, ok := ParseMessage(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, ev)
		})
	}
}

func TestEndpoint(t *testing.T) {
	t.Parallel()

	ep, err := Endpoint("https://pod.example/alice/inbox/")
	require.NoError(t, err)
	assert.Equal(t, "wss://pod.example", ep)

	ep, err = Endpoint("http://localhost:3000/inbox/")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:3000", ep)

	_, err = Endpoint("inbox/")
	assert.Error(t, err)
}

// solidServer accepts one subscription, waits for a keep-alive frame and
// publishes one change.
func solidServer(t *testing.T, subs chan<- string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: []string{Subprotocol}})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		msg := string(data)
		subs <- msg
		target := strings.TrimPrefix(msg, "sub ")

		if err := conn.Write(ctx, websocket.MessageText, []byte("ack "+target)); err != nil {
			return
		}
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if len(data) == 0 {
				break
			}
		}
		_ = conn.Write(ctx, websocket.MessageText, []byte("pub "+target))

		// Hold the connection until the client goes away.
		_, _, _ = conn.Read(ctx)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubscriber_Subscribe(t *testing.T) {
	t.Parallel()

	subs := make(chan string, 1)
	srv := solidServer(t, subs)
	container := srv.URL + "/inbox/"

	s := NewSubscriber(Options{KeepAlive: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan Event, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Subscribe(ctx, container, func(ev Event) {
			events <- ev
			cancel()
		})
	}()

	select {
	case ev := <-events:
		assert.Equal(t, Event{Kind: KindPub, URL: container}, ev)
	case <-time.After(5 * time.Second):
		t.Fatal("no pub event received")
	}

	assert.Equal(t, "sub "+container, <-subs)
	assert.NoError(t, <-done)
}

func TestSubscriber_DialError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	err := NewSubscriber(Options{}).Subscribe(context.Background(), srv.URL+"/inbox/", func(Event) {})
	assert.Error(t, err)
}
