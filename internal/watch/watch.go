// Package watch subscribes to change notifications for Solid containers
// over the solid-0.1 websocket protocol.
//
// The protocol is line based: the client sends "sub <url>", the server
// confirms with "ack <url>" and sends "pub <url>" whenever the resource
// changes. Empty frames keep idle connections open.
package watch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Subprotocol is the websocket subprotocol spoken by Solid servers.
const Subprotocol = "solid-0.1"

// DefaultKeepAlive is the interval between keep-alive frames.
const DefaultKeepAlive = 20 * time.Second

// Event kinds.
const (
	KindAck = "ack"
	KindPub = "pub"
)

// Event is one message from the server.
type Event struct {
	Kind string
	URL  string
}

// ParseMessage parses a protocol line. Lines other than ack and pub are
// not events.
func ParseMessage(msg string) (Event, bool) {
	kind, rest, _ := strings.Cut(strings.TrimSpace(msg), " ")
	switch kind {
	case KindAck, KindPub:
		return Event{Kind: kind, URL: strings.TrimSpace(rest)}, true
	default:
		return Event{}, false
	}
}

// Endpoint returns the websocket endpoint of the server hosting
// containerURL: the host with a wss scheme, or ws for plain http.
func Endpoint(containerURL string) (string, error) {
	u, err := url.Parse(containerURL)
	if err != nil {
		return "", fmt.Errorf("invalid container URL %q: %w", containerURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid container URL %q: no host", containerURL)
	}
	scheme := "wss"
	if u.Scheme == "http" {
		scheme = "ws"
	}
	return scheme + "://" + u.Host, nil
}

// Options configures a Subscriber.
type Options struct {
	// Endpoint overrides the websocket URL derived from the container.
	Endpoint string

	// KeepAlive is the interval between keep-alive frames.
	// Default: 20 seconds
	KeepAlive time.Duration

	// AuthToken, when set, is sent as a bearer token on the handshake.
	AuthToken string

	// Logger receives connection logs. Default: no logging.
	Logger *zap.Logger
}

// Subscriber watches containers for changes.
type Subscriber struct {
	endpoint  string
	keepAlive time.Duration
	authToken string
	logger    *zap.Logger
}

// NewSubscriber creates a subscriber.
func NewSubscriber(opts Options) *Subscriber {
	s := &Subscriber{
		endpoint:  opts.Endpoint,
		keepAlive: opts.KeepAlive,
		authToken: opts.AuthToken,
		logger:    opts.Logger,
	}
	if s.keepAlive <= 0 {
		s.keepAlive = DefaultKeepAlive
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Subscribe subscribes to containerURL and calls fn for every pub event.
// It blocks until ctx is cancelled, in which case it returns nil, or until
// the connection fails.
func (s *Subscriber) Subscribe(ctx context.Context, containerURL string, fn func(Event)) error {
	endpoint := s.endpoint
	if endpoint == "" {
		var err error
		if endpoint, err = Endpoint(containerURL); err != nil {
			return err
		}
	}

	opts := &websocket.DialOptions{Subprotocols: []string{Subprotocol}}
	if s.authToken != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + s.authToken}}
	}

	conn, _, err := websocket.Dial(ctx, endpoint, opts)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", endpoint, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	log := s.logger.With(zap.String("endpoint", endpoint), zap.String("url", containerURL))
	log.Info("websocket open")

	if err := conn.Write(ctx, websocket.MessageText, []byte("sub "+containerURL)); err != nil {
		return fmt.Errorf("subscribing to %s: %w", containerURL, err)
	}
	log.Debug("sub sent")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.keepAliveLoop(ctx, conn, log)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("websocket closed")
				return nil
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("reading from %s: %w", endpoint, err)
		}

		ev, ok := ParseMessage(string(data))
		if !ok {
			continue
		}
		log.Debug("websocket message", zap.String("kind", ev.Kind), zap.String("target", ev.URL))
		if ev.Kind == KindPub {
			fn(ev)
		}
	}
}

func (s *Subscriber) keepAliveLoop(ctx context.Context, conn *websocket.Conn, log *zap.Logger) {
	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Write(ctx, websocket.MessageText, []byte{}); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Warn("keep alive failed", zap.Error(err))
				}
				return
			}
			log.Debug("keep alive")
		}
	}
}
