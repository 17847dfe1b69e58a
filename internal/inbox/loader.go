// Package inbox loads the notifications of an LDN inbox and composes new
// ones.
//
// Loading is failure-isolated: a member that cannot be fetched, is not
// RDF, or has no single root subject is still listed with whatever
// metadata its container reports, and only its Activity is missing.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phochste/AcmeInboxViewer/internal/activity"
	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/jsonld"
	"github.com/phochste/AcmeInboxViewer/internal/resource"
	"github.com/phochste/AcmeInboxViewer/internal/solid"
)

// DefaultConcurrency is the number of members fetched at once when the
// loader is not configured otherwise.
const DefaultConcurrency = 8

// ErrNoActivity is recorded for documents that parse but do not resolve to
// a single root subject.
var ErrNoActivity = errors.New("no activity: document has no single root subject")

// Fetcher retrieves and parses RDF documents.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*graph.Graph, error)
}

// Message is one inbox member.
type Message struct {
	// URL is the member URL as listed by the container.
	URL string

	// Resource is the container's metadata about the member; nil when the
	// container states nothing about it.
	Resource *resource.Info

	// Activity is the decoded notification; nil when Err is set.
	Activity *activity.Activity

	// Err explains a missing Activity.
	Err error
}

// Loader loads inboxes. It is safe for concurrent use.
type Loader struct {
	fetcher     Fetcher
	projector   *activity.Projector
	logger      *zap.Logger
	concurrency int
}

// Option configures a Loader.
type Option func(*Loader)

// WithConcurrency bounds the number of members fetched at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLogger sets the loader's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader that fetches documents with fetcher.
func NewLoader(fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher:     fetcher,
		logger:      zap.NewNop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.projector = activity.NewProjector(l.logger)
	return l
}

// Load lists the inbox container at inboxURL and loads every member. Only a
// failure to read the container itself is returned as an error. Messages
// are ordered most recently modified first.
func (l *Loader) Load(ctx context.Context, inboxURL string) ([]Message, error) {
	container, err := l.fetcher.Fetch(ctx, inboxURL)
	if err != nil {
		return nil, fmt.Errorf("loading inbox %s: %w", inboxURL, err)
	}

	containerURL := solid.ContainerURL(container, inboxURL)
	members := solid.Contains(container, inboxURL)
	messages := make([]Message, len(members))

	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, url := range members {
		g.Go(func() error {
			messages[i] = l.LoadItem(ctx, container, url, containerURL)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortStableFunc(messages, func(a, b Message) int {
		return resource.Compare(a.Resource, b.Resource)
	})

	failed := 0
	for _, m := range messages {
		if m.Err != nil {
			failed++
		}
	}
	l.logger.Info("inbox loaded",
		zap.String("inbox", inboxURL),
		zap.Int("messages", len(messages)),
		zap.Int("undecodable", failed),
	)
	return messages, nil
}

// LoadItem loads one member of the container graph. base is the container
// URL used for the member's relative path.
func (l *Loader) LoadItem(ctx context.Context, container *graph.Graph, url, base string) Message {
	msg := Message{
		URL:      url,
		Resource: resource.Read(container, url, base),
	}

	doc, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		l.logger.Warn("resource is probably not RDF", zap.String("url", url), zap.Error(err))
		msg.Err = err
		return msg
	}

	msg.Activity = activity.Decode(doc)
	if msg.Activity == nil {
		msg.Err = ErrNoActivity
	}
	return msg
}

// Detail is the full view of one notification.
type Detail struct {
	URL string

	// Activity is nil when the document has no single root.
	Activity *activity.Activity

	// Properties projects the root subject, or the document URL itself when
	// there is no root.
	Properties *jsonld.Object

	Graph *graph.Graph
}

// Show fetches and decodes the notification at url.
func (l *Loader) Show(ctx context.Context, url string) (*Detail, error) {
	g, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", url, err)
	}

	d := &Detail{URL: url, Graph: g, Activity: activity.Decode(g)}
	subject := url
	if d.Activity != nil {
		subject = d.Activity.ID
	}
	d.Properties = l.projector.Project(g.Thing(subject))
	return d, nil
}
