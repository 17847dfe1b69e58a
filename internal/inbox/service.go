package inbox

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/phochste/AcmeInboxViewer/internal/activity"
	"github.com/phochste/AcmeInboxViewer/internal/jsonld"
	"github.com/phochste/AcmeInboxViewer/internal/solid"
)

// ErrNoWebID is returned when an operation needs the user's WebID and none
// is configured.
var ErrNoWebID = errors.New("no WebID configured")

// Client is the part of solid.Client the service needs.
type Client interface {
	Fetcher
	FetchProfile(ctx context.Context, webID string) (*solid.Profile, error)
	Deliver(ctx context.Context, inbox string, doc *jsonld.Object) (*solid.DeliveryResult, error)
}

// Service ties loading, composing and delivering notifications together.
// It is shared by the CLI and the MCP server.
type Service struct {
	client  Client
	loader  *Loader
	encoder *activity.Encoder
	logger  *zap.Logger
}

// NewService creates a service. A nil encoder stamps the wall clock.
func NewService(client Client, loader *Loader, encoder *activity.Encoder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if encoder == nil {
		encoder = activity.NewEncoder(activity.WithLogger(logger))
	}
	return &Service{client: client, loader: loader, encoder: encoder, logger: logger}
}

// Loader returns the service's inbox loader.
func (s *Service) Loader() *Loader {
	return s.loader
}

// Profile fetches the WebID profile of webID.
func (s *Service) Profile(ctx context.Context, webID string) (*solid.Profile, error) {
	if webID == "" {
		return nil, ErrNoWebID
	}
	return s.client.FetchProfile(ctx, webID)
}

// ResolveInbox picks the inbox to work on: explicit when set, else
// fallback, else the inbox advertised by the profile of webID.
func (s *Service) ResolveInbox(ctx context.Context, explicit, fallback, webID string) (string, error) {
	switch {
	case explicit != "":
		return explicit, nil
	case fallback != "":
		return fallback, nil
	}

	p, err := s.Profile(ctx, webID)
	if err != nil {
		return "", fmt.Errorf("resolving inbox: %w", err)
	}
	return p.InboxURL()
}

// Actor returns the agent sending notifications on behalf of webID.
func (s *Service) Actor(ctx context.Context, webID string) (*activity.Agent, error) {
	p, err := s.Profile(ctx, webID)
	if err != nil {
		return nil, err
	}
	return AgentFromProfile(p), nil
}

// Encode renders act the way Send would deliver it.
func (s *Service) Encode(act *activity.Activity) *jsonld.Object {
	return s.encoder.Encode(act)
}

// Sent describes a delivered, or refused, notification.
type Sent struct {
	Inbox    string
	Activity *activity.Activity
	Document *jsonld.Object
	Result   *solid.DeliveryResult
}

// Send encodes act and posts it to inbox. A refusal by the inbox is
// reported through Sent.Result, not as an error.
func (s *Service) Send(ctx context.Context, inbox string, act *activity.Activity) (*Sent, error) {
	doc := s.encoder.Encode(act)
	result, err := s.client.Deliver(ctx, inbox, doc)
	if err != nil {
		return nil, err
	}

	s.logger.Info("notification sent",
		zap.String("inbox", inbox),
		zap.String("id", act.ID),
		zap.Bool("delivered", result.Delivered),
		zap.Int("status", result.StatusCode),
	)
	return &Sent{Inbox: inbox, Activity: act, Document: doc, Result: result}, nil
}

// ReplyRequest describes a reply to an inbox notification.
type ReplyRequest struct {
	// URL is the notification replied to.
	URL string

	// WebID identifies the replying actor.
	WebID string

	// Object is the IRI the reply is about.
	Object string

	// Types of the reply. Default: Announce.
	Types []string

	// Inbox overrides the inbox of the original actor.
	Inbox string
}

// Reply loads the notification at req.URL, composes a reply and delivers it.
func (s *Service) Reply(ctx context.Context, req ReplyRequest) (*Sent, error) {
	detail, err := s.loader.Show(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	if detail.Activity == nil {
		return nil, fmt.Errorf("replying to %s: %w", req.URL, ErrNoActivity)
	}

	actor, err := s.Actor(ctx, req.WebID)
	if err != nil {
		return nil, fmt.Errorf("replying to %s: %w", req.URL, err)
	}

	target := req.Inbox
	if target == "" {
		target, err = ReplyInbox(detail.Activity)
		if err != nil {
			return nil, fmt.Errorf("replying to %s: %w", req.URL, err)
		}
	}

	return s.Send(ctx, target, NewReply(detail.Activity, actor, req.Object, req.Types...))
}
