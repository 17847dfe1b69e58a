package activity

import (
	"time"

	"go.uber.org/zap"

	"github.com/phochste/AcmeInboxViewer/internal/jsonld"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// PublishedLayout is the timestamp format written for "published".
const PublishedLayout = "2006-01-02T15:04:05.000Z"

// Encoder builds canonical AS2 JSON-LD documents.
type Encoder struct {
	projector *Projector
	now       func() time.Time
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithClock sets the clock used to stamp activities without a published
// time.
func WithClock(now func() time.Time) EncoderOption {
	return func(e *Encoder) {
		e.now = now
	}
}

// WithLogger sets the logger used by the encoder's projector.
func WithLogger(logger *zap.Logger) EncoderOption {
	return func(e *Encoder) {
		e.projector = NewProjector(logger)
	}
}

// NewEncoder creates an encoder.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{
		projector: NewProjector(nil),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode renders a as a JSON-LD document. Keys appear in the order
// @context, id, type, published, inReplyTo, actor, origin, context, object,
// target. When a has no published time the encoder stamps the current time,
// so encoding the same activity twice is only stable if the caller sets it.
func (e *Encoder) Encode(a *Activity) *jsonld.Object {
	doc := jsonld.NewObject()
	doc.SetString("@context", vocab.ASCtx)
	doc.SetString("id", a.ID)
	doc.Set("type", jsonld.Collapse(vocab.CompactTypes(a.Types)))

	published := e.now()
	if a.Published != nil {
		published = *a.Published
	}
	doc.SetString("published", FormatPublished(published))

	if a.InReplyTo != nil {
		doc.SetString("inReplyTo", *a.InReplyTo)
	}

	doc.Set("actor", encodeAgent(a.Actor))
	doc.Set("origin", encodeAgent(a.Origin))
	doc.Set("context", e.encodeObjectRef(a.Context))
	doc.Set("object", e.encodeObjectRef(a.Object))
	doc.Set("target", encodeAgent(a.Target))

	return doc
}

// FormatPublished formats ts as a UTC instant with millisecond precision.
func FormatPublished(ts time.Time) string {
	return ts.UTC().Format(PublishedLayout)
}

func encodeAgent(agent *Agent) jsonld.Value {
	if agent == nil {
		return nil
	}

	out := jsonld.NewObject()
	out.SetString("id", agent.ID)
	if agent.Name != nil {
		out.SetString("name", *agent.Name)
	}
	if agent.Inbox != nil {
		out.SetString("inbox", *agent.Inbox)
	}
	out.Set("type", jsonld.Collapse(vocab.CompactTypes(agent.Types)))
	return out
}

func (e *Encoder) encodeObjectRef(ref *ObjectRef) jsonld.Value {
	if ref == nil {
		return nil
	}

	out := jsonld.NewObject()
	out.SetString("id", ref.ID)
	out.Set("type", jsonld.Collapse(vocab.CompactTypes(ref.Types)))
	if ref.Thing != nil {
		out.Merge(e.projector.Project(ref.Thing), "@context", "id", "type")
	}
	return out
}
