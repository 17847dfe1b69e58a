package inbox

import (
	"github.com/google/uuid"

	"github.com/phochste/AcmeInboxViewer/internal/activity"
	"github.com/phochste/AcmeInboxViewer/internal/solid"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// DefaultType is the activity type of composed notifications when the
// caller names none.
const DefaultType = vocab.ASAnnounce

// NewID returns a fresh urn:uuid activity identifier.
func NewID() string {
	return uuid.New().URN()
}

// Notification describes a notification to compose.
type Notification struct {
	// Types are AS2 terms or IRIs. Default: Announce.
	Types []string

	Actor  *activity.Agent
	Object string
	Target *activity.Agent

	Context   *activity.ObjectRef
	InReplyTo string
}

// Activity builds the Activity for n with a fresh id. Published is left
// unset so that the encoder stamps the send time.
func (n Notification) Activity() *activity.Activity {
	types := make([]string, 0, len(n.Types))
	for _, t := range n.Types {
		types = append(types, vocab.ExpandAS(t))
	}
	if len(types) == 0 {
		types = []string{DefaultType}
	}

	act := &activity.Activity{
		ID:      NewID(),
		Types:   types,
		Actor:   n.Actor,
		Target:  n.Target,
		Context: n.Context,
	}
	if n.Object != "" {
		act.Object = &activity.ObjectRef{ID: n.Object}
	}
	if n.InReplyTo != "" {
		inReplyTo := n.InReplyTo
		act.InReplyTo = &inReplyTo
	}
	return act
}

// NewReply composes a reply to original from actor about object. The
// reply targets the original actor and carries the original object as its
// context.
func NewReply(original *activity.Activity, actor *activity.Agent, object string, types ...string) *activity.Activity {
	n := Notification{
		Types:     types,
		Actor:     actor,
		Object:    object,
		InReplyTo: original.ID,
	}
	if original.Actor != nil {
		n.Target = detachAgent(original.Actor)
	}
	if original.Object != nil {
		n.Context = &activity.ObjectRef{ID: original.Object.ID, Types: original.Object.Types}
	}
	return n.Activity()
}

// ReplyInbox returns the inbox a reply to original is delivered to: the
// inbox advertised for the original actor.
func ReplyInbox(original *activity.Activity) (string, error) {
	if original == nil || original.Actor == nil || original.Actor.Inbox == nil || *original.Actor.Inbox == "" {
		return "", solid.ErrNoInbox
	}
	return *original.Actor.Inbox, nil
}

// AgentFromProfile turns a WebID profile into the actor of outgoing
// notifications.
func AgentFromProfile(p *solid.Profile) *activity.Agent {
	name := p.DisplayName()
	return &activity.Agent{
		ID:    p.WebID,
		Types: []string{vocab.ASPerson},
		Name:  &name,
		Inbox: p.Inbox,
	}
}

// detachAgent copies the fields of a decoded agent without its source
// Thing, so the composed activity does not carry the original graph.
func detachAgent(a *activity.Agent) *activity.Agent {
	return &activity.Agent{
		ID:    a.ID,
		Types: a.Types,
		Name:  a.Name,
		Inbox: a.Inbox,
	}
}
