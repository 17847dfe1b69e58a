package activity

import (
	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// Decode returns the Activity described by g, or nil when g has no single
// root subject. Every field other than ID is optional; a root with no
// statements this package understands still decodes to an Activity.
func Decode(g *graph.Graph) *Activity {
	root, ok := graph.FindRoot(g)
	if !ok {
		return nil
	}
	return DecodeSubject(g, root)
}

// DecodeSubject reads the Activity fields of subject without resolving a
// root first. It returns nil only when g has no statements about subject.
func DecodeSubject(g *graph.Graph, subject string) *Activity {
	thing := g.Thing(subject)
	if thing == nil {
		return nil
	}

	act := &Activity{
		ID:        thing.Subject,
		Types:     thing.Types(),
		Published: thing.Datetime(vocab.ASPublished),
		Thing:     thing,
	}

	if inReplyTo, ok := thing.URL(vocab.ASInReplyTo); ok {
		act.InReplyTo = &inReplyTo
	}

	actor, hasActor := thing.URL(vocab.ASActor)
	target, hasTarget := thing.URL(vocab.ASTarget)
	origin, hasOrigin := thing.URL(vocab.ASOrigin)

	if hasActor {
		act.Actor = ReadAgent(g, actor)
	}
	if hasTarget {
		act.Target = ReadAgent(g, target)
	}
	if hasOrigin {
		// Types, name and inbox of the origin come from the target
		// subject; only the id is read from as:origin.
		var source *graph.Thing
		if hasTarget {
			source = g.Thing(target)
		}
		act.Origin = readAgentFrom(source, origin)
	}

	if ctxRef, ok := thing.URL(vocab.ASContext); ok {
		act.Context = ReadObjectRef(g, ctxRef)
	}
	if object, ok := thing.URL(vocab.ASObject); ok {
		act.Object = ReadObjectRef(g, object)
	}

	return act
}
