package activity

import (
	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// ReadAgent reads an Agent for uri from g. When g has no statements about
// uri the result only carries the ID.
func ReadAgent(g *graph.Graph, uri string) *Agent {
	return readAgentFrom(g.Thing(uri), uri)
}

// readAgentFrom builds an Agent with the given id from thing, which may
// describe a different subject.
func readAgentFrom(thing *graph.Thing, id string) *Agent {
	agent := &Agent{ID: id}
	if thing == nil {
		return agent
	}

	agent.Thing = thing
	agent.Types = thing.Types()
	agent.Name = thing.String(vocab.ASName)
	if inbox, ok := thing.URL(vocab.ASInbox); ok {
		agent.Inbox = &inbox
	}
	return agent
}

// ReadObjectRef reads an ObjectRef for uri from g. When g has no statements
// about uri the result only carries the ID.
func ReadObjectRef(g *graph.Graph, uri string) *ObjectRef {
	ref := &ObjectRef{ID: uri}
	thing := g.Thing(uri)
	if thing == nil {
		return ref
	}

	ref.Thing = thing
	ref.Types = thing.Types()
	return ref
}
