// Package activity turns RDF graphs into ActivityStreams 2.0 Activities and
// Activities back into JSON-LD.
//
// Decoding is total: any graph with a single root yields an Activity, however
// sparse. Nothing in this package performs I/O or keeps state between calls.
package activity

import (
	"time"

	"github.com/phochste/AcmeInboxViewer/internal/graph"
)

// Agent is a participant in an Activity: its actor, origin or target.
type Agent struct {
	ID    string
	Types []string
	Name  *string
	Inbox *string

	// Thing is the source of the fields above, nil when the graph holds no
	// statements about the agent.
	Thing *graph.Thing
}

// ObjectRef is a referenced object or context.
type ObjectRef struct {
	ID    string
	Types []string

	// Thing is the source of Types and of the extra properties emitted when
	// encoding; nil when the graph holds no statements about it.
	Thing *graph.Thing
}

// Activity is an AS2 activity recovered from, or destined for, an LDN inbox.
type Activity struct {
	// ID is the IRI of the activity (the root subject when decoded).
	ID        string
	Types     []string
	Published *time.Time
	InReplyTo *string

	Actor  *Agent
	Target *Agent
	Origin *Agent

	Object  *ObjectRef
	Context *ObjectRef

	Thing *graph.Thing
}

// HasType reports whether the activity is typed with iri.
func (a *Activity) HasType(iri string) bool {
	if a == nil {
		return false
	}
	for _, t := range a.Types {
		if t == iri {
			return true
		}
	}
	return false
}
