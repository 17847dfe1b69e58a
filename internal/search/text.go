package search

import (
	"strings"

	"github.com/phochste/AcmeInboxViewer/internal/activity"
	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/inbox"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// ActivityText returns the searchable text of a: its types, the ids and
// names of its participants and the ids, names and summaries of its object
// and context.
func ActivityText(a *activity.Activity) string {
	if a == nil {
		return ""
	}

	parts := vocab.CompactTypes(a.Types)
	for _, agent := range []*activity.Agent{a.Actor, a.Origin, a.Target} {
		if agent == nil {
			continue
		}
		parts = append(parts, agent.ID)
		if agent.Name != nil {
			parts = append(parts, *agent.Name)
		}
	}
	for _, ref := range []*activity.ObjectRef{a.Object, a.Context} {
		if ref == nil {
			continue
		}
		parts = append(parts, ref.ID)
		parts = append(parts, vocab.CompactTypes(ref.Types)...)
		parts = append(parts, literals(ref.Thing, vocab.ASName, vocab.ASSummary, vocab.ASContent)...)
	}
	parts = append(parts, literals(a.Thing, vocab.ASSummary, vocab.ASContent)...)

	return strings.Join(parts, " ")
}

func literals(t *graph.Thing, predicates ...string) []string {
	var out []string
	for _, p := range predicates {
		if s := t.String(p); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// Rank returns the messages matching query, best match first. Messages
// without an activity never match.
func Rank(messages []inbox.Message, query string) []inbox.Message {
	idx := NewIndex()
	byURL := make(map[string]inbox.Message, len(messages))
	for _, m := range messages {
		if m.Activity == nil {
			continue
		}
		idx.Add(m.URL, ActivityText(m.Activity))
		byURL[m.URL] = m
	}

	results := idx.Search(query, 0)
	out := make([]inbox.Message, 0, len(results))
	for _, r := range results {
		out = append(out, byURL[r.ID])
	}
	return out
}
