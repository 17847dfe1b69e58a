package inbox

import (
	"strings"

	"github.com/phochste/AcmeInboxViewer/internal/activity"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// Field is one labelled line of a notification summary.
type Field struct {
	Label string
	Value string
}

// Summary returns a one-line description of a, such as
// "Announce from Alice <https://alice.example/profile#me>: https://alice.example/papers/42".
func Summary(a *activity.Activity) string {
	if a == nil {
		return "(not an activity)"
	}

	var b strings.Builder
	b.WriteString(typeLabel(a.Types))
	if a.Actor != nil {
		b.WriteString(" from ")
		b.WriteString(AgentLabel(a.Actor))
	}
	if a.Object != nil {
		b.WriteString(": ")
		b.WriteString(a.Object.ID)
	}
	return b.String()
}

// Fields lists the populated fields of a in display order.
func Fields(a *activity.Activity) []Field {
	if a == nil {
		return nil
	}

	fields := []Field{
		{"id", a.ID},
		{"type", typeLabel(a.Types)},
	}
	if a.Published != nil {
		fields = append(fields, Field{"published", activity.FormatPublished(*a.Published)})
	}
	if a.InReplyTo != nil {
		fields = append(fields, Field{"inReplyTo", *a.InReplyTo})
	}
	for _, p := range []struct {
		label string
		agent *activity.Agent
	}{
		{"actor", a.Actor},
		{"origin", a.Origin},
		{"target", a.Target},
	} {
		if p.agent != nil {
			fields = append(fields, Field{p.label, AgentLabel(p.agent)})
		}
	}
	if a.Object != nil {
		fields = append(fields, Field{"object", a.Object.ID})
	}
	if a.Context != nil {
		fields = append(fields, Field{"context", a.Context.ID})
	}
	return fields
}

// AgentLabel names an agent: "Name <id>", or the id alone when it has no
// name.
func AgentLabel(a *activity.Agent) string {
	if a.Name == nil || *a.Name == "" {
		return a.ID
	}
	return *a.Name + " <" + a.ID + ">"
}

func typeLabel(types []string) string {
	if len(types) == 0 {
		return "Activity"
	}
	return strings.Join(vocab.CompactTypes(types), ", ")
}
