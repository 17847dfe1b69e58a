package inbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phochste/AcmeInboxViewer/internal/activity"
	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/solid"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

func strPtr(s string) *string { return &s }

func TestNotification_Activity(t *testing.T) {
	t.Parallel()

	t.Run("Defaults", func(t *testing.T) {
		t.Parallel()
		act := Notification{Object: "https://pod.example/doc"}.Activity()
		assert.True(t, strings.HasPrefix(act.ID, "urn:uuid:"))
		assert.Equal(t, []string{vocab.ASAnnounce}, act.Types)
		assert.Nil(t, act.Published)
		assert.Nil(t, act.InReplyTo)
		require.NotNil(t, act.Object)
		assert.Equal(t, "https://pod.example/doc", act.Object.ID)
	})

	t.Run("ExpandsTerms", func(t *testing.T) {
		t.Parallel()
		act := Notification{Types: []string{"Offer", "https://schema.org/Review"}}.Activity()
		assert.Equal(t, []string{vocab.ASOffer, "https://schema.org/Review"}, act.Types)
		assert.Nil(t, act.Object)
	})

	t.Run("FreshIDs", func(t *testing.T) {
		t.Parallel()
		n := Notification{}
		assert.NotEqual(t, n.Activity().ID, n.Activity().ID)
	})
}

func TestNewReply(t *testing.T) {
	t.Parallel()

	g := graph.NewBuilder().
		AddNamedNode("urn:act", vocab.RDFType, vocab.ASOffer).
		AddNamedNode("urn:act", vocab.ASActor, "https://bob.example/#me").
		AddNamedNode("urn:act", vocab.ASObject, "https://bob.example/paper").
		AddLiteral("https://bob.example/#me", vocab.ASName, "Bob", vocab.XSDString).
		AddNamedNode("https://bob.example/#me", vocab.ASInbox, "https://bob.example/inbox/").
		AddNamedNode("https://bob.example/paper", vocab.RDFType, vocab.AS+"Document").
		Graph()
	original := activity.Decode(g)
	require.NotNil(t, original)

	me := &activity.Agent{ID: "https://alice.example/#me", Name: strPtr("Alice")}
	reply := NewReply(original, me, "https://alice.example/review", "Accept")

	assert.Equal(t, []string{vocab.ASAccept}, reply.Types)
	require.NotNil(t, reply.InReplyTo)
	assert.Equal(t, "urn:act", *reply.InReplyTo)
	assert.Same(t, me, reply.Actor)

	require.NotNil(t, reply.Target)
	assert.Equal(t, "https://bob.example/#me", reply.Target.ID)
	assert.Equal(t, "Bob", *reply.Target.Name)
	assert.Nil(t, reply.Target.Thing)

	require.NotNil(t, reply.Context)
	assert.Equal(t, "https://bob.example/paper", reply.Context.ID)
	assert.Equal(t, []string{vocab.AS + "Document"}, reply.Context.Types)
	assert.Nil(t, reply.Context.Thing)

	require.NotNil(t, reply.Object)
	assert.Equal(t, "https://alice.example/review", reply.Object.ID)

	inbox, err := ReplyInbox(original)
	require.NoError(t, err)
	assert.Equal(t, "https://bob.example/inbox/", inbox)

	doc := activity.NewEncoder().Encode(reply)
	assert.Equal(t,
		[]string{"@context", "id", "type", "published", "inReplyTo", "actor", "context", "object", "target"},
		doc.Keys())
}

func TestReplyInbox_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReplyInbox(&activity.Activity{ID: "urn:x", Actor: &activity.Agent{ID: "urn:y"}})
	assert.ErrorIs(t, err, solid.ErrNoInbox)

	_, err = ReplyInbox(nil)
	assert.ErrorIs(t, err, solid.ErrNoInbox)
}

func TestAgentFromProfile(t *testing.T) {
	t.Parallel()

	agent := AgentFromProfile(&solid.Profile{
		WebID:     "https://alice.example/#me",
		GivenName: strPtr("Alice"),
		Inbox:     strPtr("https://alice.example/inbox/"),
	})
	assert.Equal(t, "https://alice.example/#me", agent.ID)
	assert.Equal(t, "Alice", *agent.Name)
	assert.Equal(t, "https://alice.example/inbox/", *agent.Inbox)
	assert.Equal(t, []string{vocab.ASPerson}, agent.Types)
}
