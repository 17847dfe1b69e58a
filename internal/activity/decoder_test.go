package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

const (
	actID     = "https://inbox.example/notifications/1#act"
	aliceID   = "https://alice.example/profile#me"
	bobID     = "https://bob.example/profile#me"
	carolID   = "https://carol.example/profile#me"
	paperID   = "https://alice.example/papers/42"
	threadID  = "https://alice.example/threads/7"
	replyToID = "https://bob.example/notifications/0"
)

// announceGraph builds an Announce from alice to bob about a paper.
func announceGraph() *graph.Graph {
	return graph.NewBuilder().
		AddNamedNode(actID, vocab.RDFType, vocab.ASAnnounce).
		AddLiteral(actID, vocab.ASPublished, "2024-05-01T12:30:00Z", vocab.XSDDateTime).
		AddNamedNode(actID, vocab.ASActor, aliceID).
		AddNamedNode(actID, vocab.ASTarget, bobID).
		AddNamedNode(actID, vocab.ASOrigin, carolID).
		AddNamedNode(actID, vocab.ASObject, paperID).
		AddNamedNode(actID, vocab.ASContext, threadID).
		AddNamedNode(actID, vocab.ASInReplyTo, replyToID).
		AddNamedNode(aliceID, vocab.RDFType, vocab.ASPerson).
		AddLiteral(aliceID, vocab.ASName, "Alice", vocab.XSDString).
		AddNamedNode(aliceID, vocab.ASInbox, "https://alice.example/inbox/").
		AddNamedNode(bobID, vocab.RDFType, vocab.ASService).
		AddLangString(bobID, vocab.ASName, "Bob's Service", "en").
		AddNamedNode(bobID, vocab.ASInbox, "https://bob.example/inbox/").
		AddNamedNode(carolID, vocab.RDFType, vocab.ASPerson).
		AddLiteral(carolID, vocab.ASName, "Carol", vocab.XSDString).
		AddNamedNode(paperID, vocab.RDFType, vocab.AS+"Document").
		AddNamedNode(paperID, vocab.RDFType, "https://schema.org/ScholarlyArticle").
		AddLiteral(paperID, vocab.ASName, "On Inboxes", vocab.XSDString).
		Graph()
}

func TestDecode_FullActivity(t *testing.T) {
	t.Parallel()

	act := Decode(announceGraph())
	require.NotNil(t, act)

	assert.Equal(t, actID, act.ID)
	assert.Equal(t, []string{vocab.ASAnnounce}, act.Types)
	require.NotNil(t, act.Published)
	assert.True(t, act.Published.Equal(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)))
	require.NotNil(t, act.InReplyTo)
	assert.Equal(t, replyToID, *act.InReplyTo)
	assert.NotNil(t, act.Thing)

	require.NotNil(t, act.Actor)
	assert.Equal(t, aliceID, act.Actor.ID)
	assert.Equal(t, []string{vocab.ASPerson}, act.Actor.Types)
	require.NotNil(t, act.Actor.Name)
	assert.Equal(t, "Alice", *act.Actor.Name)
	require.NotNil(t, act.Actor.Inbox)
	assert.Equal(t, "https://alice.example/inbox/", *act.Actor.Inbox)

	require.NotNil(t, act.Target)
	require.NotNil(t, act.Target.Name)
	assert.Equal(t, "Bob's Service", *act.Target.Name)

	require.NotNil(t, act.Object)
	assert.Equal(t, paperID, act.Object.ID)
	assert.Len(t, act.Object.Types, 2)

	require.NotNil(t, act.Context)
	assert.Equal(t, threadID, act.Context.ID)
	assert.Nil(t, act.Context.Thing, "context has no statements")
	assert.Empty(t, act.Context.Types)
}

func TestDecode_OriginReadsTargetSubject(t *testing.T) {
	t.Parallel()

	act := Decode(announceGraph())
	require.NotNil(t, act)
	require.NotNil(t, act.Origin)

	// The id is the origin's, every other field is the target's.
	assert.Equal(t, carolID, act.Origin.ID)
	assert.Equal(t, []string{vocab.ASService}, act.Origin.Types)
	require.NotNil(t, act.Origin.Name)
	assert.Equal(t, "Bob's Service", *act.Origin.Name)
	assert.Equal(t, bobID, act.Origin.Thing.Subject)
}

func TestDecode_OriginWithoutTargetIsStub(t *testing.T) {
	t.Parallel()

	g := graph.NewBuilder().
		AddNamedNode(actID, vocab.ASOrigin, carolID).
		AddLiteral(carolID, vocab.ASName, "Carol", vocab.XSDString).
		Graph()

	act := Decode(g)
	require.NotNil(t, act)
	require.NotNil(t, act.Origin)
	assert.Equal(t, carolID, act.Origin.ID)
	assert.Nil(t, act.Origin.Name)
	assert.Nil(t, act.Origin.Thing)
}

func TestDecode_GracefulDegradation(t *testing.T) {
	t.Parallel()

	g := graph.NewBuilder().
		AddLiteral(actID, vocab.ASSummary, "hello", vocab.XSDString).
		Graph()

	act := Decode(g)
	require.NotNil(t, act)
	assert.Equal(t, actID, act.ID)
	assert.Empty(t, act.Types)
	assert.Nil(t, act.Published)
	assert.Nil(t, act.Actor)
	assert.Nil(t, act.Object)
	assert.Nil(t, act.Target)
	assert.Nil(t, act.Origin)
	assert.Nil(t, act.Context)
	assert.Nil(t, act.InReplyTo)
}

func TestDecode_StubAgents(t *testing.T) {
	t.Parallel()

	g := graph.NewBuilder().
		AddNamedNode(actID, vocab.ASActor, aliceID).
		AddNamedNode(actID, vocab.ASObject, paperID).
		Graph()

	act := Decode(g)
	require.NotNil(t, act)
	assert.Equal(t, &Agent{ID: aliceID}, act.Actor)
	assert.Equal(t, &ObjectRef{ID: paperID}, act.Object)
}

func TestDecode_NoRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		g    *graph.Graph
	}{
		{"Nil", nil},
		{"Empty", graph.NewBuilder().Graph()},
		{
			"TwoRoots",
			graph.NewBuilder().
				AddNamedNode("urn:a", vocab.RDFType, vocab.ASNote).
				AddNamedNode("urn:b", vocab.RDFType, vocab.ASNote).
				Graph(),
		},
		{
			"Cycle",
			graph.NewBuilder().
				AddNamedNode("urn:a", vocab.ASObject, "urn:b").
				AddNamedNode("urn:b", vocab.ASObject, "urn:a").
				Graph(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Nil(t, Decode(tt.g))
		})
	}
}

func TestDecode_TotalOverOddShapes(t *testing.T) {
	t.Parallel()

	g := graph.NewBuilder().
		AddLiteral(actID, vocab.ASActor, "not an IRI", vocab.XSDString).
		AddBlankNode(actID, vocab.ASObject, "b0").
		AddLiteral(actID, vocab.ASPublished, "soon", vocab.XSDDateTime).
		AddNamedNode(actID, vocab.RDFType, vocab.ASOffer).
		AddNamedNode(actID, vocab.RDFType, vocab.ASOffer).
		AddNamedNode(actID, vocab.ASTarget, bobID).
		AddNamedNode(actID, vocab.ASTarget, carolID).
		Graph()

	var act *Activity
	require.NotPanics(t, func() { act = Decode(g) })
	require.NotNil(t, act)
	assert.Equal(t, []string{vocab.ASOffer}, act.Types)
	assert.Nil(t, act.Actor)
	assert.Nil(t, act.Object)
	assert.Nil(t, act.Published)
	require.NotNil(t, act.Target)
	assert.Equal(t, bobID, act.Target.ID, "first target wins")
}

func TestDecodeSubject_UnknownSubject(t *testing.T) {
	t.Parallel()

	assert.Nil(t, DecodeSubject(announceGraph(), "urn:nope"))

	act := DecodeSubject(announceGraph(), aliceID)
	require.NotNil(t, act)
	assert.Equal(t, aliceID, act.ID)
}

func TestActivity_HasType(t *testing.T) {
	t.Parallel()

	act := Decode(announceGraph())
	assert.True(t, act.HasType(vocab.ASAnnounce))
	assert.False(t, act.HasType(vocab.ASOffer))

	var none *Activity
	assert.False(t, none.HasType(vocab.ASAnnounce))
}
