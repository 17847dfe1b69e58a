package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phochste/AcmeInboxViewer/internal/activity"
	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/inbox"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"alice", "example", "papers", "42", "review"},
		tokenize("https://alice.example/papers/42 a Review"))
}

func TestIndex_Search(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.Add("a", "Offer review of linked data notifications")
	idx.Add("b", "Announce new paper on linked data")
	idx.Add("c", "Announce dataset release")
	require.Equal(t, 3, idx.Len())

	t.Run("RareTermWins", func(t *testing.T) {
		t.Parallel()
		results := idx.Search("review", 0)
		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].ID)
		assert.Greater(t, results[0].Score, 0.0)
	})

	t.Run("Ordering", func(t *testing.T) {
		t.Parallel()
		results := idx.Search("announce paper", 0)
		require.Len(t, results, 2)
		assert.Equal(t, "b", results[0].ID)
		assert.Equal(t, "c", results[1].ID)
		assert.Greater(t, results[0].Score, results[1].Score)
	})

	t.Run("Limit", func(t *testing.T) {
		t.Parallel()
		assert.Len(t, idx.Search("linked", 1), 1)
	})

	t.Run("NoMatch", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, idx.Search("unrelated", 0))
		assert.Empty(t, idx.Search("", 0))
	})
}

func TestActivityText(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ActivityText(nil))

	g := graph.NewBuilder().
		AddNamedNode("urn:act", vocab.RDFType, vocab.ASOffer).
		AddNamedNode("urn:act", vocab.ASActor, "https://bob.example/#me").
		AddNamedNode("urn:act", vocab.ASObject, "https://bob.example/paper").
		AddLiteral("urn:act", vocab.ASSummary, "please review", vocab.XSDString).
		AddLiteral("https://bob.example/#me", vocab.ASName, "Bob", vocab.XSDString).
		AddLiteral("https://bob.example/paper", vocab.ASName, "Inbox Semantics", vocab.XSDString).
		Graph()
	act := activity.Decode(g)
	require.NotNil(t, act)

	text := ActivityText(act)
	for _, want := range []string{"Offer", "Bob", "Inbox Semantics", "please review", "https://bob.example/paper"} {
		assert.Contains(t, text, want)
	}
}

func TestRank(t *testing.T) {
	t.Parallel()

	name := func(s string) *string { return &s }
	messages := []inbox.Message{
		{URL: "u1", Activity: &activity.Activity{ID: "urn:1", Types: []string{vocab.ASAnnounce}, Actor: &activity.Agent{ID: "urn:carol", Name: name("Carol")}}},
		{URL: "u2", Err: inbox.ErrNoActivity},
		{URL: "u3", Activity: &activity.Activity{ID: "urn:3", Types: []string{vocab.ASOffer}, Actor: &activity.Agent{ID: "urn:bob", Name: name("Bob")}}},
	}

	ranked := Rank(messages, "bob")
	require.Len(t, ranked, 1)
	assert.Equal(t, "u3", ranked[0].URL)

	assert.Empty(t, Rank(messages, "activity"))
}
