package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) (*State, *MemoryBackend) {
	t.Helper()

	backend := NewMemoryBackend()
	require.NoError(t, backend.Initialize("", false))
	t.Cleanup(func() { backend.Close() })
	return NewState(backend), backend
}

func TestState_SelectedInbox(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state, backend := newTestState(t)

	selected, err := state.SelectedInbox(ctx)
	require.NoError(t, err)
	assert.Nil(t, selected)

	inbox := &InboxListing{URL: "https://pod.example/inbox/", Name: "Alice"}
	require.NoError(t, state.SetSelectedInbox(ctx, inbox))

	selected, err = state.SelectedInbox(ctx)
	require.NoError(t, err)
	assert.Equal(t, inbox, selected)

	raw, err := backend.Get(ctx, keySelectedInbox)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://pod.example/inbox/","name":"Alice"}`, string(raw))

	require.NoError(t, state.SetSelectedInbox(ctx, nil))
	_, err = backend.Get(ctx, keySelectedInbox)
	assert.ErrorIs(t, err, ErrNotFound, "clearing removes the key")
}

func TestState_RememberInbox(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state, _ := newTestState(t)

	require.NoError(t, state.RememberInbox(ctx, InboxListing{URL: "https://a.example/inbox/", Name: "A"}))
	require.NoError(t, state.RememberInbox(ctx, InboxListing{URL: "https://b.example/inbox/", Name: "B"}))
	require.NoError(t, state.RememberInbox(ctx, InboxListing{URL: "https://a.example/inbox/", Name: "A2"}))

	list, err := state.InboxList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []InboxListing{
		{URL: "https://a.example/inbox/", Name: "A2"},
		{URL: "https://b.example/inbox/", Name: "B"},
	}, list)

	selected, err := state.SelectedInbox(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A2", selected.Name)
}

func TestState_SelectedNotifications(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state, _ := newTestState(t)

	urls, err := state.SelectedNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, urls)

	require.NoError(t, state.SetSelectedNotifications(ctx, []string{"https://pod.example/inbox/n1"}))
	urls, err = state.SelectedNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://pod.example/inbox/n1"}, urls)

	require.NoError(t, state.SetSelectedNotifications(ctx, nil))
	urls, err = state.SelectedNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestState_Clear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state, backend := newTestState(t)

	require.NoError(t, backend.Put(ctx, "other", []byte("keep")))
	require.NoError(t, state.RememberInbox(ctx, InboxListing{URL: "https://a.example/inbox/"}))
	require.NoError(t, state.SetSelectedNotifications(ctx, []string{"x"}))

	require.NoError(t, state.Clear(ctx))

	keys, err := backend.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, keys)
}

func TestState_CorruptValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state, backend := newTestState(t)

	require.NoError(t, backend.Put(ctx, keyInboxList, []byte("{not json")))
	_, err := state.InboxList(ctx)
	assert.Error(t, err)
}
