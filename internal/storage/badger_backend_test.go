package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerBackend_Initialize(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "badger")

		backend := NewBadgerBackend()
		err := backend.Initialize(dbPath, false)

		assert.NoError(t, err)
		assert.NotNil(t, backend.db)
		assert.True(t, backend.initialized)

		assert.NoError(t, backend.Close())
		assert.Nil(t, backend.db)
		assert.NoError(t, backend.Close(), "closing twice is fine")
	})

	t.Run("InvalidPath", func(t *testing.T) {
		backend := NewBadgerBackend()
		err := backend.Initialize("/dev/null/badger", false)
		assert.Error(t, err)
	})
}

func TestBadgerBackend_Persistence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "badger")

	backend1 := NewBadgerBackend()
	require.NoError(t, backend1.Initialize(dbPath, false))
	state := NewState(backend1)
	require.NoError(t, state.RememberInbox(ctx, InboxListing{URL: "https://pod.example/inbox/", Name: "Alice"}))
	require.NoError(t, backend1.Close())

	backend2 := NewBadgerBackend()
	require.NoError(t, backend2.Initialize(dbPath, true))
	defer backend2.Close()

	selected, err := NewState(backend2).SelectedInbox(ctx)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, "https://pod.example/inbox/", selected.URL)
}
