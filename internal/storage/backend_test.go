package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns an initialized instance of every backend.
func backends(t *testing.T) map[string]StorageBackend {
	t.Helper()

	memory := NewMemoryBackend()
	require.NoError(t, memory.Initialize("", false))

	badgerDB := NewBadgerBackend()
	require.NoError(t, badgerDB.Initialize(filepath.Join(t.TempDir(), "badger"), false))

	t.Cleanup(func() {
		memory.Close()
		badgerDB.Close()
	})

	return map[string]StorageBackend{
		"Memory": memory,
		"Badger": badgerDB,
	}
}

func TestBackend_KeyValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := backend.Get(ctx, "s:missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, backend.Put(ctx, "s:a", []byte("1")))
			require.NoError(t, backend.Put(ctx, "s:b", []byte("2")))
			require.NoError(t, backend.Put(ctx, "x:c", []byte("3")))

			v, err := backend.Get(ctx, "s:a")
			require.NoError(t, err)
			assert.Equal(t, []byte("1"), v)

			require.NoError(t, backend.Put(ctx, "s:a", []byte("10")))
			v, err = backend.Get(ctx, "s:a")
			require.NoError(t, err)
			assert.Equal(t, []byte("10"), v)

			keys, err := backend.Keys(ctx, "s:")
			require.NoError(t, err)
			assert.Equal(t, []string{"s:a", "s:b"}, keys)

			require.NoError(t, backend.Delete(ctx, "s:a"))
			require.NoError(t, backend.Delete(ctx, "s:a"), "deleting twice is fine")
			_, err = backend.Get(ctx, "s:a")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBackend_NotInitialized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, backend := range map[string]StorageBackend{
		"Memory": NewMemoryBackend(),
		"Badger": NewBadgerBackend(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := backend.Get(ctx, "s:a")
			assert.ErrorIs(t, err, ErrNotInitialized)
			assert.ErrorIs(t, backend.Put(ctx, "s:a", nil), ErrNotInitialized)
			assert.ErrorIs(t, backend.Delete(ctx, "s:a"), ErrNotInitialized)
			_, err = backend.Keys(ctx, "")
			assert.ErrorIs(t, err, ErrNotInitialized)
			assert.NoError(t, backend.Close())
		})
	}
}

func TestMemoryBackend_CopiesValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Initialize("", false))

	value := []byte("abc")
	require.NoError(t, backend.Put(ctx, "k", value))
	value[0] = 'x'

	got, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}
