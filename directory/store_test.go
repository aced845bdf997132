package directory

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppertalk/hoppertalk-go/contracts"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "users.json"))
}

func TestStoreCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a record with derived queue", func(t *testing.T) {
		store := newTestStore(t)

		user, err := store.Create(ctx, "Ada Lovelace")
		require.NoError(t, err)

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "Ada Lovelace", user.Name)
		assert.True(t, strings.HasPrefix(user.Queue, "fila_ada_lovelace_"))
		assert.True(t, strings.HasSuffix(user.Queue, user.ID))
		assert.Empty(t, user.Contacts)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		store := newTestStore(t)

		_, err := store.Create(ctx, "ada")
		require.NoError(t, err)

		_, err = store.Create(ctx, "ada")
		assert.ErrorIs(t, err, contracts.ErrDirectoryConflict)
	})

	t.Run("survives reopening the backing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "users.json")
		created, err := NewStore(path).Create(ctx, "ada")
		require.NoError(t, err)

		found, err := NewStore(path).FindByName(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, created.Queue, found.Queue)
	})
}

func TestStoreLookups(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ada, err := store.Create(ctx, "ada")
	require.NoError(t, err)

	t.Run("find by name", func(t *testing.T) {
		found, err := store.FindByName(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, ada.ID, found.ID)

		_, err = store.FindByName(ctx, "nobody")
		assert.ErrorIs(t, err, contracts.ErrUnknownUser)
	})

	t.Run("find by id", func(t *testing.T) {
		found, err := store.FindByID(ctx, ada.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada", found.Name)

		_, err = store.FindByID(ctx, "missing-id")
		assert.ErrorIs(t, err, contracts.ErrUnknownUser)
	})

	t.Run("find by queue", func(t *testing.T) {
		found, err := store.FindByQueue(ctx, ada.Queue)
		require.NoError(t, err)
		assert.Equal(t, ada.ID, found.ID)

		_, err = store.FindByQueue(ctx, "fila_nobody_x")
		assert.ErrorIs(t, err, contracts.ErrUnknownUser)
	})

	t.Run("list", func(t *testing.T) {
		_, err := store.Create(ctx, "grace")
		require.NoError(t, err)

		users, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}

func TestMutateContacts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ada, err := store.Create(ctx, "ada")
	require.NoError(t, err)
	grace, err := store.Create(ctx, "grace")
	require.NoError(t, err)

	t.Run("add", func(t *testing.T) {
		changed, err := store.MutateContacts(ctx, ada.ID, ContactAdd, grace.ID)
		require.NoError(t, err)
		assert.True(t, changed)

		found, err := store.FindByID(ctx, ada.ID)
		require.NoError(t, err)
		assert.True(t, found.HasContact(grace.ID))
	})

	t.Run("add is a no-op when already present", func(t *testing.T) {
		changed, err := store.MutateContacts(ctx, ada.ID, ContactAdd, grace.ID)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("contact relation is directed", func(t *testing.T) {
		found, err := store.FindByID(ctx, grace.ID)
		require.NoError(t, err)
		assert.False(t, found.HasContact(ada.ID))
	})

	t.Run("remove", func(t *testing.T) {
		changed, err := store.MutateContacts(ctx, ada.ID, ContactRemove, grace.ID)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = store.MutateContacts(ctx, ada.ID, ContactRemove, grace.ID)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := store.MutateContacts(ctx, "missing-id", ContactAdd, grace.ID)
		assert.ErrorIs(t, err, contracts.ErrUnknownUser)
	})
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ada, err := store.Create(ctx, "ada")
	require.NoError(t, err)
	_, err = store.Create(ctx, "grace")
	require.NoError(t, err)

	t.Run("re-derives the queue", func(t *testing.T) {
		renamed, err := store.Rename(ctx, ada.ID, "Ada Lovelace")
		require.NoError(t, err)

		assert.Equal(t, "Ada Lovelace", renamed.Name)
		assert.Equal(t, QueueName("Ada Lovelace", ada.ID), renamed.Queue)
	})

	t.Run("rejects a taken name", func(t *testing.T) {
		_, err := store.Rename(ctx, ada.ID, "grace")
		assert.ErrorIs(t, err, contracts.ErrDirectoryConflict)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.Rename(ctx, "missing-id", "newname")
		assert.ErrorIs(t, err, contracts.ErrUnknownUser)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ada, err := store.Create(ctx, "ada")
	require.NoError(t, err)
	grace, err := store.Create(ctx, "grace")
	require.NoError(t, err)

	_, err = store.MutateContacts(ctx, ada.ID, ContactAdd, grace.ID)
	require.NoError(t, err)

	t.Run("removes the record without cascading", func(t *testing.T) {
		removed, err := store.Delete(ctx, grace.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = store.FindByID(ctx, grace.ID)
		assert.ErrorIs(t, err, contracts.ErrUnknownUser)

		// The dangling contact id stays in ada's set.
		found, err := store.FindByID(ctx, ada.ID)
		require.NoError(t, err)
		assert.True(t, found.HasContact(grace.ID))
	})

	t.Run("deleting a missing id reports false", func(t *testing.T) {
		removed, err := store.Delete(ctx, grace.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Create(ctx, "ada")
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))

	users, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
