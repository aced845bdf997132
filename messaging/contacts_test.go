package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppertalk/hoppertalk-go/contracts"
	"github.com/hoppertalk/hoppertalk-go/directory"
)

func initSession(t *testing.T, store *directory.Store, name string) *Session {
	t.Helper()
	session := NewSession(store)
	require.NoError(t, session.Initialize(context.Background(), name))
	return session
}

func TestAddContact(t *testing.T) {
	ctx := context.Background()

	t.Run("adds an existing user", func(t *testing.T) {
		store := newTestDirectory(t)
		ada := initSession(t, store, "ada")
		initSession(t, store, "grace")
		ledger := NewContactLedger(store)

		contact, added, err := ledger.AddContact(ctx, ada, "grace")
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, "grace", contact.Name)
	})

	t.Run("rejects a name missing from the directory", func(t *testing.T) {
		store := newTestDirectory(t)
		ada := initSession(t, store, "ada")
		ledger := NewContactLedger(store)

		_, _, err := ledger.AddContact(ctx, ada, "nobody")
		assert.ErrorIs(t, err, contracts.ErrUnknownUser)
	})

	t.Run("rejects adding yourself", func(t *testing.T) {
		store := newTestDirectory(t)
		ada := initSession(t, store, "ada")
		ledger := NewContactLedger(store)

		_, _, err := ledger.AddContact(ctx, ada, "ada")
		assert.ErrorIs(t, err, contracts.ErrSelfReference)

		// The contact set stays untouched.
		contacts, err := ledger.List(ctx, ada)
		require.NoError(t, err)
		assert.Empty(t, contacts)
	})

	t.Run("re-adding is a no-op, not an error", func(t *testing.T) {
		store := newTestDirectory(t)
		ada := initSession(t, store, "ada")
		initSession(t, store, "grace")
		ledger := NewContactLedger(store)

		_, added, err := ledger.AddContact(ctx, ada, "grace")
		require.NoError(t, err)
		require.True(t, added)

		contact, added, err := ledger.AddContact(ctx, ada, "grace")
		require.NoError(t, err)
		assert.False(t, added)
		assert.Equal(t, "grace", contact.Name)
	})

	t.Run("requires an initialized session", func(t *testing.T) {
		store := newTestDirectory(t)
		ledger := NewContactLedger(store)

		_, _, err := ledger.AddContact(ctx, NewSession(store), "grace")
		assert.ErrorIs(t, err, contracts.ErrNotInitialized)
	})
}

func TestRemoveContact(t *testing.T) {
	ctx := context.Background()

	t.Run("removes an added contact", func(t *testing.T) {
		store := newTestDirectory(t)
		ada := initSession(t, store, "ada")
		initSession(t, store, "grace")
		ledger := NewContactLedger(store)

		_, _, err := ledger.AddContact(ctx, ada, "grace")
		require.NoError(t, err)

		require.NoError(t, ledger.RemoveContact(ctx, ada, "grace"))

		contacts, err := ledger.List(ctx, ada)
		require.NoError(t, err)
		assert.Empty(t, contacts)

		// A second remove finds nothing to delete.
		err = ledger.RemoveContact(ctx, ada, "grace")
		assert.ErrorIs(t, err, contracts.ErrNotContact)
	})

	t.Run("fails for a user never added", func(t *testing.T) {
		store := newTestDirectory(t)
		ada := initSession(t, store, "ada")
		initSession(t, store, "grace")
		ledger := NewContactLedger(store)

		err := ledger.RemoveContact(ctx, ada, "grace")
		assert.ErrorIs(t, err, contracts.ErrNotContact)
	})

	t.Run("fails for an unresolvable name", func(t *testing.T) {
		store := newTestDirectory(t)
		ada := initSession(t, store, "ada")
		ledger := NewContactLedger(store)

		err := ledger.RemoveContact(ctx, ada, "nobody")
		assert.ErrorIs(t, err, contracts.ErrUnknownUser)
	})
}

func TestListContacts(t *testing.T) {
	ctx := context.Background()

	t.Run("contact relation is directed", func(t *testing.T) {
		store := newTestDirectory(t)
		ada := initSession(t, store, "ada")
		grace := initSession(t, store, "grace")
		ledger := NewContactLedger(store)

		_, _, err := ledger.AddContact(ctx, ada, "grace")
		require.NoError(t, err)

		adaContacts, err := ledger.List(ctx, ada)
		require.NoError(t, err)
		require.Len(t, adaContacts, 1)
		assert.Equal(t, "grace", adaContacts[0].Name)

		graceContacts, err := ledger.List(ctx, grace)
		require.NoError(t, err)
		assert.Empty(t, graceContacts)
	})

	t.Run("silently drops ids deleted from the directory", func(t *testing.T) {
		store := newTestDirectory(t)
		ada := initSession(t, store, "ada")
		grace := initSession(t, store, "grace")
		ledger := NewContactLedger(store)

		_, _, err := ledger.AddContact(ctx, ada, "grace")
		require.NoError(t, err)

		graceID, err := grace.UserID()
		require.NoError(t, err)
		removed, err := store.Delete(ctx, graceID)
		require.NoError(t, err)
		require.True(t, removed)

		contacts, err := ledger.List(ctx, ada)
		require.NoError(t, err)
		assert.Empty(t, contacts)
	})
}

func TestFindByName(t *testing.T) {
	ctx := context.Background()

	t.Run("finds an added contact", func(t *testing.T) {
		store := newTestDirectory(t)
		ada := initSession(t, store, "ada")
		initSession(t, store, "grace")
		ledger := NewContactLedger(store)

		_, _, err := ledger.AddContact(ctx, ada, "grace")
		require.NoError(t, err)

		contact, err := ledger.FindByName(ctx, ada, "grace")
		require.NoError(t, err)
		assert.Equal(t, "grace", contact.Name)
	})

	t.Run("fails with NotContact whether or not the user exists", func(t *testing.T) {
		store := newTestDirectory(t)
		ada := initSession(t, store, "ada")
		initSession(t, store, "grace") // exists, never added
		ledger := NewContactLedger(store)

		_, err := ledger.FindByName(ctx, ada, "grace")
		assert.ErrorIs(t, err, contracts.ErrNotContact)

		_, err = ledger.FindByName(ctx, ada, "nobody")
		assert.ErrorIs(t, err, contracts.ErrNotContact)
	})
}
