package records

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trimsdesk/internal/docstore"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
	"trimsdesk/internal/tenancy"
)

var (
	alice = &identity.Identity{Username: "alice", FullName: "Alice A", Role: identity.RoleUser}
	bob   = &identity.Identity{Username: "bob", Role: identity.RoleUser}
	root  = &identity.Identity{Username: "root", Role: identity.RoleAdmin}
)

func newLayer(t *testing.T) (*Layer, *docstore.Memory) {
	t.Helper()
	log, _ := test.NewNullLogger()
	store := docstore.NewMemory()
	l := NewLayer(store, tenancy.NewResolver(log), nil, log)
	l.now = func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) }
	return l, store
}

func TestLayer_CreateStampsOwner(t *testing.T) {
	l, store := newLayer(t)
	ctx := context.Background()

	id, err := l.Create(ctx, module.Bookings, alice, map[string]any{"buyer": "Zara", "createdBy": "mallory"})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "bookings", id)
	require.NoError(t, err)
	assert.Equal(t, "alice", doc.String("createdBy"))
	assert.Equal(t, "Alice A", doc.String("creatorName"))
	assert.Equal(t, "2025-03-04T10:00:00.000Z", doc.String("createdAt"))
}

func TestLayer_PersonalStoreIsNamespaced(t *testing.T) {
	l, store := newLayer(t)
	ctx := context.Background()

	id, err := l.Create(ctx, module.MyTasksStore, alice, map[string]any{"title": "call"})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "users/alice/personal_tasks", id)
	require.NoError(t, err)
	_, hasOwner := doc.Get("createdBy")
	assert.False(t, hasOwner)

	docs, err := l.List(ctx, module.MyTasksStore, bob, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLayer_ListFiltersOwnedStores(t *testing.T) {
	l, store := newLayer(t)
	ctx := context.Background()

	_, err := l.Create(ctx, module.Bookings, alice, map[string]any{"buyer": "Zara"})
	require.NoError(t, err)
	_, err = l.Create(ctx, module.Bookings, bob, map[string]any{"buyer": "H&M"})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "bookings", "legacy", map[string]any{"buyer": "Next"}))

	mine, err := l.List(ctx, module.Bookings, alice, ListOptions{Order: []docstore.Order{docstore.Asc("buyer")}})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Next", mine[0].String("buyer"))
	assert.Equal(t, "Zara", mine[1].String("buyer"))

	all, err := l.List(ctx, module.Bookings, root, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLayer_OwnershipEnforcedOnWrites(t *testing.T) {
	l, _ := newLayer(t)
	ctx := context.Background()

	id, err := l.Create(ctx, module.BuyerNotesStore, alice, map[string]any{"buyerName": "Zara"})
	require.NoError(t, err)

	err = l.Update(ctx, module.BuyerNotesStore, bob, id, map[string]any{"comments": "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	err = l.Delete(ctx, module.BuyerNotesStore, bob, id)
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	_, err = l.Get(ctx, module.BuyerNotesStore, bob, id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, l.Update(ctx, module.BuyerNotesStore, alice, id, map[string]any{"comments": "ok", "createdBy": "bob"}))
	doc, err := l.Get(ctx, module.BuyerNotesStore, alice, id)
	require.NoError(t, err)
	assert.Equal(t, "ok", doc.String("comments"))
	assert.Equal(t, "alice", doc.String("createdBy"))
	assert.NotEmpty(t, doc.String("updatedAt"))

	require.NoError(t, l.Delete(ctx, module.BuyerNotesStore, root, id))
}

func TestLayer_NullableOwnerUpdatableByAnyone(t *testing.T) {
	l, store := newLayer(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "bookings", "legacy", map[string]any{"buyer": "Next"}))

	assert.NoError(t, l.Update(ctx, module.Bookings, bob, "legacy", map[string]any{"remarks": "checked"}))
}

func TestLayer_SubmitBatch(t *testing.T) {
	l, store := newLayer(t)
	ctx := context.Background()

	ids, err := l.SubmitBatch(ctx, module.EmbReports, alice, []map[string]any{
		{"jobNo": "J1", "buyer": "Zara", "wo": "W1"},
		{"jobNo": "J2", "buyer": "Zara", "wo": "W2"},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	docs, err := store.Query(ctx, docstore.Query{Path: "emb job storage"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestLayer_GetMissing(t *testing.T) {
	l, _ := newLayer(t)
	_, err := l.Get(context.Background(), module.Buyers, alice, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLayer_Rewrite(t *testing.T) {
	l, store := newLayer(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "bookings", "a", map[string]any{"buyer": "ZARA"}))
	require.NoError(t, store.Set(ctx, "bookings", "b", map[string]any{"buyer": "ZARA"}))

	require.NoError(t, l.Rewrite(ctx, module.Bookings, root, []string{"a", "b"}, map[string]any{"buyer": "Zara"}))

	docs, err := store.Query(ctx, docstore.Query{Path: "bookings", Filters: []docstore.Filter{docstore.Where("buyer", docstore.Eq, "Zara")}})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
