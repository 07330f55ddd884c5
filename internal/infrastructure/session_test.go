package infrastructure

import (
	"context"
	"proyecto_reservas/internal/entities"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore_GetPutDelete(t *testing.T) {
	store := NewMemorySessionStore(0)
	defer store.Close()
	ctx := context.Background()
	key := entities.SessionKey{TenantID: "bistro", ConversationID: "42"}

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	session := entities.NewSession(entities.StageAskTime)
	session.Fields[entities.FieldDate] = "2026-01-10"
	require.NoError(t, store.Put(ctx, key, session))

	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entities.StageAskTime, got.Stage)
	assert.Equal(t, "2026-01-10", got.Fields[entities.FieldDate])

	require.NoError(t, store.Delete(ctx, key))
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(ctx, key))
}

func TestMemorySessionStore_ReturnsCopies(t *testing.T) {
	store := NewMemorySessionStore(0)
	defer store.Close()
	ctx := context.Background()
	key := entities.SessionKey{TenantID: "bistro", ConversationID: "42"}

	session := entities.NewSession(entities.StageAskName)
	require.NoError(t, store.Put(ctx, key, session))
	session.Fields[entities.FieldName] = "mutated after put"

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	got.Fields[entities.FieldName] = "mutated after get"

	again, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, again.Fields[entities.FieldName])
}

func TestMemorySessionStore_KeysAreTenantScoped(t *testing.T) {
	store := NewMemorySessionStore(0)
	defer store.Close()
	ctx := context.Background()

	a := entities.SessionKey{TenantID: "bistro", ConversationID: "42"}
	b := entities.SessionKey{TenantID: "trattoria", ConversationID: "42"}

	require.NoError(t, store.Put(ctx, a, entities.NewSession(entities.StageConfirm)))

	got, err := store.Get(ctx, b)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	fresh := entities.SessionKey{TenantID: "bistro", ConversationID: "1"}
	stale := entities.SessionKey{TenantID: "bistro", ConversationID: "2"}
	require.NoError(t, store.Put(ctx, stale, entities.NewSession(entities.StageAskDate)))

	now = now.Add(50 * time.Minute)
	require.NoError(t, store.Put(ctx, fresh, entities.NewSession(entities.StageAskDate)))

	now = now.Add(20 * time.Minute)
	got, err := store.Get(ctx, stale)
	require.NoError(t, err)
	assert.Nil(t, got, "stale session must read as absent")

	got, err = store.Get(ctx, fresh)
	require.NoError(t, err)
	assert.NotNil(t, got)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())
}
