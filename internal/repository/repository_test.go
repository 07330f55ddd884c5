package repository

import (
	"context"
	"os"
	"proyecto_reservas/internal/entities"
	"proyecto_reservas/internal/infrastructure"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostgres(t *testing.T) *infrastructure.PostgresClient {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	client, err := infrastructure.NewPostgresClient(context.Background(), dsn, nil)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestTenantRepository_UpsertGetDeactivate(t *testing.T) {
	db := newTestPostgres(t)
	repo := NewTenantRepository(db.Pool)
	ctx := context.Background()
	id := "test-" + uuid.NewString()[:8]

	require.NoError(t, repo.Upsert(ctx, entities.TenantConfig{
		ID:          id,
		DisplayName: "Bistró Central",
		Credential:  "123:abc",
		AdminChatID: "900",
		MenuStyle:   entities.MenuStyleButtons,
	}))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bistró Central", got.DisplayName)
	assert.Equal(t, "123:abc", got.Credential)
	assert.True(t, got.UsesButtons())

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Contains(t, tenantIDs(active), id)

	require.NoError(t, repo.Deactivate(ctx, id))
	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	assert.NotContains(t, tenantIDs(active), id)

	_, err = repo.Get(ctx, "missing-"+id)
	assert.ErrorIs(t, err, entities.ErrTenantNotFound)
}

func TestReservationRepository_CreateAndList(t *testing.T) {
	db := newTestPostgres(t)
	repo := NewReservationRepository(db.Pool)
	ctx := context.Background()
	tenantID := "test-" + uuid.NewString()[:8]

	base := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"Ana", "Luis"} {
		require.NoError(t, repo.Create(ctx, &entities.Reservation{
			ID:             uuid.NewString(),
			TenantID:       tenantID,
			ConversationID: "42",
			Date:           "2026-01-10",
			Time:           "19:30",
			People:         4,
			Name:           name,
			Phone:          "+56911112222",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := repo.ListByTenant(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Luis", list[0].Name, "newest first")

	list, err = repo.ListByTenant(ctx, tenantID, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAdminUserRepository_SaveAndGet(t *testing.T) {
	db := newTestPostgres(t)
	repo := NewAdminUserRepository(db.Pool)
	ctx := context.Background()
	username := "ops-" + uuid.NewString()[:8]

	missing, err := repo.GetByUsername(ctx, username)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Save(ctx, entities.AdminUser{Username: username, PasswordHash: "h1"}))
	require.NoError(t, repo.Save(ctx, entities.AdminUser{Username: username, PasswordHash: "h2", Role: "viewer"}))

	got, err := repo.GetByUsername(ctx, username)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h2", got.PasswordHash)
	assert.Equal(t, "viewer", got.Role)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	var found bool
	for _, u := range all {
		found = found || u.Username == username
	}
	assert.True(t, found)
}

func tenantIDs(tenants []entities.TenantConfig) []string {
	ids := make([]string, 0, len(tenants))
	for _, t := range tenants {
		ids = append(ids, t.ID)
	}
	return ids
}
