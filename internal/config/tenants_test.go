package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"proyecto_reservas/internal/entities"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestTenantFromEnv_SuffixThenFallback(t *testing.T) {
	env := mapLookup(map[string]string{
		"TELEGRAM_BOT_TOKEN":            "shared-token",
		"TELEGRAM_BOT_TOKEN_LA_TERRAZA": "terraza-token",
		"ADMIN_CHAT_ID":                 "900",
		"MENU_STYLE_LA_TERRAZA":         " Buttons ",
		"BOT_USERNAME_LA_TERRAZA":       "@terraza_bot",
		"RESTAURANT_NAME_LA_TERRAZA":    "La Terraza",
		"FAQ_TEXT_LA_TERRAZA":           "",
		"FAQ_TEXT":                      "Horario: 12 a 23",
	})

	tenant := TenantFromEnv("la-terraza", env)
	assert.Equal(t, "la-terraza", tenant.ID)
	assert.Equal(t, "terraza-token", tenant.Credential)
	assert.Equal(t, "900", tenant.AdminChatID, "falls back to the unsuffixed key")
	assert.True(t, tenant.UsesButtons())
	assert.Equal(t, "terraza_bot", tenant.BotUsername)
	assert.Equal(t, "La Terraza", tenant.DisplayName)
	assert.Equal(t, "Horario: 12 a 23", tenant.FAQText, "empty suffixed value falls back")

	other := TenantFromEnv("bistro", env)
	assert.Equal(t, "shared-token", other.Credential)
	assert.Empty(t, other.MenuDocument)
}

func TestLoadTenantsFile_ExpandsEnv(t *testing.T) {
	t.Setenv("BISTRO_TOKEN", "123:abc")
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tenants:
  - id: bistro
    display_name: Bistró Central
    bot_token: ${BISTRO_TOKEN}
    webhook_secret: ${UNSET_SECRET_FOR_TEST}
    menu_document: https://example.com/carta.pdf
    menu_style: buttons
  - id: trattoria
    admin_chat_id: "-100200300"
`), 0o600))

	tenants, err := LoadTenantsFile(path)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "123:abc", tenants[0].Credential)
	assert.Empty(t, tenants[0].WebhookSecret)
	assert.Equal(t, "Bistró Central", tenants[0].DisplayName)
	assert.Equal(t, "-100200300", tenants[1].AdminChatID)
}

func TestLoadTenantsFile_Errors(t *testing.T) {
	_, err := LoadTenantsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tenants:\n  - display_name: sin id\n"), 0o600))
	_, err = LoadTenantsFile(path)
	assert.ErrorContains(t, err, "no id")
}

func TestMergeTenants_LaterNonEmptyWins(t *testing.T) {
	merged := MergeTenants(
		[]entities.TenantConfig{{ID: "bistro", Credential: "env-token", AdminChatID: "900"}, {ID: "casa"}},
		[]entities.TenantConfig{{ID: "bistro", Credential: "file-token"}, {ID: " nuevo "}},
		[]entities.TenantConfig{{ID: "bistro", MenuStyle: "buttons"}},
	)

	require.Len(t, merged, 3)
	assert.Equal(t, "bistro", merged[0].ID)
	assert.Equal(t, "file-token", merged[0].Credential)
	assert.Equal(t, "900", merged[0].AdminChatID)
	assert.Equal(t, "buttons", merged[0].MenuStyle)
	assert.Equal(t, "nuevo", merged[2].ID)
}

type stubSource struct {
	tenants []entities.TenantConfig
	err     error
}

func (s stubSource) ListActive(context.Context) ([]entities.TenantConfig, error) {
	return s.tenants, s.err
}

func TestLoadTenants_AllSources(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN_BISTRO", "env-token")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tenants:\n  - id: bistro\n    faq_text: desde archivo\n"), 0o600))

	cfg := &Config{DefaultTenant: "bistro", TenantsFile: path}
	db := stubSource{tenants: []entities.TenantConfig{{ID: "bistro", AdminChatID: "900"}, {ID: "solo-db"}}}

	tenants, err := LoadTenants(context.Background(), cfg, db)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "env-token", tenants[0].Credential)
	assert.Equal(t, "desde archivo", tenants[0].FAQText)
	assert.Equal(t, "900", tenants[0].AdminChatID)
	assert.Equal(t, "solo-db", tenants[1].ID)

	_, err = LoadTenants(context.Background(), cfg, stubSource{err: errors.New("db down")})
	assert.ErrorContains(t, err, "db down")
}
