package config

import (
	"context"
	"fmt"
	"os"
	"proyecto_reservas/internal/entities"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Per-tenant variables. Each is read as <KEY>_<TENANT> first, then <KEY>.
const (
	KeyBotToken       = "TELEGRAM_BOT_TOKEN"
	KeyWebhookSecret  = "TELEGRAM_WEBHOOK_SECRET"
	KeyMenuDocument   = "MENU_DOCUMENT"
	KeyFAQText        = "FAQ_TEXT"
	KeyAdminChatID    = "ADMIN_CHAT_ID"
	KeyMenuStyle      = "MENU_STYLE"
	KeyBotUsername    = "BOT_USERNAME"
	KeyRestaurantName = "RESTAURANT_NAME"
)

// TenantSource supplies tenants from a database.
type TenantSource interface {
	ListActive(ctx context.Context) ([]entities.TenantConfig, error)
}

type tenantsFile struct {
	Tenants []entities.TenantConfig `yaml:"tenants"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the variable's value, or "" when unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// envSuffix turns a tenant id into its variable suffix: "la-terraza" -> "LA_TERRAZA".
func envSuffix(tenantID string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(tenantID))
}

// TenantFromEnv builds one tenant from the naming convention.
func TenantFromEnv(tenantID string, lookup func(string) (string, bool)) entities.TenantConfig {
	suffix := envSuffix(tenantID)
	get := func(key string) string {
		if v, ok := lookup(key + "_" + suffix); ok && strings.TrimSpace(v) != "" {
			return v
		}
		if v, ok := lookup(key); ok {
			return v
		}
		return ""
	}
	return entities.TenantConfig{
		ID:            tenantID,
		DisplayName:   get(KeyRestaurantName),
		Credential:    strings.TrimSpace(get(KeyBotToken)),
		WebhookSecret: strings.TrimSpace(get(KeyWebhookSecret)),
		BotUsername:   strings.TrimPrefix(strings.TrimSpace(get(KeyBotUsername)), "@"),
		MenuDocument:  strings.TrimSpace(get(KeyMenuDocument)),
		FAQText:       get(KeyFAQText),
		AdminChatID:   strings.TrimSpace(get(KeyAdminChatID)),
		MenuStyle:     strings.ToLower(strings.TrimSpace(get(KeyMenuStyle))),
	}
}

// LoadTenantsFile reads a YAML tenants file, expanding ${VAR} references.
func LoadTenantsFile(path string) ([]entities.TenantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tenants file: %w", err)
	}
	var file tenantsFile
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &file); err != nil {
		return nil, fmt.Errorf("parsing tenants file: %w", err)
	}
	for i, t := range file.Tenants {
		if strings.TrimSpace(t.ID) == "" {
			return nil, fmt.Errorf("tenants file entry %d has no id", i)
		}
	}
	return file.Tenants, nil
}

// MergeTenants combines sources in order; for a tenant present in several
// sources, later non-empty values win. Order of first appearance is kept.
func MergeTenants(sources ...[]entities.TenantConfig) []entities.TenantConfig {
	index := make(map[string]int)
	var out []entities.TenantConfig
	for _, source := range sources {
		for _, t := range source {
			id := strings.TrimSpace(t.ID)
			if id == "" {
				continue
			}
			t.ID = id
			if i, ok := index[id]; ok {
				out[i] = out[i].Merge(t)
				continue
			}
			index[id] = len(out)
			out = append(out, t)
		}
	}
	return out
}

// LoadTenants resolves every tenant: environment convention, then the YAML
// file, then the database. db may be nil.
func LoadTenants(ctx context.Context, cfg *Config, db TenantSource) ([]entities.TenantConfig, error) {
	var fromEnv []entities.TenantConfig
	for _, id := range cfg.TenantIDs() {
		fromEnv = append(fromEnv, TenantFromEnv(id, os.LookupEnv))
	}

	var fromFile []entities.TenantConfig
	if cfg.TenantsFile != "" {
		loaded, err := LoadTenantsFile(cfg.TenantsFile)
		if err != nil {
			return nil, err
		}
		fromFile = loaded
	}

	var fromDB []entities.TenantConfig
	if db != nil {
		loaded, err := db.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading tenants from database: %w", err)
		}
		fromDB = loaded
	}

	return MergeTenants(fromEnv, fromFile, fromDB), nil
}
