package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Port          string   `env:"PORT" envDefault:"8080"`
	BaseURL       string   `env:"BASE_URL"`
	DefaultTenant string   `env:"DEFAULT_TENANT" envDefault:"default"`
	Tenants       []string `env:"TENANTS" envSeparator:","`
	TenantsFile   string   `env:"TENANTS_FILE"`
	DatabaseURL   string   `env:"DATABASE_URL"`

	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"memory"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"data/sessions.db"`
	RedisURL       string        `env:"REDIS_URL"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	DedupeTTL      time.Duration `env:"DEDUPE_TTL" envDefault:"10m"`
	DedupeSize     int           `env:"DEDUPE_SIZE" envDefault:"100000"`

	TelegramAPIEndpoint string        `env:"TELEGRAM_API_ENDPOINT"`
	SendTimeout         time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
	SendRate            float64       `env:"SEND_RATE" envDefault:"25"`
	SendBurst           int           `env:"SEND_BURST" envDefault:"5"`

	JWTSecret         string `env:"JWT_SECRET"`
	AdminUsername     string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`
	GinMode      string `env:"GIN_MODE" envDefault:"release"`
	MaxBodyBytes int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

// LoadEnv loads the env files that exist and returns how many were found.
// Variables already set in the process win over file values.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads .env files, then parses and validates the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("loading env files: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.SessionBackend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (want memory, sqlite or redis)", c.SessionBackend)
	}
	if strings.TrimSpace(c.DefaultTenant) == "" {
		return errors.New("DEFAULT_TENANT must not be empty")
	}
	if c.SessionTTL < 0 || c.DedupeTTL < 0 || c.SendTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if c.DedupeSize < 1 {
		return errors.New("DEDUPE_SIZE must be at least 1")
	}
	if c.AdminPasswordHash != "" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	return nil
}

// TenantIDs returns the default tenant followed by TENANTS, trimmed and
// without duplicates.
func (c *Config) TenantIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, id := range append([]string{c.DefaultTenant}, c.Tenants...) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
