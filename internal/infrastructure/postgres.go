package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, connString string, logger *logrus.Logger) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	if err := client.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	if logger != nil {
		logger.Info("Postgres connected and migrated")
	}
	return client, nil
}

func (p *PostgresClient) Migrate(ctx context.Context) error {
	// Tenants: optional overrides on top of env/YAML configuration.
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tenants (
			id VARCHAR(64) PRIMARY KEY,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			bot_token TEXT NOT NULL DEFAULT '',
			webhook_secret TEXT NOT NULL DEFAULT '',
			bot_username VARCHAR(64) NOT NULL DEFAULT '',
			menu_document TEXT NOT NULL DEFAULT '',
			faq_text TEXT NOT NULL DEFAULT '',
			admin_chat_id VARCHAR(64) NOT NULL DEFAULT '',
			menu_style VARCHAR(16) NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create tenants table: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS reservations (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(64) NOT NULL,
			conversation_id VARCHAR(64) NOT NULL,
			reservation_date VARCHAR(64) NOT NULL,
			reservation_time VARCHAR(64) NOT NULL,
			people INT NOT NULL,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(64) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create reservations table: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_reservations_tenant_created
			ON reservations (tenant_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("create reservations index: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS admin_users (
			username VARCHAR(64) PRIMARY KEY,
			password_hash TEXT NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'admin',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create admin_users table: %w", err)
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
