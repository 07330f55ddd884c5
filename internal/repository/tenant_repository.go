package repository

import (
	"context"
	"errors"
	"fmt"
	"proyecto_reservas/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantRepository reads tenant overrides stored in Postgres.
type TenantRepository struct {
	db *pgxpool.Pool
}

func NewTenantRepository(db *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{db: db}
}

const tenantColumns = `id, display_name, bot_token, webhook_secret, bot_username,
	menu_document, faq_text, admin_chat_id, menu_style`

func scanTenant(row pgx.Row) (entities.TenantConfig, error) {
	var t entities.TenantConfig
	err := row.Scan(&t.ID, &t.DisplayName, &t.Credential, &t.WebhookSecret, &t.BotUsername,
		&t.MenuDocument, &t.FAQText, &t.AdminChatID, &t.MenuStyle)
	return t, err
}

// ListActive returns every active tenant ordered by id.
func (r *TenantRepository) ListActive(ctx context.Context) ([]entities.TenantConfig, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer rows.Close()

	var tenants []entities.TenantConfig
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// Get returns one tenant, or ErrTenantNotFound.
func (r *TenantRepository) Get(ctx context.Context, id string) (entities.TenantConfig, error) {
	t, err := scanTenant(r.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.TenantConfig{}, fmt.Errorf("tenant %q: %w", id, entities.ErrTenantNotFound)
	}
	if err != nil {
		return entities.TenantConfig{}, fmt.Errorf("query tenant: %w", err)
	}
	return t, nil
}

// Upsert inserts or replaces a tenant row and marks it active.
func (r *TenantRepository) Upsert(ctx context.Context, t entities.TenantConfig) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tenants (`+tenantColumns+`, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, NOW())
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			bot_token = EXCLUDED.bot_token,
			webhook_secret = EXCLUDED.webhook_secret,
			bot_username = EXCLUDED.bot_username,
			menu_document = EXCLUDED.menu_document,
			faq_text = EXCLUDED.faq_text,
			admin_chat_id = EXCLUDED.admin_chat_id,
			menu_style = EXCLUDED.menu_style,
			active = TRUE,
			updated_at = NOW()
	`, t.ID, t.DisplayName, t.Credential, t.WebhookSecret, t.BotUsername,
		t.MenuDocument, t.FAQText, t.AdminChatID, t.MenuStyle)
	if err != nil {
		return fmt.Errorf("upsert tenant: %w", err)
	}
	return nil
}

// Deactivate hides a tenant without deleting its history.
func (r *TenantRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE tenants SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenant %q: %w", id, entities.ErrTenantNotFound)
	}
	return nil
}
