package repository

import (
	"context"
	"fmt"
	"proyecto_reservas/internal/entities"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultReservationLimit = 50

type ReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create stores a confirmed reservation. Re-recording the same id is a no-op.
func (r *ReservationRepository) Create(ctx context.Context, res *entities.Reservation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reservations
			(id, tenant_id, conversation_id, reservation_date, reservation_time, people, name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, res.ID, res.TenantID, res.ConversationID, res.Date, res.Time, res.People, res.Name, res.Phone, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// ListByTenant returns the tenant's most recent reservations, newest first.
func (r *ReservationRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]entities.Reservation, error) {
	if limit <= 0 {
		limit = defaultReservationLimit
	}
	rows, err := r.db.Query(ctx, `
		SELECT id::text, tenant_id, conversation_id, reservation_date, reservation_time, people, name, phone, created_at
		FROM reservations
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	reservations := []entities.Reservation{}
	for rows.Next() {
		var res entities.Reservation
		if err := rows.Scan(&res.ID, &res.TenantID, &res.ConversationID, &res.Date, &res.Time,
			&res.People, &res.Name, &res.Phone, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}
