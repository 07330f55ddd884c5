package repository

import (
	"context"
	"errors"
	"proyecto_reservas/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminUserRepository stores operators allowed to use the admin API, in
// addition to the one configured through ADMIN_USERNAME.
type AdminUserRepository struct {
	db *pgxpool.Pool
}

func NewAdminUserRepository(db *pgxpool.Pool) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

// Save inserts the user or replaces its hash and role.
func (r *AdminUserRepository) Save(ctx context.Context, user entities.AdminUser) error {
	if user.Role == "" {
		user.Role = "admin"
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO admin_users (username, password_hash, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role`,
		user.Username, user.PasswordHash, user.Role)
	return err
}

// GetByUsername returns nil, nil when the user does not exist.
func (r *AdminUserRepository) GetByUsername(ctx context.Context, username string) (*entities.AdminUser, error) {
	var user entities.AdminUser
	err := r.db.QueryRow(ctx,
		"SELECT username, password_hash, role FROM admin_users WHERE username = $1",
		username).Scan(&user.Username, &user.PasswordHash, &user.Role)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *AdminUserRepository) List(ctx context.Context) ([]entities.AdminUser, error) {
	rows, err := r.db.Query(ctx, "SELECT username, password_hash, role FROM admin_users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []entities.AdminUser
	for rows.Next() {
		var u entities.AdminUser
		if err := rows.Scan(&u.Username, &u.PasswordHash, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
