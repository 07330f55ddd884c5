package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"proyecto_reservas/internal/entities"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteSessionStore persists sessions in a local SQLite file so that an
// in-progress reservation survives a restart. Expired rows read as absent.
type SQLiteSessionStore struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	logger *logrus.Entry
}

// NewSQLiteSessionStore opens (or creates) the database at path.
func NewSQLiteSessionStore(path string, ttl time.Duration, logger *logrus.Logger) (*SQLiteSessionStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection serializes writers; the keyed lock already
	// serializes per conversation.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			tenant_id       TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			stage           TEXT NOT NULL,
			fields          TEXT NOT NULL,
			updated_at      INTEGER NOT NULL,
			PRIMARY KEY (tenant_id, conversation_id)
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &SQLiteSessionStore{
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.WithField("component", "session_store"),
	}
	s.logger.WithField("path", path).Info("SQLite session store initialized")
	return s, nil
}

func (s *SQLiteSessionStore) Get(ctx context.Context, key entities.SessionKey) (*entities.Session, error) {
	var (
		stageName string
		fieldsRaw string
		updated   int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT stage, fields, updated_at FROM sessions WHERE tenant_id = ? AND conversation_id = ?`,
		key.TenantID, key.ConversationID,
	).Scan(&stageName, &fieldsRaw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	updatedAt := time.UnixMilli(updated).UTC()
	if s.ttl > 0 && s.now().Sub(updatedAt) > s.ttl {
		return nil, nil
	}

	stage, err := entities.ParseStage(stageName)
	if err != nil {
		// Left to the engine, which resets unreadable flows.
		s.logger.WithError(err).WithField("key", key.String()).Warn("stored session has unknown stage")
	}

	fields := entities.FieldSet{}
	if err := json.Unmarshal([]byte(fieldsRaw), &fields); err != nil {
		return nil, fmt.Errorf("decode session fields: %w", err)
	}
	return &entities.Session{Stage: stage, Fields: fields, UpdatedAt: updatedAt}, nil
}

func (s *SQLiteSessionStore) Put(ctx context.Context, key entities.SessionKey, session *entities.Session) error {
	fields := session.Fields
	if fields == nil {
		fields = entities.FieldSet{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode session fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (tenant_id, conversation_id, stage, fields, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, conversation_id) DO UPDATE SET
			stage = excluded.stage,
			fields = excluded.fields,
			updated_at = excluded.updated_at`,
		key.TenantID, key.ConversationID, session.Stage.String(), string(data), s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) Delete(ctx context.Context, key entities.SessionKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE tenant_id = ? AND conversation_id = ?`,
		key.TenantID, key.ConversationID,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Sweep deletes expired rows and returns how many were removed.
func (s *SQLiteSessionStore) Sweep(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteSessionStore) Close() error {
	return s.db.Close()
}
