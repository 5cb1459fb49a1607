package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteSessionRepository guarda sesiones en un archivo local; pensado para un solo nodo.
type SQLiteSessionRepository struct {
	db *sql.DB
}

func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

// EnsureSchema crea la tabla de sesiones si no existe.
func (r *SQLiteSessionRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS web_sessions (
			id         TEXT PRIMARY KEY,
			record     BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating web_sessions: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) Get(ctx context.Context, id string) ([]byte, error) {
	var record []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT record FROM web_sessions
		WHERE id = ? AND expires_at > ?`, id, time.Now().UnixNano()).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return record, nil
}

func (r *SQLiteSessionRepository) Put(ctx context.Context, id string, record []byte, ttl time.Duration) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO web_sessions (id, record, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET record = excluded.record, expires_at = excluded.expires_at`,
		id, record, time.Now().Add(ttl).UnixNano())
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM web_sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// PurgeExpired borra registros vencidos y devuelve cuantos elimino.
func (r *SQLiteSessionRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM web_sessions WHERE expires_at <= ?", time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("cleaning up expired sessions: %w", err)
	}
	return res.RowsAffected()
}

var (
	_ SessionRepository = (*PgSessionRepository)(nil)
	_ SessionRepository = (*SQLiteSessionRepository)(nil)
)
