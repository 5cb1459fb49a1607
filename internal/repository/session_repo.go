package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSessionNotFound indica que no hay registro persistido (o ya expiro).
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository define el contrato de persistencia para registros de sesion.
// Los registros son opacos para el repositorio: llegan ya sellados.
type SessionRepository interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Put(ctx context.Context, id string, record []byte, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// PgSessionRepository implementa SessionRepository usando pgxpool.
type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

// EnsureSchema crea la tabla de sesiones si no existe.
func (r *PgSessionRepository) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS web_sessions (
			id         TEXT PRIMARY KEY,
			record     BYTEA NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)
	`
	_, err := r.pool.Exec(ctx, query)
	return err
}

func (r *PgSessionRepository) Get(ctx context.Context, id string) ([]byte, error) {
	const query = `
		SELECT record
		FROM web_sessions
		WHERE id = $1 AND expires_at > $2
	`
	var record []byte
	err := r.pool.QueryRow(ctx, query, id, time.Now().UTC()).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return record, err
}

func (r *PgSessionRepository) Put(ctx context.Context, id string, record []byte, ttl time.Duration) error {
	const query = `
		INSERT INTO web_sessions (id, record, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, expires_at = EXCLUDED.expires_at
	`
	_, err := r.pool.Exec(ctx, query, id, record, time.Now().UTC().Add(ttl))
	return err
}

func (r *PgSessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM web_sessions WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// PurgeExpired borra registros vencidos y devuelve cuantos elimino.
func (r *PgSessionRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM web_sessions WHERE expires_at <= $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
