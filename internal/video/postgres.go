package video

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS videos (
		id            UUID PRIMARY KEY,
		title         TEXT NOT NULL,
		raw_file_name TEXT NOT NULL,
		status        TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`

// PostgresStore is the pgx-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore ensures the videos table exists and returns the store.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure videos table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, v *Video) error {
	query := `
		INSERT INTO videos (id, title, raw_file_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query, v.ID, v.Title, v.RawFileName, string(v.Status), v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Video, error) {
	query := `
		SELECT id, title, raw_file_name, status, created_at
		FROM videos WHERE id=$1`

	v := &Video{}
	var status string
	err := s.pool.QueryRow(ctx, query, id).Scan(&v.ID, &v.Title, &v.RawFileName, &status, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find video by id: %w", err)
	}
	v.Status = Status(status)
	return v, nil
}

func (s *PostgresStore) TransitionStatus(ctx context.Context, id uuid.UUID, next Status) (Status, error) {
	sources := TransitionSources(next)
	from := make([]string, 0, len(sources))
	for _, st := range sources {
		from = append(from, string(st))
	}

	// Conditional write keeps the transition atomic under concurrent
	// event pipelines touching the same row.
	query := `UPDATE videos SET status=$2 WHERE id=$1 AND status = ANY($3)`
	if _, err := s.pool.Exec(ctx, query, id, string(next), from); err != nil {
		return "", fmt.Errorf("transition video status: %w", err)
	}

	var current string
	err := s.pool.QueryRow(ctx, `SELECT status FROM videos WHERE id=$1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read video status: %w", err)
	}
	return Status(current), nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]Video, error) {
	query := `
		SELECT id, title, raw_file_name, status, created_at
		FROM videos WHERE status=$1 ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list videos by status: %w", err)
	}
	defer rows.Close()

	var out []Video
	for rows.Next() {
		var v Video
		var st string
		if err := rows.Scan(&v.ID, &v.Title, &v.RawFileName, &st, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video row: %w", err)
		}
		v.Status = Status(st)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM videos WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
