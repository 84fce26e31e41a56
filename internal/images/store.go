package images

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists image metadata through a pgx pool.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const insertImageSQL = `
INSERT INTO images (id, filename, content_type, bytes, checksum, storage_backend, storage_key, encrypted, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (s *PGStore) Insert(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, insertImageSQL,
		rec.ID, rec.Filename, rec.ContentType, rec.Bytes, rec.Checksum,
		rec.StorageBackend, rec.StorageKey, rec.Encrypted, rec.ExpiresAt, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

const selectImageSQL = `
SELECT id, filename, content_type, bytes, COALESCE(checksum, ''), storage_backend, storage_key, encrypted, expires_at, created_at, deleted_at
FROM images`

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	row := s.pool.QueryRow(ctx, selectImageSQL+" WHERE id = $1", id)
	rec, err := scanImage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get image: %w", err)
	}
	return rec, nil
}

func (s *PGStore) List(ctx context.Context, params ListParams) ([]Record, error) {
	query := selectImageSQL + " WHERE deleted_at IS NULL"
	args := []any{}
	if params.AfterCreatedAt != nil && params.AfterID != nil {
		query += " AND (created_at, id) < ($1, $2)"
		args = append(args, *params.AfterCreatedAt, *params.AfterID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, params.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()
	return collectImages(rows)
}

func (s *PGStore) MarkDeleted(ctx context.Context, id uuid.UUID, when time.Time) error {
	tag, err := s.pool.Exec(ctx, "UPDATE images SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL", id, when)
	if err != nil {
		return fmt.Errorf("mark image deleted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListExpired(ctx context.Context, cutoff time.Time, limit int32) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		selectImageSQL+" WHERE deleted_at IS NULL AND expires_at <= $1 ORDER BY expires_at LIMIT $2",
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired images: %w", err)
	}
	defer rows.Close()
	return collectImages(rows)
}

func collectImages(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return out, nil
}

func scanImage(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.Filename, &rec.ContentType, &rec.Bytes, &rec.Checksum,
		&rec.StorageBackend, &rec.StorageKey, &rec.Encrypted, &rec.ExpiresAt, &rec.CreatedAt, &rec.DeletedAt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}
