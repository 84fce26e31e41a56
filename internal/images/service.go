// Package images manages uploaded dashboard images: metadata rows in
// Postgres, payloads in blob storage, and the preview decision the viewer
// uses to pick between inline rendering and a download fallback.
package images

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/billing-dashboard/internal/config"
	"github.com/opsboard/billing-dashboard/internal/storage/blob"
)

var (
	ErrNotFound = errors.New("image not found")
	ErrTooLarge = errors.New("image exceeds maximum size")
)

// Record is the stored metadata for one image. Previewable is derived from
// the declared content type and filename, never persisted.
type Record struct {
	ID             uuid.UUID  `json:"id"`
	Filename       string     `json:"filename"`
	ContentType    *string    `json:"content_type,omitempty"`
	Bytes          int64      `json:"bytes"`
	Checksum       string     `json:"checksum,omitempty"`
	StorageBackend string     `json:"storage_backend"`
	StorageKey     string     `json:"-"`
	Encrypted      bool       `json:"encrypted"`
	Previewable    bool       `json:"previewable"`
	ExpiresAt      time.Time  `json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// MetaStore persists image metadata rows.
type MetaStore interface {
	Insert(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id uuid.UUID) (Record, error)
	List(ctx context.Context, params ListParams) ([]Record, error)
	MarkDeleted(ctx context.Context, id uuid.UUID, when time.Time) error
	ListExpired(ctx context.Context, cutoff time.Time, limit int32) ([]Record, error)
}

// ListParams is the cursor the store paginates by: newest first, then id.
type ListParams struct {
	Limit          int32
	AfterCreatedAt *time.Time
	AfterID        *uuid.UUID
}

// Service coordinates image metadata + blob storage.
type Service struct {
	meta  MetaStore
	store blob.Store
	cfg   *config.ImagesConfig
	now   func() time.Time
}

func NewService(meta MetaStore, store blob.Store, cfg *config.ImagesConfig) *Service {
	return &Service{meta: meta, store: store, cfg: cfg, now: time.Now}
}

type UploadParams struct {
	Filename    string
	ContentType *string
	ContentLen  int64
	TTL         time.Duration
	Reader      io.Reader
}

type ListOptions struct {
	Limit   int32
	AfterID *uuid.UUID
}

type ListResult struct {
	Images  []Record
	HasMore bool
	FirstID *uuid.UUID
	LastID  *uuid.UUID
}

const defaultListLimit = 50

// Upload stores the payload and records metadata. The blob write happens
// first; a failed metadata insert rolls the blob back.
func (s *Service) Upload(ctx context.Context, params UploadParams) (Record, error) {
	if strings.TrimSpace(params.Filename) == "" {
		return Record{}, fmt.Errorf("filename required")
	}
	maxBytes := int64(s.cfg.MaxSizeMB) * 1024 * 1024
	if params.ContentLen > 0 && params.ContentLen > maxBytes {
		return Record{}, fmt.Errorf("%w: limit %d MB", ErrTooLarge, s.cfg.MaxSizeMB)
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}
	if ttl > s.cfg.MaxTTL {
		ttl = s.cfg.MaxTTL
	}

	contentType := ""
	if params.ContentType != nil {
		contentType = *params.ContentType
	}

	hash := sha256.New()
	reader := io.TeeReader(params.Reader, hash)
	id := uuid.New()
	key := fmt.Sprintf("images/%s", id.String())
	info, err := s.store.Put(ctx, key, reader, blob.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"filename": params.Filename,
		},
	})
	if err != nil {
		return Record{}, err
	}

	bytesStored := params.ContentLen
	if bytesStored <= 0 {
		bytesStored = info.Size
	}
	now := s.now()
	rec := Record{
		ID:             id,
		Filename:       params.Filename,
		ContentType:    params.ContentType,
		Bytes:          bytesStored,
		Checksum:       hex.EncodeToString(hash.Sum(nil)),
		StorageBackend: strings.TrimSpace(s.cfg.Storage),
		StorageKey:     key,
		Encrypted:      info.Encrypted,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
	}
	if err := s.meta.Insert(ctx, rec); err != nil {
		_ = s.store.Delete(ctx, key)
		return Record{}, err
	}
	rec.Previewable = IsPreviewable(rec.ContentType, rec.Filename)
	return rec, nil
}

// Get returns metadata for a live image.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	rec, err := s.meta.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.DeletedAt != nil {
		return Record{}, ErrNotFound
	}
	rec.Previewable = IsPreviewable(rec.ContentType, rec.Filename)
	return rec, nil
}

// Open returns the payload stream plus metadata.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, Record{}, err
	}
	reader, _, err := s.store.Get(ctx, rec.StorageKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, Record{}, ErrNotFound
		}
		return nil, Record{}, err
	}
	return reader, rec, nil
}

// List pages through live images, newest first. Limit+1 rows are requested
// to detect whether more pages remain.
func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	params := ListParams{Limit: limit + 1}
	if opts.AfterID != nil {
		cursor, err := s.meta.GetByID(ctx, *opts.AfterID)
		if err != nil {
			return ListResult{}, err
		}
		created := cursor.CreatedAt
		params.AfterCreatedAt = &created
		params.AfterID = opts.AfterID
	}

	rows, err := s.meta.List(ctx, params)
	if err != nil {
		return ListResult{}, err
	}

	result := ListResult{}
	if int32(len(rows)) > limit {
		result.HasMore = true
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Previewable = IsPreviewable(rows[i].ContentType, rows[i].Filename)
	}
	result.Images = rows
	if len(rows) > 0 {
		first := rows[0].ID
		last := rows[len(rows)-1].ID
		result.FirstID = &first
		result.LastID = &last
	}
	return result, nil
}

// Delete removes the payload and tombstones the metadata row.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, rec.StorageKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
		return err
	}
	return s.meta.MarkDeleted(ctx, id, s.now())
}

// SweepExpired deletes payloads whose TTL has lapsed. Blob delete failures
// leave the row live so the next sweep retries.
func (s *Service) SweepExpired(ctx context.Context, batchSize int32) error {
	if batchSize <= 0 {
		batchSize = 200
	}
	expired, err := s.meta.ListExpired(ctx, s.now(), batchSize)
	if err != nil {
		return err
	}
	var firstErr error
	for _, rec := range expired {
		if err := s.store.Delete(ctx, rec.StorageKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := s.meta.MarkDeleted(ctx, rec.ID, s.now()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
