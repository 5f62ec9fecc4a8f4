package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type metadataDB struct {
	ID        string    `db:"id"`
	URL       string    `db:"url"`
	Hits      int64     `db:"hits"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (m *metadataDB) toEntity() *entity.Metadata {
	return &entity.Metadata{
		ShortCode:   m.ID,
		OriginalURL: m.URL,
		Hits:        m.Hits,
		UpdatedAt:   m.UpdatedAt,
	}
}

type MetadataRepository struct {
	repository
}

func NewMetadataRepository(db *sqlx.DB, opts ...Option) *MetadataRepository {
	return &MetadataRepository{repository: newRepository(db, opts...)}
}

// IncrementHits adds one hit for shortCode, creating the metadata record with
// a single hit if it does not exist yet. Concurrent calls never lose an
// increment and never produce a second row.
func (r *MetadataRepository) IncrementHits(ctx context.Context, shortCode, originalURL string) (*entity.Metadata, error) {
	const op = "adapter.repository.postgres.MetadataRepository.IncrementHits"
	const query = `
		INSERT INTO metadata(id, url, hits) VALUES ($1, $2, 1)
		ON CONFLICT (id) DO UPDATE SET hits = metadata.hits + 1, updated_at = now()
		RETURNING id, url, hits, updated_at`

	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	var meta metadataDB

	if err := r.db.GetContext(ctx, &meta, query, shortCode, originalURL); err != nil {
		if isForeignKeyViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, storeError(op, "failed to upsert metadata table row", err)
	}

	return meta.toEntity(), nil
}

func (r *MetadataRepository) RetrieveMetadata(ctx context.Context, shortCode string) (*entity.Metadata, error) {
	const op = "adapter.repository.postgres.MetadataRepository.RetrieveMetadata"
	const query = `SELECT id, url, hits, updated_at FROM metadata WHERE id = $1`

	ctx, cancel := r.readContext(ctx)
	defer cancel()

	var meta metadataDB

	if err := r.db.GetContext(ctx, &meta, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUnencodableKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, storeError(op, "failed to get row from metadata table", err)
	}

	return meta.toEntity(), nil
}
