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

type urlDB struct {
	ID        string    `db:"id"`
	URL       string    `db:"url"`
	CreatedAt time.Time `db:"created_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ShortCode:   u.ID,
		OriginalURL: u.URL,
		CreatedAt:   u.CreatedAt,
	}
}

type URLRepository struct {
	repository
}

func NewURLRepository(db *sqlx.DB, opts ...Option) *URLRepository {
	return &URLRepository{repository: newRepository(db, opts...)}
}

// Save inserts the URL record and its zero-hit metadata record in one
// transaction.
func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const (
		insertURL      = `INSERT INTO urls(id, url) VALUES ($1, $2) RETURNING id, url, created_at`
		insertMetadata = `INSERT INTO metadata(id, url, hits) VALUES ($1, $2, 0)`
	)

	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError(op, "failed to begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var url urlDB

	if err := tx.GetContext(ctx, &url, insertURL, shortCode, originalURL); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, storeError(op, "failed to insert into urls table", err)
	}

	if _, err := tx.ExecContext(ctx, insertMetadata, url.ID, url.URL); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, storeError(op, "failed to insert into metadata table", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(op, "failed to commit transaction", err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByShortCode"
	const query = `SELECT id, url, created_at FROM urls WHERE id = $1`

	ctx, cancel := r.readContext(ctx)
	defer cancel()

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUnencodableKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, storeError(op, "failed to get row from urls table", err)
	}

	return url.toEntity(), nil
}
