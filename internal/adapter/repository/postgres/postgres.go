// Package postgres stores URL and metadata records in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	uniqueViolationErrCode          = "23505"
	foreignKeyViolationErrCode      = "23503"
	characterNotInRepertoireErrCode = "22021"

	connectionExceptionClass = "08"
	operatorInterventionCode = "57P"

	defaultQueryTimeout = 3 * time.Second
)

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isUniqueViolationError(err error) bool {
	return isPgError(err, uniqueViolationErrCode)
}

func isForeignKeyViolationError(err error) bool {
	return isPgError(err, foreignKeyViolationErrCode)
}

// isUnencodableKeyError reports whether the key could not be converted to the
// database encoding, so no row can match it.
func isUnencodableKeyError(err error) bool {
	return isPgError(err, characterNotInRepertoireErrCode)
}

// isUnavailableError reports whether err means the store could not be reached
// or did not answer in time, as opposed to rejecting the statement.
func isUnavailableError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		pgconn.Timeout(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, connectionExceptionClass) ||
			strings.HasPrefix(pgErr.Code, operatorInterventionCode)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func storeError(op, msg string, err error) error {
	if isUnavailableError(err) {
		return fmt.Errorf("%s: %s: %w: %w", op, msg, entity.ErrStoreUnavailable, err)
	}

	diagnostic := msg

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Message != "" {
		diagnostic = pgErr.Message
	}

	return fmt.Errorf("%s: %s: %w", op, msg, &entity.StoreError{Diagnostic: diagnostic, Err: err})
}

type repository struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

type Option func(*repository)

// WithQueryTimeout bounds every statement issued by the repository.
func WithQueryTimeout(d time.Duration) Option {
	return func(r *repository) {
		if d > 0 {
			r.queryTimeout = d
		}
	}
}

func newRepository(db *sqlx.DB, opts ...Option) repository {
	r := repository{
		db:           db,
		queryTimeout: defaultQueryTimeout,
	}

	for _, opt := range opts {
		opt(&r)
	}

	return r
}

func (r *repository) readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.queryTimeout)
}

// writeContext detaches ctx from its caller so that a started write is not
// torn down halfway by a client disconnect.
func (r *repository) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.queryTimeout)
}
