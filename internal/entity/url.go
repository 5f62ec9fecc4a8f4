// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which maps a short code to the original URL,
// the Metadata struct, which tracks how often a short code was resolved,
// and the error values shared by every layer.
package entity

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidURL is returned when the input cannot be parsed as an absolute URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrShortCodeExists is returned when attempting to create a URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrInsertFailed is returned when the store rejects the records of a new short code.
	ErrInsertFailed = errors.New("insert failed")
	// ErrMaxRetriesExceeded is returned when every generated short code collided with an existing one.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrStoreUnavailable is returned when the backing store cannot be reached in time.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// InvalidURLError carries the parser diagnostic for a rejected URL.
// It matches ErrInvalidURL with errors.Is.
type InvalidURLError struct {
	Input  string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return e.Reason
}

func (e *InvalidURLError) Is(target error) bool {
	return target == ErrInvalidURL
}

// StoreError carries the diagnostic of a store that rejected a statement.
type StoreError struct {
	Diagnostic string
	Err        error
}

func (e *StoreError) Error() string {
	return e.Diagnostic
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// URL represents a shortened URL. It is immutable once stored.
type URL struct {
	ShortCode   string    // ShortCode is the generated identifier used to shorten the original URL.
	OriginalURL string    // OriginalURL is the canonical form of the URL the short code resolves to.
	CreatedAt   time.Time // CreatedAt is the timestamp when the URL was created.
}

// ShortLink joins baseURL and the short code into the link handed to the user.
func (u *URL) ShortLink(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + u.ShortCode
}

// Metadata holds the resolution counter of a short code.
type Metadata struct {
	ShortCode   string    // ShortCode is the identifier of the URL the counter belongs to.
	OriginalURL string    // OriginalURL is a copy of the URL, kept for reading without a join.
	Hits        int64     // Hits is the number of times the short code has been resolved.
	UpdatedAt   time.Time // UpdatedAt is the timestamp of the last counter change.
}
