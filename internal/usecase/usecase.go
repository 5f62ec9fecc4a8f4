package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/metrics"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// ShortCodeLength is the length of every generated short code.
	ShortCodeLength = 6

	maxRetries = 5
)

// URLRepository persists URL records. Save must create the URL record together
// with its zero-hit metadata record, or neither.
type URLRepository interface {
	Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
}

type metadataRepository interface {
	RetrieveMetadata(ctx context.Context, shortCode string) (*entity.Metadata, error)
}

type hitRecorder interface {
	Record(ctx context.Context, url *entity.URL)
}

type urlMetrics interface {
	URLShortened()
	ShortenFailed(reason string)
	ShortCodeCollision()
	URLResolved(outcome string)
}

type URLUseCase struct {
	shortCodeLength int
	urlRepo         URLRepository
	metadataRepo    metadataRepository
	hits            hitRecorder
	metrics         urlMetrics
}

func New(
	shortCodeLength int,
	urlRepo URLRepository,
	metadataRepo metadataRepository,
	hits hitRecorder,
	metrics urlMetrics,
) *URLUseCase {
	return &URLUseCase{
		shortCodeLength: shortCodeLength,
		urlRepo:         urlRepo,
		metadataRepo:    metadataRepo,
		hits:            hits,
		metrics:         metrics,
	}
}

// ShortenURL validates rawURL and stores it under a freshly generated short code.
// A short code collision is retried with a new code up to maxRetries times.
func (uc *URLUseCase) ShortenURL(ctx context.Context, rawURL string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	originalURL, err := parseURL(rawURL)
	if err != nil {
		uc.metrics.ShortenFailed(metrics.ReasonInvalidURL)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := 0; i < maxRetries; i++ {
		shortCode, err := gonanoid.New(uc.shortCodeLength)
		if err != nil {
			uc.metrics.ShortenFailed(metrics.ReasonGeneration)
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url, err := uc.urlRepo.Save(ctx, shortCode, originalURL)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				uc.metrics.ShortCodeCollision()
				continue
			}

			if errors.Is(err, entity.ErrStoreUnavailable) {
				uc.metrics.ShortenFailed(metrics.ReasonStoreUnavailable)
				return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
			}

			uc.metrics.ShortenFailed(metrics.ReasonInsertFailed)
			return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrInsertFailed, err)
		}

		uc.metrics.URLShortened()
		return url, nil
	}

	uc.metrics.ShortenFailed(metrics.ReasonInsertFailed)
	return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrInsertFailed, entity.ErrMaxRetriesExceeded)
}

// ResolveShortCode returns the URL stored under shortCode and records the hit
// in the background. A failed hit write never fails the resolution.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	if !isStorableShortCode(shortCode) {
		uc.metrics.URLResolved(metrics.OutcomeNotFound)
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrURLNotFound):
			uc.metrics.URLResolved(metrics.OutcomeNotFound)
		case errors.Is(err, entity.ErrStoreUnavailable):
			uc.metrics.URLResolved(metrics.OutcomeUnavailable)
		default:
			uc.metrics.URLResolved(metrics.OutcomeError)
		}

		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	uc.hits.Record(ctx, url)
	uc.metrics.URLResolved(metrics.OutcomeFound)

	return url, nil
}

func (uc *URLUseCase) GetMetadata(ctx context.Context, shortCode string) (*entity.Metadata, error) {
	const op = "usecase.URLUseCase.GetMetadata"

	if !isStorableShortCode(shortCode) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	meta, err := uc.metadataRepo.RetrieveMetadata(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get metadata: %w", op, err)
	}

	return meta, nil
}

// isStorableShortCode reports whether shortCode can be sent to the store as
// text. No stored code contains invalid UTF-8 or NUL.
func isStorableShortCode(shortCode string) bool {
	return utf8.ValidString(shortCode) && !strings.ContainsRune(shortCode, 0)
}

// parseURL accepts an absolute URL with a scheme and a host and returns its
// canonical string form.
func parseURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", &entity.InvalidURLError{Input: rawURL, Reason: "empty url"}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		reason := err.Error()

		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			reason = urlErr.Err.Error()
		}

		return "", &entity.InvalidURLError{Input: rawURL, Reason: reason}
	}

	if !u.IsAbs() {
		return "", &entity.InvalidURLError{Input: rawURL, Reason: "relative URL without a base"}
	}

	if u.Host == "" || u.Hostname() == "" {
		return "", &entity.InvalidURLError{Input: rawURL, Reason: "empty host"}
	}

	return u.String(), nil
}
