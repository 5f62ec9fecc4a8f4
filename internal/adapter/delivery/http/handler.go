package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const maxRequestBodyBytes = 64 << 10

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

func handleSwaggerSpec(spec []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(spec) //nolint:errcheck
	}
}

type urlUseCase interface {
	ShortenURL(ctx context.Context, rawURL string) (*entity.URL, error)
	ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	GetMetadata(ctx context.Context, shortCode string) (*entity.Metadata, error)
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
	baseURL  string
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate, baseURL string) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:  useCase,
		validate: validate,
		baseURL:  baseURL,
	}
}

// shortenURL accepts the URL either as the raw request body or as a JSON
// object and answers in the same representation.
func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	if render.GetRequestContentType(r) == render.ContentTypeJSON {
		h.shortenURLFromJSON(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}

	url, err := h.useCase.ShortenURL(r.Context(), string(body))
	if err != nil {
		status, msg := h.errorResponse(r, err, "")

		render.Status(r, status)
		render.PlainText(w, r, msg)
		return
	}

	render.Status(r, http.StatusCreated)
	render.PlainText(w, r, url.ShortLink(h.baseURL))
}

func (h *urlHandler) shortenURLFromJSON(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, requestBodyTooLargeResponse)
		case errors.Is(err, io.EOF):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
		default:
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, invalidRequestBodyResponse)
		}
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	url, err := h.useCase.ShortenURL(r.Context(), req.URL)
	if err != nil {
		status, msg := h.errorResponse(r, err, "")

		render.Status(r, status)
		render.JSON(w, r, errorResponse{Status: statusError, Message: msg})
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, shortenResponse{URL: url.ShortLink(h.baseURL)})
}

func (h *urlHandler) resolveShortCode(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.ResolveShortCode(r.Context(), shortCode)
	if err != nil {
		status, msg := h.errorResponse(r, err, shortCode)

		render.Status(r, status)
		render.PlainText(w, r, msg)
		return
	}

	http.Redirect(w, r, url.OriginalURL, http.StatusFound)
}

func (h *urlHandler) getMetadata(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	meta, err := h.useCase.GetMetadata(r.Context(), shortCode)
	if err != nil {
		status, msg := h.errorResponse(r, err, shortCode)

		render.Status(r, status)
		render.PlainText(w, r, msg)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toMetadataResponse(meta))
}

// errorResponse maps a use case error to a status code and a client-facing
// message. Server-side failures are attached to the request log entry.
func (h *urlHandler) errorResponse(r *http.Request, err error, shortCode string) (int, string) {
	var urlErr *entity.InvalidURLError

	switch {
	case errors.As(err, &urlErr):
		return http.StatusBadRequest, urlErr.Error()
	case errors.Is(err, entity.ErrURLNotFound):
		return http.StatusNotFound, notFoundMessage(shortCode)
	}

	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

	switch {
	case errors.Is(err, entity.ErrInsertFailed):
		return http.StatusBadRequest, insertFailedMessage(err)
	case errors.Is(err, entity.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store unavailable"
	default:
		return http.StatusInternalServerError, "server error occurred"
	}
}

func notFoundMessage(shortCode string) string {
	return fmt.Sprintf("Entry \"%s\" not found.", shortCode)
}

func insertFailedMessage(err error) string {
	var storeErr *entity.StoreError

	switch {
	case errors.Is(err, entity.ErrMaxRetriesExceeded):
		return fmt.Sprintf("%s: %s", entity.ErrInsertFailed, entity.ErrMaxRetriesExceeded)
	case errors.As(err, &storeErr):
		return fmt.Sprintf("%s: %s", entity.ErrInsertFailed, storeErr.Diagnostic)
	default:
		return entity.ErrInsertFailed.Error()
	}
}

func writeBodyError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		render.Status(r, http.StatusRequestEntityTooLarge)
		render.PlainText(w, r, requestBodyTooLargeResponse.Message)
		return
	}

	render.Status(r, http.StatusBadRequest)
	render.PlainText(w, r, invalidRequestBodyResponse.Message)
}
