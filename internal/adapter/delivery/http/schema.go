package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const statusError = "error"

// shortenRequest represents the JSON form of a request to shorten a URL.
// Syntax checks beyond presence are left to the use case so that both request
// forms report the same diagnostics.
type shortenRequest struct {
	URL string `json:"url" validate:"required"`
}

// shortenResponse represents the JSON form of a created short link.
type shortenResponse struct {
	URL string `json:"url"`
}

type metadataResponse struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Hits int64  `json:"hits"`
}

func toMetadataResponse(meta *entity.Metadata) metadataResponse {
	return metadataResponse{
		ID:   meta.ShortCode,
		URL:  meta.OriginalURL,
		Hits: meta.Hits,
	}
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	requestBodyTooLargeResponse = errorResponse{
		Status:  statusError,
		Message: "request body too large",
	}
)

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	default:
		return "invalid value"
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}
