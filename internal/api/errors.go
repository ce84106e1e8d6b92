package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/scry-vocab/internal/api/shared"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/importer"
	"github.com/phrazzld/scry-vocab/internal/service/session"
	"github.com/phrazzld/scry-vocab/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing their types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, session.ErrItemMissing):
		return http.StatusGone

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, session.ErrNotStudying),
		errors.Is(err, session.ErrSuperseded),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, importer.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType

	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrInvalidQuality):
		return "Quality must be between 0 and 5"
	case errors.Is(err, domain.ErrValidation):
		return "Invalid request"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid item data"
	case errors.Is(err, session.ErrItemMissing):
		return "The current item no longer exists; the session moved on"
	case errors.Is(err, store.ErrNotFound):
		return "Item not found"
	case errors.Is(err, session.ErrNotStudying):
		return "No study session in progress"
	case errors.Is(err, session.ErrSuperseded):
		return "The request was superseded by a newer one"
	case errors.Is(err, store.ErrDuplicate):
		return "Item already exists"
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return "Unsupported import format"
	case errors.Is(err, store.ErrUnavailable):
		return "Storage is temporarily unavailable"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and safe message for err and logs
// the redacted details. A non-empty message overrides the default text.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError turns validator errors into a short message naming
// the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", jsonFieldName(fe.Field()), validationTagMessage(fe.Tag(), fe.Param()))
}

func jsonFieldName(field string) string {
	switch field {
	case "Quality":
		return "quality"
	case "Accuracy":
		return "accuracy"
	case "ResponseTimeMS":
		return "response_time_ms"
	default:
		return strings.ToLower(field)
	}
}

func validationTagMessage(tag, param string) string {
	switch tag {
	case "required", "required_without", "required_with":
		return "required field"
	case "excluded_with":
		return "cannot be combined with " + strings.ToLower(param)
	case "min", "gte":
		return "must be at least " + param
	case "max", "lte":
		return "must be at most " + param
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
