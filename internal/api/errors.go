package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/service"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/phrazzld/scry-study/internal/session"
	"github.com/phrazzld/scry-study/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrDeckNotOwned):
		return http.StatusForbidden

	case errors.Is(err, store.ErrDeckNotFound),
		errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, session.ErrReviewInFlight),
		errors.Is(err, session.ErrInvalidState),
		errors.Is(err, session.ErrSessionComplete),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrCardContentInvalid),
		errors.Is(err, domain.ErrCardContentEmpty),
		errors.Is(err, domain.ErrEmptyDeckName),
		errors.Is(err, srs.ErrInvalidDays),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, session.ErrPersistence):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err that leaks no
// internal detail.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var ve *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "User ID not found or invalid"

	case errors.Is(err, service.ErrDeckNotOwned):
		return "You do not own this deck"

	case errors.Is(err, store.ErrDeckNotFound):
		return "Deck not found"
	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, service.ErrSessionNotFound):
		return "Study session not found"

	case errors.Is(err, session.ErrReviewInFlight):
		return "A review for this session is already being recorded"
	case errors.Is(err, session.ErrSessionComplete):
		return "Study session is complete"
	case errors.Is(err, session.ErrInvalidState):
		return "Study session is not in a state that allows this operation"
	case errors.Is(err, session.ErrPersistence):
		return "Review could not be saved, please retry"

	case errors.Is(err, domain.ErrInvalidRating):
		return "Invalid rating"
	case errors.Is(err, srs.ErrInvalidDays):
		return "Days must be at least 1"
	case errors.Is(err, domain.ErrCardContentInvalid), errors.Is(err, domain.ErrCardContentEmpty):
		return "Invalid card content"
	case errors.Is(err, domain.ErrEmptyDeckName):
		return "Deck name is required"
	case errors.As(err, &ve):
		return fmt.Sprintf("Invalid %s", ve.Field)
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. A non-empty
// fallbackMessage replaces the generic message of 500 responses.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMessage != "" {
		message = fallbackMessage
	}

	var opts []shared.ResponseOption
	if status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError turns validator errors into a short message naming
// the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte":
		return "too small"
	case "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
