// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/NUbem000/NubemERP/internal/shared"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(shared.ErrNotFound))
	case errors.Is(err, ErrDuplicate), errors.Is(err, shared.ErrDuplicateEmail):
		Problem(w, http.StatusConflict, "Duplicate", shared.UserSafeMessage(err))
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden), errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", shared.UserSafeMessage(shared.ErrForbidden))
	case errors.Is(err, ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrAccountLocked):
		Problem(w, http.StatusLocked, "Account Locked", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrEmailNotVerified):
		Problem(w, http.StatusUnauthorized, "Email Not Verified", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrTokenExpired):
		Problem(w, http.StatusBadRequest, "Token Expired", shared.UserSafeMessage(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
