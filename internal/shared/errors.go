package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail occurs when registering an address already in use.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAccountLocked occurs after too many failed login attempts.
	ErrAccountLocked = errors.New("account locked")
	// ErrEmailNotVerified occurs when an unverified account logs in.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrTokenExpired occurs when a verification or reset token is stale.
	ErrTokenExpired = errors.New("token expired")
	// ErrForbidden indicates the caller lacks the required role or plan.
	ErrForbidden = errors.New("forbidden")
)

// UserSafeMessage returns a message safe to show to end users.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested resource was not found."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrDuplicateEmail):
		return "This email address is already registered."
	case errors.Is(err, ErrAccountLocked):
		return "Account temporarily locked. Try again later."
	case errors.Is(err, ErrEmailNotVerified):
		return "Please verify your email before logging in."
	case errors.Is(err, ErrTokenExpired):
		return "This link has expired. Please request a new one."
	case errors.Is(err, ErrForbidden):
		return "You do not have access to this resource."
	default:
		return "An unexpected error occurred. Please try again."
	}
}
