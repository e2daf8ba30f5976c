package auth

import "time"

// Account lockout policy applied on repeated login failures.
const (
	MaxFailedLogins = 5
	LockDuration    = 2 * time.Hour
)

// Lifetimes of the one-time tokens emailed to users.
const (
	VerificationTokenTTL  = 24 * time.Hour
	PasswordResetTokenTTL = 1 * time.Hour
)

// User is the credential view of an account used during authentication.
type User struct {
	ID                  int64
	Email               string
	Name                string
	PasswordHash        string
	Role                string
	Plan                string
	EmailVerified       bool
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	CreatedAt           time.Time
}

// Locked reports whether the account is currently locked out.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// TokenPair carries the credentials issued on a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}
