package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/NUbem000/NubemERP/internal/shared"
)

// AccessClaims are the JWT claims embedded in access tokens.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Plan  string `json:"plan,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies short-lived access tokens.
type TokenManager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewTokenManager builds TokenManager instance.
func NewTokenManager(secret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL}
}

// AccessTTL returns the configured access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// Sign issues a signed access token for the user.
func (m *TokenManager) Sign(user *User, now time.Time) (string, error) {
	claims := AccessClaims{
		Email: user.Email,
		Role:  user.Role,
		Plan:  user.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a signed access token and returns the authenticated
// identity, or shared.ErrInvalidCredentials for any invalid token.
func (m *TokenManager) Verify(raw string) (*shared.Identity, error) {
	token, err := jwt.ParseWithClaims(raw, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, shared.ErrInvalidCredentials
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return nil, shared.ErrInvalidCredentials
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return &shared.Identity{UserID: userID, Email: claims.Email, Role: claims.Role}, nil
}

// newOpaqueToken returns a random URL-safe token.
func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// TokenStore keeps opaque single-use tokens in redis: refresh tokens
// plus the email verification and password reset tokens.
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore builds TokenStore instance.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func refreshKey(token string) string { return "auth:refresh:" + token }
func verifyKey(token string) string  { return "auth:verify:" + token }
func resetKey(token string) string   { return "auth:reset:" + token }

// IssueRefresh stores a new refresh token bound to the user.
func (s *TokenStore) IssueRefresh(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	token, err := newOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, refreshKey(token), userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store refresh token: %w", err)
	}
	return token, nil
}

// ConsumeRefresh deletes the refresh token and returns its user. A
// refresh token is single-use; rotation issues a replacement.
func (s *TokenStore) ConsumeRefresh(ctx context.Context, token string) (int64, error) {
	return s.consume(ctx, refreshKey(token))
}

// RevokeRefresh drops a refresh token, e.g. on logout.
func (s *TokenStore) RevokeRefresh(ctx context.Context, token string) error {
	return s.client.Del(ctx, refreshKey(token)).Err()
}

// IssueVerification stores an email verification token.
func (s *TokenStore) IssueVerification(ctx context.Context, userID int64) (string, error) {
	token, err := newOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, verifyKey(token), userID, VerificationTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("auth: store verification token: %w", err)
	}
	return token, nil
}

// ConsumeVerification redeems an email verification token.
func (s *TokenStore) ConsumeVerification(ctx context.Context, token string) (int64, error) {
	return s.consume(ctx, verifyKey(token))
}

// IssueReset stores a password reset token.
func (s *TokenStore) IssueReset(ctx context.Context, userID int64) (string, error) {
	token, err := newOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, resetKey(token), userID, PasswordResetTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("auth: store reset token: %w", err)
	}
	return token, nil
}

// ConsumeReset redeems a password reset token.
func (s *TokenStore) ConsumeReset(ctx context.Context, token string) (int64, error) {
	return s.consume(ctx, resetKey(token))
}

func (s *TokenStore) consume(ctx context.Context, key string) (int64, error) {
	val, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, shared.ErrTokenExpired
	}
	if err != nil {
		return 0, fmt.Errorf("auth: consume token: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, shared.ErrTokenExpired
	}
	return userID, nil
}
