package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/NUbem000/NubemERP/internal/shared"
)

// Notifier enqueues the transactional emails the auth flows produce.
type Notifier interface {
	VerificationEmail(ctx context.Context, email, name, token string)
	PasswordResetEmail(ctx context.Context, email, name, token string)
	PasswordChangedEmail(ctx context.Context, email, name string)
	WelcomeEmail(ctx context.Context, email, name string)
}

// Service wraps authentication business rules.
type Service struct {
	repo       Repository
	tokens     *TokenManager
	store      *TokenStore
	notifier   Notifier
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService constructs a new Service. notifier may be nil.
func NewService(repo Repository, tokens *TokenManager, store *TokenStore, notifier Notifier, refreshTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		store:      store,
		notifier:   notifier,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// RegisterInput carries the new-account fields.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register creates a new account on the free plan and emails a
// verification link. The email address stays unverified until the
// token is redeemed.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := &User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hash),
		Role:         "user",
		Plan:         "free",
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.store.IssueVerification(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.VerificationEmail(ctx, user.Email, user.Name, token)
	}
	return user, nil
}

// Login validates credentials and issues a token pair. Accounts lock
// for LockDuration after MaxFailedLogins consecutive failures; a
// successful login clears the counter.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	now := s.now()

	if user.Locked(now) {
		return nil, nil, shared.ErrAccountLocked
	}
	if !user.IsActive {
		return nil, nil, shared.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		attempts := user.FailedLoginAttempts + 1
		var lockedUntil *time.Time
		if attempts >= MaxFailedLogins {
			until := now.Add(LockDuration)
			lockedUntil = &until
		}
		if err := s.repo.RecordFailedLogin(ctx, user.ID, attempts, lockedUntil); err != nil {
			return nil, nil, err
		}
		if lockedUntil != nil {
			return nil, nil, shared.ErrAccountLocked
		}
		return nil, nil, shared.ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, nil, shared.ErrEmailNotVerified
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		if err := s.repo.ResetFailedLogins(ctx, user.ID); err != nil {
			return nil, nil, err
		}
	}
	if err := s.repo.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(ctx, user, now)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh rotates a refresh token: the presented token is consumed and
// a fresh pair is issued. A reused or expired token fails.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.store.ConsumeRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	return s.issuePair(ctx, user, s.now())
}

// Logout revokes the presented refresh token. Access tokens simply
// expire.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.store.RevokeRefresh(ctx, refreshToken)
}

// VerifyEmail redeems a verification token and sends the welcome email.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.store.ConsumeVerification(ctx, token)
	if err != nil {
		return err
	}
	if err := s.repo.MarkEmailVerified(ctx, userID); err != nil {
		return err
	}
	if s.notifier != nil {
		if user, err := s.repo.FindByID(ctx, userID); err == nil {
			s.notifier.WelcomeEmail(ctx, user.Email, user.Name)
		}
	}
	return nil
}

// ResendVerification emails a fresh verification link. Like
// ForgotPassword it never reveals whether the address is registered,
// and it stays silent for already-verified accounts.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}
	token, err := s.store.IssueVerification(ctx, user.ID)
	if err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.VerificationEmail(ctx, user.Email, user.Name, token)
	}
	return nil
}

// ForgotPassword emails a reset link when the address exists. It never
// reveals whether the address is registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	token, err := s.store.IssueReset(ctx, user.ID)
	if err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.PasswordResetEmail(ctx, user.Email, user.Name, token)
	}
	return nil
}

// ResetPassword redeems a reset token and replaces the password. The
// failure counter and any lockout are cleared with it, and the account
// owner is notified of the change.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.store.ConsumeReset(ctx, token)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}
	if s.notifier != nil {
		if user, err := s.repo.FindByID(ctx, userID); err == nil {
			s.notifier.PasswordChangedEmail(ctx, user.Email, user.Name)
		}
	}
	return nil
}

func (s *Service) issuePair(ctx context.Context, user *User, now time.Time) (*TokenPair, error) {
	access, err := s.tokens.Sign(user, now)
	if err != nil {
		return nil, err
	}
	refresh, err := s.store.IssueRefresh(ctx, user.ID, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		TokenType:    "Bearer",
	}, nil
}
