package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/NUbem000/NubemERP/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context, filter ListFilter) ([]User, int, error)
	UpdateProfile(ctx context.Context, u *User) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	UpdateSubscription(ctx context.Context, id int64, sub Subscription) error
	UpdateAPIAccess(ctx context.Context, id int64, access APIAccess) error
	UpdateAdminFields(ctx context.Context, id int64, fields AdminUpdate) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// ListFilter narrows the admin user listing.
type ListFilter struct {
	Role    string
	Plan    Plan
	Active  *bool
	Page    int
	PerPage int
}

// AdminUpdate carries the fields an administrator may change.
type AdminUpdate struct {
	Role        *string
	IsActive    *bool
	Permissions Permissions
	Plan        *Plan
}

// Service-level errors.
var (
	ErrWrongPassword   = errors.New("users: current password does not match")
	ErrInvalidPlan     = errors.New("users: unknown subscription plan")
	ErrNotAnUpgrade    = errors.New("users: target plan is not above the current plan")
	ErrAPINotEnabled   = errors.New("users: API access is not enabled")
	ErrAccountInactive = errors.New("users: account is deactivated")
)

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// GetUser loads a single account.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// ListUsers returns accounts matching the filter plus pagination
// metadata.
func (s *Service) ListUsers(ctx context.Context, filter ListFilter) ([]User, shared.Pagination, error) {
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	users, total, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// ProfileUpdate carries the self-service editable fields.
type ProfileUpdate struct {
	Name     *string
	Company  *Company
	Settings *Settings
	Profile  *Profile
}

// UpdateProfile applies the user's own changes. Email, role and
// subscription are never touched through this path.
func (s *Service) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Company != nil {
		user.Company = *upd.Company
	}
	if upd.Settings != nil {
		user.Settings = *upd.Settings
	}
	if upd.Profile != nil {
		user.Profile = *upd.Profile
	}
	user.UpdatedAt = s.now()
	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new
// hash.
func (s *Service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("users: hash password: %w", err)
	}
	return s.repo.UpdatePasswordHash(ctx, id, string(hash))
}

// DeactivateAccount soft-deletes the user's own account.
func (s *Service) DeactivateAccount(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

// GetSubscription returns the account's subscription.
func (s *Service) GetSubscription(ctx context.Context, id int64) (*Subscription, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &user.Subscription, nil
}

// UpgradeSubscription moves the account to a higher tier. The period
// runs 30 days for monthly billing and 365 for yearly.
func (s *Service) UpgradeSubscription(ctx context.Context, id int64, plan Plan, cycle BillingCycle) (*Subscription, error) {
	if !plan.Valid() || plan == PlanFree {
		return nil, ErrInvalidPlan
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if !plan.AtLeast(user.Subscription.Plan) || plan == user.Subscription.Plan {
		return nil, ErrNotAnUpgrade
	}
	if cycle == "" {
		cycle = BillingMonthly
	}

	now := s.now()
	end := now.AddDate(0, 0, cycle.PeriodDays())
	sub := Subscription{
		Plan:      plan,
		StartDate: now,
		EndDate:   &end,
		IsActive:  true,
		Features:  PlanFeatures(plan),
	}
	if err := s.repo.UpdateSubscription(ctx, id, sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription drops the account back to the free tier.
func (s *Service) CancelSubscription(ctx context.Context, id int64) (*Subscription, error) {
	sub := Subscription{
		Plan:      PlanFree,
		StartDate: s.now(),
		IsActive:  false,
		Features:  nil,
	}
	if err := s.repo.UpdateSubscription(ctx, id, sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// EnableAPIAccess turns on API access and generates credentials. The
// secret is only returned here; afterwards it stays hidden.
func (s *Service) EnableAPIAccess(ctx context.Context, id int64, webhookURL string) (*APIAccess, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	access := user.APIAccess
	access.Enabled = true
	access.WebhookURL = webhookURL
	if access.Key == "" {
		access.Key = "nub_" + base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("users: generate api secret: %w", err)
		}
		access.Secret = hex.EncodeToString(secret)
	}
	if err := s.repo.UpdateAPIAccess(ctx, id, access); err != nil {
		return nil, err
	}
	return &access, nil
}

// GetAPICredentials returns the stored key. The secret is not
// retrievable after creation.
func (s *Service) GetAPICredentials(ctx context.Context, id int64) (*APIAccess, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.APIAccess.Enabled {
		return nil, ErrAPINotEnabled
	}
	access := user.APIAccess
	access.Secret = ""
	return &access, nil
}

// RevokeAPIAccess disables API access and discards the credentials.
func (s *Service) RevokeAPIAccess(ctx context.Context, id int64) error {
	return s.repo.UpdateAPIAccess(ctx, id, APIAccess{})
}

// AdminUpdateUser applies administrator changes to an account.
func (s *Service) AdminUpdateUser(ctx context.Context, id int64, upd AdminUpdate) (*User, error) {
	if upd.Plan != nil && !upd.Plan.Valid() {
		return nil, ErrInvalidPlan
	}
	if err := s.repo.UpdateAdminFields(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, id)
}

// AdminDeactivateUser disables an account.
func (s *Service) AdminDeactivateUser(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}
