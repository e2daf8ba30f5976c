package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/NUbem000/NubemERP/internal/shared"
)

type memoryUserRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]*User)}
}

func (r *memoryUserRepo) add(u User) *User {
	r.nextID++
	u.ID = r.nextID
	if u.Permissions == nil {
		u.Permissions = DefaultPermissions()
	}
	r.users[u.ID] = &u
	return &u
}

func (r *memoryUserRepo) GetUser(ctx context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memoryUserRepo) ListUsers(ctx context.Context, filter ListFilter) ([]User, int, error) {
	var matched []User
	for _, u := range r.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Plan != "" && u.Subscription.Plan != filter.Plan {
			continue
		}
		if filter.Active != nil && u.IsActive != *filter.Active {
			continue
		}
		matched = append(matched, *u)
	}
	total := len(matched)
	start := (filter.Page - 1) * filter.PerPage
	if start > total {
		start = total
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *memoryUserRepo) UpdateProfile(ctx context.Context, u *User) error {
	stored, ok := r.users[u.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Name = u.Name
	stored.Company = u.Company
	stored.Settings = u.Settings
	stored.Profile = u.Profile
	return nil
}

func (r *memoryUserRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	r.users[id].PasswordHash = hash
	return nil
}

func (r *memoryUserRepo) UpdateSubscription(ctx context.Context, id int64, sub Subscription) error {
	r.users[id].Subscription = sub
	return nil
}

func (r *memoryUserRepo) UpdateAPIAccess(ctx context.Context, id int64, access APIAccess) error {
	r.users[id].APIAccess = access
	return nil
}

func (r *memoryUserRepo) UpdateAdminFields(ctx context.Context, id int64, fields AdminUpdate) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	if fields.Role != nil {
		u.Role = *fields.Role
	}
	if fields.IsActive != nil {
		u.IsActive = *fields.IsActive
	}
	if fields.Permissions != nil {
		u.Permissions = fields.Permissions
	}
	if fields.Plan != nil {
		u.Subscription.Plan = *fields.Plan
	}
	return nil
}

func (r *memoryUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func seedUser(t *testing.T, repo *memoryUserRepo, plan Plan) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.DefaultCost)
	require.NoError(t, err)
	return repo.add(User{
		Email:        "ana@test.local",
		Name:         "Ana",
		PasswordHash: string(hash),
		Role:         "user",
		IsActive:     true,
		Settings:     DefaultSettings(),
		Subscription: Subscription{Plan: plan, IsActive: true, Features: PlanFeatures(plan)},
	})
}

func TestPlanHierarchy(t *testing.T) {
	require.True(t, PlanEnterprise.AtLeast(PlanFree))
	require.True(t, PlanProfessional.AtLeast(PlanStarter))
	require.True(t, PlanStarter.AtLeast(PlanStarter))
	require.False(t, PlanFree.AtLeast(PlanStarter))
	require.False(t, PlanStarter.AtLeast(PlanEnterprise))
	require.False(t, Plan("platinum").Valid())
}

func TestUpdateProfile(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	user := seedUser(t, repo, PlanFree)

	name := "Ana Garcia"
	company := Company{Name: "Acme SL", Industry: "technology", Size: "11-50"}
	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
		Name:    &name,
		Company: &company,
	})
	require.NoError(t, err)
	require.Equal(t, "Ana Garcia", updated.Name)
	require.Equal(t, "Acme SL", updated.Company.Name)
	// untouched fields survive
	require.Equal(t, "es", updated.Settings.Language)
	require.Equal(t, "ana@test.local", updated.Email)
}

func TestChangePassword(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	user := seedUser(t, repo, PlanFree)
	ctx := context.Background()

	require.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "wrong", "newpassword1"), ErrWrongPassword)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "oldpassword", "newpassword1"))
	stored, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newpassword1")))
}

func TestUpgradeSubscription(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	user := seedUser(t, repo, PlanFree)
	ctx := context.Background()

	sub, err := svc.UpgradeSubscription(ctx, user.ID, PlanProfessional, BillingMonthly)
	require.NoError(t, err)
	require.Equal(t, PlanProfessional, sub.Plan)
	require.True(t, sub.IsActive)
	require.Equal(t, now, sub.StartDate)
	require.NotNil(t, sub.EndDate)
	require.Equal(t, now.AddDate(0, 0, 30), *sub.EndDate)
	require.Contains(t, sub.Features, "api_access")
	require.True(t, sub.HasFeature("priority_support"))
}

func TestUpgradeSubscriptionYearly(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	user := seedUser(t, repo, PlanStarter)

	sub, err := svc.UpgradeSubscription(context.Background(), user.ID, PlanEnterprise, BillingYearly)
	require.NoError(t, err)
	require.Equal(t, now.AddDate(0, 0, 365), *sub.EndDate)
}

func TestUpgradeSubscriptionRejectsDowngrade(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	user := seedUser(t, repo, PlanProfessional)
	ctx := context.Background()

	_, err := svc.UpgradeSubscription(ctx, user.ID, PlanStarter, BillingMonthly)
	require.ErrorIs(t, err, ErrNotAnUpgrade)

	_, err = svc.UpgradeSubscription(ctx, user.ID, PlanProfessional, BillingMonthly)
	require.ErrorIs(t, err, ErrNotAnUpgrade)

	_, err = svc.UpgradeSubscription(ctx, user.ID, Plan("platinum"), BillingMonthly)
	require.ErrorIs(t, err, ErrInvalidPlan)
}

func TestCancelSubscription(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	user := seedUser(t, repo, PlanEnterprise)

	sub, err := svc.CancelSubscription(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, PlanFree, sub.Plan)
	require.False(t, sub.IsActive)
	require.Empty(t, sub.Features)
	require.False(t, sub.HasFeature("all_features"))
}

func TestAPIAccessLifecycle(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	user := seedUser(t, repo, PlanProfessional)
	ctx := context.Background()

	_, err := svc.GetAPICredentials(ctx, user.ID)
	require.ErrorIs(t, err, ErrAPINotEnabled)

	access, err := svc.EnableAPIAccess(ctx, user.ID, "https://hooks.test.local/erp")
	require.NoError(t, err)
	require.True(t, access.Enabled)
	require.True(t, strings.HasPrefix(access.Key, "nub_"))
	require.Len(t, access.Secret, 64)

	// the secret is never returned after creation
	stored, err := svc.GetAPICredentials(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, access.Key, stored.Key)
	require.Empty(t, stored.Secret)

	// re-enabling keeps the existing key
	again, err := svc.EnableAPIAccess(ctx, user.ID, "")
	require.NoError(t, err)
	require.Equal(t, access.Key, again.Key)

	require.NoError(t, svc.RevokeAPIAccess(ctx, user.ID))
	_, err = svc.GetAPICredentials(ctx, user.ID)
	require.ErrorIs(t, err, ErrAPINotEnabled)
}

func TestAdminUpdateUser(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	user := seedUser(t, repo, PlanFree)
	ctx := context.Background()

	role := "admin"
	plan := PlanEnterprise
	perms := DefaultPermissions()
	perms[ModuleSystem] = true

	updated, err := svc.AdminUpdateUser(ctx, user.ID, AdminUpdate{
		Role:        &role,
		Permissions: perms,
		Plan:        &plan,
	})
	require.NoError(t, err)
	require.Equal(t, "admin", updated.Role)
	require.Equal(t, PlanEnterprise, updated.Subscription.Plan)
	require.True(t, updated.Permissions.Has(ModuleSystem))

	_, err = svc.AdminUpdateUser(ctx, 999, AdminUpdate{Role: &role})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListUsersPagination(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	for i := 0; i < 25; i++ {
		repo.add(User{Email: "u@test.local", Role: "user", IsActive: true, Subscription: Subscription{Plan: PlanFree}})
	}
	repo.add(User{Email: "admin@test.local", Role: "admin", IsActive: true, Subscription: Subscription{Plan: PlanEnterprise}})

	users, pagination, err := svc.ListUsers(context.Background(), ListFilter{Page: 2, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, users, 10)
	require.Equal(t, 26, pagination.Total)
	require.Equal(t, 3, pagination.TotalPages)

	admins, pagination, err := svc.ListUsers(context.Background(), ListFilter{Role: "admin"})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	require.Equal(t, 1, pagination.Total)
}

func TestHasPermission(t *testing.T) {
	user := &User{Role: "user", Permissions: DefaultPermissions()}
	require.True(t, user.HasPermission(ModuleInvoicing))
	require.False(t, user.HasPermission(ModuleSystem))

	admin := &User{Role: "admin", Permissions: Permissions{}}
	require.True(t, admin.HasPermission(ModuleSystem))
}
