package users

import "time"

// Plan enumerates subscription tiers, ordered free < starter <
// professional < enterprise.
type Plan string

const (
	PlanFree         Plan = "free"
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

var planRank = map[Plan]int{
	PlanFree:         0,
	PlanStarter:      1,
	PlanProfessional: 2,
	PlanEnterprise:   3,
}

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	_, ok := planRank[p]
	return ok
}

// AtLeast reports whether p sits at or above the required tier.
func (p Plan) AtLeast(required Plan) bool {
	return planRank[p] >= planRank[required]
}

// PlanFeatures returns the feature flags unlocked by each paid plan.
func PlanFeatures(p Plan) []string {
	switch p {
	case PlanStarter:
		return []string{"basic_invoicing", "bank_sync", "basic_support"}
	case PlanProfessional:
		return []string{"advanced_invoicing", "bank_sync", "api_access", "priority_support"}
	case PlanEnterprise:
		return []string{"all_features", "dedicated_support", "custom_integrations"}
	default:
		return nil
	}
}

// BillingCycle enumerates subscription billing periods.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// PeriodDays returns the subscription length for the cycle.
func (c BillingCycle) PeriodDays() int {
	if c == BillingYearly {
		return 365
	}
	return 30
}

// Subscription describes the account's current plan.
type Subscription struct {
	Plan      Plan       `json:"plan"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsActive  bool       `json:"is_active"`
	Features  []string   `json:"features"`
}

// HasFeature reports whether the active subscription includes a feature.
func (s Subscription) HasFeature(feature string) bool {
	if !s.IsActive {
		return false
	}
	for _, f := range s.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Known permission modules.
const (
	ModuleInvoicing  = "invoicing"
	ModuleAccounting = "accounting"
	ModuleProjects   = "projects"
	ModuleInventory  = "inventory"
	ModuleHR         = "hr"
	ModuleCRM        = "crm"
	ModulePOS        = "pos"
	ModuleSystem     = "system"
)

// Permissions maps module names to access flags.
type Permissions map[string]bool

// DefaultPermissions grants every module except system administration.
func DefaultPermissions() Permissions {
	return Permissions{
		ModuleInvoicing:  true,
		ModuleAccounting: true,
		ModuleProjects:   true,
		ModuleInventory:  true,
		ModuleHR:         true,
		ModuleCRM:        true,
		ModulePOS:        true,
		ModuleSystem:     false,
	}
}

// Has reports whether the module is explicitly granted.
func (p Permissions) Has(module string) bool {
	return p[module]
}

// Company holds the account's organisation details.
type Company struct {
	Name     string `json:"name,omitempty"`
	TaxID    string `json:"tax_id,omitempty"`
	Industry string `json:"industry,omitempty"`
	Size     string `json:"size,omitempty"`
}

// NotificationSettings toggles outbound notification channels.
type NotificationSettings struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

// Settings holds per-user preferences.
type Settings struct {
	Language      string               `json:"language"`
	Timezone      string               `json:"timezone"`
	Currency      string               `json:"currency"`
	DateFormat    string               `json:"date_format"`
	Notifications NotificationSettings `json:"notifications"`
}

// DefaultSettings returns the preferences assigned to new accounts.
func DefaultSettings() Settings {
	return Settings{
		Language:      "es",
		Timezone:      "Europe/Madrid",
		Currency:      "EUR",
		DateFormat:    "02/01/2006",
		Notifications: NotificationSettings{Email: true, Push: true},
	}
}

// Address is a postal address.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Profile holds contact details.
type Profile struct {
	Phone   string  `json:"phone,omitempty"`
	Address Address `json:"address"`
}

// APIAccess holds the account's API credentials. Key and Secret are
// only exposed through the dedicated credential endpoints.
type APIAccess struct {
	Enabled    bool   `json:"enabled"`
	Key        string `json:"-"`
	Secret     string `json:"-"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

// User is the account aggregate.
type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"`
	Role         string       `json:"role"`
	IsActive     bool         `json:"is_active"`
	Company      Company      `json:"company"`
	Settings     Settings     `json:"settings"`
	Profile      Profile      `json:"profile"`
	Permissions  Permissions  `json:"permissions"`
	Subscription Subscription `json:"subscription"`
	APIAccess    APIAccess    `json:"api_access"`
	LastLogin    *time.Time   `json:"last_login,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// HasPermission reports whether the user may use the given module.
// Admins bypass the permission map.
func (u *User) HasPermission(module string) bool {
	if u.Role == "admin" {
		return true
	}
	return u.Permissions.Has(module)
}
