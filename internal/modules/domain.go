package modules

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/NUbem000/NubemERP/internal/users"
)

// Category groups catalog modules.
type Category string

const (
	CategoryFinance    Category = "finance"
	CategoryOperations Category = "operations"
	CategorySales      Category = "sales"
	CategoryHR         Category = "hr"
	CategorySystem     Category = "system"
)

// Status enumerates module lifecycle states.
type Status string

const (
	StatusActive      Status = "active"
	StatusBeta        Status = "beta"
	StatusMaintenance Status = "maintenance"
	StatusDeprecated  Status = "deprecated"
)

// Usage tracks adoption of a module.
type Usage struct {
	Percentage  float64   `json:"percentage"`
	ActiveUsers int64     `json:"active_users"`
	LastUpdated time.Time `json:"last_updated"`
}

// Feature is a single capability within a module, gated by plan.
type Feature struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	IsCore       bool       `json:"is_core"`
	RequiredPlan users.Plan `json:"required_plan"`
}

// Pricing describes module add-on pricing.
type Pricing struct {
	BasePrice    decimal.Decimal `json:"base_price"`
	Currency     string          `json:"currency"`
	BillingCycle string          `json:"billing_cycle"`
}

// Module is a catalog entry for one ERP capability area.
type Module struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	Category    Category  `json:"category"`
	Usage       Usage     `json:"usage"`
	Features    []Feature `json:"features"`
	Pricing     Pricing   `json:"pricing"`
	Status      Status    `json:"status"`
	IsEnabled   bool      `json:"is_enabled"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Feature returns the feature with the given id, or nil.
func (m *Module) Feature(featureID string) *Feature {
	for i := range m.Features {
		if m.Features[i].ID == featureID {
			return &m.Features[i]
		}
	}
	return nil
}

// FeatureAvailable reports whether the user's plan unlocks a feature.
// Unknown features are never available.
func (m *Module) FeatureAvailable(featureID string, plan users.Plan) bool {
	feature := m.Feature(featureID)
	if feature == nil {
		return false
	}
	return plan.AtLeast(feature.RequiredPlan)
}

// CategoryStats aggregates enabled modules per category.
type CategoryStats struct {
	Category   Category `json:"category"`
	Count      int      `json:"count"`
	AvgUsage   float64  `json:"avg_usage"`
	TotalUsers int64    `json:"total_users"`
}
