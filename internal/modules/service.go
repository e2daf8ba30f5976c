package modules

import (
	"context"
	"math"
	"sort"

	"github.com/NUbem000/NubemERP/internal/users"
)

// Service handles module catalog business logic.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService builds Service instance. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// ListModules returns catalog entries matching the filter. The
// unfiltered listing is served from cache.
func (s *Service) ListModules(ctx context.Context, filter ListFilter) ([]Module, error) {
	if filter == (ListFilter{}) {
		return s.cache.FetchCatalog(ctx, func(ctx context.Context) ([]Module, error) {
			return s.repo.ListModules(ctx, ListFilter{})
		})
	}
	return s.repo.ListModules(ctx, filter)
}

// GetModule loads a catalog entry by slug.
func (s *Service) GetModule(ctx context.Context, slug string) (*Module, error) {
	return s.repo.GetModule(ctx, slug)
}

// FeatureAvailability describes whether a plan unlocks a feature.
type FeatureAvailability struct {
	Available    bool       `json:"available"`
	Feature      *Feature   `json:"feature,omitempty"`
	UserPlan     users.Plan `json:"user_plan"`
	RequiredPlan users.Plan `json:"required_plan,omitempty"`
}

// CheckFeature reports whether the user's plan unlocks a module feature.
func (s *Service) CheckFeature(ctx context.Context, slug, featureID string, plan users.Plan) (*FeatureAvailability, error) {
	module, err := s.repo.GetModule(ctx, slug)
	if err != nil {
		return nil, err
	}
	result := &FeatureAvailability{
		Available: module.FeatureAvailable(featureID, plan),
		UserPlan:  plan,
	}
	if feature := module.Feature(featureID); feature != nil {
		result.Feature = feature
		result.RequiredPlan = feature.RequiredPlan
	}
	return result, nil
}

// CategoryStatistics aggregates enabled modules per category: entry
// count, average usage percentage (rounded to 2 decimals) and summed
// active users. Categories are returned in alphabetical order.
func (s *Service) CategoryStatistics(ctx context.Context) ([]CategoryStats, error) {
	enabled := true
	modules, err := s.repo.ListModules(ctx, ListFilter{Enabled: &enabled})
	if err != nil {
		return nil, err
	}

	byCategory := make(map[Category]*CategoryStats)
	for i := range modules {
		m := &modules[i]
		stats, ok := byCategory[m.Category]
		if !ok {
			stats = &CategoryStats{Category: m.Category}
			byCategory[m.Category] = stats
		}
		stats.Count++
		stats.AvgUsage += m.Usage.Percentage
		stats.TotalUsers += m.Usage.ActiveUsers
	}

	out := make([]CategoryStats, 0, len(byCategory))
	for _, stats := range byCategory {
		stats.AvgUsage = math.Round(stats.AvgUsage/float64(stats.Count)*100) / 100
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// TrackUsage stores updated adoption figures for a module.
func (s *Service) TrackUsage(ctx context.Context, slug string, usage Usage) error {
	if err := s.repo.UpdateUsage(ctx, slug, usage); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// SetEnabled toggles a module's availability.
func (s *Service) SetEnabled(ctx context.Context, slug string, enabled bool) error {
	if err := s.repo.SetEnabled(ctx, slug, enabled); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// Seed installs or refreshes the default catalog. Existing entries are
// updated in place, keyed by slug.
func (s *Service) Seed(ctx context.Context) (int, error) {
	catalog := DefaultCatalog()
	for i := range catalog {
		if err := s.repo.UpsertModule(ctx, &catalog[i]); err != nil {
			return 0, err
		}
	}
	s.cache.Invalidate(ctx)
	return len(catalog), nil
}
