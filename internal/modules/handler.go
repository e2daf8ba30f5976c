package modules

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/NUbem000/NubemERP/internal/platform/httpx"
	"github.com/NUbem000/NubemERP/internal/shared"
	"github.com/NUbem000/NubemERP/internal/users"
)

// Handler manages module catalog endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	userSvc   *users.Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, userSvc *users.Service) *Handler {
	return &Handler{logger: logger, service: service, userSvc: userSvc, validator: validator.New()}
}

// MountRoutes registers the catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listModules)
	r.Get("/statistics", h.categoryStatistics)
	r.Get("/{slug}", h.getModule)
	r.Get("/{slug}/features/{featureID}", h.checkFeature)
}

// MountAdminRoutes registers the admin-only catalog routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/seed", h.seed)
	r.Put("/{slug}/usage", h.trackUsage)
	r.Put("/{slug}/enabled", h.setEnabled)
}

func (h *Handler) listModules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Category: Category(q.Get("category")),
		Status:   Status(q.Get("status")),
	}
	if v := q.Get("enabled"); v != "" {
		enabled := v == "true"
		filter.Enabled = &enabled
	}

	catalog, err := h.service.ListModules(r.Context(), filter)
	if err != nil {
		h.logger.Error("list modules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"modules": catalog})
}

func (h *Handler) getModule(w http.ResponseWriter, r *http.Request) {
	module, err := h.service.GetModule(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, module)
}

func (h *Handler) checkFeature(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	account, err := h.userSvc.GetUser(r.Context(), identity.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	availability, err := h.service.CheckFeature(r.Context(),
		chi.URLParam(r, "slug"), chi.URLParam(r, "featureID"), account.Subscription.Plan)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, availability)
}

func (h *Handler) categoryStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CategoryStatistics(r.Context())
	if err != nil {
		h.logger.Error("module statistics", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": stats})
}

type trackUsageRequest struct {
	Percentage  float64 `json:"percentage" validate:"min=0,max=100"`
	ActiveUsers int64   `json:"active_users" validate:"min=0"`
}

type setEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Seed(r.Context())
	if err != nil {
		h.logger.Error("seed modules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("module catalog seeded", slog.Int("count", count))
	httpx.JSON(w, http.StatusOK, map[string]any{"count": count})
}

func (h *Handler) trackUsage(w http.ResponseWriter, r *http.Request) {
	var req trackUsageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	err := h.service.TrackUsage(r.Context(), chi.URLParam(r, "slug"), Usage{
		Percentage:  req.Percentage,
		ActiveUsers: req.ActiveUsers,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setEnabled(w http.ResponseWriter, r *http.Request) {
	var req setEnabledRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.service.SetEnabled(r.Context(), chi.URLParam(r, "slug"), req.Enabled); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
