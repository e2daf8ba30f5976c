package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/NUbem000/NubemERP/internal/platform/httpx"
	"github.com/NUbem000/NubemERP/internal/shared"
)

// Handler manages user endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the self-service user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.getMe)
	r.Put("/me", h.updateMe)
	r.Put("/me/password", h.changePassword)
	r.Delete("/me", h.deactivateMe)

	r.Get("/me/subscription", h.getSubscription)
	r.Post("/me/subscription/upgrade", h.upgradeSubscription)
	r.Post("/me/subscription/cancel", h.cancelSubscription)

	r.Get("/me/api-access", h.getAPICredentials)
	r.Post("/me/api-access", h.enableAPIAccess)
	r.Delete("/me/api-access", h.revokeAPIAccess)
}

// MountAdminRoutes registers the admin-only user routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.adminListUsers)
	r.Get("/{id}", h.adminGetUser)
	r.Put("/{id}", h.adminUpdateUser)
	r.Delete("/{id}", h.adminDeactivateUser)
}

type updateProfileRequest struct {
	Name     *string   `json:"name,omitempty" validate:"omitempty,max=100"`
	Company  *Company  `json:"company,omitempty"`
	Settings *Settings `json:"settings,omitempty"`
	Profile  *Profile  `json:"profile,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type upgradeSubscriptionRequest struct {
	Plan         Plan         `json:"plan" validate:"required,oneof=starter professional enterprise"`
	BillingCycle BillingCycle `json:"billing_cycle" validate:"omitempty,oneof=monthly yearly"`
}

type enableAPIAccessRequest struct {
	WebhookURL string `json:"webhook_url,omitempty" validate:"omitempty,url"`
}

type adminUpdateUserRequest struct {
	Role        *string     `json:"role,omitempty" validate:"omitempty,oneof=admin user viewer"`
	IsActive    *bool       `json:"is_active,omitempty"`
	Permissions Permissions `json:"permissions,omitempty"`
	Plan        *Plan       `json:"plan,omitempty" validate:"omitempty,oneof=free starter professional enterprise"`
}

type userListResponse struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	user, err := h.service.GetUser(r.Context(), identity.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	var req updateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), identity.UserID, ProfileUpdate{
		Name:     req.Name,
		Company:  req.Company,
		Settings: req.Settings,
		Profile:  req.Profile,
	})
	if err != nil {
		h.logger.Error("update profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	var req changePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, ErrWrongPassword) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "current password does not match")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *Handler) deactivateMe(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if err := h.service.DeactivateAccount(r.Context(), identity.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	sub, err := h.service.GetSubscription(r.Context(), identity.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

func (h *Handler) upgradeSubscription(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	var req upgradeSubscriptionRequest
	if !h.decode(w, r, &req) {
		return
	}

	sub, err := h.service.UpgradeSubscription(r.Context(), identity.UserID, req.Plan, req.BillingCycle)
	if err != nil {
		if errors.Is(err, ErrInvalidPlan) || errors.Is(err, ErrNotAnUpgrade) || errors.Is(err, ErrAccountInactive) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

func (h *Handler) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	sub, err := h.service.CancelSubscription(r.Context(), identity.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

func (h *Handler) getAPICredentials(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	access, err := h.service.GetAPICredentials(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, ErrAPINotEnabled) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "API access is not enabled")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"enabled":     access.Enabled,
		"key":         access.Key,
		"webhook_url": access.WebhookURL,
	})
}

func (h *Handler) enableAPIAccess(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	var req enableAPIAccessRequest
	if !h.decode(w, r, &req) {
		return
	}

	access, err := h.service.EnableAPIAccess(r.Context(), identity.UserID, req.WebhookURL)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	// the secret is shown exactly once
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"enabled": access.Enabled,
		"key":     access.Key,
		"secret":  access.Secret,
	})
}

func (h *Handler) revokeAPIAccess(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if err := h.service.RevokeAPIAccess(r.Context(), identity.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Role: q.Get("role"),
		Plan: Plan(q.Get("plan")),
	}
	if v := q.Get("active"); v != "" {
		active := v == "true"
		filter.Active = &active
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("per_page")); err == nil {
		filter.PerPage = perPage
	}

	users, pagination, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, userListResponse{Users: users, Pagination: pagination})
}

func (h *Handler) adminGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) adminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	var req adminUpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.AdminUpdateUser(r.Context(), id, AdminUpdate{
		Role:        req.Role,
		IsActive:    req.IsActive,
		Permissions: req.Permissions,
		Plan:        req.Plan,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidPlan) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) adminDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.AdminDeactivateUser(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid user ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}
