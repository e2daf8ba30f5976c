package invoicing

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/NUbem000/NubemERP/internal/platform/httpx"
	"github.com/NUbem000/NubemERP/internal/shared"
)

// Handler manages invoicing endpoints.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	validator     *validator.Validate
	defaultSeries string
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, defaultSeries string) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		validator:     validator.New(),
		defaultSeries: defaultSeries,
	}
}

// MountRoutes registers invoicing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listInvoices)
	r.Post("/", h.createInvoice)
	r.Get("/statistics", h.statistics)
	r.Get("/{id}", h.getInvoice)
	r.Put("/{id}", h.updateInvoice)
	r.Post("/{id}/payments", h.recordPayment)
	r.Post("/{id}/cancel", h.cancelInvoice)
	r.Post("/{id}/clone", h.cloneInvoice)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	items := make([]LineItem, 0, len(req.Items))
	for i, item := range req.Items {
		if err := item.Validate(); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", fmt.Sprintf("item %d: %v", i+1, err))
			return
		}
		items = append(items, item.toDomain())
	}

	inv := &Invoice{
		Series:       req.Series,
		Type:         req.Type,
		UserID:       identity.UserID,
		Customer:     req.Customer.toSnapshot(),
		PaymentTerms: req.PaymentTerms,
		Items:        items,
		Notes:        req.Notes,
	}
	if inv.Series == "" {
		inv.Series = h.defaultSeries
	}
	if req.IssueDate != nil {
		inv.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		inv.DueDate = *req.DueDate
	}

	if err := h.service.CreateInvoice(r.Context(), inv); err != nil {
		if errors.Is(err, ErrNoLineItems) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	req := ListInvoicesRequest{
		UserID: identity.UserID,
		Status: PaymentStatus(r.URL.Query().Get("status")),
		Limit:  100,
	}
	if from, ok := parseDate(r.URL.Query().Get("from")); ok {
		req.IssuedFrom = from
	}
	if to, ok := parseDate(r.URL.Query().Get("to")); ok {
		req.IssuedTo = to
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit <= 1000 {
		req.Limit = limit
	}

	invoices, err := h.service.ListInvoices(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	now := time.Now()
	resp := InvoiceListResponse{Invoices: make([]InvoiceSummaryResponse, 0, len(invoices))}
	for i := range invoices {
		inv := &invoices[i]
		resp.Invoices = append(resp.Invoices, InvoiceSummaryResponse{
			ID:           inv.ID,
			Number:       inv.Number,
			Type:         inv.Type,
			CustomerName: inv.Customer.Name,
			IssueDate:    inv.IssueDate,
			DueDate:      inv.DueDate,
			Total:        inv.Financial.Total,
			PaidAmount:   inv.PaidAmount,
			Status:       inv.EffectiveStatus(now),
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadOwnedInvoice(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadOwnedInvoice(w, r)
	if !ok {
		return
	}

	var req UpdateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	items := make([]LineItem, 0, len(req.Items))
	for i, item := range req.Items {
		if err := item.Validate(); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", fmt.Sprintf("item %d: %v", i+1, err))
			return
		}
		items = append(items, item.toDomain())
	}

	updated, err := h.service.UpdateInvoice(r.Context(), inv.ID, items, req.Notes)
	if err != nil {
		if errors.Is(err, ErrImmutable) || errors.Is(err, ErrNoLineItems) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		h.logger.Error("update invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadOwnedInvoice(w, r)
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.Amount.IsZero() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payment amount must not be zero")
		return
	}

	payment := Payment{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Note:      req.Note,
	}
	if req.Date != nil {
		payment.Date = *req.Date
	}

	updated, err := h.service.RecordPayment(r.Context(), inv.ID, payment)
	if err != nil {
		if errors.Is(err, ErrImmutable) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		h.logger.Error("record payment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) cancelInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadOwnedInvoice(w, r)
	if !ok {
		return
	}
	if err := h.service.CancelInvoice(r.Context(), inv.ID); err != nil {
		if errors.Is(err, ErrAlreadyCancelled) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		h.logger.Error("cancel invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cloneInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadOwnedInvoice(w, r)
	if !ok {
		return
	}
	dup, err := h.service.CloneInvoice(r.Context(), inv.ID)
	if err != nil {
		h.logger.Error("clone invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dup)
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var dateRange *DateRange
	from, okFrom := parseDate(r.URL.Query().Get("from"))
	to, okTo := parseDate(r.URL.Query().Get("to"))
	if okFrom && okTo {
		dateRange = &DateRange{From: from, To: to}
	}

	stats, err := h.service.Statistics(r.Context(), identity.UserID, dateRange)
	if err != nil {
		h.logger.Error("invoice statistics", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

// loadOwnedInvoice resolves {id}, loads the invoice and enforces that it
// belongs to the authenticated account (admins may access any invoice).
func (h *Handler) loadOwnedInvoice(w http.ResponseWriter, r *http.Request) (*Invoice, bool) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return nil, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid invoice ID")
		return nil, false
	}

	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	if inv.UserID != identity.UserID && identity.Role != "admin" {
		httpx.RespondError(w, httpx.ErrForbidden)
		return nil, false
	}
	return inv, true
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (c CustomerRequest) toSnapshot() CustomerSnapshot {
	return CustomerSnapshot{
		CustomerID: c.CustomerID,
		Name:       c.Name,
		TaxID:      c.TaxID,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
	}
}
