package transport

import (
	"net/http"
	"time"

	"movex/internal/domain"
	"movex/internal/middleware"
	"movex/internal/repository"
	"movex/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RecordPurchaseRequest represents the add-purchase request payload.
// TotalAmount and Date are optional; the service computes defaults.
type RecordPurchaseRequest struct {
	Items       []domain.PurchaseItem `json:"items" validate:"required,min=1"`
	TotalAmount float64               `json:"totalAmount"`
	Date        time.Time             `json:"date"`
}

// PurchaseHistoryResponse represents the purchase history response
type PurchaseHistoryResponse struct {
	PurchaseHistory []domain.PurchaseRecord `json:"purchaseHistory"`
}

// RecordPurchaseResponse represents the response to a recorded purchase
type RecordPurchaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

// PurchaseResponse represents a single purchase lookup response
type PurchaseResponse struct {
	Purchase *domain.PurchaseRecord `json:"purchase"`
}

// PurchaseHandler handles HTTP requests for purchase history operations
type PurchaseHandler struct {
	purchaseService service.PurchaseService
	logger          *zap.Logger
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService service.PurchaseService, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		logger:          logger,
	}
}

// RegisterRoutes registers all purchase history routes
func (h *PurchaseHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/purchase-history", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetHistory)
		r.Post("/add", h.RecordPurchase)
		r.Get("/{orderId}", h.GetPurchase)
	})
}

// GetHistory returns the authenticated user's purchase history.
func (h *PurchaseHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	history, err := h.purchaseService.GetHistory(r.Context(), *principal)
	if err != nil {
		h.logger.Error("Failed to get purchase history", zap.Error(err), zap.String("uid", principal.UID))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to retrieve purchase history")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PurchaseHistoryResponse{PurchaseHistory: history})
}

// RecordPurchase appends a new record to the user's purchase history.
func (h *PurchaseHandler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RecordPurchaseRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Record purchase validation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid purchase data")
		return
	}

	record, err := h.purchaseService.RecordPurchase(r.Context(), *principal, req.Items, req.TotalAmount, req.Date)
	if err != nil {
		if err == service.ErrEmptyPurchase {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid purchase data")
			return
		}
		h.logger.Error("Failed to record purchase", zap.Error(err), zap.String("uid", principal.UID))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add purchase to history")
		return
	}

	h.logger.Info("Purchase recorded",
		zap.String("uid", principal.UID),
		zap.String("order_id", record.OrderID),
	)
	middleware.RespondWithJSON(w, http.StatusOK, RecordPurchaseResponse{
		Success: true,
		Message: "purchase added to history",
		OrderID: record.OrderID,
	})
}

// GetPurchase returns a single purchase by order id.
func (h *PurchaseHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "order id is required")
		return
	}

	record, err := h.purchaseService.GetPurchase(r.Context(), principal.UID, orderID)
	if err != nil {
		if err == repository.ErrPurchaseNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "purchase not found")
			return
		}
		h.logger.Error("Failed to get purchase", zap.Error(err), zap.String("uid", principal.UID))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to retrieve purchase")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PurchaseResponse{Purchase: record})
}
