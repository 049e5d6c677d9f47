package transport

import (
	"encoding/json"
	"net/http"

	"movex/internal/domain"
	"movex/internal/middleware"
	"movex/internal/repository"
	"movex/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddToWishlistRequest represents the add-to-wishlist request payload
type AddToWishlistRequest struct {
	Product domain.Product `json:"product"`
}

// WishlistResponse represents the wishlist response
type WishlistResponse struct {
	Wishlist []domain.Product `json:"wishlist"`
}

// WishlistMutationResponse represents the response to add/remove operations
type WishlistMutationResponse struct {
	Message   string          `json:"message"`
	Product   *domain.Product `json:"product,omitempty"`
	ProductID string          `json:"productId,omitempty"`
}

// WishlistHandler handles HTTP requests for wishlist operations
type WishlistHandler struct {
	wishlistService service.WishlistService
	logger          *zap.Logger
}

// NewWishlistHandler creates a new WishlistHandler
func NewWishlistHandler(wishlistService service.WishlistService, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlistService,
		logger:          logger,
	}
}

// RegisterRoutes registers all wishlist routes
func (h *WishlistHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetWishlist)
		r.Post("/add", h.AddProduct)
		r.Delete("/remove/{productId}", h.RemoveProduct)
	})
}

// GetWishlist returns the authenticated user's wishlist, creating the
// backing user record on first contact.
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	wishlist, err := h.wishlistService.GetWishlist(r.Context(), *principal)
	if err != nil {
		h.logger.Error("Failed to get wishlist", zap.Error(err), zap.String("uid", principal.UID))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to retrieve wishlist")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, WishlistResponse{Wishlist: wishlist})
}

// AddProduct stores a product snapshot in the user's wishlist. Duplicate
// adds answer 200 with a message instead of creating a second entry.
func (h *WishlistHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddToWishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("Add to wishlist decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Product.ID == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product data")
		return
	}

	added, err := h.wishlistService.AddProduct(r.Context(), *principal, req.Product)
	if err != nil {
		h.logger.Error("Failed to add product to wishlist", zap.Error(err), zap.String("uid", principal.UID))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add product to wishlist")
		return
	}

	if !added {
		middleware.RespondWithJSON(w, http.StatusOK, WishlistMutationResponse{
			Message: "product already in wishlist",
		})
		return
	}

	h.logger.Info("Product added to wishlist",
		zap.String("uid", principal.UID),
		zap.String("product_id", req.Product.ID),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, WishlistMutationResponse{
		Message: "product added to wishlist",
		Product: &req.Product,
	})
}

// RemoveProduct deletes a product from the user's wishlist by id.
func (h *WishlistHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "product id is required")
		return
	}

	if err := h.wishlistService.RemoveProduct(r.Context(), *principal, productID); err != nil {
		switch err {
		case repository.ErrUserNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "user not found")
		case repository.ErrProductNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "product not found in wishlist")
		default:
			h.logger.Error("Failed to remove product from wishlist", zap.Error(err), zap.String("uid", principal.UID))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove product from wishlist")
		}
		return
	}

	h.logger.Info("Product removed from wishlist",
		zap.String("uid", principal.UID),
		zap.String("product_id", productID),
	)
	middleware.RespondWithJSON(w, http.StatusOK, WishlistMutationResponse{
		Message:   "product removed from wishlist",
		ProductID: productID,
	})
}
