package transport

import (
	"net/http"

	"movex/internal/domain"
	"movex/internal/middleware"
	"movex/internal/repository"
	"movex/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductsResponse represents the catalog listing response
type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

// ProductResponse represents a single product response
type ProductResponse struct {
	Product *domain.Product `json:"product"`
}

// ProductHandler handles HTTP requests for catalog reads
type ProductHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalogService service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers all catalog routes. Catalog reads are public;
// middlewares lets the server attach rate limiting without auth.
func (h *ProductHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Use(middlewares...)
		r.Get("/", h.ListProducts)
		r.Get("/discounted", h.ListDiscounted)
		r.Get("/{productId}", h.GetProduct)
	})
}

// ListProducts returns the full catalog.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to retrieve products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductsResponse{Products: products})
}

// ListDiscounted returns products that carry a pre-discount price.
func (h *ProductHandler) ListDiscounted(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.ListDiscounted(r.Context())
	if err != nil {
		h.logger.Error("Failed to list discounted products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to retrieve products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductsResponse{Products: products})
}

// GetProduct returns a single product by catalog id.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "product id is required")
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err), zap.String("product_id", productID))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to retrieve product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{Product: product})
}
