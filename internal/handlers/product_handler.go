package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/service"
	"github.com/go-chi/chi/v5"
)

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// ListProducts handles GET /product
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, http.StatusOK, products, h.logger)
}

// GetProduct handles GET /product/{productCode}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "productCode")

	product, err := h.service.GetProduct(r.Context(), code)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, http.StatusOK, product, h.logger)
}
