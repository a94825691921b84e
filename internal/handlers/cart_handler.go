package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/service"
	"github.com/go-chi/chi/v5"
)

type newCartRequest struct {
	Customer string `json:"customer"`
}

type setCustomerRequest struct {
	Cart     string `json:"cart" validate:"required"`
	Customer string `json:"customer"`
}

type cartRequest struct {
	Cart string `json:"cart" validate:"required"`
}

type productRequest struct {
	Cart    string `json:"cart" validate:"required"`
	Product string `json:"product" validate:"required"`
}

type quantityRequest struct {
	Cart     string `json:"cart" validate:"required"`
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity"`
}

type couponRequest struct {
	Cart   string `json:"cart" validate:"required"`
	Coupon string `json:"coupon"`
}

// CartRef identifies a cart in create and delete responses.
type CartRef struct {
	Cart string `json:"cart"`
}

// CartHandler maps the cart routes onto CartService.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(service *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger,
	}
}

// Routes registers the cart endpoints on r.
func (h *CartHandler) Routes(r chi.Router) {
	r.Post("/new", h.NewCart)
	r.Post("/set-customer", h.SetCustomer)
	r.Post("/product-add", h.AddProduct)
	r.Post("/product-remove", h.RemoveProduct)
	r.Post("/product-set-quantity", h.SetProductQuantity)
	r.Post("/clear", h.Clear)
	r.Post("/coupon-set", h.SetCoupon)
	r.Get("/cart/{cartId}", h.GetCart)
	r.Delete("/cart/{cartId}", h.DeleteCart)
}

// NewCart handles POST /new
func (h *CartHandler) NewCart(w http.ResponseWriter, r *http.Request) {
	var req newCartRequest
	if err := decodeRequest(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	snap, err := h.service.Create(r.Context(), req.Customer)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, http.StatusCreated, CartRef{Cart: snap.ID}, h.logger)
}

// SetCustomer handles POST /set-customer
func (h *CartHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var req setCustomerRequest
	if err := decodeRequest(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.respond(w)(h.service.SetCustomer(r.Context(), req.Cart, req.Customer))
}

// AddProduct handles POST /product-add
func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeRequest(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.respond(w)(h.service.AddProduct(r.Context(), req.Cart, req.Product))
}

// RemoveProduct handles POST /product-remove
func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeRequest(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.respond(w)(h.service.RemoveProduct(r.Context(), req.Cart, req.Product))
}

// SetProductQuantity handles POST /product-set-quantity. A missing quantity
// is treated as zero and rejected by the cart.
func (h *CartHandler) SetProductQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeRequest(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.respond(w)(h.service.SetProductQuantity(r.Context(), req.Cart, req.Product, req.Quantity))
}

// Clear handles POST /clear
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := decodeRequest(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.respond(w)(h.service.Clear(r.Context(), req.Cart))
}

// SetCoupon handles POST /coupon-set. An empty coupon detaches the current one.
func (h *CartHandler) SetCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decodeRequest(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.respond(w)(h.service.SetCoupon(r.Context(), req.Cart, req.Coupon))
}

// GetCart handles GET /cart/{cartId}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.service.Get(r.Context(), chi.URLParam(r, "cartId")))
}

// DeleteCart handles DELETE /cart/{cartId}
func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cartId")
	if err := h.service.Delete(r.Context(), id); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, http.StatusOK, CartRef{Cart: id}, h.logger)
}

// respond writes the result of a cart operation.
func (h *CartHandler) respond(w http.ResponseWriter) func(any, error) {
	return func(data any, err error) {
		if err != nil {
			WriteError(w, err, h.logger)
			return
		}
		WriteSuccess(w, http.StatusOK, data, h.logger)
	}
}
