package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/service"
	"github.com/go-chi/chi/v5"
)

// couponChecker resolves a coupon and reports its validity
type couponChecker interface {
	Check(ctx context.Context, code string) (service.CouponStatus, error)
}

// couponStats reports what the coupon list validator has loaded
type couponStats interface {
	GetStats() coupon.Stats
}

// CouponHandler handles HTTP requests for coupon lookup
type CouponHandler struct {
	coupons couponChecker
	stats   couponStats
	logger  *slog.Logger
}

// NewCouponHandler creates a new CouponHandler. stats may be nil when no
// coupon lists are loaded.
func NewCouponHandler(coupons couponChecker, stats couponStats, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		coupons: coupons,
		stats:   stats,
		logger:  logger,
	}
}

// GetCoupon handles GET /coupon/{couponCode}
func (h *CouponHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	status, err := h.coupons.Check(r.Context(), chi.URLParam(r, "couponCode"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, http.StatusOK, status, h.logger)
}

// GetStats handles GET /coupon/stats (for debugging/monitoring)
func (h *CouponHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var stats coupon.Stats
	if h.stats != nil {
		stats = h.stats.GetStats()
	}
	WriteSuccess(w, http.StatusOK, stats, h.logger)
}
