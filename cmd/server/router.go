package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/handlers"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/metrics"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/middleware"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type couponStatsSource interface {
	GetStats() coupon.Stats
}

// routerDeps is everything the HTTP layer needs. A nil gatherer disables
// /metrics; a nil couponStats disables /coupon/stats.
type routerDeps struct {
	logger         *slog.Logger
	carts          *service.CartService
	products       *service.ProductService
	coupons        *service.CouponService
	couponStats    couponStatsSource
	healthChecks   map[string]handlers.HealthCheck
	httpMetrics    *metrics.HTTPMetrics
	gatherer       prometheus.Gatherer
	requestTimeout time.Duration
	allowedOrigins []string
}

func newRouter(d routerDeps) http.Handler {
	healthHandler := handlers.NewHealthHandler(d.logger, d.healthChecks)
	cartHandler := handlers.NewCartHandler(d.carts, d.logger)
	productHandler := handlers.NewProductHandler(d.products, d.logger)
	couponHandler := handlers.NewCouponHandler(d.coupons, d.couponStats, d.logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recover(d.logger))
	r.Use(middleware.Metrics(d.httpMetrics))
	if d.requestTimeout > 0 {
		r.Use(middleware.Timeout(d.requestTimeout, d.logger))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.ServeHTTP)
	if d.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))
	}

	cartHandler.Routes(r)

	r.Get("/product", productHandler.ListProducts)
	r.Get("/product/{productCode}", productHandler.GetProduct)

	if d.couponStats != nil {
		r.Get("/coupon/stats", couponHandler.GetStats)
	}
	r.Get("/coupon/{couponCode}", couponHandler.GetCoupon)

	return r
}
