package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/config"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/metrics"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/repository"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/service"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(log)

	log.Info("starting cart api server",
		"addr", cfg.Addr(),
		"cart_store", cfg.Store.Kind,
		"log_level", cfg.LogLevel,
	)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped gracefully")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	store, err := openCartStore(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("open cart store: %w", err)
	}
	defer store.close()

	// Coupon validity comes from the coupon lists when configured
	var (
		validator   service.CouponValidator = coupon.AllowAll{}
		couponStats couponStatsSource
	)
	if len(cfg.Coupon.FileURLs) > 0 {
		log.Info("loading coupon data...", "files", len(cfg.Coupon.FileURLs))
		lists := coupon.NewValidator(coupon.WithMinMatches(cfg.Coupon.MinMatches))
		if err := lists.LoadFromURLs(ctx, cfg.Coupon.FileURLs); err != nil {
			return fmt.Errorf("load coupon data: %w", err)
		}
		stats := lists.GetStats()
		log.Info("coupon data loaded successfully",
			"total_files", stats.TotalFiles,
			"total_coupons", stats.TotalCoupons,
		)
		validator, couponStats = lists, lists
	}

	// Metrics
	var (
		registerer prometheus.Registerer
		gatherer   prometheus.Gatherer
	)
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registerer, gatherer = reg, reg
	}

	// Initialize services
	productRepo := repository.NewInMemoryProductRepository()
	couponService := service.NewCouponService(repository.NewInMemoryCouponRepository(), validator)
	cartService := service.NewCartService(store.repo, productRepo, couponService,
		service.WithLogger(log),
		service.WithCartMetrics(metrics.NewCartMetrics(registerer)),
	)

	router := newRouter(routerDeps{
		logger:         log,
		carts:          cartService,
		products:       service.NewProductService(productRepo),
		coupons:        couponService,
		couponStats:    couponStats,
		healthChecks:   store.checks,
		httpMetrics:    metrics.NewHTTPMetrics(registerer),
		gatherer:       gatherer,
		requestTimeout: cfg.Server.RequestTimeout,
		allowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
