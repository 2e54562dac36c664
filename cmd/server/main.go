package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/tripfund/internal/auth"
	"github.com/mmynk/tripfund/internal/config"
	"github.com/mmynk/tripfund/internal/metrics"
	"github.com/mmynk/tripfund/internal/middleware"
	"github.com/mmynk/tripfund/internal/payments"
	"github.com/mmynk/tripfund/internal/service"
	"github.com/mmynk/tripfund/internal/storage/sqlite"
	"github.com/mmynk/tripfund/internal/worker"
	"github.com/mmynk/tripfund/pkg/api"
	"github.com/mmynk/tripfund/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	processor := payments.NewStripeProcessor(cfg.PaymentSecretKey, cfg.PaymentWebhookSecret)
	limiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)

	requireAuth := middleware.RequireAuth(jwtManager,
		api.AuthServiceRegisterProcedure,
		api.AuthServiceLoginProcedure,
	)
	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		requireAuth,
		middleware.LoggingInterceptor(),
	)
	authInterceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		limiter.Interceptor(),
		requireAuth,
		middleware.LoggingInterceptor(),
	)

	paymentSvc := service.NewPaymentService(store, processor, cfg.PaymentCurrency, m)

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(api.NewAuthServiceHandler(
		service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default()),
		authInterceptors,
	))
	mux.Handle(api.NewTripServiceHandler(service.NewTripService(store), interceptors))
	mux.Handle(api.NewExpenseServiceHandler(service.NewExpenseService(store, m), interceptors))
	mux.Handle(api.NewSavingsServiceHandler(service.NewSavingsService(store), interceptors))
	mux.Handle(api.NewBudgetServiceHandler(service.NewBudgetService(store), interceptors))
	mux.Handle(api.NewWalletServiceHandler(service.NewWalletService(store, processor, cfg.PaymentCurrency), interceptors))
	mux.Handle(api.NewPaymentServiceHandler(paymentSvc, interceptors))

	mux.Handle("POST /webhooks/payments", payments.NewWebhookHandler(processor, paymentSvc))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Add logging and CORS middleware, then wrap with h2c for HTTP/2 without TLS
	handler := h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", server.Addr, "url", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.NewAutoSaver(store, m).Run(ctx, cfg.AutosaveInterval)
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("Server stopped")
	return err
}

// loggingMiddleware logs all incoming HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
