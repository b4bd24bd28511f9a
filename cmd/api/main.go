package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/practicerx-backend/api/routes"
	"github.com/angelmondragon/practicerx-backend/internal/cart"
	"github.com/angelmondragon/practicerx-backend/internal/checkout"
	"github.com/angelmondragon/practicerx-backend/internal/discounts"
	"github.com/angelmondragon/practicerx-backend/internal/orders"
	"github.com/angelmondragon/practicerx-backend/internal/payments"
	"github.com/angelmondragon/practicerx-backend/internal/pharmacy"
	"github.com/angelmondragon/practicerx-backend/internal/practices"
	"github.com/angelmondragon/practicerx-backend/pkg/auth/csrf"
	"github.com/angelmondragon/practicerx-backend/pkg/auth/session"
	"github.com/angelmondragon/practicerx-backend/pkg/config"
	"github.com/angelmondragon/practicerx-backend/pkg/db"
	"github.com/angelmondragon/practicerx-backend/pkg/logger"
	"github.com/angelmondragon/practicerx-backend/pkg/metrics"
	"github.com/angelmondragon/practicerx-backend/pkg/migrate"
	"github.com/angelmondragon/practicerx-backend/pkg/pubsub"
	"github.com/angelmondragon/practicerx-backend/pkg/redis"
	"github.com/angelmondragon/practicerx-backend/pkg/shipping"
	"github.com/angelmondragon/practicerx-backend/pkg/square"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	requireService(logg, "square client", err)

	shippingClient, err := shipping.NewClient(cfg.Shipping.BaseURL,
		shipping.WithAPIKey(cfg.Shipping.APIKey),
		shipping.WithTimeout(cfg.Checkout.ShippingTimeout),
	)
	requireService(logg, "shipping client", err)

	sessionManager, err := session.NewManager(redisClient, time.Duration(cfg.JWT.ExpirationMinutes)*time.Minute)
	requireService(logg, "session manager", err)

	csrfManager, err := csrf.NewManager(redisClient, cfg.CSRF.TTL)
	requireService(logg, "csrf manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	conn := dbClient.DB()
	cartService, err := cart.NewService(cart.NewRepository(conn), cfg.Checkout.CartClaimTTL)
	requireService(logg, "cart service", err)

	ordersService, err := orders.NewService(orders.NewRepository(conn), dbClient)
	requireService(logg, "orders service", err)

	discountService, err := discounts.NewService(discounts.NewRepository(conn), dbClient)
	requireService(logg, "discount service", err)

	resolver, err := practices.NewResolver(practices.NewRepository(conn), logg)
	requireService(logg, "practice resolver", err)

	paymentService, err := payments.NewService(payments.ServiceParams{
		Methods:      payments.NewRepository(conn),
		SquareClient: squareClient,
	})
	requireService(logg, "payments service", err)

	submitter, err := pharmacy.NewSubmitter(pubsubClient.PharmacyPublisher(), cfg.Checkout.SideEffectTimeout)
	requireService(logg, "pharmacy submitter", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:     cartService,
		Practices: resolver,
		Payments:  paymentService,
		Shipping:  shippingClient,
		Orders:    ordersService,
		Pharmacy:  submitter,
		Discounts: discountService,
		Metrics:   metrics.NewCheckoutMetrics(registry),
		Logger:    logg,
		Config:    cfg.Checkout,
	})
	requireService(logg, "checkout service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Idempotency: redisClient,
			Sessions:    sessionManager,
			CSRF:        csrfManager,
			Checkout:    checkoutService,
			Gatherer:    registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down")
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name, err)
	os.Exit(1)
}
