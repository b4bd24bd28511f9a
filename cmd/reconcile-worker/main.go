package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/practicerx-backend/internal/cart"
	"github.com/angelmondragon/practicerx-backend/internal/orders"
	"github.com/angelmondragon/practicerx-backend/internal/reconcile"
	"github.com/angelmondragon/practicerx-backend/pkg/config"
	"github.com/angelmondragon/practicerx-backend/pkg/db"
	"github.com/angelmondragon/practicerx-backend/pkg/logger"
	"github.com/angelmondragon/practicerx-backend/pkg/metrics"
	"github.com/angelmondragon/practicerx-backend/pkg/migrate"
	"github.com/angelmondragon/practicerx-backend/pkg/redis"
)

const serviceName = "reconcile-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
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

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), cfg.Checkout.CartClaimTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	abandoned, err := reconcile.NewAbandonedOrdersJob(reconcile.AbandonedOrdersJobParams{
		Logger:     logg,
		Orders:     ordersService,
		StaleAfter: cfg.Reconcile.StaleAfter,
		BatchSize:  cfg.Reconcile.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create abandoned orders job", err)
		os.Exit(1)
	}
	staleClaims, err := reconcile.NewStaleClaimsJob(reconcile.StaleClaimsJobParams{
		Logger: logg,
		Carts:  cartService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale claims job", err)
		os.Exit(1)
	}

	lock, err := reconcile.NewRedisLock(redisClient, redisClient.LockKey("reconcile"), cfg.Reconcile.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile lock", err)
		os.Exit(1)
	}

	service, err := reconcile.NewService(reconcile.ServiceParams{
		Logger:   logg,
		Registry: reconcile.NewRegistry(abandoned, staleClaims),
		Lock:     lock,
		Metrics:  metrics.NewReconcileJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Reconcile.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting reconcile worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconcile worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconcile worker shut down")
}
