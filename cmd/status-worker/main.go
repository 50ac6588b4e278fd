package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/agilestore/agilestore-backend/internal/cron"
	ordersvc "github.com/agilestore/agilestore-backend/internal/orders"
	subsvc "github.com/agilestore/agilestore-backend/internal/subscriptions"
	"github.com/agilestore/agilestore-backend/pkg/config"
	"github.com/agilestore/agilestore-backend/pkg/db"
	"github.com/agilestore/agilestore-backend/pkg/logger"
	"github.com/agilestore/agilestore-backend/pkg/metrics"
	"github.com/agilestore/agilestore-backend/pkg/midtrans"
	"github.com/agilestore/agilestore-backend/pkg/migrate"
	"github.com/agilestore/agilestore-backend/pkg/outbox"
	"github.com/agilestore/agilestore-backend/pkg/redis"
)

const (
	statusLockFormat      = "ags:status-worker:lock:%s"
	maintenanceLockFormat = "ags:maintenance-worker:lock:%s"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "status-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "status-worker"

	logg = logger.New(logger.Options{
		ServiceName: "status-worker",
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

	midtransClient, err := midtrans.NewClient(context.Background(), cfg.Midtrans, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create midtrans client", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	subscriptionsService, err := subsvc.NewService(subsvc.NewRepository(dbClient.DB()), outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	ordersRepo := ordersvc.NewRepository(dbClient.DB())
	ordersService, err := ordersvc.NewService(ordersvc.ServiceParams{
		Repo:          ordersRepo,
		Tx:            dbClient,
		Outbox:        outboxService,
		Gateway:       midtransClient,
		Subscriptions: subscriptionsService,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	pollJob, err := cron.NewOrderStatusPollJob(cron.OrderStatusPollJobParams{
		Logger:      logg,
		Pending:     ordersRepo,
		Orders:      ordersService,
		MaxAttempts: cfg.StatusWorker.MaxPollAttempts,
		BatchSize:   cfg.StatusWorker.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create status poll job", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewOrderExpiryJob(cron.OrderExpiryJobParams{
		Logger:        logg,
		Orders:        ordersService,
		TokenValidity: cfg.Midtrans.TokenValidity,
		BatchSize:     cfg.StatusWorker.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order expiry job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	collector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	statusLock, err := cron.NewRedisLock(redisClient, lockKey(statusLockFormat, cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create status lock", err)
		os.Exit(1)
	}
	statusService, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(pollJob, expiryJob),
		Lock:     statusLock,
		Metrics:  collector,
		Interval: cfg.StatusWorker.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create status cron service", err)
		os.Exit(1)
	}

	// Outbox retention runs on the default daily cadence with its own lock.
	maintenanceLock, err := cron.NewRedisLock(redisClient, lockKey(maintenanceLockFormat, cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance lock", err)
		os.Exit(1)
	}
	maintenanceService, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(retentionJob),
		Lock:     maintenanceLock,
		Metrics:  collector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting status worker")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return statusService.Run(groupCtx) })
	group.Go(func() error { return maintenanceService.Run(groupCtx) })

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "status worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "status worker shutting down gracefully")
}

func lockKey(format, env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(format, env)
}
