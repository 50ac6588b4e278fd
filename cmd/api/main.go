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

	"github.com/agilestore/agilestore-backend/api/routes"
	"github.com/agilestore/agilestore-backend/internal/catalog"
	checkoutsvc "github.com/agilestore/agilestore-backend/internal/checkout"
	"github.com/agilestore/agilestore-backend/internal/content"
	"github.com/agilestore/agilestore-backend/internal/customers"
	"github.com/agilestore/agilestore-backend/internal/invoices"
	ordersvc "github.com/agilestore/agilestore-backend/internal/orders"
	subsvc "github.com/agilestore/agilestore-backend/internal/subscriptions"
	"github.com/agilestore/agilestore-backend/internal/vouchers"
	midtranswebhook "github.com/agilestore/agilestore-backend/internal/webhooks/midtrans"
	"github.com/agilestore/agilestore-backend/pkg/auth/session"
	"github.com/agilestore/agilestore-backend/pkg/config"
	"github.com/agilestore/agilestore-backend/pkg/db"
	"github.com/agilestore/agilestore-backend/pkg/logger"
	"github.com/agilestore/agilestore-backend/pkg/midtrans"
	"github.com/agilestore/agilestore-backend/pkg/migrate"
	"github.com/agilestore/agilestore-backend/pkg/outbox"
	"github.com/agilestore/agilestore-backend/pkg/pdfgen"
	"github.com/agilestore/agilestore-backend/pkg/redis"
)

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	midtransClient, err := midtrans.NewClient(context.Background(), cfg.Midtrans, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create midtrans client", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	translatorClient, err := content.NewTranslatorClient(cfg.Translator, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create translator client", err)
		os.Exit(1)
	}
	contentService, err := content.NewService(catalogService, translatorClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create content service", err)
		os.Exit(1)
	}

	customersRepo := customers.NewRepository(dbClient.DB())
	customersService, err := customers.NewService(customers.ServiceParams{
		Repo:           customersRepo,
		Tx:             dbClient,
		Outbox:         outboxService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	subscriptionsRepo := subsvc.NewRepository(dbClient.DB())
	subscriptionsService, err := subsvc.NewService(subscriptionsRepo, outboxService)
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

	vouchersService, err := vouchers.NewService(vouchers.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create vouchers service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Catalog:       catalogRepo,
		Guard:         subscriptionsService,
		Vouchers:      vouchersService,
		Customers:     customersService,
		Orders:        ordersRepo,
		Tx:            dbClient,
		Outbox:        outboxService,
		Gateway:       midtransClient,
		TokenValidity: cfg.Midtrans.TokenValidity,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	renderer, err := pdfgen.NewTypstRenderer(cfg.Invoice, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice renderer", err)
		os.Exit(1)
	}
	invoicesService, err := invoices.NewService(invoices.ServiceParams{
		Orders:    ordersRepo,
		Customers: customersRepo,
		Products:  catalogRepo,
		Renderer:  renderer,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}

	webhookService, err := midtranswebhook.NewService(midtranswebhook.ServiceParams{
		Verifier: midtransClient,
		Orders:   ordersService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			Catalog:       catalogService,
			Content:       contentService,
			Customers:     customersService,
			Checkout:      checkoutService,
			Orders:        ordersService,
			Subscriptions: subscriptionsService,
			Invoices:      invoicesService,
			MidtransHook:  webhookService,
		}),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()

	<-stop
	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
}
