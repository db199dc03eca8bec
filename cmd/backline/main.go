package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/backline-erp/backline/internal/app"
	"github.com/backline-erp/backline/internal/auth"
	"github.com/backline-erp/backline/internal/customers"
	"github.com/backline-erp/backline/internal/deliveries"
	"github.com/backline-erp/backline/internal/equipment"
	"github.com/backline-erp/backline/internal/invoices"
	"github.com/backline-erp/backline/internal/observability"
	"github.com/backline-erp/backline/internal/overview"
	"github.com/backline-erp/backline/internal/platform/db"
	"github.com/backline-erp/backline/internal/projects"
	"github.com/backline-erp/backline/internal/quotes"
	"github.com/backline-erp/backline/internal/users"
	"github.com/backline-erp/backline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	revoker := auth.NewRevocationStore(redisClient, cfg.TokenTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokenIssuer, revoker)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.NewMiddleware(tokenIssuer, revoker)

	usersRepo := users.NewRepository(dbpool)
	usersHandler := users.NewHandler(logger, users.NewService(usersRepo))

	customersRepo := customers.NewRepository(dbpool)
	customersHandler := customers.NewHandler(logger, customers.NewService(customersRepo))

	equipmentRepo := equipment.NewRepository(dbpool)
	equipmentHandler := equipment.NewHandler(logger, equipment.NewService(equipmentRepo))

	projectsRepo := projects.NewRepository(dbpool)
	projectsHandler := projects.NewHandler(logger, projects.NewService(projectsRepo, customersRepo))

	quotesRepo := quotes.NewRepository(dbpool)
	quotesHandler := quotes.NewHandler(logger, quotes.NewService(quotesRepo))

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect job queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("job queue close", slog.Any("error", err))
		}
	}()

	invoicesRepo := invoices.NewRepository(dbpool)
	invoicesHandler := invoices.NewHandler(logger, invoices.NewService(invoicesRepo), jobsClient)

	deliveriesRepo := deliveries.NewRepository(dbpool)
	deliveriesHandler := deliveries.NewHandler(logger, deliveries.NewService(deliveriesRepo))

	overviewHandler := overview.NewHandler(logger, overview.NewService(dbpool))

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthMiddleware:   authMiddleware,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		CustomersHandler: customersHandler,
		EquipmentHandler: equipmentHandler,
		ProjectsHandler:  projectsHandler,
		QuotesHandler:    quotesHandler,
		InvoicesHandler:  invoicesHandler,
		DeliveryHandler:  deliveriesHandler,
		OverviewHandler:  overviewHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
