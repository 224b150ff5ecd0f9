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

	"github.com/opsboard/opsboard/internal/app"
	"github.com/opsboard/opsboard/internal/attendance"
	"github.com/opsboard/opsboard/internal/auth"
	"github.com/opsboard/opsboard/internal/employees"
	"github.com/opsboard/opsboard/internal/insights"
	"github.com/opsboard/opsboard/internal/observability"
	"github.com/opsboard/opsboard/internal/platform/cache"
	"github.com/opsboard/opsboard/internal/platform/db"
	"github.com/opsboard/opsboard/internal/products"
	"github.com/opsboard/opsboard/internal/rbac"
	"github.com/opsboard/opsboard/internal/sales"
	"github.com/opsboard/opsboard/internal/shared"
	"github.com/opsboard/opsboard/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "opsboard_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	employeesRepo := employees.NewRepository(dbpool)
	employeesService := employees.NewService(employeesRepo, auditLogger)

	rbacService := rbac.NewService(employeesService)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	productsRepo := products.NewRepository(dbpool)
	productsService := products.NewService(productsRepo, auditLogger)
	productsHandler := products.NewHandler(logger, productsService, rbacMiddleware)

	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, auditLogger, metrics, logger)
	salesHandler := sales.NewHandler(logger, salesService, rbacMiddleware)

	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceService := attendance.NewService(attendanceRepo, auditLogger)
	attendanceHandler := attendance.NewHandler(logger, attendanceService, rbacMiddleware)

	insightsRepo := insights.NewRepository(dbpool)
	insightsService := insights.NewService(insightsRepo, redisClient, cfg.InsightsCacheTTL, logger)
	insightsHandler := insights.NewHandler(logger, insightsService, rbacMiddleware)

	employeesHandler := employees.NewHandler(logger, employeesService, rbacMiddleware)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		EmployeesHandler:  employeesHandler,
		ProductsHandler:   productsHandler,
		SalesHandler:      salesHandler,
		AttendanceHandler: attendanceHandler,
		InsightsHandler:   insightsHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
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
