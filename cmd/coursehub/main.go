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

	"github.com/coursehub/coursehub/internal/app"
	"github.com/coursehub/coursehub/internal/assignments"
	"github.com/coursehub/coursehub/internal/auth"
	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/dashboard"
	"github.com/coursehub/coursehub/internal/enrollment"
	"github.com/coursehub/coursehub/internal/files"
	"github.com/coursehub/coursehub/internal/observability"
	"github.com/coursehub/coursehub/internal/platform/cache"
	"github.com/coursehub/coursehub/internal/platform/db"
	"github.com/coursehub/coursehub/internal/resources"
	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/shared"
	"github.com/coursehub/coursehub/internal/submissions"
	"github.com/coursehub/coursehub/internal/users"
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

	auditLogger := shared.NewAuditLogger(dbpool)

	usersRepo := users.NewRepository(dbpool)
	tokens := security.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	lookup := security.NewLookup(users.PrincipalSource{Repo: usersRepo}, redisClient, cfg.AccountCacheTTL, logger)
	gate := security.Gate{Tokens: tokens, Accounts: lookup, Logger: logger}

	usersService := users.NewService(usersRepo, lookup, auditLogger)
	usersHandler := users.NewHandler(logger, usersService)

	authService := auth.NewService(usersRepo, tokens, lookup, auditLogger)
	authHandler := auth.NewHandler(logger, authService, usersService)

	storage, err := files.NewService(cfg.UploadDir, cfg.UploadMaxSize, cfg.UploadExts)
	if err != nil {
		logger.Error("init upload storage", slog.Any("error", err))
		os.Exit(1)
	}
	filesHandler := files.NewHandler(logger, storage)

	coursesRepo := courses.NewRepository(dbpool)
	resourcesRepo := resources.NewRepository(dbpool)
	assignmentsRepo := assignments.NewRepository(dbpool)

	// One resolver per resource type; the checker refuses types it has no
	// resolver for.
	owners := security.NewOwnershipChecker(logger)
	owners.Register(security.TypeCourse, coursesRepo)
	owners.Register(security.TypeResource, resourcesRepo)
	owners.Register(security.TypeAssignment, assignmentsRepo)

	coursesService := courses.NewService(coursesRepo)
	coursesHandler := courses.NewHandler(logger, coursesService, owners)

	enrollmentRepo := enrollment.NewRepository(dbpool)
	enrollmentService := enrollment.NewService(enrollmentRepo, coursesRepo, usersRepo)
	enrollmentHandler := enrollment.NewHandler(logger, enrollmentService, owners)

	resourcesService := resources.NewService(resourcesRepo, coursesRepo, storage)
	resourcesHandler := resources.NewHandler(logger, resourcesService, owners)

	assignmentsService := assignments.NewService(assignmentsRepo, coursesRepo)
	assignmentsHandler := assignments.NewHandler(logger, assignmentsService, owners)

	submissionsRepo := submissions.NewRepository(dbpool)
	submissionsService := submissions.NewService(submissionsRepo, assignmentsRepo, enrollmentRepo, storage, owners, auditLogger)
	submissionsHandler := submissions.NewHandler(logger, submissionsService, owners)

	dashboardService := dashboard.NewService(dbpool, redisClient, cfg.DashboardTTL)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Gate:               gate,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		CoursesHandler:     coursesHandler,
		EnrollmentHandler:  enrollmentHandler,
		ResourcesHandler:   resourcesHandler,
		AssignmentsHandler: assignmentsHandler,
		SubmissionsHandler: submissionsHandler,
		DashboardHandler:   dashboardHandler,
		FilesHandler:       filesHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
}
