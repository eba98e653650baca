package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/barakah/internal/assistant"
	"github.com/Dan9191/barakah/internal/auth"
	"github.com/Dan9191/barakah/internal/backup"
	"github.com/Dan9191/barakah/internal/cloudsync"
	"github.com/Dan9191/barakah/internal/config"
	"github.com/Dan9191/barakah/internal/events"
	"github.com/Dan9191/barakah/internal/handler"
	"github.com/Dan9191/barakah/internal/integrations/aladhan"
	"github.com/Dan9191/barakah/internal/integrations/dolarapi"
	"github.com/Dan9191/barakah/internal/localstore"
	"github.com/Dan9191/barakah/internal/locator"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/parser"
	"github.com/Dan9191/barakah/internal/repository"
	"github.com/Dan9191/barakah/internal/scheduler"
	"github.com/Dan9191/barakah/internal/service"
	"github.com/Dan9191/barakah/internal/state"
	"github.com/Dan9191/barakah/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	if cfg.RunMigrations {
		version, err := repository.Migrate(db)
		if err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Infof("Database schema at version %d", version)
	}

	// Device-side store
	kv, err := localstore.OpenSQLite(cfg.LocalDBPath)
	if err != nil {
		logger.Fatalf("Failed to open local store: %v", err)
	}
	defer kv.Close()
	store := state.NewStore(kv, logger, nil)

	// Initialize layers
	repo := repository.NewRepository(db)
	authSvc := auth.NewService(repo, kv, cfg.JWTSecret, logger)
	hub := events.NewHub(logger, cfg.AllowedOrigins...)
	hub.Start()

	exec := assistant.NewExecutor(repo, store, authSvc, locator.FromContext{}, hub, logger)
	asst := assistant.New(parser.NewRulesParser(), exec)
	reconciler := cloudsync.NewReconciler(repo, store, authSvc, hub, logger)
	backups := backup.NewService(store, authSvc, cfg.BackupKey, cfg.HMACSecret, logger)

	home := locator.Fixed{Position: models.Position{Latitude: cfg.Latitude, Longitude: cfg.Longitude}}
	deps := scheduler.Deps{
		Store:     store,
		Syncer:    reconciler,
		Rates:     dolarapi.NewClient(cfg, logger),
		RateStore: repo,
		Prayers:   aladhan.NewClient(cfg, logger),
		Locator:   locator.Fallback{locator.FromContext{}, home},
		Publisher: hub,
	}
	if cfg.MailEnabled() {
		deps.Mailer = email.NewSender(cfg, logger)
		deps.NotifyTo = cfg.NotifyEmail
	}
	sched := scheduler.New(deps, logger)
	if err := sched.Register(scheduler.Schedules{
		Sync:      cfg.SyncSchedule,
		Reminders: cfg.ReminderSchedule,
		Rate:      cfg.RateSchedule,
		Prayer:    cfg.PrayerSchedule,
	}); err != nil {
		logger.Fatalf("Failed to schedule jobs: %v", err)
	}
	sched.Start()

	svc := service.NewService(asst, store, reconciler, backups, sched, hub, logger)
	h := handler.NewHandler(svc, authSvc, logger)

	// Setup router
	router := handler.NewRouter(h, authSvc, hub, cfg.AllowedOrigins, logger)

	// Start server
	addr := cfg.Addr()
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	sched.Stop(ctx)
	hub.Stop()
}
