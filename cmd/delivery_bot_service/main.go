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
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/deliveryproof/golang_services/internal/platform/config"
	"github.com/deliveryproof/golang_services/internal/platform/database"
	"github.com/deliveryproof/golang_services/internal/platform/logger"
	"github.com/deliveryproof/golang_services/internal/platform/messagebroker"
	"github.com/deliveryproof/golang_services/internal/submission_service/adapters/broadcast"
	"github.com/deliveryproof/golang_services/internal/submission_service/adapters/ledger"
	"github.com/deliveryproof/golang_services/internal/submission_service/adapters/telegram"
	"github.com/deliveryproof/golang_services/internal/submission_service/app"
	"github.com/deliveryproof/golang_services/internal/submission_service/repository/postgres"
	"github.com/deliveryproof/golang_services/internal/submission_service/scheduler"
	httptransport "github.com/deliveryproof/golang_services/internal/submission_service/transport/http"
)

const (
	serviceName     = "delivery-bot-service"
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}
	log := logger.New(serviceName, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Service shutdown complete.")
}

func run(cfg *config.Config, log *slog.Logger) error {
	mainCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	adminIDs, err := cfg.AdminIDList()
	if err != nil {
		return err
	}

	startCtx, cancelStart := context.WithTimeout(mainCtx, startupTimeout)
	defer cancelStart()

	migrator, err := database.NewMigrator(startCtx, cfg.PostgresDSN, log)
	if err != nil {
		return fmt.Errorf("open migrator: %w", err)
	}
	err = migrator.Run(startCtx)
	migrator.Close()
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	dbPool, err := database.NewDBPool(startCtx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer dbPool.Close()
	log.Info("Database connection pool initialized")

	var events app.EventPublisher
	if cfg.NATSUrl != "" {
		natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, serviceName, log)
		if err != nil {
			// Events are optional; the bot keeps working without them.
			log.Error("Failed to connect to NATS, delivered-video events disabled", "error", err)
		} else {
			defer natsClient.Close()
			events = natsClient
		}
	}

	sheet, err := openLedger(startCtx, cfg, log)
	if err != nil {
		return err
	}

	tg, err := telegram.NewClient(cfg.BotToken, "", nil, log)
	if err != nil {
		return err
	}

	// Repositories
	userRepo := postgres.NewPgUserRepository(dbPool, log)
	submissionRepo := postgres.NewPgSubmissionRepository(dbPool, log)
	outboxRepo := postgres.NewPgOutboxRepository(dbPool, log)
	sessionRepo := postgres.NewPgSessionRepository(dbPool, log)
	reportRepo := postgres.NewPgReportRepository(dbPool, log)

	// Application services
	ledgerWriter := ledger.NewWriter(sheet, loc, log)
	dispatcher := broadcast.NewDispatcher(tg, cfg.GroupChatID, cfg.PermalinkBase, log)
	status := app.NewStatusMachine(submissionRepo, log)
	queue := app.NewOutboxQueue(outboxRepo, status, dispatcher, ledgerWriter, events, log, app.OutboxConfig{
		BatchSize:   cfg.OutboxBatchSize,
		MaxAttempts: cfg.OutboxMaxAttempts,
		ClaimLease:  cfg.OutboxClaimLease,
	})
	users := app.NewUserService(userRepo, tg, log)
	reminders := app.NewReminderService(userRepo, submissionRepo, status, ledgerWriter, tg, log)
	aggregator := app.NewReportAggregator(reportRepo)
	publisher := app.NewReportPublisher(aggregator, tg, cfg.GroupChatID, log)

	botHandler := telegram.NewHandler(tg, users, queue, status, reminders, sessionRepo,
		telegram.HandlerConfig{AdminIDs: adminIDs, Location: loc, TutorialVideoID: cfg.TutorialVideo}, log)
	jobs := scheduler.New(reminders, publisher, queue, scheduler.Config{
		ReminderSpecs: cfg.ReminderCron,
		ReportSpec:    cfg.ReportCron,
		DrainInterval: cfg.OutboxDrainInterval,
		Location:      loc,
	}, log)

	adminHandler := httptransport.NewAdminHandler(aggregator, queue, status, users, loc, validator.New(), log)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httptransport.NewRouter(adminHandler, cfg.AdminJWTSecret, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		return botHandler.Run(groupCtx)
	})

	g.Go(func() error {
		return jobs.Run(groupCtx)
	})

	g.Go(func() error {
		log.Info("Admin HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	log.Info("Service components initialized and workers started. Service is ready.")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openLedger uses Google Sheets when SHEET_ID is set and a local CSV file
// otherwise.
func openLedger(ctx context.Context, cfg *config.Config, log *slog.Logger) (ledger.Sheet, error) {
	if cfg.SheetID == "" {
		log.Warn("SHEET_ID not set, writing the ledger to a local CSV file", "path", cfg.LedgerCSVPath)
		sheet, err := ledger.NewCSVSheet(cfg.LedgerCSVPath)
		if err != nil {
			return nil, fmt.Errorf("open csv ledger: %w", err)
		}
		return sheet, nil
	}
	sheet, err := ledger.NewGoogleSheet(ctx, cfg.SheetID, cfg.SheetWorksheet, option.WithCredentialsFile(cfg.CredsPath))
	if err != nil {
		return nil, fmt.Errorf("open google sheet: %w", err)
	}
	log.Info("Ledger bound to Google Sheets", "worksheet", cfg.SheetWorksheet)
	return sheet, nil
}
