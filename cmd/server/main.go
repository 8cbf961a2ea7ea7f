package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/expenseflow/expense-approval/internal/application/service"
	"github.com/expenseflow/expense-approval/internal/config"
	"github.com/expenseflow/expense-approval/internal/export"
	"github.com/expenseflow/expense-approval/internal/infrastructure/persistence/repository"
	"github.com/expenseflow/expense-approval/internal/infrastructure/persistence/sqlite"
	apihttp "github.com/expenseflow/expense-approval/internal/interfaces/http"
	"github.com/expenseflow/expense-approval/internal/receipt"
	"github.com/expenseflow/expense-approval/pkg/database"
	"github.com/expenseflow/expense-approval/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting expense approval service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	txDB := sqlite.NewDB(db.DB, logger)
	expenseRepo := repository.NewExpenseRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	companyRepo := repository.NewCompanyRepository(db.DB, logger)
	rateRepo := repository.NewRateRepository(db.DB, logger)

	// Initialize services
	sugar := &sugaredLoggerAdapter{sugar: logger.Sugar()}
	expenseService := service.NewExpenseService(expenseRepo, userRepo, companyRepo, rateRepo, txDB, sugar)
	companyService := service.NewCompanyService(companyRepo, userRepo, rateRepo, sugar)

	// Receipt extraction is optional; without an API key the endpoint
	// reports itself unavailable and everything else still works.
	var extractor receipt.Extractor
	if cfg.OpenAI.APIKey != "" {
		extractor = receipt.NewVisionExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
	} else {
		logger.Warn("OpenAI API key not configured, receipt extraction disabled")
	}

	reportWriter := export.NewReportWriter(logger)

	// Initialize HTTP server
	server := apihttp.NewServer(apihttp.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, expenseService, companyService, extractor, reportWriter, sugar)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// sugaredLoggerAdapter adapts zap.SugaredLogger to the Logger interfaces
// expected by the services and HTTP server.
type sugaredLoggerAdapter struct {
	sugar *zap.SugaredLogger
}

func (a *sugaredLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.sugar.Infow(msg, keysAndValues...)
}

func (a *sugaredLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.sugar.Errorw(msg, keysAndValues...)
}
