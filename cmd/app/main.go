package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/audit"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/config"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/db"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/gateway"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/logger"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/notify"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/server"
)

func main() {
	logger.Init()
	logger.Info("Starting gym subscription backend")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	auditService := audit.NewService(cfg.RedisAddr, audit.NewRepository(database), cfg.AuditWorkers, cfg.AuditEventsPerSec)
	defer auditService.Close()

	notifyService := notify.New(cfg.RedisAddr)
	defer notifyService.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go auditService.Start(ctx)
	logger.Info("Audit pipeline started")

	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout)

	srv := server.New(database, cfg, gw, auditService, notifyService)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
