package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/Schera-ole/rewards_admin/internal/config"
	"github.com/Schera-ole/rewards_admin/internal/handler"
	"github.com/Schera-ole/rewards_admin/internal/migration"
	"github.com/Schera-ole/rewards_admin/internal/repository"
	"github.com/Schera-ole/rewards_admin/internal/service"
	"github.com/Schera-ole/rewards_admin/internal/stats"
	"go.uber.org/zap"
)

func main() {
	// Initialize config
	systemConfig, err := config.NewSystemConfig()
	if err != nil {
		log.Fatal("Failed to parse configuration: ", err)
	}

	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to initialize zap logger: ", err)
	}
	defer logger.Sync()
	logSugar := logger.Sugar()

	// Check migrations
	migCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = migration.RunMigrations(migCtx, systemConfig.DatabaseURI, logSugar)
	if err != nil {
		logSugar.Errorf("%v", err)
	}

	// Initialize database storage
	dbStorage, err := repository.NewDBStorage(systemConfig.DatabaseURI)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer dbStorage.Close()

	// Initialize service
	aggregator := stats.New(systemConfig.TopEarnersLimit)
	adminService := service.NewAdminPanelService(dbStorage, aggregator, logSugar, time.Now)

	ctx := context.Background()
	if err := dbStorage.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database: ", err)
	}

	// Seed the in-process ledger from storage
	if err := adminService.LoadLedger(ctx); err != nil {
		log.Fatal("Failed to load withdrawal ledger: ", err)
	}

	logSugar.Infow(
		"Starting server",
		"run address", systemConfig.RunAddress,
		"database", systemConfig.DatabaseURI,
		"top earners limit", systemConfig.TopEarnersLimit,
	)

	// Start server
	logSugar.Fatal(
		http.ListenAndServe(
			systemConfig.RunAddress,
			handler.Router(logSugar, systemConfig, adminService),
		),
	)
}
