// File: glowbook/main.go
package main

import (
	"os"
	"os/signal"
	"syscall"

	"glowbook/config"
	"glowbook/cron"
	"glowbook/database"
	schedulingRepo "glowbook/database/repository/scheduling"
	"glowbook/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	if config.AppConfig.FirebaseCredentialsFile != "" {
		utils.FirebaseInit()
	}

	// repositories.
	repo := schedulingRepo.NewMongoSchedulingRepo()
	if err := repo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure indexes: %v", err)
	}

	// Background workers.
	cron.InitNotifyWorker()
	reconciler := cron.InitReconciliationJobs(repo)
	defer reconciler.Stop()

	logger.Sugar().Info("main: scheduling core is up")

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: shutting down...")

	database.CloseDB()
	logger.Sugar().Info("main: stopped gracefully")
}
