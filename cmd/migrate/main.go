package main

import (
	"go.uber.org/zap"

	"studytracker/backend/internal/config"
	"studytracker/backend/internal/db"
	"studytracker/backend/internal/logger"
	"studytracker/backend/migrations"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogFilePath, cfg.IsProduction())
	defer func() { _ = log.Sync() }()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal("open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer database.Close()

	applied, err := db.RunMigrations(database, db.MigrationSource(cfg.MigrationsDir, migrations.FS))
	if err != nil {
		log.Fatal("run migrations", zap.Error(err))
	}
	log.Info("migrations applied successfully", zap.Int("count", len(applied)), zap.Strings("files", applied))
}
