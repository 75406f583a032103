package main

import (
	"go.uber.org/zap"

	"studytracker/backend/internal/config"
	"studytracker/backend/internal/db"
	"studytracker/backend/internal/handler"
	"studytracker/backend/internal/logger"
	"studytracker/backend/internal/repository"
	"studytracker/backend/internal/router"
	"studytracker/backend/internal/service"
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
	if len(applied) > 0 {
		log.Info("migrations applied", zap.Strings("files", applied))
	}

	userRepo := repository.NewUserRepository(database)
	studyRepo := repository.NewStudyRepository(database)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, log)
	studyService := service.NewStudyService(studyRepo, log)

	authHandler := handler.NewAuthHandler(authService)
	studyHandler := handler.NewStudyHandler(studyService)

	engine := router.New(authService, authHandler, studyHandler, cfg.CORSOrigins, log)
	log.Info("backend listening", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatal("run server", zap.Error(err))
	}
}
