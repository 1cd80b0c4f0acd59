package main // Entry point package

import (
	"log"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/revassist/technician-portal/internal/auth"
	"github.com/revassist/technician-portal/internal/config"
	"github.com/revassist/technician-portal/internal/database"
	"github.com/revassist/technician-portal/internal/handler"
	"github.com/revassist/technician-portal/internal/logger"
	"github.com/revassist/technician-portal/internal/queue"
	"github.com/revassist/technician-portal/internal/repository"
	"github.com/revassist/technician-portal/internal/router"
	"github.com/revassist/technician-portal/internal/service"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(cfg.Env, "info"); err != nil {
		log.Fatalf("init logger: %v", err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.L().Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	locationRepo := repository.NewLocationMappingRepo(db)
	userRepo := repository.NewUserMappingRepo(db)
	technicianRepo := repository.NewTechnicianRepo(db)
	promptRepo := repository.NewPromptRepo(db)
	activationRepo := repository.NewActivationRepo(db)

	resolver := auth.NewResolver(locationRepo, userRepo, logger.L())
	events := service.NewEventPublisher(cfg.RabbitURL)
	manager := service.NewActivationManager(promptRepo, activationRepo, events.PromptActivated, logger.L())

	promptHandler := handler.NewPromptHandler(manager)
	credentialHandler := handler.NewCredentialHandler(technicianRepo, cfg.BcryptCost)

	// Background audit consumer; runs its own reconnect loop.
	go func() {
		if err := queue.StartActivityConsumer(cfg.RabbitURL); err != nil {
			logger.L().Warn("activity consumer stopped", zap.Error(err))
		}
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.L().Warn("redis unavailable, rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterPortal(e, resolver, promptHandler, credentialHandler, events,
		cfg.LaunchTokenSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	logger.L().Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
