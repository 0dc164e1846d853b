package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vettrack/auth-service/internal/api"
	"github.com/vettrack/auth-service/internal/core/security"
	"github.com/vettrack/auth-service/internal/core/service"
	"github.com/vettrack/auth-service/internal/infrastructure/config"
	mongodb "github.com/vettrack/auth-service/internal/infrastructure/db/mongo"
	"github.com/vettrack/auth-service/pkg/logger"
)

// @title           VetTrack Auth Service API
// @version         1.0
// @description     Credential issuance and bearer-session validation service.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}

	userRepo := mongodb.NewUserRepository(db)
	sessionRepo := mongodb.NewSessionRepository(db)
	txManager := mongodb.NewTxManager(client)

	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		txManager,
		security.NewPasswordHasher(cfg.BcryptCost),
		security.NewTokenCodec(cfg.TokenLength, time.Duration(cfg.SessionExpiryHours)*time.Hour),
		log,
	)

	e := api.NewRouter(authService, db, log)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}
