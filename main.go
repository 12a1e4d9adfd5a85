package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Mouss911/webnet-back/auth"
	"github.com/Mouss911/webnet-back/config"
	orderControllers "github.com/Mouss911/webnet-back/controllers/order"
	"github.com/Mouss911/webnet-back/database"
	"github.com/Mouss911/webnet-back/logging"
	"github.com/Mouss911/webnet-back/metrics"
	"github.com/Mouss911/webnet-back/routes"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.LogLevel)
	slog.Info("starting application", "env", cfg.Env, "order_status_policy", cfg.OrderStatusPolicy)

	// Init DB
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	if cfg.Seed {
		if err := database.Seed(db); err != nil {
			return err
		}
	}

	policy, err := orderControllers.PolicyFor(cfg.OrderStatusPolicy)
	if err != nil {
		return err
	}
	m := metrics.NewServerMetrics(nil)

	// Gin setup
	if os.Getenv("GIN_MODE") == "" && cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logging.RequestLogger(), gin.Recovery(), m.Middleware())

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", logging.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
		AllowCredentials: !allowsAnyOrigin(cfg.CORSAllowOrigins),
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, routes.Deps{
		DB:      db,
		Tokens:  auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Policy:  policy,
		Hub:     orderControllers.NewHub(),
		Metrics: m,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Drop revoked token ids once they would have expired anyway
	go auth.StartRevocationSweeper(ctx, db, time.Hour)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server running", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Credentials are only allowed with an explicit origin list.
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
