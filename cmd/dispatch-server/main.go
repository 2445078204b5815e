package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/avaldez96/rescue-dispatch/internal/alerts"
	"github.com/avaldez96/rescue-dispatch/internal/api"
	"github.com/avaldez96/rescue-dispatch/internal/audit"
	"github.com/avaldez96/rescue-dispatch/internal/config"
	"github.com/avaldez96/rescue-dispatch/internal/dispatch"
	"github.com/avaldez96/rescue-dispatch/internal/logging"
	"github.com/avaldez96/rescue-dispatch/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := audit.NewRecorder(db, cfg.Audit.WorkerCount, cfg.Audit.BufferSize)
	recorder.Start(ctx)

	coordinator := dispatch.NewCoordinator(db, db, db, recorder)
	alertSvc := alerts.NewService(db, coordinator, recorder)

	var sweeper *audit.Sweeper
	if cfg.Audit.SweepEnabled {
		sweeper = audit.NewSweeper(db, db, cfg.Audit.SweepInterval, recorder)
		sweeper.Start(ctx)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-User-ID", "X-User-Role"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.API.RateLimitRPS))

	handler := api.NewHandler(alertSvc, coordinator)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	// Drain in-flight requests first: handlers record audit events, so the
	// recorder must outlive them.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sweeper != nil {
		sweeper.Stop()
	}
	recorder.Stop()
	cancel()

	slog.Info("shutdown complete")
}
