// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/api"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/cache"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/config"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/domain"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/engine"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/repository/postgres"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/service"
	"github.com/Loren2024/inventory-forecasting-ml-system/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
		logger.SetLevel("debug")
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger.SetLevel("info")
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewInventoryRepository(db)

	// Build the simulation engine from configuration
	engineCfg, err := buildEngineConfig(cfg.Simulation)
	if err != nil {
		log.Fatalf("Invalid simulation configuration: %v", err)
	}
	eng := engine.New(engineCfg, repo)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := eng.ReloadCatalog(startupCtx); err != nil {
		cancelStartup()
		log.Fatalf("Failed to load product catalog: %v", err)
	}
	cancelStartup()

	// Optional Redis cache for the portfolio rollup
	portfolioCache, err := cache.NewPortfolioCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("portfolio cache unavailable, continuing without it")
		portfolioCache = cache.NewNoopPortfolioCache()
	}

	// Initialize services
	services := &api.Services{
		Report:        service.NewReportService(repo, engineCfg.Window),
		Replenishment: service.NewReplenishmentService(eng, portfolioCache),
	}

	// Initialize HTTP server
	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func buildEngineConfig(sim config.SimulationConfig) (engine.Config, error) {
	engineCfg := engine.DefaultConfig()

	start, err := time.Parse("2006-01-02", sim.WindowStart)
	if err != nil {
		return engine.Config{}, err
	}
	end, err := time.Parse("2006-01-02", sim.WindowEnd)
	if err != nil {
		return engine.Config{}, err
	}

	engineCfg.Window = domain.Window{Start: start, End: end}
	engineCfg.StressMode = sim.StressMode
	if sim.TargetCoverageDays > 0 {
		engineCfg.TargetCoverageDays = float64(sim.TargetCoverageDays)
	}
	if sim.ReferenceVolume > 0 {
		engineCfg.ReferenceVolume = sim.ReferenceVolume
	}

	return engineCfg, nil
}
