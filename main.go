package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/config"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/database"
	logger "github.com/Daniel-T-Dada/vector-interview-app/internal/logging"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/router"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/services"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/session"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/ws"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const projectRoot = "."

func main() {
	// Initialize Logger with defaults until the config is known.
	log, err := logger.Init(projectRoot, logger.DefaultRotation)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	cfg, err := config.Load(projectRoot, log)
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	log, err = logger.Init(projectRoot, logger.Rotation{
		Directory:  cfg.Logging.Directory,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	seed, err := models.LoadSeed(filepath.Join(projectRoot, cfg.Interview.SeedFile))
	if err != nil {
		log.Fatal("Failed to load interview seed data", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, seed, log)
	if err != nil {
		log.Fatal("Failed to initialize store", zap.Error(err))
	}

	clk := clock.New()
	hub := ws.NewHub(log)
	registry := session.NewRegistry(clk)
	notifier := services.NewNotifier(log)
	submitter := services.NewSubmitter(store, filepath.Join(projectRoot, cfg.Uploads.Directory), notifier, log)
	links := services.NewShareLinks(cfg.Server.ShareSecret, cfg.Interview.ShareTTL, clk)

	sweeper := services.NewSweeper(log, registry, clk, cfg.Interview.SweepInterval, cfg.Interview.IdleTimeout)
	sweeper.Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	r := router.Setup(log, cfg, router.Deps{
		Store:     store,
		Registry:  registry,
		Hub:       hub,
		Broker:    ws.NewDeviceBroker(hub),
		Submitter: submitter,
		Links:     links,
		Clock:     clk,
		AssetsDir: filepath.Join(projectRoot, "assets"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening on http://localhost:" + cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	registry.CloseAll()
}

// openStore picks the backing store from database.driver.
func openStore(ctx context.Context, cfg *config.Config, seed *models.SeedData, log *zap.Logger) (repository.Store, error) {
	if cfg.Database.Driver != "postgres" {
		store, err := repository.NewMemoryStore(seed)
		if err != nil {
			return nil, err
		}
		log.Info("Using in-memory store", zap.Int("interviews", len(seed.Interviews)))
		return store, nil
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	store := repository.NewGormStore(db, seed.Questions)
	if err := store.Migrate(log); err != nil {
		return nil, err
	}
	if err := store.Seed(ctx, seed, log); err != nil {
		return nil, err
	}
	return store, nil
}
