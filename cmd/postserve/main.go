package main

// @title Postserve Tile API
// @version 1.0.0
// @description Vector tile server backed by a PostGIS database. Composes layer queries from a tileset definition and serves Mapbox Vector Tiles rendered by ST_AsMVT, plus the TileJSON metadata document map clients bootstrap from.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8090
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/dbrnz/openmaptiles-tools/docs"
	"github.com/dbrnz/openmaptiles-tools/internal/config"
	httpDelivery "github.com/dbrnz/openmaptiles-tools/internal/delivery/http"
	"github.com/dbrnz/openmaptiles-tools/internal/delivery/http/handler"
	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/metrics"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/logger"
	"github.com/dbrnz/openmaptiles-tools/internal/repository/cache"
	"github.com/dbrnz/openmaptiles-tools/internal/repository/postgres"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
	"github.com/dbrnz/openmaptiles-tools/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting postserve")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
	)

	// 3. Parse the tileset definition
	if cfg.Tileset.Path == "" {
		log.Fatal("TILESET_PATH must point to a tileset definition")
	}
	ts, err := tileset.Load(cfg.Tileset.Path)
	if err != nil {
		log.Fatal("Failed to load tileset", zap.Error(err))
	}
	log.Info("Tileset loaded",
		zap.String("id", ts.ID),
		zap.Int("layers", len(ts.Layers)),
		zap.Int("min_zoom", ts.MinZoom),
		zap.Int("max_zoom", ts.MaxZoom),
	)

	// 4. Connect to PostgreSQL and gate on the PostGIS version
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pgisVersion, err := db.CheckPostGIS(ctx)
	if err != nil {
		log.Fatal("PostGIS version check failed", zap.Error(err))
	}
	log.Info("PostgreSQL connected", zap.String("postgis", pgisVersion))

	// 5. Optional Redis tile cache
	var cacheRepo repository.CacheRepository
	var redisClient *cache.Redis
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
		cacheRepo = cache.NewCacheRepository(redisClient)
		log.Info("Redis connected", zap.Duration("tile_ttl", cfg.Cache.TilesCacheTTL))
	} else {
		log.Info("Tile cache disabled")
	}

	// 6. Optional Prometheus listener
	var tileMetrics *metrics.TileMetrics
	var metricsProvider *metrics.Provider
	if cfg.Metrics.Enabled {
		metricsProvider = metrics.NewProvider(cfg.Metrics.Address, log)
		tileMetrics = metrics.NewTileMetrics(metricsProvider.Registerer())
		go func() {
			if err := metricsProvider.Serve(); err != nil {
				log.Error("Metrics listener failed", zap.Error(err))
			}
		}()
	}

	// 7. Initialize repositories
	var tileRepo repository.TileRepository
	if cfg.Tileset.SQLFile != "" {
		query, err := os.ReadFile(cfg.Tileset.SQLFile)
		if err != nil {
			log.Fatal("Failed to read tile query file", zap.Error(err))
		}
		tileRepo, err = postgres.NewTileRepositoryFromSQL(db, string(query))
		if err != nil {
			log.Fatal("Failed to prepare tile query from file", zap.Error(err))
		}
		log.Info("Tile query loaded from file", zap.String("path", cfg.Tileset.SQLFile))
		log.Debug("Using tile query", zap.String("sql", string(query)))
	} else {
		composed, err := sqltomvt.ComposeTileTemplate(ts, domain.LayerFilter{}, sqltomvt.ServingOptions(ts))
		if err != nil {
			log.Fatal("Failed to compose tile query", zap.Error(err))
		}
		log.Debug("Using tile query", zap.String("sql", composed.SQL()))

		tileRepo, err = postgres.NewTileRepository(db, ts)
		if err != nil {
			log.Fatal("Failed to prepare tile query", zap.Error(err))
		}
	}
	metadataRepo := postgres.NewMetadataRepository(db)

	log.Info("Repositories initialized")

	// 8. Initialize use cases
	tileUC := usecase.NewTileUseCase(
		tileRepo,
		cacheRepo,
		tileMetrics,
		ts.ID,
		cfg.Cache.TilesCacheTTL,
		log,
	)
	metadataUC := usecase.NewMetadataUseCase(
		metadataRepo,
		ts,
		publicURL(cfg),
		log,
	)

	// 9. Initialize HTTP handlers and server
	tileHandler := handler.NewTileHandler(tileUC, log)
	metadataHandler := handler.NewMetadataHandler(metadataUC, log)
	healthHandler := handler.NewHealthHandler(db, metadataUC, log)

	server := httpDelivery.NewServer(cfg, log, tileHandler, metadataHandler, healthHandler)

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if metricsProvider != nil {
		if err := metricsProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Metrics listener shutdown error", zap.Error(err))
		}
	}

	log.Info("Server stopped successfully")
}

// publicURL is what the TileJSON advertises as the tile endpoint base.
// Falls back to the listen address for local runs.
func publicURL(cfg *config.Config) string {
	if cfg.Tileset.PublicURL != "" {
		return cfg.Tileset.PublicURL
	}
	return fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
}
