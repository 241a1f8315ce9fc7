package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/metrics"
)

// TileUseCase serves encoded tiles cache-first. A nil cache repository
// disables caching; every request then renders through the database.
type TileUseCase struct {
	tileRepo  repository.TileRepository
	cacheRepo repository.CacheRepository
	metrics   *metrics.TileMetrics
	tilesetID string
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewTileUseCase(
	tileRepo repository.TileRepository,
	cacheRepo repository.CacheRepository,
	tileMetrics *metrics.TileMetrics,
	tilesetID string,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *TileUseCase {
	return &TileUseCase{
		tileRepo:  tileRepo,
		cacheRepo: cacheRepo,
		metrics:   tileMetrics,
		tilesetID: tilesetID,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// GetTile returns the tile payload, from cache when possible. The payload
// is never nil on success; zero length means a valid tile with no
// features. Cache failures degrade to a render, never to an error.
func (uc *TileUseCase) GetTile(ctx context.Context, tile domain.TileCoord) ([]byte, error) {
	if err := tile.Validate(); err != nil {
		return nil, err
	}

	if uc.cacheRepo != nil {
		cached, err := uc.cacheRepo.GetTile(ctx, uc.tilesetID, tile)
		if err != nil {
			uc.logger.Warn("Tile cache read failed",
				zap.String("tile", tile.String()),
				zap.Error(err))
		}
		// A hit is non-nil even for an empty tile; nil means a miss.
		if err == nil && cached != nil {
			uc.metrics.ObserveHit(len(cached))
			return cached, nil
		}
	}

	start := time.Now()
	data, err := uc.tileRepo.RenderTile(ctx, tile)
	if err != nil {
		uc.metrics.ObserveError()
		uc.logger.Error("Failed to render tile",
			zap.String("tile", tile.String()),
			zap.Error(err))
		return nil, err
	}
	uc.metrics.ObserveRender(time.Since(start), len(data))

	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.SetTile(ctx, uc.tilesetID, tile, data, uc.cacheTTL); err != nil {
			uc.logger.Warn("Tile cache write failed",
				zap.String("tile", tile.String()),
				zap.Error(err))
		}
	}

	return data, nil
}
