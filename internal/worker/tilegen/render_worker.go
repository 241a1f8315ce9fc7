package tilegen

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/mbtiles"
	"github.com/dbrnz/openmaptiles-tools/internal/worker"
)

// Stats aggregates tile outcomes across the render pool.
type Stats struct {
	Rendered atomic.Int64
	Empty    atomic.Int64
	Failed   atomic.Int64
}

// RenderWorker drains the tile channel, renders each tile through the
// database and writes non-empty payloads to the archive. Empty tiles are
// counted but not stored.
type RenderWorker struct {
	*worker.BaseWorker
	tiles  <-chan domain.TileCoord
	repo   repository.TileRepository
	writer *mbtiles.Writer
	bar    *pb.ProgressBar
	stats  *Stats
}

func NewRenderWorker(
	n int,
	tiles <-chan domain.TileCoord,
	repo repository.TileRepository,
	writer *mbtiles.Writer,
	bar *pb.ProgressBar,
	stats *Stats,
	logger *zap.Logger,
) *RenderWorker {
	return &RenderWorker{
		BaseWorker: worker.NewBaseWorker(fmt.Sprintf("tile-render-%d", n), logger),
		tiles:      tiles,
		repo:       repo,
		writer:     writer,
		bar:        bar,
		stats:      stats,
	}
}

// Start consumes tiles until the channel is closed and drained.
func (w *RenderWorker) Start(ctx context.Context) error {
	for {
		select {
		case <-w.StopChan():
			return nil

		case <-ctx.Done():
			return ctx.Err()

		case tile, ok := <-w.tiles:
			if !ok {
				return nil
			}
			w.process(ctx, tile)
		}
	}
}

// process renders one tile. Failures are counted and logged, never fatal,
// so one broken tile does not abort the rest of the pyramid.
func (w *RenderWorker) process(ctx context.Context, tile domain.TileCoord) {
	if w.bar != nil {
		defer w.bar.Increment()
	}

	data, err := w.repo.RenderTile(ctx, tile)
	if err != nil {
		w.stats.Failed.Add(1)
		w.Logger().Error("Tile render failed",
			zap.String("tile", tile.String()),
			zap.Error(err))
		return
	}

	if len(data) == 0 {
		w.stats.Empty.Add(1)
		return
	}

	if err := w.writer.WriteTile(tile, data); err != nil {
		w.stats.Failed.Add(1)
		w.Logger().Error("Tile write failed",
			zap.String("tile", tile.String()),
			zap.Error(err))
		return
	}

	w.stats.Rendered.Add(1)
}
