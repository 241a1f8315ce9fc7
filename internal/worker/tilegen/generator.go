package tilegen

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/mbtiles"
	"github.com/dbrnz/openmaptiles-tools/internal/worker"
)

const (
	defaultWorkers = 4
	jobBuffer      = 256
)

// Options configure one pyramid generation run.
type Options struct {
	Pyramid Pyramid
	Workers int
	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
}

// Summary reports what a finished run did.
type Summary struct {
	Total    int64
	Rendered int64
	Empty    int64
	Failed   int64
	Took     time.Duration
}

// Generator fans the pyramid's tiles through a render pool into an MBTiles
// archive.
type Generator struct {
	repo   repository.TileRepository
	writer *mbtiles.Writer
	opts   Options
	logger *zap.Logger
}

func NewGenerator(
	repo repository.TileRepository,
	writer *mbtiles.Writer,
	opts Options,
	logger *zap.Logger,
) *Generator {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Generator{
		repo:   repo,
		writer: writer,
		opts:   opts,
		logger: logger,
	}
}

// Run renders the whole pyramid and blocks until every worker has drained
// the feed. Cancelling ctx stops the run early; tiles already written stay
// in the archive.
func (g *Generator) Run(ctx context.Context) (*Summary, error) {
	if err := g.opts.Pyramid.Validate(); err != nil {
		return nil, err
	}

	total := g.opts.Pyramid.Count()
	g.logger.Info("Starting pyramid generation",
		zap.Int("min_zoom", g.opts.Pyramid.MinZoom),
		zap.Int("max_zoom", g.opts.Pyramid.MaxZoom),
		zap.Int64("tiles", total),
		zap.Int("workers", g.opts.Workers))

	var bar *pb.ProgressBar
	if g.opts.Progress != nil {
		bar = pb.New64(total)
		bar.Output = g.opts.Progress
		bar.SetRefreshRate(time.Second)
		bar.Start()
	}

	jobs := make(chan domain.TileCoord, jobBuffer)
	stats := &Stats{}

	manager := worker.NewWorkerManager(g.logger)
	for i := 0; i < g.opts.Workers; i++ {
		manager.Register(NewRenderWorker(i, jobs, g.repo, g.writer, bar, stats, g.logger))
	}
	if err := manager.Start(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	go g.opts.Pyramid.Tiles(ctx, jobs)
	manager.Wait()

	if bar != nil {
		bar.Finish()
	}

	summary := &Summary{
		Total:    total,
		Rendered: stats.Rendered.Load(),
		Empty:    stats.Empty.Load(),
		Failed:   stats.Failed.Load(),
		Took:     time.Since(start),
	}

	g.logger.Info("Pyramid generation finished",
		zap.Int64("rendered", summary.Rendered),
		zap.Int64("empty", summary.Empty),
		zap.Int64("failed", summary.Failed),
		zap.Duration("took", summary.Took))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}
