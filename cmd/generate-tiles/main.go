package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/config"
	"github.com/dbrnz/openmaptiles-tools/internal/mbtiles"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/logger"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/utils"
	"github.com/dbrnz/openmaptiles-tools/internal/repository/postgres"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
	"github.com/dbrnz/openmaptiles-tools/internal/usecase"
	"github.com/dbrnz/openmaptiles-tools/internal/worker/tilegen"
)

const summaryPrecision = 100 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	tilesetPath := flag.String("tileset", cfg.Tileset.Path, "path to the tileset definition")
	output := flag.String("output", cfg.Generator.Output, "MBTiles archive to write")
	minZoom := flag.Int("min-zoom", cfg.Generator.MinZoom, "lowest zoom to render")
	maxZoom := flag.Int("max-zoom", cfg.Generator.MaxZoom, "highest zoom to render")
	bbox := flag.String("bbox", cfg.Generator.Bounds, "bounding box west,south,east,north (default: tileset bounds)")
	workers := flag.Int("workers", cfg.Generator.Workers, "concurrent render workers")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	log := logger.NewTool(*verbose)
	defer log.Sync()

	if *tilesetPath == "" {
		log.Fatal("a tileset definition is required: pass --tileset or set TILESET_PATH")
	}
	ts, err := tileset.Load(*tilesetPath)
	if err != nil {
		log.Fatal("Failed to load tileset", zap.Error(err))
	}

	bound := orb.Bound{
		Min: orb.Point{ts.Bounds[0], ts.Bounds[1]},
		Max: orb.Point{ts.Bounds[2], ts.Bounds[3]},
	}
	if *bbox != "" {
		bound, err = utils.ParseBounds(*bbox)
		if err != nil {
			log.Fatal("Invalid --bbox", zap.Error(err))
		}
	}

	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgisVersion, err := db.CheckPostGIS(ctx)
	if err != nil {
		log.Fatal("PostGIS version check failed", zap.Error(err))
	}
	log.Info("PostgreSQL connected", zap.String("postgis", pgisVersion))

	tileRepo, err := postgres.NewTileRepository(db, ts)
	if err != nil {
		log.Fatal("Failed to prepare tile query", zap.Error(err))
	}

	writer, err := mbtiles.NewWriter(*output)
	if err != nil {
		log.Fatal("Failed to open archive", zap.Error(err))
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Error("Failed to close archive", zap.Error(err))
		}
	}()

	// Metadata goes in before rendering so an interrupted archive still
	// identifies itself.
	metadataUC := usecase.NewMetadataUseCase(postgres.NewMetadataRepository(db), ts, "", log)
	doc, err := metadataUC.GetTileJSON(ctx)
	if err != nil {
		log.Fatal("Failed to discover layer fields", zap.Error(err))
	}
	meta, err := mbtiles.Metadata(doc)
	if err != nil {
		log.Fatal("Failed to build archive metadata", zap.Error(err))
	}
	meta["minzoom"] = strconv.Itoa(*minZoom)
	meta["maxzoom"] = strconv.Itoa(*maxZoom)
	if err := writer.WriteMetadata(meta); err != nil {
		log.Fatal("Failed to write archive metadata", zap.Error(err))
	}

	// Ctrl-C stops the feed; tiles already rendered stay in the archive.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Warn("Interrupt received, stopping")
		cancel()
	}()

	gen := tilegen.NewGenerator(tileRepo, writer, tilegen.Options{
		Pyramid: tilegen.Pyramid{
			Bound:   bound,
			MinZoom: *minZoom,
			MaxZoom: *maxZoom,
		},
		Workers:  *workers,
		Progress: os.Stderr,
	}, log)

	summary, err := gen.Run(ctx)
	if err != nil {
		log.Fatal("Generation aborted", zap.Error(err))
	}

	fmt.Printf("Wrote %d tiles to %s (%d empty, %d failed) in %s\n",
		summary.Rendered, *output, summary.Empty, summary.Failed, summary.Took.Round(summaryPrecision))
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
