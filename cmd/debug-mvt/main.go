package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb/encoding/mvt"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/config"
	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/logger"
	"github.com/dbrnz/openmaptiles-tools/internal/repository/postgres"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
	"github.com/dbrnz/openmaptiles-tools/internal/usecase"
	"github.com/dbrnz/openmaptiles-tools/internal/usecase/dto"
)

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var layers stringList
	tilesetPath := flag.String("tileset", cfg.Tileset.Path, "path to the tileset definition")
	flag.Var(&layers, "layer", "inspect only this layer (repeatable)")
	excludeLayers := flag.Bool("exclude-layers", false, "treat --layer as layers to skip")
	columns := flag.String("columns", "", "comma-separated attribute columns to project")
	sharedColumns := flag.Bool("shared-columns", false, "fail when a selected column is missing from a layer")
	showNames := flag.Bool("show-names", false, "resolve localized names instead of hiding them")
	nameLang := flag.String("name-lang", "", "comma-separated locales for --show-names (default: tileset languages)")
	showGeometry := flag.Bool("show-geometry", false, "project the source geometry as WKT")
	showMVTGeometry := flag.Bool("show-mvt-geometry", false, "project the tile-clipped encoded geometry")
	noGeomTest := flag.Bool("no-geom-test", false, "drop the geometry validity flags")
	showQuery := flag.Bool("show-query", false, "print each layer's SQL instead of running it")
	summary := flag.Bool("summary", false, "render the composed tile and print per-layer feature counts")
	maxCellWidth := flag.Int("max-cell-width", 0, "truncate table cells beyond this width")
	verbose := flag.Bool("verbose", false, "debug logging")

	pghost := flag.String("pghost", cfg.Database.Host, "PostgreSQL host")
	pgport := flag.Int("pgport", cfg.Database.Port, "PostgreSQL port")
	pgdatabase := flag.String("pgdatabase", cfg.Database.DBName, "PostgreSQL database")
	pguser := flag.String("pguser", cfg.Database.User, "PostgreSQL user")
	pgpassword := flag.String("pgpassword", cfg.Database.Password, "PostgreSQL password")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: debug-mvt [flags] zoom/x/y\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	tile, err := domain.ParseTileCoord(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	cfg.Database.Host = *pghost
	cfg.Database.Port = *pgport
	cfg.Database.DBName = *pgdatabase
	cfg.Database.User = *pguser
	cfg.Database.Password = *pgpassword

	log := logger.NewTool(*verbose)
	defer log.Sync()

	if *tilesetPath == "" {
		log.Fatal("a tileset definition is required: pass --tileset or set TILESET_PATH")
	}
	ts, err := tileset.Load(*tilesetPath)
	if err != nil {
		log.Fatal("Failed to load tileset", zap.Error(err))
	}

	req := dto.InspectRequest{
		Zoom:                 tile.Zoom,
		X:                    tile.X,
		Y:                    tile.Y,
		Layers:               layers,
		Exclude:              *excludeLayers,
		RequireSharedColumns: *sharedColumns,
		GeometryChecks:       !*noGeomTest,
		RawGeometry:          *showGeometry,
		ClippedGeometry:      *showMVTGeometry,
		MaxCellWidth:         *maxCellWidth,
	}
	if *columns != "" {
		req.Columns = strings.Split(*columns, ",")
	}
	if *showNames {
		req.Locales = ts.Languages
		if *nameLang != "" {
			req.Locales = strings.Split(*nameLang, ",")
		}
	}

	// Queries can be printed without a database.
	if *showQuery {
		debugUC := usecase.NewDebugUseCase(nil, ts, log)
		queries, err := debugUC.BuildQueries(req)
		if err != nil {
			log.Fatal("Failed to build queries", zap.Error(err))
		}
		for _, q := range queries {
			fmt.Printf("-- layer %s\n%s\n\n", q.LayerID, q.SQL())
		}
		return
	}

	db, err := postgres.NewDebug(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	pgisVersion, err := db.CheckPostGIS(ctx)
	if err != nil {
		log.Fatal("PostGIS version check failed", zap.Error(err))
	}
	log.Debug("PostgreSQL connected", zap.String("postgis", pgisVersion))

	if *summary {
		if err := printSummary(ctx, db, ts, tile, req); err != nil {
			log.Fatal("Failed to summarize tile", zap.Error(err))
		}
		return
	}

	debugUC := usecase.NewDebugUseCase(postgres.NewDebugRepository(db), ts, log)
	reports, err := debugUC.InspectTile(ctx, req)
	if err != nil {
		log.Fatal("Inspection failed", zap.Error(err))
	}

	for i, report := range reports {
		if i > 0 {
			fmt.Println()
		}
		if err := report.Render(os.Stdout); err != nil {
			log.Fatal("Failed to render report", zap.Error(err))
		}
	}
}

// printSummary renders the tile the way the server would, decodes it and
// prints one line per layer with its feature count.
func printSummary(ctx context.Context, db *postgres.DB, ts *tileset.Tileset, tile domain.TileCoord, req dto.InspectRequest) error {
	opts := sqltomvt.ServingOptions(ts)
	opts.SelectedColumns = req.Columns
	opts.RequireSharedColumns = req.RequireSharedColumns
	if len(req.Locales) > 0 {
		opts.Locales = req.Locales
	}

	filter := domain.LayerFilter{IDs: req.Layers, Exclude: req.Exclude}
	composed, err := sqltomvt.ComposeTileTemplate(ts, filter, opts)
	if err != nil {
		return err
	}

	tileRepo, err := postgres.NewTileRepositoryFromSQL(db, composed.SQL())
	if err != nil {
		return err
	}
	data, err := tileRepo.RenderTile(ctx, tile)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		fmt.Printf("tile %s is empty\n", tile)
		return nil
	}

	decoded, err := mvt.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("decode tile: %w", err)
	}

	fmt.Printf("tile %s: %d bytes, %d layers\n", tile, len(data), len(decoded))
	for _, layer := range decoded {
		fmt.Printf("  %s: %d features\n", layer.Name, len(layer.Features))
	}
	return nil
}
