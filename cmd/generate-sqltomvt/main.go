package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/config"
	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/logger"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// Prints the tile query a tileset composes to, either as a template
// binding zoom, x and y as $1, $2 and $3, or with a literal tile baked in.
// The output can be fed back to postserve through TILESET_SQL_FILE.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var layers stringList
	tilesetPath := flag.String("tileset", cfg.Tileset.Path, "path to the tileset definition")
	flag.Var(&layers, "layer", "compose only this layer (repeatable)")
	excludeLayers := flag.Bool("exclude-layers", false, "treat --layer as layers to skip")
	tileID := flag.String("tile", "", "bake a literal zoom/x/y tile into the query instead of $1/$2/$3 binds")
	columns := flag.String("columns", "", "comma-separated attribute columns to project")
	sharedColumns := flag.Bool("shared-columns", false, "fail when a selected column is missing from a layer")
	nameLang := flag.String("name-lang", "", "comma-separated locales for name resolution (default: tileset languages)")
	hideNames := flag.Bool("hide-names", false, "hide localized names behind the placeholder column")
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

	opts := sqltomvt.ServingOptions(ts)
	opts.RequireSharedColumns = *sharedColumns
	if *columns != "" {
		opts.SelectedColumns = strings.Split(*columns, ",")
	}
	if *nameLang != "" {
		opts.Locales = strings.Split(*nameLang, ",")
	}
	if *hideNames {
		opts.Locales = nil
	}

	filter := domain.LayerFilter{IDs: layers, Exclude: *excludeLayers}

	var query *sqltomvt.TileQuery
	if *tileID != "" {
		tile, err := domain.ParseTileCoord(*tileID)
		if err != nil {
			log.Fatal("Invalid --tile", zap.Error(err))
		}
		query, err = sqltomvt.ComposeTile(ts, tile, filter, opts)
		if err != nil {
			log.Fatal("Failed to compose tile query", zap.Error(err))
		}
	} else {
		query, err = sqltomvt.ComposeTileTemplate(ts, filter, opts)
		if err != nil {
			log.Fatal("Failed to compose tile query", zap.Error(err))
		}
	}

	fmt.Println(query.SQL())
}
