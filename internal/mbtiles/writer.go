// Package mbtiles writes vector tile pyramids into MBTiles archives.
package mbtiles

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS metadata (name TEXT, value TEXT);
CREATE TABLE IF NOT EXISTS tiles (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB);
CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
`

// Writer appends tiles and metadata to an MBTiles archive. SQLite permits
// one writer at a time, so WriteTile serializes on an internal mutex and is
// safe to call from several goroutines.
type Writer struct {
	db     *sql.DB
	insert *sql.Stmt

	mu    sync.Mutex
	count int64
}

// NewWriter creates or opens the archive at path and ensures the MBTiles
// schema exists. Journaling is tuned for bulk writes.
func NewWriter(path string) (*Writer, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=OFF")
	if err != nil {
		return nil, fmt.Errorf("open mbtiles %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create mbtiles schema: %w", err)
	}

	insert, err := db.Prepare("INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Writer{db: db, insert: insert}, nil
}

// WriteTile stores one tile payload. MBTiles rows count from the south, so
// the XYZ row is flipped to TMS here.
func (w *Writer) WriteTile(tile domain.TileCoord, data []byte) error {
	row := (1 << tile.Zoom) - 1 - tile.Y

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.insert.Exec(tile.Zoom, tile.X, row, data); err != nil {
		return fmt.Errorf("write tile %s: %w", tile, err)
	}
	w.count++
	return nil
}

// WriteMetadata replaces the metadata table with the given rows.
func (w *Writer) WriteMetadata(meta map[string]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM metadata"); err != nil {
		tx.Rollback()
		return err
	}
	for name, value := range meta {
		if _, err := tx.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", name, value); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// Count reports how many tiles this writer has stored.
func (w *Writer) Count() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.insert.Close(); err != nil {
		w.db.Close()
		return err
	}
	return w.db.Close()
}

// Metadata flattens a TileJSON document into MBTiles metadata rows. Vector
// archives additionally require a json row listing the vector_layers.
func Metadata(doc *domain.TileJSON) (map[string]string, error) {
	meta := map[string]string{
		"name":    doc.Name,
		"format":  "pbf",
		"type":    "baselayer",
		"minzoom": strconv.Itoa(doc.MinZoom),
		"maxzoom": strconv.Itoa(doc.MaxZoom),
		"bounds":  joinFloats(doc.Bounds[:]),
		"center": fmt.Sprintf("%s,%d",
			joinFloats(doc.Center[:2]), int(doc.Center[2])),
	}
	if doc.Description != "" {
		meta["description"] = doc.Description
	}
	if doc.Attribution != "" {
		meta["attribution"] = doc.Attribution
	}
	if doc.Version != "" {
		meta["version"] = doc.Version
	}

	layers, err := json.Marshal(struct {
		VectorLayers []domain.VectorLayer `json:"vector_layers"`
	}{VectorLayers: doc.VectorLayers})
	if err != nil {
		return nil, fmt.Errorf("encode vector_layers: %w", err)
	}
	meta["json"] = string(layers)

	return meta, nil
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
