package sqltomvt

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/lang"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

// TileQuery is the composed multi-layer tile statement. Executing its SQL
// returns a single bytea column holding the finished tile, empty bytes
// when no layer had data.
type TileQuery struct {
	// Tile is set for literal compositions and nil for the bind template.
	Tile    *domain.TileCoord
	Queries []*LayerQuery
}

// LayerIDs lists the composed layers in compositing order.
func (q *TileQuery) LayerIDs() []string {
	ids := make([]string, len(q.Queries))
	for i, lq := range q.Queries {
		ids[i] = lq.LayerID
	}
	return ids
}

// ComposeTile builds the statement for one tile: every eligible layer in
// declaration order, each aggregated into its own MVT layer buffer, all
// buffers concatenated. Encoded geometry output is forced on since the
// aggregation is defined over it.
func ComposeTile(ts *tileset.Tileset, tile domain.TileCoord, filter domain.LayerFilter, opts Options) (*TileQuery, error) {
	if err := tile.Validate(); err != nil {
		return nil, err
	}
	layers, err := EligibleLayers(ts, ts.LayersForZoom(tile.Zoom), filter, opts)
	if err != nil {
		return nil, err
	}

	opts.EmitTileClippedGeometry = true
	q := &TileQuery{Tile: &tile}
	for _, layer := range layers {
		lq, err := BuildLayerQuery(layer, tile, opts)
		if err != nil {
			return nil, err
		}
		q.Queries = append(q.Queries, lq)
	}
	return q, nil
}

// ComposeTileTemplate builds the zoom-parameterized form over positional
// binds (zoom, x, y). All declared layers participate behind their zoom
// gates, so one prepared statement serves the whole pyramid.
func ComposeTileTemplate(ts *tileset.Tileset, filter domain.LayerFilter, opts Options) (*TileQuery, error) {
	layers, err := EligibleLayers(ts, ts.Layers, filter, opts)
	if err != nil {
		return nil, err
	}

	opts.EmitTileClippedGeometry = true
	q := &TileQuery{}
	for _, layer := range layers {
		lq, err := BuildLayerTemplate(layer, opts)
		if err != nil {
			return nil, err
		}
		q.Queries = append(q.Queries, lq)
	}
	return q, nil
}

// EligibleLayers applies the layer filter and the column restriction to
// the candidates, preserving declaration order throughout. Filters and
// column selections subtract layers, never reorder them. Exposed so the
// inspection path selects exactly the layers a composed tile would.
func EligibleLayers(ts *tileset.Tileset, candidates []tileset.Layer, filter domain.LayerFilter, opts Options) ([]tileset.Layer, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	for _, id := range filter.IDs {
		if !ts.HasLayer(id) {
			return nil, errors.Newf(errors.ErrUnknownLayer,
				"layer %q is not declared in tileset %q", id, ts.Name)
		}
	}

	layers := make([]tileset.Layer, 0, len(candidates))
	for _, layer := range candidates {
		if filter.Allows(layer.ID) {
			layers = append(layers, layer)
		}
	}
	if len(layers) == 0 {
		return nil, errors.ErrNoEligibleLayers
	}

	if len(opts.SelectedColumns) > 0 {
		restricted, err := restrictByColumns(layers, opts)
		if err != nil {
			return nil, err
		}
		layers = restricted
		if len(layers) == 0 {
			return nil, errors.ErrNoEligibleLayers
		}
	}
	return layers, nil
}

// restrictByColumns keeps the layers carrying every selected column. A
// column absent from all eligible layers is a caller error; a column
// missing from some layers skips those layers, unless the caller required
// the selection to be shared by everything it named.
func restrictByColumns(layers []tileset.Layer, opts Options) ([]tileset.Layer, error) {
	for _, column := range opts.SelectedColumns {
		found := false
		for _, layer := range layers {
			if layer.HasField(column) {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Newf(errors.ErrUnknownColumn,
				"column %q is not present in any eligible layer", column)
		}
	}

	var restricted []tileset.Layer
	for _, layer := range layers {
		missing := ""
		for _, column := range opts.SelectedColumns {
			if !layer.HasField(column) {
				missing = column
				break
			}
		}
		if missing == "" {
			restricted = append(restricted, layer)
			continue
		}
		if opts.RequireSharedColumns {
			return nil, errors.Newf(errors.ErrUnknownColumn,
				"layer %q has no column %q", layer.ID, missing)
		}
	}
	return restricted, nil
}

// SQL renders the composed statement:
//
//	SELECT COALESCE(STRING_AGG(mvtl, '' ORDER BY ord), '') FROM (
//	  per-layer ST_AsMVT aggregations chained with UNION ALL
//	) AS tile
//
// Each layer aggregates to one buffer; layers with no encodable rows
// aggregate to NULL and coalesce to zero bytes, so they contribute
// nothing to the tile. The ordinal pins concatenation to declaration
// order.
func (q *TileQuery) SQL() string {
	parts := make([]string, 0, len(q.Queries))
	for i, lq := range q.Queries {
		parts = append(parts, fmt.Sprintf(
			"SELECT %d AS ord, COALESCE(ST_AsMVT(t.*, %s, %d, %s), ''::bytea) AS mvtl FROM (%s) AS t WHERE t.%s IS NOT NULL",
			i,
			pq.QuoteLiteral(lq.LayerID),
			lq.Extent,
			pq.QuoteLiteral(MVTGeometryAlias),
			lq.SQL(),
			pq.QuoteIdentifier(MVTGeometryAlias),
		))
	}
	return "SELECT COALESCE(STRING_AGG(mvtl, ''::bytea ORDER BY ord), ''::bytea) AS mvt FROM (" +
		strings.Join(parts, " UNION ALL ") + ") AS tile"
}

// FieldDiscoveryQuery wraps the layer's base source so executing it
// returns zero rows but full column metadata. Metadata assembly uses it
// to advertise attribute types without reading any data.
func FieldDiscoveryQuery(layer tileset.Layer) string {
	return fmt.Sprintf("SELECT * FROM %s(ST_TileEnvelope(0, 0, 0), %d) AS t WHERE false LIMIT 0",
		pq.QuoteIdentifier(layer.Source.Function), layer.MaxZoom)
}

// HiddenNameAlias re-exports the placeholder alias for callers that only
// deal with composed queries.
const HiddenNameAlias = lang.HiddenNameAlias
