package sqltomvt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/lang"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

// Options control the shape of a built layer query. The zero value is the
// serving default minus geometry output; serving callers should start
// from ServingOptions.
type Options struct {
	// SelectedColumns restricts attribute projection to the named fields.
	// Empty selects every declared field.
	SelectedColumns []string

	// RequireSharedColumns turns a selected column missing from an
	// eligible layer into a hard error instead of skipping that layer.
	RequireSharedColumns bool

	// IncludeDebugGeometryChecks adds the is_valid_mvt and is_valid_geom
	// validity flags to the projection.
	IncludeDebugGeometryChecks bool

	// EmitRawGeometryAsText projects the source geometry as WKT under the
	// layer's geometry field name.
	EmitRawGeometryAsText bool

	// EmitTileClippedGeometry projects the tile-clipped encoded geometry
	// under the mvtgeometry alias. Tile composition always needs it.
	EmitTileClippedGeometry bool

	// Locales drive the localized-name fallback chain. Empty hides names
	// behind the neutral placeholder column.
	Locales []string

	// Extent and Buffer override the MVT extent and the layer's declared
	// buffer when positive.
	Extent int
	Buffer int
}

func (o Options) extent() int {
	if o.Extent > 0 {
		return o.Extent
	}
	return DefaultExtent
}

func (o Options) buffer(layer tileset.Layer) int {
	if o.Buffer > 0 {
		return o.Buffer
	}
	return layer.BufferSize
}

// ServingOptions are the options tiles are served with: encoded geometry
// only, names resolved for the tileset's declared languages.
func ServingOptions(ts *tileset.Tileset) Options {
	return Options{
		EmitTileClippedGeometry: true,
		Locales:                 ts.Languages,
	}
}

// Envelope is the tile-envelope expression a query is built around:
// literal coordinates for one-shot queries, positional binds for the
// prepared template the tile server executes per request.
type Envelope struct {
	expr string
	zoom string
}

func LiteralEnvelope(tile domain.TileCoord) Envelope {
	return Envelope{
		expr: fmt.Sprintf("ST_TileEnvelope(%d, %d, %d)", tile.Zoom, tile.X, tile.Y),
		zoom: strconv.Itoa(tile.Zoom),
	}
}

// BindEnvelope builds the envelope over the positional parameters
// (zoom, x, y), so one prepared statement serves every tile.
func BindEnvelope() Envelope {
	return Envelope{
		expr: "ST_TileEnvelope($1, $2, $3)",
		zoom: "$1::integer",
	}
}

func (e Envelope) Expr() string { return e.expr }
func (e Envelope) Zoom() string { return e.zoom }

// sourceBranch is one relation a layer reads from. Literal builds pin a
// single branch chosen by zoom; template builds fan out over the
// generalization tiers with zoom guards, which PostgreSQL collapses to
// one-time filters at execution.
type sourceBranch struct {
	relation   string
	isFunction bool
	zoomCond   string
}

// LayerQuery is the structured form of one layer's query: source branches,
// predicates and the projected column list. SQL text exists only once
// SQL() renders it.
type LayerQuery struct {
	LayerID string
	Columns []Column
	Extent  int
	Buffer  int

	envelope  Envelope
	geomField string
	branches  []sourceBranch
}

// BuildLayerQuery builds the query for one layer at one tile. The tile
// coordinate is validated before anything else; an out-of-range coordinate
// never produces SQL.
func BuildLayerQuery(layer tileset.Layer, tile domain.TileCoord, opts Options) (*LayerQuery, error) {
	if err := tile.Validate(); err != nil {
		return nil, err
	}
	relation, isFunction := layer.SourceForZoom(tile.Zoom)
	branch := sourceBranch{relation: relation, isFunction: isFunction}
	return newLayerQuery(layer, LiteralEnvelope(tile), []sourceBranch{branch}, opts)
}

// BuildLayerTemplate builds the zoom-parameterized form of the layer
// query. Every generalization tier becomes a UNION ALL branch guarded by
// its zoom range, plus the layer's own min/max gate, so the statement is
// correct for any bound zoom.
func BuildLayerTemplate(layer tileset.Layer, opts Options) (*LayerQuery, error) {
	env := BindEnvelope()
	return newLayerQuery(layer, env, templateBranches(layer, env.zoom), opts)
}

func templateBranches(layer tileset.Layer, zoomExpr string) []sourceBranch {
	gate := fmt.Sprintf("%s BETWEEN %d AND %d", zoomExpr, layer.MinZoom, layer.MaxZoom)

	var branches []sourceBranch
	prev := -1
	for _, tier := range layer.Generalization {
		cond := fmt.Sprintf("%s <= %d", zoomExpr, tier.MaxZoom)
		if prev >= 0 {
			cond = fmt.Sprintf("%s > %d AND %s", zoomExpr, prev, cond)
		}
		branches = append(branches, sourceBranch{
			relation: tier.View,
			zoomCond: gate + " AND " + cond,
		})
		prev = tier.MaxZoom
	}

	base := sourceBranch{relation: layer.Source.Function, isFunction: true, zoomCond: gate}
	if prev >= 0 {
		base.zoomCond = fmt.Sprintf("%s AND %s > %d", gate, zoomExpr, prev)
	}
	return append(branches, base)
}

func newLayerQuery(layer tileset.Layer, env Envelope, branches []sourceBranch, opts Options) (*LayerQuery, error) {
	for _, name := range opts.SelectedColumns {
		if !layer.HasField(name) {
			return nil, errors.Newf(errors.ErrUnknownColumn,
				"layer %q has no column %q", layer.ID, name)
		}
	}

	nameExpr, nameAlias, err := lang.NameColumn(opts.Locales)
	if err != nil {
		return nil, err
	}

	q := &LayerQuery{
		LayerID:   layer.ID,
		Extent:    opts.extent(),
		Buffer:    opts.buffer(layer),
		envelope:  env,
		geomField: layer.GeometryField,
		branches:  branches,
	}

	geom := pq.QuoteIdentifier(layer.GeometryField)
	mvtGeomExpr := fmt.Sprintf("ST_AsMVTGeom(%s, %s, %d, %d, true)",
		geom, env.expr, q.Extent, q.Buffer)

	cols := []Column{{
		Expr:  pq.QuoteIdentifier(layer.KeyField),
		Alias: layer.KeyField,
		Kind:  KindKey,
	}}

	nameKind := KindAttribute
	if nameAlias == lang.HiddenNameAlias {
		nameKind = KindHiddenName
	}
	cols = append(cols, Column{Expr: nameExpr, Alias: nameAlias, Kind: nameKind})

	for _, field := range attributeFields(layer, opts.SelectedColumns) {
		cols = append(cols, AttributeColumn(field))
	}

	if opts.IncludeDebugGeometryChecks {
		cols = append(cols, Column{
			Expr:  "ST_IsValid(" + mvtGeomExpr + ")",
			Alias: ValidMVTAlias,
			Kind:  KindMVTValidity,
		})
	}
	if opts.EmitTileClippedGeometry {
		cols = append(cols, Column{
			Expr:  mvtGeomExpr,
			Alias: MVTGeometryAlias,
			Kind:  KindEncodedGeometry,
		})
	}
	if opts.IncludeDebugGeometryChecks {
		cols = append(cols, Column{
			Expr:  "ST_IsValid(" + geom + ")",
			Alias: ValidGeomAlias,
			Kind:  KindGeomValidity,
		})
	}
	switch {
	case opts.EmitRawGeometryAsText:
		cols = append(cols, Column{
			Expr:  "ST_AsText(" + geom + ")",
			Alias: layer.GeometryField,
			Kind:  KindGeometry,
		})
	case !opts.EmitTileClippedGeometry:
		cols = append(cols, Column{
			Expr:  geom,
			Alias: layer.GeometryField,
			Kind:  KindGeometry,
		})
	}

	q.Columns = cols
	return q, nil
}

// attributeFields picks the declared fields to project, alphabetically
// for a stable select list. The key field, the geometry field and the
// name column are projected through their own roles, never as plain
// attributes.
func attributeFields(layer tileset.Layer, selected []string) []string {
	pick := make(map[string]struct{})
	if len(selected) == 0 {
		for field := range layer.Fields {
			pick[field] = struct{}{}
		}
	} else {
		for _, field := range selected {
			if _, ok := layer.Fields[field]; ok {
				pick[field] = struct{}{}
			}
		}
	}

	fields := make([]string, 0, len(pick))
	for field := range pick {
		if field == layer.KeyField || field == layer.GeometryField || field == lang.NameAlias {
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// SQL renders the layer query. Identifiers are quoted at this boundary
// and nowhere else.
func (q *LayerQuery) SQL() string {
	sel := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		sel[i] = c.SQL()
	}
	selectList := strings.Join(sel, ", ")

	parts := make([]string, 0, len(q.branches))
	for _, b := range q.branches {
		var sb strings.Builder
		sb.WriteString("SELECT ")
		sb.WriteString(selectList)
		sb.WriteString(" FROM ")
		sb.WriteString(pq.QuoteIdentifier(b.relation))
		if b.isFunction {
			sb.WriteString("(" + q.envelope.expr + ", " + q.envelope.zoom + ")")
		}

		var conds []string
		if !b.isFunction {
			// Functions receive the envelope as an argument and filter
			// internally; plain relations need the intersects predicate.
			conds = append(conds, pq.QuoteIdentifier(q.geomField)+" && "+q.envelope.expr)
		}
		if b.zoomCond != "" {
			conds = append(conds, b.zoomCond)
		}
		if len(conds) > 0 {
			sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, " UNION ALL ")
}
