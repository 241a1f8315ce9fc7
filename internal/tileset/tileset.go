// Package tileset holds the in-memory model of a tileset definition: an
// ordered list of layer definitions with zoom ranges, source functions
// and generalization tiers. The model is parsed once and read-only
// afterwards, safe to share across concurrent tile builds.
package tileset

// Default field names and buffer applied when a layer definition leaves
// them out, matching the conventions of OSM-derived schemas.
const (
	DefaultGeometryField = "geometry"
	DefaultKeyField      = "osm_id"
	DefaultBufferSize    = 256
	DefaultPixelScale    = 256
)

type Tileset struct {
	ID          string
	Name        string
	Description string
	Attribution string
	Version     string
	MinZoom     int
	MaxZoom     int
	Center      [3]float64
	Bounds      [4]float64
	PixelScale  int
	Languages   []string
	Layers      []Layer

	// Path is the definition file the tileset was loaded from, empty when
	// parsed from an in-memory document.
	Path string
}

type Layer struct {
	ID             string
	Description    string
	MinZoom        int
	MaxZoom        int
	GeometryField  string
	KeyField       string
	BufferSize     int
	Fields         map[string]string
	Source         Source
	Generalization []Tier
}

// Source references the zoom-parameterized SQL function backing a layer.
// The function is user content, invoked as function(bbox, zoom) and
// expected to return rows carrying at least the key and geometry fields.
type Source struct {
	Function string
}

// Tier backs a layer with a pre-simplified materialized view at zooms up
// to and including MaxZoom. Tiers are declared coarsest first with
// strictly increasing MaxZoom, so exactly one tier (or the base source)
// is active for any zoom.
type Tier struct {
	View    string
	MaxZoom int
}

// LayersForZoom returns the layers whose zoom range covers zoom, both
// boundaries inclusive, preserving declaration order. Declaration order is
// the compositing order of the final tile: the first declared layer draws
// first.
func (ts *Tileset) LayersForZoom(zoom int) []Layer {
	var out []Layer
	for _, l := range ts.Layers {
		if zoom >= l.MinZoom && zoom <= l.MaxZoom {
			out = append(out, l)
		}
	}
	return out
}

// Layer looks a layer up by id.
func (ts *Tileset) Layer(id string) (Layer, bool) {
	for _, l := range ts.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return Layer{}, false
}

// HasLayer reports whether id is declared.
func (ts *Tileset) HasLayer(id string) bool {
	_, ok := ts.Layer(id)
	return ok
}

// GeneralizationThreshold is the highest zoom still served from a tier
// view, or -1 when the layer declares no tiers.
func (l Layer) GeneralizationThreshold() int {
	if len(l.Generalization) == 0 {
		return -1
	}
	return l.Generalization[len(l.Generalization)-1].MaxZoom
}

// SourceForZoom picks the relation backing the layer at zoom: the coarsest
// declared tier still covering it, or the base function above the
// threshold. isFunction distinguishes a function call from a plain
// relation target.
func (l Layer) SourceForZoom(zoom int) (relation string, isFunction bool) {
	for _, t := range l.Generalization {
		if zoom <= t.MaxZoom {
			return t.View, false
		}
	}
	return l.Source.Function, true
}

// HasField reports whether the layer carries the named field, counting the
// key field, the geometry field and every declared attribute.
func (l Layer) HasField(name string) bool {
	if name == l.KeyField || name == l.GeometryField {
		return true
	}
	_, ok := l.Fields[name]
	return ok
}
