package tileset_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

const basicTileset = `
tileset:
  name: Test Tileset
  attribution: OpenStreetMap contributors
  version: "1.0"
  minzoom: 0
  maxzoom: 14
  languages: [en, de]
  layers:
    - layer:
        id: water
        description: Water polygons
        min_zoom: 0
        max_zoom: 14
        fields:
          class: String
        source:
          function: layer_water
        generalization:
          - view: osm_water_gen0
            max_zoom: 5
          - view: osm_water_gen1
            max_zoom: 8
    - layer:
        id: buildings
        min_zoom: 13
        max_zoom: 14
        key_field: building_id
        geometry_field: geom
        buffer_size: 64
        fields:
          height: Number
          class: String
        source:
          function: layer_buildings
    - layer:
        id: roads
        min_zoom: 4
        max_zoom: 14
        source:
          function: layer_roads
`

func parseBasic(t *testing.T) *tileset.Tileset {
	t.Helper()
	ts, err := tileset.Parse([]byte(basicTileset), nil)
	require.NoError(t, err)
	return ts
}

func TestParse_Defaults(t *testing.T) {
	ts := parseBasic(t)

	assert.Equal(t, "test-tileset", ts.ID)
	assert.Equal(t, "Test Tileset", ts.Name)
	assert.Equal(t, tileset.DefaultPixelScale, ts.PixelScale)
	assert.Equal(t, [4]float64{-180, -85.0511, 180, 85.0511}, ts.Bounds)
	assert.Equal(t, []string{"en", "de"}, ts.Languages)
	require.Len(t, ts.Layers, 3)

	water := ts.Layers[0]
	assert.Equal(t, tileset.DefaultKeyField, water.KeyField)
	assert.Equal(t, tileset.DefaultGeometryField, water.GeometryField)
	assert.Equal(t, tileset.DefaultBufferSize, water.BufferSize)

	buildings := ts.Layers[1]
	assert.Equal(t, "building_id", buildings.KeyField)
	assert.Equal(t, "geom", buildings.GeometryField)
	assert.Equal(t, 64, buildings.BufferSize)
}

func TestParse_LayerFileReferences(t *testing.T) {
	doc := `
tileset:
  name: Referenced
  maxzoom: 14
  layers:
    - layers/water.yaml
`
	refs := map[string]string{
		"layers/water.yaml": `
layer:
  id: water
  max_zoom: 14
  source:
    function: layer_water
`,
	}

	ts, err := tileset.Parse([]byte(doc), func(path string) ([]byte, error) {
		data, ok := refs[path]
		if !ok {
			return nil, fmt.Errorf("no such file %q", path)
		}
		return []byte(data), nil
	})
	require.NoError(t, err)
	require.Len(t, ts.Layers, 1)
	assert.Equal(t, "water", ts.Layers[0].ID)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "not yaml",
			doc:  "{{{",
		},
		{
			name: "missing name",
			doc: `
tileset:
  maxzoom: 14
  layers:
    - layer: {id: a, max_zoom: 14, source: {function: f}}
`,
		},
		{
			name: "no layers",
			doc: `
tileset:
  name: Empty
  maxzoom: 14
  layers: []
`,
		},
		{
			name: "layer without id",
			doc: `
tileset:
  name: T
  maxzoom: 14
  layers:
    - layer: {max_zoom: 14, source: {function: f}}
`,
		},
		{
			name: "layer without source function",
			doc: `
tileset:
  name: T
  maxzoom: 14
  layers:
    - layer: {id: a, max_zoom: 14}
`,
		},
		{
			name: "duplicate layer ids",
			doc: `
tileset:
  name: T
  maxzoom: 14
  layers:
    - layer: {id: a, max_zoom: 14, source: {function: f}}
    - layer: {id: a, max_zoom: 14, source: {function: g}}
`,
		},
		{
			name: "min above max",
			doc: `
tileset:
  name: T
  maxzoom: 14
  layers:
    - layer: {id: a, min_zoom: 9, max_zoom: 4, source: {function: f}}
`,
		},
		{
			name: "negative min zoom",
			doc: `
tileset:
  name: T
  maxzoom: 14
  layers:
    - layer: {id: a, min_zoom: -1, max_zoom: 4, source: {function: f}}
`,
		},
		{
			name: "tileset zoom range inverted",
			doc: `
tileset:
  name: T
  minzoom: 10
  maxzoom: 2
  layers:
    - layer: {id: a, max_zoom: 14, source: {function: f}}
`,
		},
		{
			name: "tiers not increasing",
			doc: `
tileset:
  name: T
  maxzoom: 14
  layers:
    - layer:
        id: a
        max_zoom: 14
        source: {function: f}
        generalization:
          - {view: gen1, max_zoom: 8}
          - {view: gen0, max_zoom: 5}
`,
		},
		{
			name: "tier with equal max_zoom",
			doc: `
tileset:
  name: T
  maxzoom: 14
  layers:
    - layer:
        id: a
        max_zoom: 14
        source: {function: f}
        generalization:
          - {view: gen0, max_zoom: 5}
          - {view: gen1, max_zoom: 5}
`,
		},
		{
			name: "tier without view",
			doc: `
tileset:
  name: T
  maxzoom: 14
  layers:
    - layer:
        id: a
        max_zoom: 14
        source: {function: f}
        generalization:
          - {max_zoom: 5}
`,
		},
		{
			name: "tier without max_zoom",
			doc: `
tileset:
  name: T
  maxzoom: 14
  layers:
    - layer:
        id: a
        max_zoom: 14
        source: {function: f}
        generalization:
          - {view: gen0}
`,
		},
		{
			name: "bounds with wrong arity",
			doc: `
tileset:
  name: T
  maxzoom: 14
  bounds: [1, 2, 3]
  layers:
    - layer: {id: a, max_zoom: 14, source: {function: f}}
`,
		},
		{
			name: "bounds inverted",
			doc: `
tileset:
  name: T
  maxzoom: 14
  bounds: [10, 0, -10, 40]
  layers:
    - layer: {id: a, max_zoom: 14, source: {function: f}}
`,
		},
		{
			name: "file reference without resolver",
			doc: `
tileset:
  name: T
  maxzoom: 14
  layers:
    - layers/water.yaml
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tileset.Parse([]byte(tt.doc), nil)
			assert.ErrorIs(t, err, errors.ErrMalformedTileset)
		})
	}
}

func TestLayersForZoom(t *testing.T) {
	ts := parseBasic(t)

	tests := []struct {
		zoom int
		want []string
	}{
		{zoom: 0, want: []string{"water"}},
		{zoom: 3, want: []string{"water"}},
		{zoom: 4, want: []string{"water", "roads"}},
		{zoom: 12, want: []string{"water", "roads"}},
		{zoom: 13, want: []string{"water", "buildings", "roads"}},
		{zoom: 14, want: []string{"water", "buildings", "roads"}},
		{zoom: 15, want: nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("zoom %d", tt.zoom), func(t *testing.T) {
			var got []string
			for _, l := range ts.LayersForZoom(tt.zoom) {
				got = append(got, l.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLayersForZoom_BoundariesInclusive(t *testing.T) {
	ts := parseBasic(t)
	buildings, ok := ts.Layer("buildings")
	require.True(t, ok)

	for zoom := buildings.MinZoom; zoom <= buildings.MaxZoom; zoom++ {
		ids := make(map[string]bool)
		for _, l := range ts.LayersForZoom(zoom) {
			ids[l.ID] = true
		}
		assert.True(t, ids["buildings"], "zoom %d inside the declared range", zoom)
	}
}

func TestLayer_SourceForZoom(t *testing.T) {
	ts := parseBasic(t)
	water, ok := ts.Layer("water")
	require.True(t, ok)

	assert.Equal(t, 8, water.GeneralizationThreshold())

	tests := []struct {
		zoom     string
		z        int
		relation string
		isFunc   bool
	}{
		{zoom: "lowest zoom uses coarsest tier", z: 0, relation: "osm_water_gen0"},
		{zoom: "tier boundary inclusive", z: 5, relation: "osm_water_gen0"},
		{zoom: "second tier", z: 6, relation: "osm_water_gen1"},
		{zoom: "threshold zoom", z: 8, relation: "osm_water_gen1"},
		{zoom: "above threshold falls back to function", z: 9, relation: "layer_water", isFunc: true},
		{zoom: "top zoom", z: 14, relation: "layer_water", isFunc: true},
	}

	for _, tt := range tests {
		t.Run(tt.zoom, func(t *testing.T) {
			rel, isFunc := water.SourceForZoom(tt.z)
			assert.Equal(t, tt.relation, rel)
			assert.Equal(t, tt.isFunc, isFunc)
		})
	}

	roads, ok := ts.Layer("roads")
	require.True(t, ok)
	assert.Equal(t, -1, roads.GeneralizationThreshold())
	rel, isFunc := roads.SourceForZoom(0)
	assert.Equal(t, "layer_roads", rel)
	assert.True(t, isFunc)
}

func TestLayer_HasField(t *testing.T) {
	ts := parseBasic(t)
	buildings, ok := ts.Layer("buildings")
	require.True(t, ok)

	assert.True(t, buildings.HasField("height"))
	assert.True(t, buildings.HasField("class"))
	assert.True(t, buildings.HasField("building_id"), "key field counts")
	assert.True(t, buildings.HasField("geom"), "geometry field counts")
	assert.False(t, buildings.HasField("population"))
}
