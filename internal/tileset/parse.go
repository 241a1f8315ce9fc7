package tileset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
)

// FileResolver loads a referenced layer document by the path written in
// the tileset definition. Load wires it to the filesystem relative to the
// tileset file; tests substitute in-memory sources.
type FileResolver func(path string) ([]byte, error)

type tilesetDoc struct {
	Tileset tilesetDef `yaml:"tileset"`
}

type tilesetDef struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Attribution string     `yaml:"attribution"`
	Version     string     `yaml:"version"`
	MinZoom     int        `yaml:"minzoom"`
	MaxZoom     int        `yaml:"maxzoom"`
	Center      []float64  `yaml:"center"`
	Bounds      []float64  `yaml:"bounds"`
	PixelScale  int        `yaml:"pixel_scale"`
	Languages   []string   `yaml:"languages"`
	Layers      []layerRef `yaml:"layers"`
}

// layerRef accepts either a path string to a per-layer document or an
// inline layer mapping, mirroring how tileset definitions are written.
type layerRef struct {
	path   string
	inline *layerDoc
}

func (r *layerRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&r.path)
	case yaml.MappingNode:
		var doc layerDoc
		if err := node.Decode(&doc); err != nil {
			return err
		}
		r.inline = &doc
		return nil
	default:
		return fmt.Errorf("layer entry must be a path or an inline layer mapping (line %d)", node.Line)
	}
}

type layerDoc struct {
	Layer layerDef `yaml:"layer"`
}

type layerDef struct {
	ID             string            `yaml:"id"`
	Description    string            `yaml:"description"`
	MinZoom        int               `yaml:"min_zoom"`
	MaxZoom        int               `yaml:"max_zoom"`
	GeometryField  string            `yaml:"geometry_field"`
	KeyField       string            `yaml:"key_field"`
	BufferSize     *int              `yaml:"buffer_size"`
	Fields         map[string]string `yaml:"fields"`
	Source         sourceDef         `yaml:"source"`
	Generalization []tierDef         `yaml:"generalization"`
}

type sourceDef struct {
	Function string `yaml:"function"`
}

type tierDef struct {
	View    string `yaml:"view"`
	MaxZoom *int   `yaml:"max_zoom"`
}

// Parse decodes and validates a tileset definition. Referenced layer
// documents are fetched through resolve. The returned model is immutable
// by convention: nothing in this package mutates it after Parse returns.
func Parse(data []byte, resolve FileResolver) (*Tileset, error) {
	var doc tilesetDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrMalformedTileset, err)
	}
	def := doc.Tileset

	if def.Name == "" {
		return nil, errors.Newf(errors.ErrMalformedTileset, "tileset name is required")
	}
	if def.MinZoom < 0 || def.MinZoom > def.MaxZoom {
		return nil, errors.Newf(errors.ErrMalformedTileset,
			"tileset zoom range %d..%d is invalid", def.MinZoom, def.MaxZoom)
	}
	if len(def.Layers) == 0 {
		return nil, errors.Newf(errors.ErrMalformedTileset, "tileset declares no layers")
	}

	ts := &Tileset{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Attribution: def.Attribution,
		Version:     def.Version,
		MinZoom:     def.MinZoom,
		MaxZoom:     def.MaxZoom,
		PixelScale:  def.PixelScale,
		Languages:   def.Languages,
	}
	if ts.ID == "" {
		ts.ID = slugify(def.Name)
	}
	if ts.PixelScale == 0 {
		ts.PixelScale = DefaultPixelScale
	}

	var err error
	if ts.Bounds, err = boundsOf(def.Bounds); err != nil {
		return nil, err
	}
	if ts.Center, err = centerOf(def.Center, ts.Bounds, ts.MinZoom); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(def.Layers))
	for i, ref := range def.Layers {
		ld := ref.inline
		if ld == nil {
			if resolve == nil {
				return nil, errors.Newf(errors.ErrMalformedTileset,
					"layer %q is a file reference but no resolver was provided", ref.path)
			}
			raw, rerr := resolve(ref.path)
			if rerr != nil {
				return nil, errors.Wrap(errors.ErrMalformedTileset, rerr)
			}
			var d layerDoc
			if uerr := yaml.Unmarshal(raw, &d); uerr != nil {
				return nil, errors.Wrap(errors.ErrMalformedTileset, uerr)
			}
			ld = &d
		}
		layer, lerr := buildLayer(ld.Layer, i)
		if lerr != nil {
			return nil, lerr
		}
		if _, dup := seen[layer.ID]; dup {
			return nil, errors.Newf(errors.ErrMalformedTileset,
				"duplicate layer id %q", layer.ID)
		}
		seen[layer.ID] = struct{}{}
		ts.Layers = append(ts.Layers, layer)
	}
	return ts, nil
}

// Load reads a tileset definition file, resolving layer references
// relative to its directory.
func Load(path string) (*Tileset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrMalformedTileset, err)
	}
	dir := filepath.Dir(path)
	ts, err := Parse(data, func(ref string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, ref))
	})
	if err != nil {
		return nil, err
	}
	ts.Path = path
	return ts, nil
}

func buildLayer(def layerDef, pos int) (Layer, error) {
	if def.ID == "" {
		return Layer{}, errors.Newf(errors.ErrMalformedTileset,
			"layer at position %d has no id", pos)
	}
	if def.Source.Function == "" {
		return Layer{}, errors.Newf(errors.ErrMalformedTileset,
			"layer %q has no source function", def.ID)
	}
	if def.MinZoom < 0 {
		return Layer{}, errors.Newf(errors.ErrMalformedTileset,
			"layer %q min_zoom must be non-negative", def.ID)
	}
	if def.MinZoom > def.MaxZoom {
		return Layer{}, errors.Newf(errors.ErrMalformedTileset,
			"layer %q zoom range %d..%d is invalid", def.ID, def.MinZoom, def.MaxZoom)
	}

	layer := Layer{
		ID:            def.ID,
		Description:   def.Description,
		MinZoom:       def.MinZoom,
		MaxZoom:       def.MaxZoom,
		GeometryField: def.GeometryField,
		KeyField:      def.KeyField,
		Fields:        def.Fields,
		Source:        Source{Function: def.Source.Function},
		BufferSize:    DefaultBufferSize,
	}
	if layer.GeometryField == "" {
		layer.GeometryField = DefaultGeometryField
	}
	if layer.KeyField == "" {
		layer.KeyField = DefaultKeyField
	}
	if def.BufferSize != nil {
		if *def.BufferSize < 0 {
			return Layer{}, errors.Newf(errors.ErrMalformedTileset,
				"layer %q buffer_size must be non-negative", def.ID)
		}
		layer.BufferSize = *def.BufferSize
	}

	prev := -1
	for _, t := range def.Generalization {
		if t.View == "" {
			return Layer{}, errors.Newf(errors.ErrMalformedTileset,
				"layer %q has a generalization tier without a view", def.ID)
		}
		if t.MaxZoom == nil {
			return Layer{}, errors.Newf(errors.ErrMalformedTileset,
				"layer %q tier %q has no max_zoom", def.ID, t.View)
		}
		if *t.MaxZoom < 0 {
			return Layer{}, errors.Newf(errors.ErrMalformedTileset,
				"layer %q tier %q max_zoom must be non-negative", def.ID, t.View)
		}
		// Coarser tiers must come first: max_zoom strictly increases, so
		// every zoom maps to exactly one tier.
		if *t.MaxZoom <= prev {
			return Layer{}, errors.Newf(errors.ErrMalformedTileset,
				"layer %q generalization tiers must be declared coarsest first with increasing max_zoom", def.ID)
		}
		prev = *t.MaxZoom
		layer.Generalization = append(layer.Generalization, Tier{View: t.View, MaxZoom: *t.MaxZoom})
	}
	return layer, nil
}

func boundsOf(v []float64) ([4]float64, error) {
	switch len(v) {
	case 0:
		return [4]float64{-180, -85.0511, 180, 85.0511}, nil
	case 4:
		if v[0] >= v[2] || v[1] >= v[3] {
			return [4]float64{}, errors.Newf(errors.ErrMalformedTileset,
				"tileset bounds west,south must be below east,north")
		}
		return [4]float64{v[0], v[1], v[2], v[3]}, nil
	default:
		return [4]float64{}, errors.Newf(errors.ErrMalformedTileset,
			"tileset bounds must have 4 values, got %d", len(v))
	}
}

func centerOf(v []float64, bounds [4]float64, minZoom int) ([3]float64, error) {
	switch len(v) {
	case 0:
		return [3]float64{
			(bounds[0] + bounds[2]) / 2,
			(bounds[1] + bounds[3]) / 2,
			float64(minZoom),
		}, nil
	case 2:
		return [3]float64{v[0], v[1], float64(minZoom)}, nil
	case 3:
		return [3]float64{v[0], v[1], v[2]}, nil
	default:
		return [3]float64{}, errors.Newf(errors.ErrMalformedTileset,
			"tileset center must have 2 or 3 values, got %d", len(v))
	}
}

func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
}
