package domain

// TileJSON is the metadata document served at the tileset root, in
// TileJSON 2.0.0 shape.
type TileJSON struct {
	TileJSON     string        `json:"tilejson"`
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Attribution  string        `json:"attribution,omitempty"`
	Version      string        `json:"version,omitempty"`
	Scheme       string        `json:"scheme"`
	Format       string        `json:"format"`
	Tiles        []string      `json:"tiles"`
	MinZoom      int           `json:"minzoom"`
	MaxZoom      int           `json:"maxzoom"`
	Center       [3]float64    `json:"center"`
	Bounds       [4]float64    `json:"bounds"`
	VectorLayers []VectorLayer `json:"vector_layers"`
}

// VectorLayer advertises one layer and its attribute fields. Field values
// use the TileJSON type vocabulary: Boolean, String or Number.
type VectorLayer struct {
	ID          string            `json:"id"`
	Description string            `json:"description,omitempty"`
	MinZoom     int               `json:"minzoom"`
	MaxZoom     int               `json:"maxzoom"`
	Fields      map[string]string `json:"fields"`
}
