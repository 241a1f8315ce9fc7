package dto

// InspectRequest asks for one tile's layers to be run individually and
// formatted for reading. Layers and Exclude form the layer filter; the
// geometry toggles select which diagnostic columns the queries project.
// Coordinate ranges are checked by the tile domain type, not here, so a
// bad coordinate keeps its own error.
type InspectRequest struct {
	Zoom int `json:"zoom"`
	X    int `json:"x"`
	Y    int `json:"y"`

	// Layers names the layers to run. Empty means every layer eligible at
	// the zoom. Exclude inverts the selection.
	Layers  []string `json:"layers,omitempty"`
	Exclude bool     `json:"exclude,omitempty"`

	// Columns restricts attribute projection. A layer missing one of the
	// named columns is skipped unless RequireSharedColumns makes that fatal.
	Columns              []string `json:"columns,omitempty"`
	RequireSharedColumns bool     `json:"require_shared_columns,omitempty"`

	GeometryChecks  bool `json:"geometry_checks,omitempty"`
	RawGeometry     bool `json:"raw_geometry,omitempty"`
	ClippedGeometry bool `json:"clipped_geometry,omitempty"`

	Locales []string `json:"locales,omitempty" validate:"omitempty,dive,locale"`

	// MaxCellWidth truncates rendered cells. Zero keeps the display default.
	MaxCellWidth int `json:"max_cell_width,omitempty"`
}
