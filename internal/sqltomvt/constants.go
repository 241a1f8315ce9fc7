// Package sqltomvt builds the SQL that turns tileset layers into Mapbox
// Vector Tile binaries: one structured query per layer and a composed
// statement aggregating every eligible layer into a single tile buffer.
// The package is pure computation; rendering to SQL text happens at the
// boundary and execution belongs to the repository layer.
package sqltomvt

const (
	// DefaultExtent is the MVT coordinate space per tile.
	DefaultExtent = 4096

	// WebMercatorSRID is the projection tiles and stored geometries use.
	WebMercatorSRID = 3857

	// MinPostGISVersion is the oldest backend the composed SQL runs on.
	// ST_TileEnvelope ships in 3.0.
	MinPostGISVersion = "3.0.0"
)

// Well-known output aliases. Downstream row handling keys on these names
// staying stable across layers and option sets.
const (
	MVTGeometryAlias = "mvtgeometry"
	ValidMVTAlias    = "is_valid_mvt"
	ValidGeomAlias   = "is_valid_geom"
)
