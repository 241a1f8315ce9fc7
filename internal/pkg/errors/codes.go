package errors

import "net/http"

var (
	ErrMalformedTileset = New(
		"MALFORMED_TILESET",
		"Tileset definition is malformed",
		http.StatusBadRequest,
	)

	ErrUnknownLocaleFormat = New(
		"UNKNOWN_LOCALE_FORMAT",
		"Locale identifier is malformed",
		http.StatusBadRequest,
	)

	ErrUnknownColumn = New(
		"UNKNOWN_COLUMN",
		"Requested column is not present in any eligible layer",
		http.StatusBadRequest,
	)

	ErrUnknownLayer = New(
		"UNKNOWN_LAYER",
		"Requested layer is not declared in the tileset",
		http.StatusBadRequest,
	)

	ErrInvalidLayerFilter = New(
		"INVALID_LAYER_FILTER",
		"Layer exclusion filter must name at least one layer",
		http.StatusBadRequest,
	)

	ErrNoEligibleLayers = New(
		"NO_ELIGIBLE_LAYERS",
		"No layers match the requested zoom and filter",
		http.StatusBadRequest,
	)

	ErrInvalidTileCoordinates = New(
		"INVALID_TILE_COORDINATES",
		"Invalid tile coordinates",
		http.StatusBadRequest,
	)

	ErrPostGISVersion = New(
		"POSTGIS_VERSION_UNSUPPORTED",
		"PostGIS version is below the minimum supported",
		http.StatusInternalServerError,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrNotFound = New(
		"NOT_FOUND",
		"Resource not found",
		http.StatusNotFound,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
