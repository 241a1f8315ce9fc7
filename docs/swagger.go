// Package docs Postserve Tile API.
//
// Vector tile server backed by a PostGIS database. Composes layer queries
// from a tileset definition and serves Mapbox Vector Tiles rendered by
// ST_AsMVT, plus the TileJSON metadata document map clients bootstrap from.
//
// Endpoints:
// - TileJSON metadata for the configured tileset
// - Vector tiles (MVT/PBF) addressed by z/x/y
// - Health including the PostGIS backend version
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Produces:
//	- application/json
//	- application/x-protobuf
//
// swagger:meta
package docs
