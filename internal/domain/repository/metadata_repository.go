package repository

import (
	"context"

	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

// MetadataRepository answers questions about the backing database itself
type MetadataRepository interface {
	// PostGISVersion returns the value of postgis_lib_version()
	PostGISVersion(ctx context.Context) (string, error)

	// LayerFields discovers the attribute columns a layer function exposes,
	// mapped to their metadata field types
	LayerFields(ctx context.Context, layer *tileset.Layer) (map[string]string, error)
}
