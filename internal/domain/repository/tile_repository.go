package repository

import (
	"context"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
)

// TileRepository renders encoded vector tiles from the backing store
type TileRepository interface {
	// RenderTile returns the tile payload for a coordinate. A tile where
	// no layer produced features comes back as an empty slice, not an error.
	RenderTile(ctx context.Context, tile domain.TileCoord) ([]byte, error)
}
