package repository

import (
	"context"
	"time"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
)

// CacheRepository defines the byte cache in front of the renderer
type CacheRepository interface {
	// Get fetches a value by key
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// Exists reports whether a key is present
	Exists(ctx context.Context, key string) (bool, error)

	// GetTile fetches a cached tile payload
	GetTile(ctx context.Context, tilesetID string, tile domain.TileCoord) ([]byte, error)

	// SetTile stores a tile payload with a TTL
	SetTile(ctx context.Context, tilesetID string, tile domain.TileCoord, data []byte, ttl time.Duration) error
}
