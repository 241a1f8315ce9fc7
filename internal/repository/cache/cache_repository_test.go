package cache_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/config"
	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/repository/cache"
)

func setupCache(t *testing.T) (repository.CacheRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	r, err := cache.NewRedis(&config.RedisConfig{Host: mr.Host(), Port: port}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	return cache.NewCacheRepository(r), mr
}

func TestCacheRepository_GetSet(t *testing.T) {
	repo, _ := setupCache(t)
	ctx := context.Background()

	// Miss comes back as nil without an error
	val, err := repo.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, repo.Set(ctx, "k", []byte("payload"), time.Minute))

	val, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), val)

	ok, err := repo.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, "k"))
	ok, err = repo.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheRepository_TileRoundTrip(t *testing.T) {
	repo, _ := setupCache(t)
	ctx := context.Background()

	tile := domain.TileCoord{Zoom: 10, X: 4, Y: 8}
	payload := []byte{0x1a, 0x02, 0x78, 0x02}

	require.NoError(t, repo.SetTile(ctx, "basemap", tile, payload, time.Minute))

	got, err := repo.GetTile(ctx, "basemap", tile)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Same coordinate under another tileset id is a distinct entry
	got, err = repo.GetTile(ctx, "other", tile)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// An empty payload is a valid cached tile and must not read back as a miss.
func TestCacheRepository_EmptyTileCached(t *testing.T) {
	repo, _ := setupCache(t)
	ctx := context.Background()

	tile := domain.TileCoord{Zoom: 14, X: 100, Y: 200}
	require.NoError(t, repo.SetTile(ctx, "basemap", tile, []byte{}, time.Minute))

	got, err := repo.GetTile(ctx, "basemap", tile)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCacheRepository_TTLExpiry(t *testing.T) {
	repo, mr := setupCache(t)
	ctx := context.Background()

	tile := domain.TileCoord{Zoom: 3, X: 1, Y: 1}
	require.NoError(t, repo.SetTile(ctx, "basemap", tile, []byte("x"), time.Minute))

	mr.FastForward(2 * time.Minute)

	got, err := repo.GetTile(ctx, "basemap", tile)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTileKey(t *testing.T) {
	key := cache.TileKey("basemap", domain.TileCoord{Zoom: 10, X: 4, Y: 8})
	assert.Equal(t, "tile:basemap:10:4:8", key)
}
