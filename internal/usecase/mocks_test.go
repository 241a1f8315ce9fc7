package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/inspect"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

// MockTileRepository is a mock of TileRepository
type MockTileRepository struct {
	mock.Mock
}

func (m *MockTileRepository) RenderTile(ctx context.Context, tile domain.TileCoord) ([]byte, error) {
	args := m.Called(ctx, tile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetTile(ctx context.Context, tilesetID string, tile domain.TileCoord) ([]byte, error) {
	args := m.Called(ctx, tilesetID, tile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) SetTile(ctx context.Context, tilesetID string, tile domain.TileCoord, data []byte, ttl time.Duration) error {
	args := m.Called(ctx, tilesetID, tile, data, ttl)
	return args.Error(0)
}

// MockDebugRepository is a mock of DebugRepository
type MockDebugRepository struct {
	mock.Mock
}

func (m *MockDebugRepository) RunLayerQuery(ctx context.Context, query *sqltomvt.LayerQuery) (*inspect.LayerResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspect.LayerResult), args.Error(1)
}

// MockMetadataRepository is a mock of MetadataRepository
type MockMetadataRepository struct {
	mock.Mock
}

func (m *MockMetadataRepository) PostGISVersion(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockMetadataRepository) LayerFields(ctx context.Context, layer *tileset.Layer) (map[string]string, error) {
	args := m.Called(ctx, layer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}
