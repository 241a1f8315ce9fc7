package postgres_test

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/suite"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/repository/postgres/testhelpers"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

type TileRepositoryTestSuite struct {
	suite.Suite
	testDB *testhelpers.TestDB
	ts     *tileset.Tileset
	repo   repository.TileRepository
	ctx    context.Context
}

func (s *TileRepositoryTestSuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDB(s.T())

	err := testhelpers.ApplyFixtures(context.Background(), s.testDB.DB.DB)
	s.Require().NoError(err, "Failed to apply fixtures")

	s.ts = testhelpers.LoadTestTileset(s.T())
	s.repo = testhelpers.NewTileRepositoryForTest(s.T(), s.testDB.DB, s.ts)
}

func (s *TileRepositoryTestSuite) TearDownSuite() {
	if s.testDB != nil {
		_ = testhelpers.DropFixtures(context.Background(), s.testDB.DB.DB)
		s.testDB.Close()
	}
}

func (s *TileRepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *TileRepositoryTestSuite) decode(data []byte) map[string]*mvt.Layer {
	layers, err := mvt.Unmarshal(data)
	s.Require().NoError(err)

	byName := make(map[string]*mvt.Layer, len(layers))
	for _, l := range layers {
		byName[l.Name] = l
	}
	return byName
}

// The world tile covers the fixture points, so both layers must show up,
// names resolved through the tileset languages.
func (s *TileRepositoryTestSuite) TestRenderTile_WorldTile() {
	data, err := s.repo.RenderTile(s.ctx, domain.TileCoord{Zoom: 0, X: 0, Y: 0})
	s.Require().NoError(err)
	s.Require().NotEmpty(data)

	layers := s.decode(data)
	s.Require().Contains(layers, "houses")
	s.Require().Contains(layers, "noisy")
	s.Len(layers["houses"].Features, 2)
	s.Len(layers["noisy"].Features, 2)

	var hall, mill map[string]interface{}
	for _, f := range layers["houses"].Features {
		props := map[string]interface{}(f.Properties)
		switch toInt(props["osm_id"]) {
		case 101:
			hall = props
		case 102:
			mill = props
		}
	}
	s.Require().NotNil(hall)
	s.Require().NotNil(mill)

	// 101 carries an English name; 102 falls back to German.
	s.Equal("Village Hall", hall["name"])
	s.Equal("civic", hall["class"])
	s.Equal("Alte Muehle", mill["name"])
	s.Equal("mill", mill["class"])
}

// Zoom 14 is above the generalization tier, so the base function serves it.
func (s *TileRepositoryTestSuite) TestRenderTile_BaseFunctionZoom() {
	tile := maptile.At(orb.Point{11.0005, 47.0005}, 14)
	coord := domain.TileCoord{Zoom: int(tile.Z), X: int(tile.X), Y: int(tile.Y)}

	data, err := s.repo.RenderTile(s.ctx, coord)
	s.Require().NoError(err)
	s.Require().NotEmpty(data)

	layers := s.decode(data)
	s.Require().Contains(layers, "houses")
	s.Len(layers["houses"].Features, 2)
}

// A tile with no features in any layer is an empty buffer, not an error.
func (s *TileRepositoryTestSuite) TestRenderTile_EmptyTile() {
	tile := maptile.At(orb.Point{-30, -40}, 14)
	coord := domain.TileCoord{Zoom: int(tile.Z), X: int(tile.X), Y: int(tile.Y)}

	data, err := s.repo.RenderTile(s.ctx, coord)
	s.Require().NoError(err)
	s.NotNil(data)
	s.Empty(data)
}

func (s *TileRepositoryTestSuite) TestRenderTile_InvalidCoordinate() {
	_, err := s.repo.RenderTile(s.ctx, domain.TileCoord{Zoom: 4, X: 16, Y: 0})
	s.Require().Error(err)
	s.ErrorIs(err, errors.ErrInvalidTileCoordinates)
}

func toInt(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return -1
	}
}

func TestTileRepositoryTestSuite(t *testing.T) {
	testhelpers.Guard(t)
	suite.Run(t, new(TileRepositoryTestSuite))
}
