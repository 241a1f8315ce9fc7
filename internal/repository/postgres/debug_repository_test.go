package postgres_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/inspect"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/repository/postgres/testhelpers"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

type DebugRepositoryTestSuite struct {
	suite.Suite
	testDB *testhelpers.TestDB
	ts     *tileset.Tileset
	repo   repository.DebugRepository
	ctx    context.Context
}

func (s *DebugRepositoryTestSuite) SetupSuite() {
	s.testDB = testhelpers.SetupDebugTestDB(s.T())

	err := testhelpers.ApplyFixtures(context.Background(), s.testDB.DB.DB)
	s.Require().NoError(err, "Failed to apply fixtures")

	s.ts = testhelpers.LoadTestTileset(s.T())
	s.repo = testhelpers.NewDebugRepositoryForTest(s.testDB.DB)
}

func (s *DebugRepositoryTestSuite) TearDownSuite() {
	if s.testDB != nil {
		_ = testhelpers.DropFixtures(context.Background(), s.testDB.DB.DB)
		s.testDB.Close()
	}
}

func (s *DebugRepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *DebugRepositoryTestSuite) buildQuery(layerID string, opts sqltomvt.Options) *sqltomvt.LayerQuery {
	layer, ok := s.ts.Layer(layerID)
	s.Require().True(ok)

	query, err := sqltomvt.BuildLayerQuery(layer, domain.TileCoord{Zoom: 0, X: 0, Y: 0}, opts)
	s.Require().NoError(err)
	return query
}

func (s *DebugRepositoryTestSuite) TestRunLayerQuery_CapturesNotices() {
	result, err := s.repo.RunLayerQuery(s.ctx, s.buildQuery("noisy", sqltomvt.Options{}))
	s.Require().NoError(err)

	s.Require().NotEmpty(result.Notices)
	s.Equal("NOTICE", result.Notices[0].Severity)
	s.Contains(result.Notices[0].Message, "noisy layer scanned")
}

// Notices belong to the layer that raised them: a quiet layer run after a
// noisy one must come back clean.
func (s *DebugRepositoryTestSuite) TestRunLayerQuery_ClearsNoticesPerLayer() {
	noisy, err := s.repo.RunLayerQuery(s.ctx, s.buildQuery("noisy", sqltomvt.Options{}))
	s.Require().NoError(err)
	s.Require().NotEmpty(noisy.Notices)

	quiet, err := s.repo.RunLayerQuery(s.ctx, s.buildQuery("houses", sqltomvt.Options{}))
	s.Require().NoError(err)
	s.Empty(quiet.Notices)
}

func (s *DebugRepositoryTestSuite) TestRunLayerQuery_RowsMatchColumns() {
	query := s.buildQuery("houses", sqltomvt.Options{IncludeDebugGeometryChecks: true, EmitTileClippedGeometry: true})

	result, err := s.repo.RunLayerQuery(s.ctx, query)
	s.Require().NoError(err)

	s.Equal("houses", result.LayerID)
	s.Require().Len(result.Rows, 2)
	for _, row := range result.Rows {
		s.Len(row, len(result.Columns))
	}
}

// The captured result feeds straight into the row post-processor.
func (s *DebugRepositoryTestSuite) TestRunLayerQuery_FormatsForInspection() {
	query := s.buildQuery("houses", sqltomvt.Options{IncludeDebugGeometryChecks: true, EmitTileClippedGeometry: true})

	result, err := s.repo.RunLayerQuery(s.ctx, query)
	s.Require().NoError(err)

	report, err := inspect.FormatRows(*result, inspect.Options{})
	s.Require().NoError(err)

	s.True(report.NamesHidden)
	s.Require().NotEmpty(report.Columns)
	s.Equal("osm_id", report.Columns[0])
	s.Equal(sqltomvt.ValidGeomAlias, report.Columns[len(report.Columns)-1])
	s.Len(report.Rows, 2)
}

// A layer whose declared key column does not exist in the source rows is a
// backend failure relayed with the server's own message.
func (s *DebugRepositoryTestSuite) TestRunLayerQuery_DataShapeErrorRelayed() {
	layer, ok := s.ts.Layer("houses")
	s.Require().True(ok)
	layer.KeyField = "missing_id"

	query, err := sqltomvt.BuildLayerQuery(layer, domain.TileCoord{Zoom: 0, X: 0, Y: 0}, sqltomvt.Options{})
	s.Require().NoError(err)

	_, err = s.repo.RunLayerQuery(s.ctx, query)
	s.Require().Error(err)
	s.ErrorIs(err, errors.ErrDatabaseError)
	s.True(strings.Contains(err.Error(), "missing_id"))
}

func TestDebugRepositoryTestSuite(t *testing.T) {
	testhelpers.Guard(t)
	suite.Run(t, new(DebugRepositoryTestSuite))
}
