package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/inspect"
	"github.com/dbrnz/openmaptiles-tools/internal/lang"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
	"github.com/dbrnz/openmaptiles-tools/internal/usecase"
	"github.com/dbrnz/openmaptiles-tools/internal/usecase/dto"
)

func debugTestTileset() *tileset.Tileset {
	return &tileset.Tileset{
		ID:      "test-houses",
		Name:    "Test Houses",
		MinZoom: 0,
		MaxZoom: 14,
		Layers: []tileset.Layer{
			{
				ID:            "houses",
				MinZoom:       0,
				MaxZoom:       14,
				GeometryField: "geometry",
				KeyField:      "osm_id",
				BufferSize:    64,
				Fields:        map[string]string{"class": "", "height": ""},
				Source:        tileset.Source{Function: "test_layer_houses"},
				Generalization: []tileset.Tier{
					{View: "test_houses_gen8", MaxZoom: 8},
				},
			},
			{
				ID:            "noisy",
				MinZoom:       6,
				MaxZoom:       14,
				GeometryField: "geometry",
				KeyField:      "osm_id",
				BufferSize:    64,
				Source:        tileset.Source{Function: "test_layer_noisy"},
			},
		},
	}
}

func queryAliases(q *sqltomvt.LayerQuery) []string {
	aliases := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		aliases[i] = c.Alias
	}
	return aliases
}

func queryNamed(id string) interface{} {
	return mock.MatchedBy(func(q *sqltomvt.LayerQuery) bool { return q.LayerID == id })
}

func TestDebugUseCase_BuildQueries(t *testing.T) {
	uc := usecase.NewDebugUseCase(&MockDebugRepository{}, debugTestTileset(), zap.NewNop())

	t.Run("one query per eligible layer in declaration order", func(t *testing.T) {
		queries, err := uc.BuildQueries(dto.InspectRequest{Zoom: 10, X: 500, Y: 300})

		require.NoError(t, err)
		require.Len(t, queries, 2)
		assert.Equal(t, "houses", queries[0].LayerID)
		assert.Equal(t, "noisy", queries[1].LayerID)
	})

	t.Run("zoom range excludes layers", func(t *testing.T) {
		queries, err := uc.BuildQueries(dto.InspectRequest{Zoom: 3, X: 4, Y: 4})

		require.NoError(t, err)
		require.Len(t, queries, 1)
		assert.Equal(t, "houses", queries[0].LayerID)
	})

	t.Run("include filter selects only the named layers", func(t *testing.T) {
		queries, err := uc.BuildQueries(dto.InspectRequest{
			Zoom: 10, X: 500, Y: 300,
			Layers: []string{"noisy"},
		})

		require.NoError(t, err)
		require.Len(t, queries, 1)
		assert.Equal(t, "noisy", queries[0].LayerID)
	})

	t.Run("exclude filter naming no layers is rejected", func(t *testing.T) {
		_, err := uc.BuildQueries(dto.InspectRequest{
			Zoom: 10, X: 500, Y: 300,
			Exclude: true,
		})

		assert.ErrorIs(t, err, errors.ErrInvalidLayerFilter)
	})

	t.Run("unknown layer in the filter is rejected", func(t *testing.T) {
		_, err := uc.BuildQueries(dto.InspectRequest{
			Zoom: 10, X: 500, Y: 300,
			Layers: []string{"bridges"},
		})

		assert.ErrorIs(t, err, errors.ErrUnknownLayer)
	})

	t.Run("geometry checks project the validity columns", func(t *testing.T) {
		queries, err := uc.BuildQueries(dto.InspectRequest{
			Zoom: 10, X: 500, Y: 300,
			Layers:          []string{"houses"},
			GeometryChecks:  true,
			ClippedGeometry: true,
		})

		require.NoError(t, err)
		require.Len(t, queries, 1)
		aliases := queryAliases(queries[0])
		assert.Contains(t, aliases, sqltomvt.ValidMVTAlias)
		assert.Contains(t, aliases, sqltomvt.ValidGeomAlias)
		assert.Contains(t, aliases, sqltomvt.MVTGeometryAlias)
	})

	t.Run("malformed locale is rejected before any build", func(t *testing.T) {
		_, err := uc.BuildQueries(dto.InspectRequest{
			Zoom: 10, X: 500, Y: 300,
			Locales: []string{"en", "not a locale!"},
		})

		assert.ErrorIs(t, err, errors.ErrUnknownLocaleFormat)
	})

	t.Run("out of range coordinate is rejected", func(t *testing.T) {
		_, err := uc.BuildQueries(dto.InspectRequest{Zoom: 2, X: 9, Y: 0})

		assert.ErrorIs(t, err, errors.ErrInvalidTileCoordinates)
	})
}

func TestDebugUseCase_InspectTile(t *testing.T) {
	ctx := context.Background()

	t.Run("formats each layer with its own notices", func(t *testing.T) {
		debugRepo := &MockDebugRepository{}
		uc := usecase.NewDebugUseCase(debugRepo, debugTestTileset(), zap.NewNop())

		housesResult := &inspect.LayerResult{
			LayerID: "houses",
			Columns: []sqltomvt.Column{
				{Alias: "osm_id", Kind: sqltomvt.KindKey},
				{Alias: "class", Kind: sqltomvt.KindAttribute},
				{Alias: lang.HiddenNameAlias, Kind: sqltomvt.KindHiddenName},
			},
			Rows: [][]interface{}{
				{int64(101), "civic", nil},
			},
		}
		noisyResult := &inspect.LayerResult{
			LayerID: "noisy",
			Columns: []sqltomvt.Column{
				{Alias: "osm_id", Kind: sqltomvt.KindKey},
			},
			Notices: []domain.Notice{
				{Severity: "NOTICE", Message: "noisy layer scanned at zoom 10"},
			},
		}

		debugRepo.On("RunLayerQuery", ctx, queryNamed("houses")).Return(housesResult, nil)
		debugRepo.On("RunLayerQuery", ctx, queryNamed("noisy")).Return(noisyResult, nil)

		reports, err := uc.InspectTile(ctx, dto.InspectRequest{Zoom: 10, X: 500, Y: 300})

		require.NoError(t, err)
		require.Len(t, reports, 2)

		assert.Equal(t, "houses", reports[0].LayerID)
		assert.Equal(t, []string{"osm_id", "class"}, reports[0].Columns)
		assert.True(t, reports[0].NamesHidden)
		require.Len(t, reports[0].Rows, 1)
		assert.Equal(t, []string{"101", "civic"}, reports[0].Rows[0])
		assert.Empty(t, reports[0].Notices)

		assert.Equal(t, "noisy", reports[1].LayerID)
		assert.Empty(t, reports[1].Rows)
		require.Len(t, reports[1].Notices, 1)
		assert.Contains(t, reports[1].Notices[0].Message, "noisy layer scanned")

		debugRepo.AssertExpectations(t)
	})

	t.Run("first failing layer aborts the inspection", func(t *testing.T) {
		debugRepo := &MockDebugRepository{}
		uc := usecase.NewDebugUseCase(debugRepo, debugTestTileset(), zap.NewNop())

		debugRepo.On("RunLayerQuery", ctx, queryNamed("houses")).
			Return(nil, errors.ErrDatabaseError)

		reports, err := uc.InspectTile(ctx, dto.InspectRequest{Zoom: 10, X: 500, Y: 300})

		assert.Nil(t, reports)
		assert.ErrorIs(t, err, errors.ErrDatabaseError)
		debugRepo.AssertNotCalled(t, "RunLayerQuery", ctx, queryNamed("noisy"))
	})
}
