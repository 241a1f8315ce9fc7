package usecase

import (
	"context"

	govalidator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/inspect"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/validator"
	"github.com/dbrnz/openmaptiles-tools/internal/sqltomvt"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
	"github.com/dbrnz/openmaptiles-tools/internal/usecase/dto"
)

// DebugUseCase inspects one tile's layers by running each layer's query
// on its own, so row counts, validity flags and server notices can be
// read per layer instead of disappearing into an aggregated tile.
type DebugUseCase struct {
	debugRepo repository.DebugRepository
	ts        *tileset.Tileset
	logger    *zap.Logger
}

func NewDebugUseCase(
	debugRepo repository.DebugRepository,
	ts *tileset.Tileset,
	logger *zap.Logger,
) *DebugUseCase {
	return &DebugUseCase{
		debugRepo: debugRepo,
		ts:        ts,
		logger:    logger,
	}
}

// BuildQueries validates the request and builds one standalone query per
// eligible layer, in declaration order. Eligibility follows the same
// rules as tile composition, so the inspected queries are exactly the
// branches a composed tile would aggregate.
func (uc *DebugUseCase) BuildQueries(req dto.InspectRequest) ([]*sqltomvt.LayerQuery, error) {
	if err := uc.validate(req); err != nil {
		return nil, err
	}

	tile, err := domain.NewTileCoord(req.Zoom, req.X, req.Y)
	if err != nil {
		return nil, err
	}

	opts := sqltomvt.Options{
		SelectedColumns:            req.Columns,
		RequireSharedColumns:       req.RequireSharedColumns,
		IncludeDebugGeometryChecks: req.GeometryChecks,
		EmitRawGeometryAsText:      req.RawGeometry,
		EmitTileClippedGeometry:    req.ClippedGeometry,
		Locales:                    req.Locales,
	}
	filter := domain.LayerFilter{IDs: req.Layers, Exclude: req.Exclude}

	layers, err := sqltomvt.EligibleLayers(uc.ts, uc.ts.LayersForZoom(tile.Zoom), filter, opts)
	if err != nil {
		return nil, err
	}

	queries := make([]*sqltomvt.LayerQuery, 0, len(layers))
	for _, layer := range layers {
		q, err := sqltomvt.BuildLayerQuery(layer, tile, opts)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// InspectTile runs every eligible layer's query and formats the rows for
// display. Layers run one at a time so captured notices stay attributed
// to the layer that raised them. The first failing layer aborts the
// inspection with its error relayed as-is.
func (uc *DebugUseCase) InspectTile(ctx context.Context, req dto.InspectRequest) ([]*inspect.Report, error) {
	queries, err := uc.BuildQueries(req)
	if err != nil {
		return nil, err
	}

	reports := make([]*inspect.Report, 0, len(queries))
	for _, q := range queries {
		result, err := uc.debugRepo.RunLayerQuery(ctx, q)
		if err != nil {
			uc.logger.Error("Layer query failed",
				zap.String("layer", q.LayerID),
				zap.Error(err))
			return nil, err
		}
		report, err := inspect.FormatRows(*result, inspect.Options{MaxCellWidth: req.MaxCellWidth})
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// validate maps a failed locale tag onto the locale error so callers see
// the same error whether a bad locale is caught here or during the build.
func (uc *DebugUseCase) validate(req dto.InspectRequest) error {
	err := validator.Validate(&req)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(govalidator.ValidationErrors); ok {
		for _, fe := range verrs {
			if fe.Tag() == "locale" {
				return errors.Newf(errors.ErrUnknownLocaleFormat,
					"locale %q is malformed", fe.Value())
			}
		}
	}
	return errors.Wrap(errors.ErrInvalidRequest, err)
}
