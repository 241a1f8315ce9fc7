package usecase

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/domain/repository"
	"github.com/dbrnz/openmaptiles-tools/internal/tileset"
)

// MetadataUseCase assembles the TileJSON document advertised at the
// service root. Layer fields are discovered from the database once and
// the finished document is reused for every later request.
type MetadataUseCase struct {
	metadataRepo repository.MetadataRepository
	ts           *tileset.Tileset
	publicURL    string
	logger       *zap.Logger

	mu       sync.Mutex
	tileJSON *domain.TileJSON
}

func NewMetadataUseCase(
	metadataRepo repository.MetadataRepository,
	ts *tileset.Tileset,
	publicURL string,
	logger *zap.Logger,
) *MetadataUseCase {
	return &MetadataUseCase{
		metadataRepo: metadataRepo,
		ts:           ts,
		publicURL:    publicURL,
		logger:       logger,
	}
}

// GetTileJSON returns the TileJSON 2.0.0 document for the tileset. The
// first call runs field discovery against every layer source; a failure
// leaves nothing memoized, so the next call retries.
func (uc *MetadataUseCase) GetTileJSON(ctx context.Context) (*domain.TileJSON, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.tileJSON != nil {
		return uc.tileJSON, nil
	}

	doc := &domain.TileJSON{
		TileJSON:    "2.0.0",
		ID:          uc.ts.ID,
		Name:        uc.ts.Name,
		Description: uc.ts.Description,
		Attribution: uc.ts.Attribution,
		Version:     uc.ts.Version,
		Scheme:      "xyz",
		Format:      "pbf",
		Tiles:       []string{uc.tilesURL()},
		MinZoom:     uc.ts.MinZoom,
		MaxZoom:     uc.ts.MaxZoom,
		Center:      uc.ts.Center,
		Bounds:      uc.ts.Bounds,
	}

	for i := range uc.ts.Layers {
		layer := uc.ts.Layers[i]
		fields, err := uc.metadataRepo.LayerFields(ctx, &layer)
		if err != nil {
			uc.logger.Error("Layer field discovery failed",
				zap.String("layer", layer.ID),
				zap.Error(err))
			return nil, err
		}
		doc.VectorLayers = append(doc.VectorLayers, domain.VectorLayer{
			ID:          layer.ID,
			Description: layer.Description,
			MinZoom:     layer.MinZoom,
			MaxZoom:     layer.MaxZoom,
			Fields:      fields,
		})
	}

	uc.logger.Info("TileJSON assembled",
		zap.String("tileset", uc.ts.ID),
		zap.Int("layers", len(doc.VectorLayers)))
	uc.tileJSON = doc
	return doc, nil
}

// BackendVersion reports the PostGIS version the database is running.
func (uc *MetadataUseCase) BackendVersion(ctx context.Context) (string, error) {
	return uc.metadataRepo.PostGISVersion(ctx)
}

func (uc *MetadataUseCase) tilesURL() string {
	return strings.TrimRight(uc.publicURL, "/") + "/tiles/{z}/{x}/{y}.pbf"
}
