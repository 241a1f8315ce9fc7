package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/pkg/utils"
	"github.com/dbrnz/openmaptiles-tools/internal/usecase"
)

// MetadataHandler serves the TileJSON document describing the tileset.
type MetadataHandler struct {
	metadataUC *usecase.MetadataUseCase
	logger     *zap.Logger
}

func NewMetadataHandler(metadataUC *usecase.MetadataUseCase, logger *zap.Logger) *MetadataHandler {
	return &MetadataHandler{
		metadataUC: metadataUC,
		logger:     logger,
	}
}

// GetTileJSON godoc
// @Summary Get tileset metadata
// @Description Returns the TileJSON 2.0.0 document: tile URL template, zoom range, bounds and per-layer attribute types.
// @Tags Metadata
// @Produce json
// @Success 200 {object} domain.TileJSON
// @Failure 500 {object} utils.ErrorResponse
// @Router / [get]
func (h *MetadataHandler) GetTileJSON(c *fiber.Ctx) error {
	doc, err := h.metadataUC.GetTileJSON(c.Context())
	if err != nil {
		h.logger.Error("Failed to assemble TileJSON", zap.Error(err))
		return utils.SendError(c, err)
	}
	return c.JSON(doc)
}
