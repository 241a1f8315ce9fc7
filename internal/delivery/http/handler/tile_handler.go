package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/domain"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/utils"
	"github.com/dbrnz/openmaptiles-tools/internal/usecase"
)

// TileHandler serves encoded vector tiles.
type TileHandler struct {
	tileUC *usecase.TileUseCase
	logger *zap.Logger
}

func NewTileHandler(tileUC *usecase.TileUseCase, logger *zap.Logger) *TileHandler {
	return &TileHandler{
		tileUC: tileUC,
		logger: logger,
	}
}

// GetTile godoc
// @Summary Get a vector tile
// @Description Returns the Mapbox Vector Tile at the given web-map coordinate. A tile with no features answers 204.
// @Tags Tiles
// @Produce application/x-protobuf
// @Param z path int true "Zoom level"
// @Param x path int true "Tile column"
// @Param y path int true "Tile row"
// @Success 200 {string} binary "MVT payload"
// @Success 204 "Tile has no features"
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /tiles/{z}/{x}/{y}.pbf [get]
func (h *TileHandler) GetTile(c *fiber.Ctx) error {
	tile, err := parseTileParams(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	data, err := h.tileUC.GetTile(c.Context(), tile)
	if err != nil {
		return utils.SendError(c, err)
	}

	if len(data) == 0 {
		h.logger.Debug("Empty tile", zap.String("tile", tile.String()))
		return c.SendStatus(fiber.StatusNoContent)
	}

	c.Set("Content-Type", "application/x-protobuf")
	c.Set("Cache-Control", "public, max-age=86400")
	return c.Send(data)
}

// parseTileParams reads z/x/y path parameters. Range checking belongs to
// the tile coordinate itself; this only rejects non-numeric input.
func parseTileParams(c *fiber.Ctx) (domain.TileCoord, error) {
	z, errZ := strconv.Atoi(c.Params("z"))
	x, errX := strconv.Atoi(c.Params("x"))
	y, errY := strconv.Atoi(c.Params("y"))
	if errZ != nil || errX != nil || errY != nil {
		return domain.TileCoord{}, errors.Newf(errors.ErrInvalidTileCoordinates,
			"tile coordinates must be integers: %s/%s/%s",
			c.Params("z"), c.Params("x"), c.Params("y"))
	}
	return domain.TileCoord{Zoom: z, X: x, Y: y}, nil
}
