package utils

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
)

type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

// SendError maps an error onto its HTTP response. Tile and TileJSON
// payloads are sent raw, so only the error path uses an envelope.
func SendError(c *fiber.Ctx, err error) error {
	if appErr, ok := errors.AsAppError(err); ok {
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Error: appErr,
		})
	}

	// Unknown error - return 500
	return c.Status(500).JSON(ErrorResponse{
		Error: errors.ErrInternalServer,
	})
}
