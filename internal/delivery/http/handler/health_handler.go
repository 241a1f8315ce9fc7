package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/usecase"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthHandler answers liveness probes with the database state and the
// PostGIS version the session runs against.
type HealthHandler struct {
	db         Pinger
	metadataUC *usecase.MetadataUseCase
	logger     *zap.Logger
}

func NewHealthHandler(db Pinger, metadataUC *usecase.MetadataUseCase, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:         db,
		metadataUC: metadataUC,
		logger:     logger,
	}
}

// Health godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	if err := h.db.Health(c.Context()); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"time":   time.Now(),
		})
	}

	resp := fiber.Map{
		"status": "healthy",
		"time":   time.Now(),
	}
	if version, err := h.metadataUC.BackendVersion(c.Context()); err == nil {
		resp["postgis"] = version
	}
	return c.JSON(resp)
}
