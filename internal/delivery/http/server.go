package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/config"
	"github.com/dbrnz/openmaptiles-tools/internal/delivery/http/handler"
	"github.com/dbrnz/openmaptiles-tools/internal/delivery/http/middleware"
	"github.com/dbrnz/openmaptiles-tools/internal/pkg/errors"
)

// Server is the Fiber application serving tiles, TileJSON and health.
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	tileHandler     *handler.TileHandler
	metadataHandler *handler.MetadataHandler
	healthHandler   *handler.HealthHandler
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	tileHandler *handler.TileHandler,
	metadataHandler *handler.MetadataHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "postserve",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:             app,
		config:          cfg,
		logger:          logger,
		tileHandler:     tileHandler,
		metadataHandler: metadataHandler,
		healthHandler:   healthHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	s.app.Get("/", s.metadataHandler.GetTileJSON)
	s.app.Get("/health", s.healthHandler.Health)
	s.app.Get("/tiles/:z/:x/:y.pbf", s.tileHandler.GetTile)
}

// Start blocks on the listener.
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler translates errors that escape handlers. Application
// errors keep their own status code and code string; everything else is
// an opaque 500.
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if appErr, ok := errors.AsAppError(err); ok {
			return c.Status(appErr.StatusCode).JSON(fiber.Map{
				"error": appErr,
			})
		}

		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "INTERNAL_SERVER_ERROR",
				"message": err.Error(),
			},
		})
	}
}
