package ingest

import (
	"github.com/gofiber/fiber/v2"
)

// Handler serves the ingestion status.
type Handler struct {
	service *Service
}

// NewHandler creates a status handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the ingest routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/ingest")
	group.Get("/status", h.HandleStatus)
}

// HandleStatus returns the ingestion progress.
// @Summary Ingestion status
// @Description Last committed cursor, batch counters and catalog snapshot.
// @Tags ingest
// @Produce json
// @Success 200 {object} Status
// @Router /ingest/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}
