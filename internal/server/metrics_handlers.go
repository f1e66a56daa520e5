package server

import (
	"ampcast/internal/models"
	"ampcast/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CollectMetrics handles POST /api/metrics/collect. With manual_metrics the
// counters are taken from the body; otherwise they are fetched from the
// post's platform.
func (s *Server) CollectMetrics(c *fiber.Ctx) error {
	var req struct {
		PostID        uint                   `json:"post_id"`
		ManualMetrics *service.ManualMetrics `json:"manual_metrics"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.PostID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("post_id is required"))
	}

	rec, err := s.collector.Collect(c.Context(), service.CollectInput{
		OwnerID: currentUserID(c),
		PostID:  req.PostID,
		Manual:  req.ManualMetrics,
	})
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(rec)
}
