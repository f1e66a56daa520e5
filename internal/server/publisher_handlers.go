package server

import (
	"ampcast/internal/models"
	"ampcast/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RunPublisher handles POST /api/publisher/run. The body narrows the run;
// an empty body publishes everything due. Runs are synchronous: the caller
// (cron or dashboard) gets the full outcome report back.
func (s *Server) RunPublisher(c *fiber.Ctx) error {
	var req struct {
		OwnerID  uint   `json:"owner_id"`
		Platform string `json:"platform"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}
	if req.Platform != "" && !models.ValidPlatform(req.Platform) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown platform"))
	}

	report, err := s.publisher.Run(c.Context(), service.RunInput{
		OwnerID:  req.OwnerID,
		Platform: req.Platform,
	})
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(report)
}
