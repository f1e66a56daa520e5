package server

import (
	"ampcast/internal/models"
	"ampcast/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RecomputeTiming handles POST /api/timing/recompute
func (s *Server) RecomputeTiming(c *fiber.Ctx) error {
	var req struct {
		Platform     string `json:"platform"`
		LookbackDays int    `json:"lookback_days"`
		Timezone     string `json:"timezone"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.timing.Recompute(c.Context(), service.RecomputeInput{
		OwnerID:      currentUserID(c),
		Platform:     req.Platform,
		LookbackDays: req.LookbackDays,
		Timezone:     req.Timezone,
	})
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(report)
}

// GetTimingRecommendations handles GET /api/timing/recommendations
func (s *Server) GetTimingRecommendations(c *fiber.Ctx) error {
	slots, err := s.timing.Recommendations(c.Context(), currentUserID(c),
		c.Query("platform"), c.QueryInt("limit", 10))
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(slots)
}
