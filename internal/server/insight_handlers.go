package server

import (
	"ampcast/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListInsights handles GET /api/insights
func (s *Server) ListInsights(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	insights, err := s.insights.ListInsights(c.Context(), currentUserID(c),
		c.Query("type"), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(insights)
}
