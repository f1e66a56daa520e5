package server

import (
	"ampcast/internal/models"
	"ampcast/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateExperiment handles POST /api/experiments
func (s *Server) CreateExperiment(c *fiber.Ctx) error {
	var req struct {
		Name           string `json:"name"`
		VariantAPostID uint   `json:"variant_a_post_id"`
		VariantBPostID uint   `json:"variant_b_post_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	test, err := s.experiments.Create(c.Context(), service.CreateExperimentInput{
		OwnerID:        currentUserID(c),
		Name:           req.Name,
		VariantAPostID: req.VariantAPostID,
		VariantBPostID: req.VariantBPostID,
	})
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.Status(fiber.StatusCreated).JSON(test)
}

// ListExperiments handles GET /api/experiments
func (s *Server) ListExperiments(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	tests, err := s.experiments.ListByOwner(c.Context(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(tests)
}

// GetExperiment handles GET /api/experiments/:id
func (s *Server) GetExperiment(c *fiber.Ctx) error {
	test, err := s.experiments.GetByID(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(test)
}

// StartExperiment handles POST /api/experiments/:id/start
func (s *Server) StartExperiment(c *fiber.Ctx) error {
	test, err := s.experiments.Start(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(test)
}

// AnalyzeExperiment handles POST /api/experiments/:id/analyze
func (s *Server) AnalyzeExperiment(c *fiber.Ctx) error {
	result, err := s.experiments.Analyze(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(result)
}

// CancelExperiment handles POST /api/experiments/:id/cancel
func (s *Server) CancelExperiment(c *fiber.Ctx) error {
	test, err := s.experiments.Cancel(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(test)
}
