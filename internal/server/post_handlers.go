package server

import (
	"time"

	"ampcast/internal/models"
	"ampcast/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	page := parsePagination(c, 20)

	posts, err := s.postService.List(ctx, service.ListPostsInput{
		OwnerID: currentUserID(c),
		Status:  c.Query("status"),
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()

	var req struct {
		Platform  string   `json:"platform"`
		Body      string   `json:"body"`
		MediaRefs []string `json:"media_refs"`
		BrandID   *uint    `json:"brand_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.Create(ctx, service.CreatePostInput{
		OwnerID:   currentUserID(c),
		BrandID:   req.BrandID,
		Platform:  req.Platform,
		Body:      req.Body,
		MediaRefs: req.MediaRefs,
	})
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetByID(c.Context(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(post)
}

// SchedulePost handles POST /api/posts/:id/schedule
func (s *Server) SchedulePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.Schedule(c.Context(), currentUserID(c), id, req.ScheduledAt)
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(post)
}

// RetryPost handles POST /api/posts/:id/retry
func (s *Server) RetryPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.Retry(c.Context(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(post)
}

// GetPostEngagement handles GET /api/posts/:id/engagement
func (s *Server) GetPostEngagement(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	rec, err := s.collector.GetEngagement(c.Context(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(rec)
}
