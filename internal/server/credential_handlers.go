package server

import (
	"ampcast/internal/models"
	"ampcast/internal/service"

	"github.com/gofiber/fiber/v2"
)

// StoreCredential handles PUT /api/credentials/:platform. The token is
// encrypted at rest and never echoed back.
func (s *Server) StoreCredential(c *fiber.Ctx) error {
	var req struct {
		Token             string `json:"token"`
		ExternalAccountID string `json:"external_account_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	cred, err := s.credentialService.Store(c.Context(), service.StoreCredentialInput{
		OwnerID:           currentUserID(c),
		Platform:          c.Params("platform"),
		Token:             req.Token,
		ExternalAccountID: req.ExternalAccountID,
	})
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(fiber.Map{
		"platform":            cred.Platform,
		"external_account_id": cred.ExternalAccountID,
		"connected":           true,
	})
}

// GetCredentialStatus handles GET /api/credentials/:platform
func (s *Server) GetCredentialStatus(c *fiber.Ctx) error {
	connected, err := s.credentialService.Status(c.Context(), currentUserID(c), c.Params("platform"))
	if err != nil {
		return models.RespondWithError(c, 0, err)
	}
	return c.JSON(fiber.Map{
		"platform":  c.Params("platform"),
		"connected": connected,
	})
}
