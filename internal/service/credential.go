package service

import (
	"context"
	"errors"

	"ampcast/internal/credentials"
	"ampcast/internal/models"
	"ampcast/internal/repository"
)

// CredentialService stores platform tokens. Tokens are encrypted before they
// touch the database and never leave it in plaintext; the API only ever
// reports whether a credential exists.
type CredentialService struct {
	credentialRepo repository.CredentialRepository
	resolver       *credentials.Resolver
}

type StoreCredentialInput struct {
	OwnerID           uint
	Platform          string
	Token             string
	ExternalAccountID string
}

func NewCredentialService(credentialRepo repository.CredentialRepository, resolver *credentials.Resolver) *CredentialService {
	return &CredentialService{credentialRepo: credentialRepo, resolver: resolver}
}

func (s *CredentialService) Store(ctx context.Context, in StoreCredentialInput) (*models.Credential, error) {
	if !models.ValidPlatform(in.Platform) {
		return nil, models.NewValidationError("Unknown platform")
	}
	if in.Token == "" {
		return nil, models.NewValidationError("Access token is required")
	}
	encrypted, err := s.resolver.Encrypt(in.Token)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	cred := &models.Credential{
		OwnerID:           in.OwnerID,
		Platform:          in.Platform,
		EncryptedToken:    encrypted,
		ExternalAccountID: in.ExternalAccountID,
	}
	if err := s.credentialRepo.Upsert(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// Status reports whether a usable credential exists for the pair without
// exposing any token material.
func (s *CredentialService) Status(ctx context.Context, ownerID uint, platform string) (bool, error) {
	if !models.ValidPlatform(platform) {
		return false, models.NewValidationError("Unknown platform")
	}
	_, err := s.resolver.Resolve(ctx, ownerID, platform)
	if err != nil {
		// Only a genuinely absent or unusable credential reads as "not
		// connected". Store failures propagate.
		if errors.Is(err, credentials.ErrNoCredential) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
