package repository

import (
	"context"
	"errors"

	"ampcast/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CredentialRepository defines the interface for credential data operations.
// Credentials are written by the OAuth flow and upserted on (owner, platform).
type CredentialRepository interface {
	GetByOwnerAndPlatform(ctx context.Context, ownerID uint, platform string) (*models.Credential, error)
	Upsert(ctx context.Context, cred *models.Credential) error
}

type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new credential repository.
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) GetByOwnerAndPlatform(ctx context.Context, ownerID uint, platform string) (*models.Credential, error) {
	var cred models.Credential
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND platform = ?", ownerID, platform).
		First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("credential", platform)
		}
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) Upsert(ctx context.Context, cred *models.Credential) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "platform"}},
			DoUpdates: clause.AssignmentColumns([]string{"encrypted_token", "external_account_id", "updated_at"}),
		}).
		Create(cred).Error
}
