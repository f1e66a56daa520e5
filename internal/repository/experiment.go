package repository

import (
	"context"
	"errors"

	"ampcast/internal/models"

	"gorm.io/gorm"
)

// ExperimentRepository defines the interface for experiment test operations.
type ExperimentRepository interface {
	Create(ctx context.Context, test *models.ExperimentTest) error
	GetByID(ctx context.Context, id string) (*models.ExperimentTest, error)
	Update(ctx context.Context, test *models.ExperimentTest) error
	ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.ExperimentTest, error)
}

type experimentRepository struct {
	db *gorm.DB
}

// NewExperimentRepository creates a new experiment repository.
func NewExperimentRepository(db *gorm.DB) ExperimentRepository {
	return &experimentRepository{db: db}
}

func (r *experimentRepository) Create(ctx context.Context, test *models.ExperimentTest) error {
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *experimentRepository) GetByID(ctx context.Context, id string) (*models.ExperimentTest, error) {
	var test models.ExperimentTest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&test).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("experiment", id)
		}
		return nil, err
	}
	return &test, nil
}

func (r *experimentRepository) Update(ctx context.Context, test *models.ExperimentTest) error {
	return r.db.WithContext(ctx).Save(test).Error
}

func (r *experimentRepository) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.ExperimentTest, error) {
	var tests []*models.ExperimentTest
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tests).Error
	return tests, err
}
