package repository

import (
	"context"

	"ampcast/internal/models"

	"gorm.io/gorm"
)

// InsightRepository defines the interface for insight operations.
// Insights are append-only; there is no update or delete.
type InsightRepository interface {
	Create(ctx context.Context, insight *models.Insight) error
	ListByOwner(ctx context.Context, ownerID uint, insightType string, limit, offset int) ([]*models.Insight, error)
}

type insightRepository struct {
	db *gorm.DB
}

// NewInsightRepository creates a new insight repository.
func NewInsightRepository(db *gorm.DB) InsightRepository {
	return &insightRepository{db: db}
}

func (r *insightRepository) Create(ctx context.Context, insight *models.Insight) error {
	return r.db.WithContext(ctx).Create(insight).Error
}

func (r *insightRepository) ListByOwner(ctx context.Context, ownerID uint, insightType string, limit, offset int) ([]*models.Insight, error) {
	var insights []*models.Insight
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if insightType != "" {
		q = q.Where("type = ?", insightType)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&insights).Error
	return insights, err
}
