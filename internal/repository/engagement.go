package repository

import (
	"context"
	"errors"
	"time"

	"ampcast/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository defines the interface for engagement record operations.
// One current record per post: UpsertCurrent overwrites on post_id conflict.
type EngagementRepository interface {
	UpsertCurrent(ctx context.Context, rec *models.EngagementRecord) error
	GetByPostID(ctx context.Context, postID uint) (*models.EngagementRecord, error)
	// ListByOwnerSince returns records for an owner's posts captured within
	// the lookback window, optionally narrowed to one platform.
	ListByOwnerSince(ctx context.Context, ownerID uint, platform string, since time.Time) ([]*models.EngagementRecord, error)
	// OwnerAverageRate computes the owner's mean engagement rate over all
	// current records except the given post. The count lets callers require
	// a minimum history before comparing against the average.
	OwnerAverageRate(ctx context.Context, ownerID uint, excludePostID uint) (avg float64, samples int64, err error)
	// ListByPostIDs returns the current records for the given posts. Posts
	// without a record are simply absent from the result.
	ListByPostIDs(ctx context.Context, postIDs []uint) ([]*models.EngagementRecord, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository.
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) UpsertCurrent(ctx context.Context, rec *models.EngagementRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"views", "likes", "shares", "comments", "clicks",
				"engagement_rate", "captured_at", "raw_platform_metrics", "updated_at",
			}),
		}).
		Create(rec).Error
}

func (r *engagementRepository) GetByPostID(ctx context.Context, postID uint) (*models.EngagementRecord, error) {
	var rec models.EngagementRecord
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("engagement record", postID)
		}
		return nil, err
	}
	return &rec, nil
}

func (r *engagementRepository) ListByOwnerSince(ctx context.Context, ownerID uint, platform string, since time.Time) ([]*models.EngagementRecord, error) {
	var recs []*models.EngagementRecord
	q := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("captured_at >= ?", since)
	if platform != "" {
		q = q.Where("platform = ?", platform)
	}
	err := q.Order("captured_at ASC").Find(&recs).Error
	return recs, err
}

func (r *engagementRepository) ListByPostIDs(ctx context.Context, postIDs []uint) ([]*models.EngagementRecord, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var recs []*models.EngagementRecord
	err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Find(&recs).Error
	return recs, err
}

func (r *engagementRepository) OwnerAverageRate(ctx context.Context, ownerID uint, excludePostID uint) (float64, int64, error) {
	type aggRow struct {
		Avg     float64
		Samples int64
	}
	var row aggRow
	err := r.db.WithContext(ctx).
		Model(&models.EngagementRecord{}).
		Select("COALESCE(AVG(engagement_rate), 0) AS avg, COUNT(*) AS samples").
		Where("owner_id = ?", ownerID).
		Where("post_id <> ?", excludePostID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Avg, row.Samples, nil
}
