package repository

import (
	"context"

	"ampcast/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TimeSlotRepository defines the interface for time slot stat operations.
// Rows are keyed by (owner, platform, day, hour) and recomputed wholesale by
// the timing recommender.
type TimeSlotRepository interface {
	UpsertBatch(ctx context.Context, stats []*models.TimeSlotStat) error
	// ListRanked returns an owner's slots for a platform ordered by
	// confidence, excluding buckets below minSamples.
	ListRanked(ctx context.Context, ownerID uint, platform string, minSamples, limit int) ([]*models.TimeSlotStat, error)
	ListAll(ctx context.Context, ownerID uint, platform string) ([]*models.TimeSlotStat, error)
}

type timeSlotRepository struct {
	db *gorm.DB
}

// NewTimeSlotRepository creates a new time slot repository.
func NewTimeSlotRepository(db *gorm.DB) TimeSlotRepository {
	return &timeSlotRepository{db: db}
}

func (r *timeSlotRepository) UpsertBatch(ctx context.Context, stats []*models.TimeSlotStat) error {
	if len(stats) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "owner_id"}, {Name: "platform"},
				{Name: "day_of_week"}, {Name: "hour_of_day"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"sample_count", "avg_engagement_rate", "confidence", "updated_at",
			}),
		}).
		Create(&stats).Error
}

func (r *timeSlotRepository) ListRanked(ctx context.Context, ownerID uint, platform string, minSamples, limit int) ([]*models.TimeSlotStat, error) {
	var stats []*models.TimeSlotStat
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND platform = ?", ownerID, platform).
		Where("sample_count >= ?", minSamples).
		Order("confidence DESC, avg_engagement_rate DESC").
		Limit(limit).
		Find(&stats).Error
	return stats, err
}

func (r *timeSlotRepository) ListAll(ctx context.Context, ownerID uint, platform string) ([]*models.TimeSlotStat, error) {
	var stats []*models.TimeSlotStat
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND platform = ?", ownerID, platform).
		Order("day_of_week ASC, hour_of_day ASC").
		Find(&stats).Error
	return stats, err
}
