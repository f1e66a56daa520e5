package models

import "time"

// TimeSlotStat aggregates historical engagement for one
// (owner, platform, day-of-week, hour-of-day) bucket. Rows are recomputed
// and upserted on the natural key whenever the timing recommender runs.
// Buckets below the minimum sample count are stored but excluded from
// ranked recommendations.
type TimeSlotStat struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	OwnerID           uint      `gorm:"not null;uniqueIndex:idx_time_slots_natural" json:"owner_id"`
	Platform          string    `gorm:"not null;size:32;uniqueIndex:idx_time_slots_natural" json:"platform"`
	DayOfWeek         int       `gorm:"not null;uniqueIndex:idx_time_slots_natural" json:"day_of_week"`
	HourOfDay         int       `gorm:"not null;uniqueIndex:idx_time_slots_natural" json:"hour_of_day"`
	SampleCount       int       `gorm:"not null" json:"sample_count"`
	AvgEngagementRate float64   `json:"avg_engagement_rate"`
	Confidence        float64   `json:"confidence"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
