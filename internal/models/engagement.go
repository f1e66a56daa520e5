package models

import "time"

// EngagementRecord is the current engagement snapshot for a published post.
// One row per post (latest overwrite semantics); the collector upserts on
// post_id. RawPlatformMetrics keeps the platform payload for debugging and
// is never surfaced to end users directly.
type EngagementRecord struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	PostID             uint      `gorm:"not null;uniqueIndex" json:"post_id"`
	OwnerID            uint      `gorm:"not null;index" json:"owner_id"`
	Platform           string    `gorm:"not null;index;size:32" json:"platform"`
	Views              int64     `json:"views"`
	Likes              int64     `json:"likes"`
	Shares             int64     `json:"shares"`
	Comments           int64     `json:"comments"`
	Clicks             int64     `json:"clicks"`
	EngagementRate     float64   `json:"engagement_rate"`
	CapturedAt         time.Time `gorm:"not null" json:"captured_at"`
	RawPlatformMetrics string    `gorm:"type:text" json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Rate returns (likes+shares+comments)/max(views,1).
func (r *EngagementRecord) Rate() float64 {
	views := r.Views
	if views < 1 {
		views = 1
	}
	return float64(r.Likes+r.Shares+r.Comments) / float64(views)
}
