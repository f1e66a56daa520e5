package models

import "time"

// Experiment test lifecycle.
const (
	ExperimentStatusDraft     = "draft"
	ExperimentStatusRunning   = "running"
	ExperimentStatusCompleted = "completed"
	ExperimentStatusCancelled = "cancelled"
)

// Experiment winner values.
const (
	WinnerVariantA = "variant_a"
	WinnerVariantB = "variant_b"
)

// ExperimentTest is a two-armed content test. The variant-to-post mapping is
// captured at creation and frozen once the test starts. Winner is set only
// when the test completes with confidence at or above the significance
// threshold.
type ExperimentTest struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	OwnerID        uint       `gorm:"not null;index" json:"owner_id"`
	Name           string     `gorm:"size:200" json:"name"`
	VariantAPostID uint       `gorm:"not null" json:"variant_a_post_id"`
	VariantBPostID uint       `gorm:"not null" json:"variant_b_post_id"`
	Status         string     `gorm:"not null;index;default:draft;size:16" json:"status"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Winner         string     `gorm:"size:16" json:"winner,omitempty"`
	Confidence     float64    `json:"confidence"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Terminal reports whether the test can no longer change state.
func (t *ExperimentTest) Terminal() bool {
	return t.Status == ExperimentStatusCompleted || t.Status == ExperimentStatusCancelled
}
