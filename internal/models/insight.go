package models

import "time"

// Insight types emitted by the analytics services.
const (
	InsightTypeExperimentResult = "experiment_result"
	InsightTypeBestTimeSlot     = "best_time_slot"
	InsightTypeHighPerformance  = "high_performance"
	InsightTypeUnderperforming  = "underperforming"
)

// ValidInsightType reports whether t is one of the emitted insight types.
func ValidInsightType(t string) bool {
	switch t {
	case InsightTypeExperimentResult, InsightTypeBestTimeSlot,
		InsightTypeHighPerformance, InsightTypeUnderperforming:
		return true
	}
	return false
}

// Insight is an append-only, human-readable recommendation derived from a
// numeric finding. DataPoints carries the supporting numbers as JSON for the
// dashboard.
type Insight struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID         uint      `gorm:"not null;index" json:"owner_id"`
	Type            string    `gorm:"not null;index;size:32" json:"type"`
	Title           string    `gorm:"not null;size:200" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	Recommendation  string    `gorm:"type:text" json:"recommendation"`
	ConfidenceScore float64   `json:"confidence_score"`
	DataPoints      string    `gorm:"type:text" json:"data_points,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
