// Package service holds the business logic between the HTTP layer and the
// repositories: publishing runs, metrics collection, experiments, timing
// analysis and the insights they produce.
package service

import (
	"context"
	"encoding/json"

	"ampcast/internal/middleware"
	"ampcast/internal/models"
	"ampcast/internal/observability"
	"ampcast/internal/repository"

	"github.com/google/uuid"
)

// Finding is an analysis result ready to be persisted as an insight.
type Finding struct {
	OwnerID        uint
	Type           string
	Title          string
	Description    string
	Recommendation string
	Confidence     float64
	DataPoints     map[string]interface{}
}

// InsightEmitter turns analysis findings into stored insight records. Records
// are append-only: a new analysis produces a new insight rather than mutating
// an old one, so the history of recommendations stays auditable.
type InsightEmitter struct {
	insightRepo repository.InsightRepository
}

func NewInsightEmitter(insightRepo repository.InsightRepository) *InsightEmitter {
	return &InsightEmitter{insightRepo: insightRepo}
}

func (e *InsightEmitter) Emit(ctx context.Context, f Finding) (*models.Insight, error) {
	if f.OwnerID == 0 {
		return nil, models.NewValidationError("Insight owner is required")
	}
	if f.Type == "" || f.Title == "" {
		return nil, models.NewValidationError("Insight type and title are required")
	}

	dataPoints := "{}"
	if len(f.DataPoints) > 0 {
		raw, err := json.Marshal(f.DataPoints)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		dataPoints = string(raw)
	}

	insight := &models.Insight{
		ID:              uuid.NewString(),
		OwnerID:         f.OwnerID,
		Type:            f.Type,
		Title:           f.Title,
		Description:     f.Description,
		Recommendation:  f.Recommendation,
		ConfidenceScore: f.Confidence,
		DataPoints:      dataPoints,
	}
	if err := e.insightRepo.Create(ctx, insight); err != nil {
		return nil, err
	}

	observability.InsightsEmitted.WithLabelValues(f.Type).Inc()
	middleware.Logger.InfoContext(ctx, "insight emitted",
		"insight_id", insight.ID,
		"owner_id", f.OwnerID,
		"type", f.Type,
		"confidence", f.Confidence,
	)
	return insight, nil
}

// ListInsights returns an owner's stored insights, optionally filtered by type.
func (e *InsightEmitter) ListInsights(ctx context.Context, ownerID uint, insightType string, limit, offset int) ([]*models.Insight, error) {
	if insightType != "" && !models.ValidInsightType(insightType) {
		return nil, models.NewValidationError("Unknown insight type")
	}
	return e.insightRepo.ListByOwner(ctx, ownerID, insightType, limit, offset)
}
