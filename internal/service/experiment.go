package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ampcast/internal/middleware"
	"ampcast/internal/models"
	"ampcast/internal/observability"
	"ampcast/internal/repository"

	"github.com/google/uuid"
)

// Analyze verdicts.
const (
	VerdictSignificant      = "significant"
	VerdictNotSignificant   = "not_significant"
	VerdictInsufficientData = "insufficient_data"
	// VerdictStored means the test already completed or was cancelled and
	// the returned result is the recorded outcome, recomputed from nothing.
	VerdictStored = "stored"
)

// ExperimentService manages two-variant content tests and their statistical
// evaluation.
type ExperimentService struct {
	experimentRepo repository.ExperimentRepository
	engagementRepo repository.EngagementRepository
	postRepo       repository.PostRepository
	emitter        *InsightEmitter
	now            func() time.Time
}

type CreateExperimentInput struct {
	OwnerID        uint
	Name           string
	VariantAPostID uint
	VariantBPostID uint
}

// AnalyzeResult reports one statistical evaluation of a test.
type AnalyzeResult struct {
	Verdict    string                 `json:"verdict"`
	Confidence float64                `json:"confidence"`
	Winner     string                 `json:"winner,omitempty"`
	RateA      float64                `json:"rate_a"`
	RateB      float64                `json:"rate_b"`
	ViewsA     int64                  `json:"views_a"`
	ViewsB     int64                  `json:"views_b"`
	Test       *models.ExperimentTest `json:"test"`
}

func NewExperimentService(
	experimentRepo repository.ExperimentRepository,
	engagementRepo repository.EngagementRepository,
	postRepo repository.PostRepository,
	emitter *InsightEmitter,
) *ExperimentService {
	return &ExperimentService{
		experimentRepo: experimentRepo,
		engagementRepo: engagementRepo,
		postRepo:       postRepo,
		emitter:        emitter,
		now:            time.Now,
	}
}

func (s *ExperimentService) Create(ctx context.Context, in CreateExperimentInput) (*models.ExperimentTest, error) {
	if in.VariantAPostID == 0 || in.VariantBPostID == 0 {
		return nil, models.NewValidationError("Both variant posts are required")
	}
	if in.VariantAPostID == in.VariantBPostID {
		return nil, models.NewValidationError("Variants must reference two different posts")
	}
	for _, postID := range []uint{in.VariantAPostID, in.VariantBPostID} {
		post, err := s.postRepo.GetByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		if post.OwnerID != in.OwnerID {
			return nil, models.NewValidationError("Variant posts must belong to the experiment owner")
		}
	}

	test := &models.ExperimentTest{
		ID:             uuid.NewString(),
		OwnerID:        in.OwnerID,
		Name:           in.Name,
		VariantAPostID: in.VariantAPostID,
		VariantBPostID: in.VariantBPostID,
		Status:         models.ExperimentStatusDraft,
	}
	if err := s.experimentRepo.Create(ctx, test); err != nil {
		return nil, err
	}
	return test, nil
}

func (s *ExperimentService) GetByID(ctx context.Context, ownerID uint, id string) (*models.ExperimentTest, error) {
	test, err := s.experimentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if test.OwnerID != ownerID {
		return nil, models.NewNotFoundError("experiment", id)
	}
	return test, nil
}

func (s *ExperimentService) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.ExperimentTest, error) {
	return s.experimentRepo.ListByOwner(ctx, ownerID, limit, offset)
}

// Start moves a draft test to running and freezes its variant mapping.
// Starting a test that is already running is a no-op.
func (s *ExperimentService) Start(ctx context.Context, ownerID uint, id string) (*models.ExperimentTest, error) {
	test, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	switch test.Status {
	case models.ExperimentStatusRunning:
		return test, nil
	case models.ExperimentStatusDraft:
		now := s.now().UTC()
		test.Status = models.ExperimentStatusRunning
		test.StartedAt = &now
		if err := s.experimentRepo.Update(ctx, test); err != nil {
			return nil, err
		}
		return test, nil
	default:
		return nil, models.NewConflictError(fmt.Sprintf("cannot start a %s experiment", test.Status))
	}
}

// Cancel ends a test without a verdict. Cancelling twice is a no-op;
// cancelling a completed test is a conflict because its verdict stands.
func (s *ExperimentService) Cancel(ctx context.Context, ownerID uint, id string) (*models.ExperimentTest, error) {
	test, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	switch test.Status {
	case models.ExperimentStatusCancelled:
		return test, nil
	case models.ExperimentStatusCompleted:
		return nil, models.NewConflictError("completed experiments cannot be cancelled")
	}
	now := s.now().UTC()
	test.Status = models.ExperimentStatusCancelled
	test.CompletedAt = &now
	if err := s.experimentRepo.Update(ctx, test); err != nil {
		return nil, err
	}
	return test, nil
}

// Analyze evaluates a running test against the current engagement records of
// its two variants. Below the per-variant view floor it returns an
// insufficient-data verdict and changes nothing. At or above the significance
// threshold it completes the test, records the winner, and emits an insight.
// Analyzing a terminal test returns the stored outcome unchanged.
func (s *ExperimentService) Analyze(ctx context.Context, ownerID uint, id string) (*AnalyzeResult, error) {
	test, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if test.Terminal() {
		observability.ExperimentAnalyses.WithLabelValues(VerdictStored).Inc()
		return &AnalyzeResult{
			Verdict:    VerdictStored,
			Confidence: test.Confidence,
			Winner:     test.Winner,
			Test:       test,
		}, nil
	}
	if test.Status != models.ExperimentStatusRunning {
		return nil, models.NewConflictError("experiment has not been started")
	}

	recA, errA := s.engagementRepo.GetByPostID(ctx, test.VariantAPostID)
	recB, errB := s.engagementRepo.GetByPostID(ctx, test.VariantBPostID)
	if errA != nil || errB != nil {
		// A variant with no engagement record yet is not an error, just not
		// enough data. Real store failures still surface.
		if isNotFound(errA) || isNotFound(errB) {
			observability.ExperimentAnalyses.WithLabelValues(VerdictInsufficientData).Inc()
			return &AnalyzeResult{Verdict: VerdictInsufficientData, Test: test}, nil
		}
		if errA != nil {
			return nil, errA
		}
		return nil, errB
	}

	result := &AnalyzeResult{
		RateA:  recA.EngagementRate,
		RateB:  recB.EngagementRate,
		ViewsA: recA.Views,
		ViewsB: recB.Views,
		Test:   test,
	}
	if recA.Views < minViewsPerVariant || recB.Views < minViewsPerVariant {
		result.Verdict = VerdictInsufficientData
		observability.ExperimentAnalyses.WithLabelValues(VerdictInsufficientData).Inc()
		return result, nil
	}

	z := twoProportionZ(recA.EngagementRate, recA.Views, recB.EngagementRate, recB.Views)
	result.Confidence = confidenceForZ(z)

	if result.Confidence < significanceThreshold {
		result.Verdict = VerdictNotSignificant
		observability.ExperimentAnalyses.WithLabelValues(VerdictNotSignificant).Inc()
		return result, nil
	}

	winner, winnerRate, loserRate := models.WinnerVariantA, recA.EngagementRate, recB.EngagementRate
	winnerPostID := test.VariantAPostID
	if recB.EngagementRate > recA.EngagementRate {
		winner, winnerRate, loserRate = models.WinnerVariantB, recB.EngagementRate, recA.EngagementRate
		winnerPostID = test.VariantBPostID
	}

	now := s.now().UTC()
	test.Status = models.ExperimentStatusCompleted
	test.CompletedAt = &now
	test.Winner = winner
	test.Confidence = result.Confidence
	if err := s.experimentRepo.Update(ctx, test); err != nil {
		return nil, err
	}

	result.Verdict = VerdictSignificant
	result.Winner = winner
	observability.ExperimentAnalyses.WithLabelValues(VerdictSignificant).Inc()

	lift := 0.0
	if loserRate > 0 {
		lift = (winnerRate - loserRate) / loserRate * 100
	}
	if _, err := s.emitter.Emit(ctx, Finding{
		OwnerID: test.OwnerID,
		Type:    models.InsightTypeExperimentResult,
		Title:   fmt.Sprintf("Experiment %q has a winner", test.Name),
		Description: fmt.Sprintf("%s outperformed the other variant with an engagement rate of %.2f%% vs %.2f%%.",
			winner, winnerRate*100, loserRate*100),
		Recommendation: "Reuse the winning variant's style for upcoming posts.",
		Confidence:     result.Confidence,
		DataPoints: map[string]interface{}{
			"experiment_id":  test.ID,
			"winner_post_id": winnerPostID,
			"rate_a":         recA.EngagementRate,
			"rate_b":         recB.EngagementRate,
			"views_a":        recA.Views,
			"views_b":        recB.Views,
			"z_confidence":   result.Confidence,
			"lift_pct":       lift,
		},
	}); err != nil {
		// The verdict is already recorded; a failed insight write should not
		// undo it.
		middleware.Logger.ErrorContext(ctx, "experiment insight emit failed",
			"experiment_id", test.ID, "error", err)
	}
	return result, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeNotFound
}
