package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ampcast/internal/credentials"
	"ampcast/internal/middleware"
	"ampcast/internal/models"
	"ampcast/internal/platform"
	"ampcast/internal/repository"
)

// Deviation thresholds for the per-post performance insights, relative to the
// owner's average engagement rate.
const (
	highPerformanceFactor = 1.2
	underperformingFactor = 0.5
)

// ManualMetrics is an operator-entered engagement snapshot for platforms
// where API access is unavailable.
type ManualMetrics struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Comments int64 `json:"comments"`
	Clicks   int64 `json:"clicks"`
}

type CollectInput struct {
	OwnerID uint
	PostID  uint
	// Manual, when set, replaces the platform fetch entirely.
	Manual *ManualMetrics
}

// CollectorService pulls engagement counters for published posts, normalizes
// them into current-snapshot records, and flags posts that deviate from the
// owner's average.
type CollectorService struct {
	postRepo       repository.PostRepository
	engagementRepo repository.EngagementRepository
	resolver       *credentials.Resolver
	registry       *platform.Registry
	emitter        *InsightEmitter
	now            func() time.Time
}

func NewCollectorService(
	postRepo repository.PostRepository,
	engagementRepo repository.EngagementRepository,
	resolver *credentials.Resolver,
	registry *platform.Registry,
	emitter *InsightEmitter,
) *CollectorService {
	return &CollectorService{
		postRepo:       postRepo,
		engagementRepo: engagementRepo,
		resolver:       resolver,
		registry:       registry,
		emitter:        emitter,
		now:            time.Now,
	}
}

// Collect refreshes the engagement snapshot for one published post. Repeated
// collection overwrites the previous snapshot; there is never more than one
// record per post.
func (s *CollectorService) Collect(ctx context.Context, in CollectInput) (*models.EngagementRecord, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != in.OwnerID {
		return nil, models.NewNotFoundError("post", in.PostID)
	}
	if post.Status != models.PostStatusPublished {
		return nil, models.NewValidationError("Metrics can only be collected for published posts")
	}

	var snap *platform.MetricsSnapshot
	if in.Manual != nil {
		snap = &platform.MetricsSnapshot{
			Views:      in.Manual.Views,
			Likes:      in.Manual.Likes,
			Shares:     in.Manual.Shares,
			Comments:   in.Manual.Comments,
			Clicks:     in.Manual.Clicks,
			CapturedAt: s.now().UTC(),
		}
	} else {
		snap, err = s.fetch(ctx, post)
		if err != nil {
			return nil, err
		}
	}

	rec := &models.EngagementRecord{
		PostID:             post.ID,
		OwnerID:            post.OwnerID,
		Platform:           post.Platform,
		Views:              snap.Views,
		Likes:              snap.Likes,
		Shares:             snap.Shares,
		Comments:           snap.Comments,
		Clicks:             snap.Clicks,
		CapturedAt:         snap.CapturedAt,
		RawPlatformMetrics: snap.Raw,
	}
	rec.EngagementRate = rec.Rate()

	if err := s.engagementRepo.UpsertCurrent(ctx, rec); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "engagement collected",
		"post_id", post.ID, "platform", post.Platform,
		"views", rec.Views, "rate", rec.EngagementRate)

	s.flagDeviation(ctx, post, rec)
	return rec, nil
}

func (s *CollectorService) fetch(ctx context.Context, post *models.ContentPost) (*platform.MetricsSnapshot, error) {
	if post.ExternalPostID == "" {
		return nil, models.NewValidationError("Post has no platform identifier to fetch metrics for")
	}
	adapter, err := s.registry.Get(post.Platform)
	if err != nil {
		return nil, models.NewConfigurationError(fmt.Sprintf("unsupported platform %q", post.Platform))
	}
	token, err := s.resolver.Resolve(ctx, post.OwnerID, post.Platform)
	if err != nil {
		if errors.Is(err, credentials.ErrNoCredential) {
			return nil, models.NewConfigurationError(fmt.Sprintf("missing credential for %s", post.Platform))
		}
		return nil, err
	}
	snap, err := adapter.FetchMetrics(ctx, platform.MetricsRequest{
		ExternalPostID:    post.ExternalPostID,
		AccessToken:       token.Token,
		ExternalAccountID: token.ExternalAccountID,
	})
	if err != nil {
		var perr *platform.Error
		if errors.As(err, &perr) {
			if perr.Kind == platform.KindUnavailable {
				return nil, models.NewPlatformUnavailableError(perr.Message, perr)
			}
			return nil, models.NewPlatformRejectedError(perr.Message)
		}
		return nil, err
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = s.now().UTC()
	}
	return snap, nil
}

// flagDeviation emits a performance insight when the post's rate deviates
// strongly from the owner's average. Requires at least one other record so a
// first post never compares against itself. Best-effort: failures are logged,
// not returned.
func (s *CollectorService) flagDeviation(ctx context.Context, post *models.ContentPost, rec *models.EngagementRecord) {
	avg, samples, err := s.engagementRepo.OwnerAverageRate(ctx, post.OwnerID, post.ID)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "owner average lookup failed",
			"owner_id", post.OwnerID, "error", err)
		return
	}
	if samples < 1 || avg <= 0 {
		return
	}

	var finding *Finding
	switch {
	case rec.EngagementRate > avg*highPerformanceFactor:
		finding = &Finding{
			OwnerID: post.OwnerID,
			Type:    models.InsightTypeHighPerformance,
			Title:   "Post is outperforming your average",
			Description: fmt.Sprintf("Post %d on %s has an engagement rate of %.2f%%, above your average of %.2f%%.",
				post.ID, post.Platform, rec.EngagementRate*100, avg*100),
			Recommendation: "Consider boosting this post or reusing its format.",
			Confidence:     0.7,
		}
	case rec.EngagementRate < avg*underperformingFactor:
		finding = &Finding{
			OwnerID: post.OwnerID,
			Type:    models.InsightTypeUnderperforming,
			Title:   "Post is underperforming your average",
			Description: fmt.Sprintf("Post %d on %s has an engagement rate of %.2f%%, well below your average of %.2f%%.",
				post.ID, post.Platform, rec.EngagementRate*100, avg*100),
			Recommendation: "Review the content or posting time for this post.",
			Confidence:     0.7,
		}
	}
	if finding == nil {
		return
	}
	finding.DataPoints = map[string]interface{}{
		"post_id":     post.ID,
		"platform":    post.Platform,
		"rate":        rec.EngagementRate,
		"owner_avg":   avg,
		"samples":     samples,
		"views":       rec.Views,
		"likes":       rec.Likes,
		"shares":      rec.Shares,
		"comments":    rec.Comments,
		"captured_at": rec.CapturedAt,
	}
	if _, err := s.emitter.Emit(ctx, *finding); err != nil {
		middleware.Logger.ErrorContext(ctx, "deviation insight emit failed",
			"post_id", post.ID, "error", err)
	}
}

// GetEngagement returns the current snapshot for a post the owner controls.
func (s *CollectorService) GetEngagement(ctx context.Context, ownerID, postID uint) (*models.EngagementRecord, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != ownerID {
		return nil, models.NewNotFoundError("post", postID)
	}
	return s.engagementRepo.GetByPostID(ctx, postID)
}
