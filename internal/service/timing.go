package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ampcast/internal/middleware"
	"ampcast/internal/models"
	"ampcast/internal/repository"
)

const (
	defaultLookbackDays = 30
	// minBucketSamples is the floor for a bucket to appear in ranked
	// recommendations. Thinner buckets are still persisted so they can grow.
	minBucketSamples = 2
	// fullConfidenceSamples is the sample count at which the volume part of
	// the confidence score saturates.
	fullConfidenceSamples = 10
)

type RecomputeInput struct {
	OwnerID      uint
	Platform     string
	LookbackDays int
	// Timezone is an IANA name used to bucket publish times. Empty means UTC.
	Timezone string
}

// RecomputeReport summarizes one timing recomputation.
type RecomputeReport struct {
	PostsExamined int                    `json:"posts_examined"`
	Buckets       int                    `json:"buckets"`
	TopSlot       *models.TimeSlotStat   `json:"top_slot,omitempty"`
	Ranked        []*models.TimeSlotStat `json:"ranked"`
}

// TimingService aggregates historical engagement into day-of-week and
// hour-of-day buckets and recommends publish slots from them.
type TimingService struct {
	postRepo       repository.PostRepository
	engagementRepo repository.EngagementRepository
	timeSlotRepo   repository.TimeSlotRepository
	emitter        *InsightEmitter
	now            func() time.Time
}

func NewTimingService(
	postRepo repository.PostRepository,
	engagementRepo repository.EngagementRepository,
	timeSlotRepo repository.TimeSlotRepository,
	emitter *InsightEmitter,
) *TimingService {
	return &TimingService{
		postRepo:       postRepo,
		engagementRepo: engagementRepo,
		timeSlotRepo:   timeSlotRepo,
		emitter:        emitter,
		now:            time.Now,
	}
}

type bucketKey struct {
	day  int
	hour int
}

type bucketAgg struct {
	sum   float64
	count int
}

// Recompute rebuilds the owner's time-slot statistics for one platform from
// posts published inside the lookback window. Every observed bucket is
// upserted; the ranked result and the emitted insight only consider buckets
// at or above the sample floor.
func (s *TimingService) Recompute(ctx context.Context, in RecomputeInput) (*RecomputeReport, error) {
	if in.OwnerID == 0 {
		return nil, models.NewValidationError("Owner is required")
	}
	if in.Platform == "" || !models.ValidPlatform(in.Platform) {
		return nil, models.NewValidationError("A valid platform is required")
	}
	loc := time.UTC
	if in.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(in.Timezone)
		if err != nil {
			return nil, models.NewValidationError("Unknown timezone")
		}
	}
	lookback := in.LookbackDays
	if lookback <= 0 {
		lookback = defaultLookbackDays
	}
	since := s.now().UTC().AddDate(0, 0, -lookback)

	posts, err := s.postRepo.ListPublishedSince(ctx, in.OwnerID, in.Platform, since)
	if err != nil {
		return nil, err
	}
	report := &RecomputeReport{PostsExamined: len(posts)}
	if len(posts) == 0 {
		return report, nil
	}

	postIDs := make([]uint, 0, len(posts))
	publishedAt := make(map[uint]time.Time, len(posts))
	for _, p := range posts {
		if p.PublishedAt == nil {
			continue
		}
		postIDs = append(postIDs, p.ID)
		publishedAt[p.ID] = *p.PublishedAt
	}
	recs, err := s.engagementRepo.ListByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	var rateSum float64
	buckets := make(map[bucketKey]*bucketAgg)
	for _, rec := range recs {
		at, ok := publishedAt[rec.PostID]
		if !ok {
			continue
		}
		local := at.In(loc)
		key := bucketKey{day: int(local.Weekday()), hour: local.Hour()}
		agg := buckets[key]
		if agg == nil {
			agg = &bucketAgg{}
			buckets[key] = agg
		}
		agg.sum += rec.EngagementRate
		agg.count++
		rateSum += rec.EngagementRate
	}
	if len(buckets) == 0 {
		return report, nil
	}
	overallAvg := rateSum / float64(len(recs))

	stats := make([]*models.TimeSlotStat, 0, len(buckets))
	for key, agg := range buckets {
		avg := agg.sum / float64(agg.count)
		stats = append(stats, &models.TimeSlotStat{
			OwnerID:           in.OwnerID,
			Platform:          in.Platform,
			DayOfWeek:         key.day,
			HourOfDay:         key.hour,
			SampleCount:       agg.count,
			AvgEngagementRate: avg,
			Confidence:        slotConfidence(agg.count, avg, overallAvg),
		})
	}
	// Deterministic write order for the batch upsert.
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].DayOfWeek != stats[j].DayOfWeek {
			return stats[i].DayOfWeek < stats[j].DayOfWeek
		}
		return stats[i].HourOfDay < stats[j].HourOfDay
	})
	if err := s.timeSlotRepo.UpsertBatch(ctx, stats); err != nil {
		return nil, err
	}
	report.Buckets = len(stats)

	ranked := make([]*models.TimeSlotStat, 0, len(stats))
	for _, st := range stats {
		if st.SampleCount >= minBucketSamples {
			ranked = append(ranked, st)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].AvgEngagementRate > ranked[j].AvgEngagementRate
	})
	report.Ranked = ranked

	middleware.Logger.InfoContext(ctx, "timing recomputed",
		"owner_id", in.OwnerID, "platform", in.Platform,
		"posts", len(posts), "buckets", len(stats), "ranked", len(ranked))

	if len(ranked) > 0 {
		top := ranked[0]
		report.TopSlot = top
		if _, err := s.emitter.Emit(ctx, Finding{
			OwnerID: in.OwnerID,
			Type:    models.InsightTypeBestTimeSlot,
			Title:   fmt.Sprintf("Best time to post on %s", in.Platform),
			Description: fmt.Sprintf("%s at %02d:00 averages an engagement rate of %.2f%% over %d posts.",
				time.Weekday(top.DayOfWeek), top.HourOfDay, top.AvgEngagementRate*100, top.SampleCount),
			Recommendation: fmt.Sprintf("Schedule upcoming %s posts for %s around %02d:00.",
				in.Platform, time.Weekday(top.DayOfWeek), top.HourOfDay),
			Confidence: top.Confidence,
			DataPoints: map[string]interface{}{
				"platform":    in.Platform,
				"day_of_week": top.DayOfWeek,
				"hour_of_day": top.HourOfDay,
				"avg_rate":    top.AvgEngagementRate,
				"samples":     top.SampleCount,
			},
		}); err != nil {
			middleware.Logger.ErrorContext(ctx, "timing insight emit failed",
				"owner_id", in.OwnerID, "error", err)
		}
	}
	return report, nil
}

// Recommendations returns the stored ranked slots for an owner and platform.
func (s *TimingService) Recommendations(ctx context.Context, ownerID uint, platform string, limit int) ([]*models.TimeSlotStat, error) {
	if platform != "" && !models.ValidPlatform(platform) {
		return nil, models.NewValidationError("Unknown platform")
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.timeSlotRepo.ListRanked(ctx, ownerID, platform, minBucketSamples, limit)
}

// slotConfidence blends sample volume with performance relative to the
// platform-wide average: volume contributes up to 0.6, outperformance adds a
// stepped bonus up to 0.3.
func slotConfidence(samples int, avg, overallAvg float64) float64 {
	volume := float64(samples) / fullConfidenceSamples
	if volume > 1 {
		volume = 1
	}
	score := volume * 0.6
	switch {
	case overallAvg > 0 && avg > overallAvg*1.2:
		score += 0.3
	case overallAvg > 0 && avg > overallAvg*1.1:
		score += 0.2
	case overallAvg > 0 && avg > overallAvg:
		score += 0.1
	}
	return score
}
