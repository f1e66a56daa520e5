package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"ampcast/internal/credentials"
	"ampcast/internal/middleware"
	"ampcast/internal/models"
	"ampcast/internal/observability"
	"ampcast/internal/platform"
	"ampcast/internal/ratelimit"
	"ampcast/internal/repository"

	"github.com/google/uuid"
)

// PublisherService runs the scheduled-post pipeline: select due posts, claim
// each one, resolve its credential, throttle against the per-owner platform
// window, and publish through the matching adapter. A post ends every run in
// exactly one of published, error, or still-scheduled (throttled or lost the
// claim race).
type PublisherService struct {
	postRepo  repository.PostRepository
	resolver  *credentials.Resolver
	registry  *platform.Registry
	limiter   *ratelimit.Limiter // nil disables outbound throttling
	retry     platform.RetryPolicy
	workers   int
	staleLock time.Duration
	now       func() time.Time
}

// RunInput narrows a publisher run. Zero values mean "everything due".
type RunInput struct {
	OwnerID  uint
	Platform string
}

// RunReport summarizes one publisher run.
type RunReport struct {
	RunID     string `json:"run_id"`
	Selected  int    `json:"selected"`
	Published int    `json:"published"`
	Failed    int    `json:"failed"`
	// Skipped posts stay scheduled: the claim was lost to a concurrent run
	// or the owner's outbound window for the platform was exhausted.
	Skipped int `json:"skipped"`
}

func NewPublisherService(
	postRepo repository.PostRepository,
	resolver *credentials.Resolver,
	registry *platform.Registry,
	limiter *ratelimit.Limiter,
	retry platform.RetryPolicy,
	workers int,
	staleLock time.Duration,
) *PublisherService {
	if workers < 1 {
		workers = 1
	}
	return &PublisherService{
		postRepo:  postRepo,
		resolver:  resolver,
		registry:  registry,
		limiter:   limiter,
		retry:     retry,
		workers:   workers,
		staleLock: staleLock,
		now:       time.Now,
	}
}

// Run executes one publishing pass. Failures are isolated per post: a post
// that errors is marked and counted, and the run continues with the rest.
func (s *PublisherService) Run(ctx context.Context, in RunInput) (*RunReport, error) {
	runID := uuid.NewString()[:8]
	ctx = middleware.WithRunID(ctx, runID)
	now := s.now().UTC()

	due, err := s.postRepo.ListDue(ctx, now, s.staleLock, repository.PostFilter{
		OwnerID:  in.OwnerID,
		Platform: in.Platform,
	})
	if err != nil {
		return nil, err
	}

	report := &RunReport{RunID: runID, Selected: len(due)}
	middleware.Logger.InfoContext(ctx, "publisher run started",
		"selected", len(due), "workers", s.workers)
	if len(due) == 0 {
		return report, nil
	}

	// Tokens are decrypted at most once per (owner, platform) per run.
	tokens := credentials.NewRunCache(s.resolver)

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan *models.ContentPost)
	)
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for post := range jobs {
				outcome := s.publishOne(ctx, post, tokens, now)
				mu.Lock()
				switch outcome {
				case outcomePublished:
					report.Published++
				case outcomeFailed:
					report.Failed++
				default:
					report.Skipped++
				}
				mu.Unlock()
			}
		}()
	}
	for _, post := range due {
		jobs <- post
	}
	close(jobs)
	wg.Wait()

	middleware.Logger.InfoContext(ctx, "publisher run finished",
		"published", report.Published, "failed", report.Failed, "skipped", report.Skipped)
	return report, nil
}

type runOutcome int

const (
	outcomeSkipped runOutcome = iota
	outcomePublished
	outcomeFailed
)

func (s *PublisherService) publishOne(ctx context.Context, post *models.ContentPost, tokens *credentials.RunCache, now time.Time) runOutcome {
	claimed, err := s.postRepo.Claim(ctx, post.ID, now, s.staleLock)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "claim failed", "post_id", post.ID, "error", err)
		return outcomeSkipped
	}
	if !claimed {
		// Another run got there first; not an error.
		return outcomeSkipped
	}

	adapter, err := s.registry.Get(post.Platform)
	if err != nil {
		return s.fail(ctx, post, "configuration", fmt.Sprintf("unsupported platform %q", post.Platform))
	}

	token, err := tokens.Resolve(ctx, post.OwnerID, post.Platform)
	if err != nil {
		if errors.Is(err, credentials.ErrNoCredential) {
			return s.fail(ctx, post, "configuration", fmt.Sprintf("missing credential for %s", post.Platform))
		}
		return s.fail(ctx, post, "internal", "credential lookup failed")
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, "publish:"+post.Platform, strconv.FormatUint(uint64(post.OwnerID), 10))
		if err == nil && !allowed {
			observability.PublishThrottled.WithLabelValues(post.Platform).Inc()
			middleware.Logger.WarnContext(ctx, "publish throttled",
				"post_id", post.ID, "owner_id", post.OwnerID, "platform", post.Platform)
			if relErr := s.postRepo.ReleaseClaim(ctx, post.ID); relErr != nil {
				middleware.Logger.ErrorContext(ctx, "release claim failed", "post_id", post.ID, "error", relErr)
			}
			return outcomeSkipped
		}
		// Limiter errors fail open per its policy; a hard error here means
		// fail-closed was configured, so treat the post as throttled.
		if err != nil {
			if relErr := s.postRepo.ReleaseClaim(ctx, post.ID); relErr != nil {
				middleware.Logger.ErrorContext(ctx, "release claim failed", "post_id", post.ID, "error", relErr)
			}
			return outcomeSkipped
		}
	}

	var result *platform.PublishResult
	err = s.retry.Do(ctx, post.Platform, func(ctx context.Context) error {
		var perr error
		result, perr = adapter.Publish(ctx, platform.PublishRequest{
			Body:              post.Body,
			MediaRefs:         post.MediaRefList(),
			AccessToken:       token.Token,
			ExternalAccountID: token.ExternalAccountID,
		})
		return perr
	})
	if err != nil {
		var perr *platform.Error
		if errors.As(err, &perr) {
			return s.fail(ctx, post, perr.Kind.String(), perr.Message)
		}
		return s.fail(ctx, post, "internal", err.Error())
	}

	publishedAt := s.now().UTC()
	if err := s.postRepo.MarkPublished(ctx, post.ID, result.ExternalPostID, publishedAt); err != nil {
		middleware.Logger.ErrorContext(ctx, "mark published failed",
			"post_id", post.ID, "external_post_id", result.ExternalPostID, "error", err)
		return outcomeFailed
	}
	observability.PublishOutcomes.WithLabelValues(post.Platform, "published", "").Inc()
	middleware.Logger.InfoContext(ctx, "post published",
		"post_id", post.ID, "platform", post.Platform, "external_post_id", result.ExternalPostID)
	return outcomePublished
}

// fail records the terminal error state for a post. The run never re-queues a
// failed post; recovery is the explicit retry endpoint.
func (s *PublisherService) fail(ctx context.Context, post *models.ContentPost, kind, message string) runOutcome {
	if err := s.postRepo.MarkError(ctx, post.ID, message); err != nil {
		middleware.Logger.ErrorContext(ctx, "mark error failed", "post_id", post.ID, "error", err)
	}
	observability.PublishOutcomes.WithLabelValues(post.Platform, "error", kind).Inc()
	middleware.Logger.WarnContext(ctx, "post publish failed",
		"post_id", post.ID, "platform", post.Platform, "kind", kind, "error", message)
	return outcomeFailed
}
