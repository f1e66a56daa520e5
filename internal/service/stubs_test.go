package service

import (
	"context"
	"sync"
	"time"

	"ampcast/internal/models"
	"ampcast/internal/repository"
)

// postRepoStub is a function-field stub for repository.PostRepository.
type postRepoStub struct {
	createFn             func(context.Context, *models.ContentPost) error
	getByIDFn            func(context.Context, uint) (*models.ContentPost, error)
	listByOwnerFn        func(context.Context, uint, string, int, int) ([]*models.ContentPost, error)
	listDueFn            func(context.Context, time.Time, time.Duration, repository.PostFilter) ([]*models.ContentPost, error)
	claimFn              func(context.Context, uint, time.Time, time.Duration) (bool, error)
	releaseClaimFn       func(context.Context, uint) error
	markPublishedFn      func(context.Context, uint, string, time.Time) error
	markErrorFn          func(context.Context, uint, string) error
	scheduleFn           func(context.Context, uint, uint, time.Time) error
	resetToScheduledFn   func(context.Context, uint, uint) error
	listPublishedSinceFn func(context.Context, uint, string, time.Time) ([]*models.ContentPost, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.ContentPost) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.ContentPost, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ListByOwner(ctx context.Context, ownerID uint, status string, limit, offset int) ([]*models.ContentPost, error) {
	return s.listByOwnerFn(ctx, ownerID, status, limit, offset)
}
func (s *postRepoStub) ListDue(ctx context.Context, now time.Time, staleAfter time.Duration, filter repository.PostFilter) ([]*models.ContentPost, error) {
	return s.listDueFn(ctx, now, staleAfter, filter)
}
func (s *postRepoStub) Claim(ctx context.Context, id uint, now time.Time, staleAfter time.Duration) (bool, error) {
	return s.claimFn(ctx, id, now, staleAfter)
}
func (s *postRepoStub) ReleaseClaim(ctx context.Context, id uint) error {
	return s.releaseClaimFn(ctx, id)
}
func (s *postRepoStub) MarkPublished(ctx context.Context, id uint, externalPostID string, publishedAt time.Time) error {
	return s.markPublishedFn(ctx, id, externalPostID, publishedAt)
}
func (s *postRepoStub) MarkError(ctx context.Context, id uint, message string) error {
	return s.markErrorFn(ctx, id, message)
}
func (s *postRepoStub) Schedule(ctx context.Context, id, ownerID uint, at time.Time) error {
	return s.scheduleFn(ctx, id, ownerID, at)
}
func (s *postRepoStub) ResetToScheduled(ctx context.Context, id, ownerID uint) error {
	return s.resetToScheduledFn(ctx, id, ownerID)
}
func (s *postRepoStub) ListPublishedSince(ctx context.Context, ownerID uint, platform string, since time.Time) ([]*models.ContentPost, error) {
	return s.listPublishedSinceFn(ctx, ownerID, platform, since)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.ContentPost) error { return nil },
		getByIDFn: func(_ context.Context, _ uint) (*models.ContentPost, error) { return &models.ContentPost{}, nil },
		listByOwnerFn: func(_ context.Context, _ uint, _ string, _, _ int) ([]*models.ContentPost, error) {
			return nil, nil
		},
		listDueFn: func(_ context.Context, _ time.Time, _ time.Duration, _ repository.PostFilter) ([]*models.ContentPost, error) {
			return nil, nil
		},
		claimFn:            func(_ context.Context, _ uint, _ time.Time, _ time.Duration) (bool, error) { return true, nil },
		releaseClaimFn:     func(_ context.Context, _ uint) error { return nil },
		markPublishedFn:    func(_ context.Context, _ uint, _ string, _ time.Time) error { return nil },
		markErrorFn:        func(_ context.Context, _ uint, _ string) error { return nil },
		scheduleFn:         func(_ context.Context, _, _ uint, _ time.Time) error { return nil },
		resetToScheduledFn: func(_ context.Context, _, _ uint) error { return nil },
		listPublishedSinceFn: func(_ context.Context, _ uint, _ string, _ time.Time) ([]*models.ContentPost, error) {
			return nil, nil
		},
	}
}

// memPostStore is an in-memory repository.PostRepository with real claim and
// status transitions, for tests that exercise run semantics end to end.
type memPostStore struct {
	mu    sync.Mutex
	posts map[uint]*models.ContentPost
}

func newMemPostStore(posts ...*models.ContentPost) *memPostStore {
	m := &memPostStore{posts: make(map[uint]*models.ContentPost)}
	for _, p := range posts {
		cp := *p
		m.posts[p.ID] = &cp
	}
	return m
}

func (m *memPostStore) get(id uint) models.ContentPost {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.posts[id]
}

func (m *memPostStore) Create(_ context.Context, post *models.ContentPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.ID] = post
	return nil
}

func (m *memPostStore) GetByID(_ context.Context, id uint) (*models.ContentPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("post", id)
	}
	cp := *p
	return &cp, nil
}

func (m *memPostStore) ListByOwner(_ context.Context, ownerID uint, status string, _, _ int) ([]*models.ContentPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ContentPost
	for _, p := range m.posts {
		if p.OwnerID == ownerID && (status == "" || p.Status == status) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPostStore) ListDue(_ context.Context, now time.Time, staleAfter time.Duration, filter repository.PostFilter) ([]*models.ContentPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-staleAfter)
	var out []*models.ContentPost
	for _, p := range m.posts {
		if p.Status != models.PostStatusScheduled {
			continue
		}
		if p.ScheduledAt == nil || p.ScheduledAt.After(now) {
			continue
		}
		if p.LockedAt != nil && p.LockedAt.After(cutoff) {
			continue
		}
		if filter.OwnerID != 0 && p.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Platform != "" && p.Platform != filter.Platform {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPostStore) Claim(_ context.Context, id uint, now time.Time, staleAfter time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.Status != models.PostStatusScheduled {
		return false, nil
	}
	if p.LockedAt != nil && p.LockedAt.After(now.Add(-staleAfter)) {
		return false, nil
	}
	t := now
	p.LockedAt = &t
	return true, nil
}

func (m *memPostStore) ReleaseClaim(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok && p.Status == models.PostStatusScheduled {
		p.LockedAt = nil
	}
	return nil
}

func (m *memPostStore) MarkPublished(_ context.Context, id uint, externalPostID string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.Status != models.PostStatusScheduled {
		return models.NewConflictError("post is no longer scheduled")
	}
	p.Status = models.PostStatusPublished
	p.ExternalPostID = externalPostID
	t := publishedAt
	p.PublishedAt = &t
	p.ErrorMessage = ""
	p.LockedAt = nil
	return nil
}

func (m *memPostStore) MarkError(_ context.Context, id uint, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.Status != models.PostStatusScheduled {
		return models.NewConflictError("post is no longer scheduled")
	}
	p.Status = models.PostStatusError
	p.ErrorMessage = message
	p.LockedAt = nil
	return nil
}

func (m *memPostStore) Schedule(_ context.Context, id, ownerID uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.OwnerID != ownerID {
		return models.NewConflictError("post cannot be scheduled in its current status")
	}
	if p.Status != models.PostStatusDraft && p.Status != models.PostStatusApproved {
		return models.NewConflictError("post cannot be scheduled in its current status")
	}
	p.Status = models.PostStatusScheduled
	t := at
	p.ScheduledAt = &t
	return nil
}

func (m *memPostStore) ResetToScheduled(_ context.Context, id, ownerID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.OwnerID != ownerID || p.Status != models.PostStatusError {
		return models.NewConflictError("only errored posts can be reset to scheduled")
	}
	p.Status = models.PostStatusScheduled
	p.ErrorMessage = ""
	p.LockedAt = nil
	return nil
}

func (m *memPostStore) ListPublishedSince(_ context.Context, ownerID uint, platform string, since time.Time) ([]*models.ContentPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ContentPost
	for _, p := range m.posts {
		if p.Status != models.PostStatusPublished || p.PublishedAt == nil || p.PublishedAt.Before(since) {
			continue
		}
		if ownerID != 0 && p.OwnerID != ownerID {
			continue
		}
		if platform != "" && p.Platform != platform {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// engagementRepoStub is a function-field stub for repository.EngagementRepository.
type engagementRepoStub struct {
	upsertCurrentFn    func(context.Context, *models.EngagementRecord) error
	getByPostIDFn      func(context.Context, uint) (*models.EngagementRecord, error)
	listByOwnerSinceFn func(context.Context, uint, string, time.Time) ([]*models.EngagementRecord, error)
	ownerAverageRateFn func(context.Context, uint, uint) (float64, int64, error)
	listByPostIDsFn    func(context.Context, []uint) ([]*models.EngagementRecord, error)
}

func (s *engagementRepoStub) UpsertCurrent(ctx context.Context, rec *models.EngagementRecord) error {
	return s.upsertCurrentFn(ctx, rec)
}
func (s *engagementRepoStub) GetByPostID(ctx context.Context, postID uint) (*models.EngagementRecord, error) {
	return s.getByPostIDFn(ctx, postID)
}
func (s *engagementRepoStub) ListByOwnerSince(ctx context.Context, ownerID uint, platform string, since time.Time) ([]*models.EngagementRecord, error) {
	return s.listByOwnerSinceFn(ctx, ownerID, platform, since)
}
func (s *engagementRepoStub) OwnerAverageRate(ctx context.Context, ownerID uint, excludePostID uint) (float64, int64, error) {
	return s.ownerAverageRateFn(ctx, ownerID, excludePostID)
}
func (s *engagementRepoStub) ListByPostIDs(ctx context.Context, postIDs []uint) ([]*models.EngagementRecord, error) {
	return s.listByPostIDsFn(ctx, postIDs)
}

func noopEngagementRepo() *engagementRepoStub {
	return &engagementRepoStub{
		upsertCurrentFn: func(_ context.Context, _ *models.EngagementRecord) error { return nil },
		getByPostIDFn: func(_ context.Context, postID uint) (*models.EngagementRecord, error) {
			return nil, models.NewNotFoundError("engagement record", postID)
		},
		listByOwnerSinceFn: func(_ context.Context, _ uint, _ string, _ time.Time) ([]*models.EngagementRecord, error) {
			return nil, nil
		},
		ownerAverageRateFn: func(_ context.Context, _, _ uint) (float64, int64, error) { return 0, 0, nil },
		listByPostIDsFn:    func(_ context.Context, _ []uint) ([]*models.EngagementRecord, error) { return nil, nil },
	}
}

// experimentRepoStub is a function-field stub for repository.ExperimentRepository.
type experimentRepoStub struct {
	createFn      func(context.Context, *models.ExperimentTest) error
	getByIDFn     func(context.Context, string) (*models.ExperimentTest, error)
	updateFn      func(context.Context, *models.ExperimentTest) error
	listByOwnerFn func(context.Context, uint, int, int) ([]*models.ExperimentTest, error)
}

func (s *experimentRepoStub) Create(ctx context.Context, test *models.ExperimentTest) error {
	return s.createFn(ctx, test)
}
func (s *experimentRepoStub) GetByID(ctx context.Context, id string) (*models.ExperimentTest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *experimentRepoStub) Update(ctx context.Context, test *models.ExperimentTest) error {
	return s.updateFn(ctx, test)
}
func (s *experimentRepoStub) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.ExperimentTest, error) {
	return s.listByOwnerFn(ctx, ownerID, limit, offset)
}

// timeSlotRepoStub is a function-field stub for repository.TimeSlotRepository.
type timeSlotRepoStub struct {
	upsertBatchFn func(context.Context, []*models.TimeSlotStat) error
	listRankedFn  func(context.Context, uint, string, int, int) ([]*models.TimeSlotStat, error)
	listAllFn     func(context.Context, uint, string) ([]*models.TimeSlotStat, error)
}

func (s *timeSlotRepoStub) UpsertBatch(ctx context.Context, stats []*models.TimeSlotStat) error {
	return s.upsertBatchFn(ctx, stats)
}
func (s *timeSlotRepoStub) ListRanked(ctx context.Context, ownerID uint, platform string, minSamples, limit int) ([]*models.TimeSlotStat, error) {
	return s.listRankedFn(ctx, ownerID, platform, minSamples, limit)
}
func (s *timeSlotRepoStub) ListAll(ctx context.Context, ownerID uint, platform string) ([]*models.TimeSlotStat, error) {
	return s.listAllFn(ctx, ownerID, platform)
}

// insightRecorder collects emitted insights in memory.
type insightRecorder struct {
	mu       sync.Mutex
	insights []*models.Insight
}

func (r *insightRecorder) Create(_ context.Context, insight *models.Insight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insights = append(r.insights, insight)
	return nil
}

func (r *insightRecorder) ListByOwner(_ context.Context, ownerID uint, insightType string, _, _ int) ([]*models.Insight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Insight
	for _, in := range r.insights {
		if in.OwnerID == ownerID && (insightType == "" || in.Type == insightType) {
			out = append(out, in)
		}
	}
	return out, nil
}

func (r *insightRecorder) all() []*models.Insight {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Insight(nil), r.insights...)
}

// credentialRepoStub is a function-field stub for repository.CredentialRepository.
type credentialRepoStub struct {
	getFn    func(context.Context, uint, string) (*models.Credential, error)
	upsertFn func(context.Context, *models.Credential) error
}

func (s *credentialRepoStub) GetByOwnerAndPlatform(ctx context.Context, ownerID uint, platform string) (*models.Credential, error) {
	return s.getFn(ctx, ownerID, platform)
}
func (s *credentialRepoStub) Upsert(ctx context.Context, cred *models.Credential) error {
	return s.upsertFn(ctx, cred)
}
