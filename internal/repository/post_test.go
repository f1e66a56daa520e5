package repository

import (
	"context"
	"testing"
	"time"

	"ampcast/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedScheduledPost(t *testing.T, repo PostRepository, ownerID uint, platform string, scheduledAt time.Time) *models.ContentPost {
	t.Helper()
	post := &models.ContentPost{
		OwnerID:     ownerID,
		Platform:    platform,
		Body:        "scheduled body",
		Status:      models.PostStatusScheduled,
		ScheduledAt: ptrTime(scheduledAt),
	}
	require.NoError(t, repo.Create(context.Background(), post))
	return post
}

func TestPostRepositoryCreateAndGet(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))
	ctx := context.Background()

	post := &models.ContentPost{OwnerID: 7, Platform: "twitter", Body: "hello"}
	require.NoError(t, repo.Create(ctx, post))
	require.NotZero(t, post.ID)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Body)
	assert.Equal(t, uint(7), got.OwnerID)

	_, err = repo.GetByID(ctx, 9999)
	assert.Equal(t, models.CodeNotFound, appErrCode(err))
}

func TestPostRepositoryListByOwner(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.ContentPost{OwnerID: 7, Platform: "twitter", Body: "a", Status: models.PostStatusDraft}))
	}
	require.NoError(t, repo.Create(ctx, &models.ContentPost{OwnerID: 7, Platform: "twitter", Body: "b", Status: models.PostStatusPublished}))
	require.NoError(t, repo.Create(ctx, &models.ContentPost{OwnerID: 8, Platform: "twitter", Body: "c", Status: models.PostStatusDraft}))

	drafts, err := repo.ListByOwner(ctx, 7, models.PostStatusDraft, 10, 0)
	require.NoError(t, err)
	assert.Len(t, drafts, 3)

	all, err := repo.ListByOwner(ctx, 7, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	page, err := repo.ListByOwner(ctx, 7, "", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestPostRepositoryListDue(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()
	stale := 10 * time.Minute

	due := seedScheduledPost(t, repo, 7, "twitter", now.Add(-time.Minute))
	seedScheduledPost(t, repo, 7, "twitter", now.Add(time.Hour)) // future
	otherOwner := seedScheduledPost(t, repo, 8, "facebook", now.Add(-time.Minute))

	// Freshly locked posts are held by another run; stale locks are free.
	locked := seedScheduledPost(t, repo, 7, "twitter", now.Add(-time.Minute))
	staleLocked := seedScheduledPost(t, repo, 7, "twitter", now.Add(-time.Minute))

	claimed, err := repo.Claim(ctx, locked.ID, now, stale)
	require.NoError(t, err)
	require.True(t, claimed)
	claimedStale, err := repo.Claim(ctx, staleLocked.ID, now.Add(-time.Hour), stale)
	require.NoError(t, err)
	require.True(t, claimedStale)

	posts, err := repo.ListDue(ctx, now, stale, PostFilter{})
	require.NoError(t, err)
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, due.ID)
	assert.Contains(t, ids, otherOwner.ID)
	assert.Contains(t, ids, staleLocked.ID, "stale locks are reclaimable")
	assert.NotContains(t, ids, locked.ID, "live locks are skipped")

	byOwner, err := repo.ListDue(ctx, now, stale, PostFilter{OwnerID: 8})
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	assert.Equal(t, otherOwner.ID, byOwner[0].ID)

	byPlatform, err := repo.ListDue(ctx, now, stale, PostFilter{Platform: "facebook"})
	require.NoError(t, err)
	require.Len(t, byPlatform, 1)
	assert.Equal(t, otherOwner.ID, byPlatform[0].ID)
}

func TestPostRepositoryClaimIsExclusive(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()
	stale := 10 * time.Minute

	post := seedScheduledPost(t, repo, 7, "twitter", now.Add(-time.Minute))

	ok, err := repo.Claim(ctx, post.ID, now, stale)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Claim(ctx, post.ID, now, stale)
	require.NoError(t, err)
	assert.False(t, ok, "a live claim must not be claimable again")

	// Past the stale window the lock is considered abandoned.
	ok, err = repo.Claim(ctx, post.ID, now.Add(11*time.Minute), stale)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostRepositoryReleaseClaim(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()
	stale := 10 * time.Minute

	post := seedScheduledPost(t, repo, 7, "twitter", now.Add(-time.Minute))
	ok, err := repo.Claim(ctx, post.ID, now, stale)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.ReleaseClaim(ctx, post.ID))

	ok, err = repo.Claim(ctx, post.ID, now, stale)
	require.NoError(t, err)
	assert.True(t, ok, "released posts are immediately claimable")

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, got.Status)
}

func TestPostRepositoryMarkPublished(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	post := seedScheduledPost(t, repo, 7, "twitter", now.Add(-time.Minute))
	_, err := repo.Claim(ctx, post.ID, now, 10*time.Minute)
	require.NoError(t, err)

	require.NoError(t, repo.MarkPublished(ctx, post.ID, "tw-101", now))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, got.Status)
	assert.Equal(t, "tw-101", got.ExternalPostID)
	require.NotNil(t, got.PublishedAt)
	assert.Nil(t, got.LockedAt)

	// A second publish attempt finds the post no longer scheduled.
	err = repo.MarkPublished(ctx, post.ID, "tw-102", now)
	assert.Equal(t, models.CodeConflict, appErrCode(err))
}

func TestPostRepositoryMarkError(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	post := seedScheduledPost(t, repo, 7, "twitter", now.Add(-time.Minute))
	require.NoError(t, repo.MarkError(ctx, post.ID, "platform rejected the request"))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusError, got.Status)
	assert.Equal(t, "platform rejected the request", got.ErrorMessage)
	assert.Nil(t, got.LockedAt)

	err = repo.MarkError(ctx, post.ID, "again")
	assert.Equal(t, models.CodeConflict, appErrCode(err))
}

func TestPostRepositorySchedule(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))
	ctx := context.Background()
	at := time.Now().UTC().Add(time.Hour)

	draft := &models.ContentPost{OwnerID: 7, Platform: "twitter", Body: "a", Status: models.PostStatusDraft}
	require.NoError(t, repo.Create(ctx, draft))

	require.NoError(t, repo.Schedule(ctx, draft.ID, 7, at))
	got, err := repo.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, got.Status)
	require.NotNil(t, got.ScheduledAt)

	// Already scheduled, wrong owner, and published posts all refuse.
	assert.Equal(t, models.CodeConflict, appErrCode(repo.Schedule(ctx, draft.ID, 7, at)))

	other := &models.ContentPost{OwnerID: 7, Platform: "twitter", Body: "b", Status: models.PostStatusDraft}
	require.NoError(t, repo.Create(ctx, other))
	assert.Equal(t, models.CodeConflict, appErrCode(repo.Schedule(ctx, other.ID, 99, at)))
}

func TestPostRepositoryResetToScheduled(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	post := seedScheduledPost(t, repo, 7, "twitter", now.Add(-time.Minute))
	require.NoError(t, repo.MarkError(ctx, post.ID, "boom"))

	require.NoError(t, repo.ResetToScheduled(ctx, post.ID, 7))
	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, got.Status)
	assert.Empty(t, got.ErrorMessage)

	// Only errored posts reset; a scheduled one conflicts.
	assert.Equal(t, models.CodeConflict, appErrCode(repo.ResetToScheduled(ctx, post.ID, 7)))
}

func TestPostRepositoryListPublishedSince(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	publish := func(ownerID uint, platform string, at time.Time) *models.ContentPost {
		p := seedScheduledPost(t, repo, ownerID, platform, at.Add(-time.Minute))
		require.NoError(t, repo.MarkPublished(ctx, p.ID, "ext", at))
		return p
	}

	recent := publish(7, "twitter", now.Add(-24*time.Hour))
	older := publish(7, "twitter", now.Add(-48*time.Hour))
	publish(7, "twitter", now.Add(-40*24*time.Hour)) // outside the window
	publish(8, "twitter", now.Add(-24*time.Hour))
	publish(7, "facebook", now.Add(-24*time.Hour))

	posts, err := repo.ListPublishedSince(ctx, 7, "twitter", now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, older.ID, posts[0].ID, "oldest first")
	assert.Equal(t, recent.ID, posts[1].ID)
}
