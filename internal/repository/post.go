// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"ampcast/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows post selection for partial publisher runs and listings.
type PostFilter struct {
	OwnerID  uint   // 0 means all owners
	Platform string // empty means all platforms
}

// PostRepository defines the interface for content post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.ContentPost) error
	GetByID(ctx context.Context, id uint) (*models.ContentPost, error)
	ListByOwner(ctx context.Context, ownerID uint, status string, limit, offset int) ([]*models.ContentPost, error)
	// ListDue returns scheduled posts whose scheduled time has elapsed,
	// skipping posts held by a live publisher claim.
	ListDue(ctx context.Context, now time.Time, staleAfter time.Duration, filter PostFilter) ([]*models.ContentPost, error)
	// Claim marks a post as held by the current run. It succeeds only while
	// the post is still scheduled and not freshly locked, so concurrent runs
	// cannot process the same post twice.
	Claim(ctx context.Context, id uint, now time.Time, staleAfter time.Duration) (bool, error)
	// ReleaseClaim drops the run's hold without changing status, so the next
	// run can pick the post up again (used when the outbound window is full).
	ReleaseClaim(ctx context.Context, id uint) error
	// MarkPublished is the final write for a successful publish.
	MarkPublished(ctx context.Context, id uint, externalPostID string, publishedAt time.Time) error
	// MarkError is the final write for a failed publish.
	MarkError(ctx context.Context, id uint, message string) error
	// Schedule moves a draft or approved post to scheduled at the given time.
	Schedule(ctx context.Context, id, ownerID uint, at time.Time) error
	// ResetToScheduled is the explicit manual retry: it moves an errored post
	// back to scheduled so the next run picks it up again.
	ResetToScheduled(ctx context.Context, id, ownerID uint) error
	// ListPublishedSince returns published posts whose publish time falls
	// after the cutoff, oldest first.
	ListPublishedSince(ctx context.Context, ownerID uint, platform string, since time.Time) ([]*models.ContentPost, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.ContentPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.ContentPost, error) {
	var post models.ContentPost
	err := r.db.WithContext(ctx).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("post", id)
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListByOwner(ctx context.Context, ownerID uint, status string, limit, offset int) ([]*models.ContentPost, error) {
	var posts []*models.ContentPost
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time, staleAfter time.Duration, filter PostFilter) ([]*models.ContentPost, error) {
	var posts []*models.ContentPost
	staleCutoff := now.Add(-staleAfter)
	q := r.db.WithContext(ctx).
		Where("status = ?", models.PostStatusScheduled).
		Where("scheduled_at <= ?", now).
		Where("locked_at IS NULL OR locked_at < ?", staleCutoff)
	if filter.OwnerID != 0 {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Platform != "" {
		q = q.Where("platform = ?", filter.Platform)
	}
	err := q.Order("scheduled_at ASC").Find(&posts).Error
	return posts, err
}

func (r *postRepository) Claim(ctx context.Context, id uint, now time.Time, staleAfter time.Duration) (bool, error) {
	staleCutoff := now.Add(-staleAfter)
	res := r.db.WithContext(ctx).
		Model(&models.ContentPost{}).
		Where("id = ?", id).
		Where("status = ?", models.PostStatusScheduled).
		Where("locked_at IS NULL OR locked_at < ?", staleCutoff).
		Update("locked_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *postRepository) ReleaseClaim(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.ContentPost{}).
		Where("id = ?", id).
		Where("status = ?", models.PostStatusScheduled).
		Update("locked_at", nil).Error
}

func (r *postRepository) MarkPublished(ctx context.Context, id uint, externalPostID string, publishedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.ContentPost{}).
		Where("id = ?", id).
		Where("status = ?", models.PostStatusScheduled).
		Updates(map[string]interface{}{
			"status":           models.PostStatusPublished,
			"published_at":     publishedAt,
			"external_post_id": externalPostID,
			"error_message":    "",
			"locked_at":        nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("post is no longer scheduled")
	}
	return nil
}

func (r *postRepository) MarkError(ctx context.Context, id uint, message string) error {
	res := r.db.WithContext(ctx).
		Model(&models.ContentPost{}).
		Where("id = ?", id).
		Where("status = ?", models.PostStatusScheduled).
		Updates(map[string]interface{}{
			"status":        models.PostStatusError,
			"error_message": message,
			"locked_at":     nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("post is no longer scheduled")
	}
	return nil
}

func (r *postRepository) Schedule(ctx context.Context, id, ownerID uint, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.ContentPost{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Where("status IN ?", []string{models.PostStatusDraft, models.PostStatusApproved}).
		Updates(map[string]interface{}{
			"status":       models.PostStatusScheduled,
			"scheduled_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("post cannot be scheduled in its current status")
	}
	return nil
}

func (r *postRepository) ListPublishedSince(ctx context.Context, ownerID uint, platform string, since time.Time) ([]*models.ContentPost, error) {
	var posts []*models.ContentPost
	q := r.db.WithContext(ctx).
		Where("status = ?", models.PostStatusPublished).
		Where("published_at >= ?", since)
	if ownerID != 0 {
		q = q.Where("owner_id = ?", ownerID)
	}
	if platform != "" {
		q = q.Where("platform = ?", platform)
	}
	err := q.Order("published_at ASC").Find(&posts).Error
	return posts, err
}

func (r *postRepository) ResetToScheduled(ctx context.Context, id, ownerID uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.ContentPost{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Where("status = ?", models.PostStatusError).
		Updates(map[string]interface{}{
			"status":        models.PostStatusScheduled,
			"error_message": "",
			"locked_at":     nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("only errored posts can be reset to scheduled")
	}
	return nil
}
