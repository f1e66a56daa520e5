package service

import (
	"context"
	"strings"
	"time"

	"ampcast/internal/models"
	"ampcast/internal/repository"
)

// PostService covers the lifecycle operations around publishing: creating
// drafts, scheduling, listing, and the explicit retry of errored posts.
type PostService struct {
	postRepo repository.PostRepository
	now      func() time.Time
}

type CreatePostInput struct {
	OwnerID   uint
	BrandID   *uint
	Platform  string
	Body      string
	MediaRefs []string
}

type ListPostsInput struct {
	OwnerID uint
	Status  string
	Limit   int
	Offset  int
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo, now: time.Now}
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.ContentPost, error) {
	if in.Body == "" {
		return nil, models.NewValidationError("Post body is required")
	}
	if !models.ValidPlatform(in.Platform) {
		return nil, models.NewValidationError("Unknown platform")
	}
	post := &models.ContentPost{
		OwnerID:   in.OwnerID,
		BrandID:   in.BrandID,
		Platform:  in.Platform,
		Body:      in.Body,
		MediaRefs: strings.Join(in.MediaRefs, "\n"),
		Status:    models.PostStatusDraft,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetByID(ctx context.Context, ownerID, postID uint) (*models.ContentPost, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != ownerID {
		return nil, models.NewNotFoundError("post", postID)
	}
	return post, nil
}

func (s *PostService) List(ctx context.Context, in ListPostsInput) ([]*models.ContentPost, error) {
	if in.Status != "" {
		switch in.Status {
		case models.PostStatusDraft, models.PostStatusApproved, models.PostStatusScheduled,
			models.PostStatusPublished, models.PostStatusError:
		default:
			return nil, models.NewValidationError("Unknown post status")
		}
	}
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 20
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	return s.postRepo.ListByOwner(ctx, in.OwnerID, in.Status, in.Limit, in.Offset)
}

// Schedule moves a draft or approved post into the publish queue. Times in
// the past are allowed; the next run picks the post up immediately.
func (s *PostService) Schedule(ctx context.Context, ownerID, postID uint, at time.Time) (*models.ContentPost, error) {
	if at.IsZero() {
		return nil, models.NewValidationError("A scheduled time is required")
	}
	if err := s.postRepo.Schedule(ctx, postID, ownerID, at.UTC()); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, ownerID, postID)
}

// Retry is the only path back from the error status: it clears the recorded
// failure and returns the post to the publish queue.
func (s *PostService) Retry(ctx context.Context, ownerID, postID uint) (*models.ContentPost, error) {
	if err := s.postRepo.ResetToScheduled(ctx, postID, ownerID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, ownerID, postID)
}
