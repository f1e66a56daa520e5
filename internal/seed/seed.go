// Package seed creates demo and test data for the application database.
// Development only; production bootstrap never calls into it.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"ampcast/internal/credentials"
	"ampcast/internal/models"
	"ampcast/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumOwners        int
	PostsPerOwner    int
	PublishedPortion float64 // share of posts seeded as already published with engagement
	ShouldClean      bool
}

// DefaultOptions returns a small demo data set.
func DefaultOptions() Options {
	return Options{NumOwners: 3, PostsPerOwner: 40, PublishedPortion: 0.6}
}

// Seeder populates the database with plausible publishing history.
type Seeder struct {
	db       *gorm.DB
	resolver *credentials.Resolver
	opts     Options
	rng      *rand.Rand
}

func NewSeeder(db *gorm.DB, resolver *credentials.Resolver, opts Options) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:       db,
		resolver: resolver,
		opts:     opts,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run seeds owners, credentials, posts, and engagement history.
func (s *Seeder) Run(ctx context.Context) error {
	if s.opts.ShouldClean {
		if err := s.clean(); err != nil {
			return fmt.Errorf("clean failed: %w", err)
		}
	}

	credRepo := repository.NewCredentialRepository(s.db)
	postRepo := repository.NewPostRepository(s.db)
	engRepo := repository.NewEngagementRepository(s.db)

	for owner := uint(1); owner <= uint(s.opts.NumOwners); owner++ {
		for _, platform := range models.Platforms {
			encrypted, err := s.resolver.Encrypt("demo-token-" + gofakeit.UUID())
			if err != nil {
				return err
			}
			cred := &models.Credential{
				OwnerID:           owner,
				Platform:          platform,
				EncryptedToken:    encrypted,
				ExternalAccountID: gofakeit.Username(),
			}
			if err := credRepo.Upsert(ctx, cred); err != nil {
				return err
			}
		}

		for i := 0; i < s.opts.PostsPerOwner; i++ {
			post := s.buildPost(owner)
			if err := postRepo.Create(ctx, post); err != nil {
				return err
			}
			if post.Status == models.PostStatusPublished {
				rec := s.buildEngagement(post)
				if err := engRepo.UpsertCurrent(ctx, rec); err != nil {
					return err
				}
			}
		}
		log.Printf("Seeded owner %d: %d posts across %d platforms",
			owner, s.opts.PostsPerOwner, len(models.Platforms))
	}
	return nil
}

// buildPost creates a post with a realistic spread over the past 60 days.
// The published portion carries a publish time biased toward working hours
// so timing recommendations have structure to find.
func (s *Seeder) buildPost(owner uint) *models.ContentPost {
	platform := models.Platforms[s.rng.Intn(len(models.Platforms))]
	post := &models.ContentPost{
		OwnerID:  owner,
		Platform: platform,
		Body:     gofakeit.Sentence(10 + s.rng.Intn(15)),
	}
	if platform == models.PlatformInstagram {
		post.MediaRefs = fmt.Sprintf("https://picsum.photos/seed/%s/1080/1080", gofakeit.UUID())
	}

	at := time.Now().UTC().
		AddDate(0, 0, -s.rng.Intn(60)).
		Truncate(time.Hour).
		Add(time.Duration(s.rng.Intn(60)) * time.Minute)

	switch {
	case s.rng.Float64() < s.opts.PublishedPortion:
		// Bias toward 9:00 and 18:00 so buckets differ.
		hour := []int{9, 9, 9, 12, 18, 18, 21}[s.rng.Intn(7)]
		published := time.Date(at.Year(), at.Month(), at.Day(), hour, s.rng.Intn(60), 0, 0, time.UTC)
		post.Status = models.PostStatusPublished
		post.ScheduledAt = &published
		post.PublishedAt = &published
		post.ExternalPostID = gofakeit.UUID()
	case s.rng.Float64() < 0.5:
		due := at.Add(24 * time.Hour)
		post.Status = models.PostStatusScheduled
		post.ScheduledAt = &due
	default:
		post.Status = models.PostStatusDraft
	}
	return post
}

// buildEngagement fabricates counters where morning posts perform better,
// giving the analytics something non-uniform to detect.
func (s *Seeder) buildEngagement(post *models.ContentPost) *models.EngagementRecord {
	views := int64(100 + s.rng.Intn(5000))
	base := 0.02 + s.rng.Float64()*0.03
	if post.PublishedAt != nil && post.PublishedAt.Hour() < 12 {
		base *= 1.8
	}
	likes := int64(float64(views) * base)
	shares := likes / 4
	comments := likes / 3

	rec := &models.EngagementRecord{
		PostID:     post.ID,
		OwnerID:    post.OwnerID,
		Platform:   post.Platform,
		Views:      views,
		Likes:      likes,
		Shares:     shares,
		Comments:   comments,
		Clicks:     int64(s.rng.Intn(200)),
		CapturedAt: time.Now().UTC(),
	}
	rec.EngagementRate = rec.Rate()
	return rec
}

func (s *Seeder) clean() error {
	tables := []string{"insights", "experiment_tests", "time_slot_stats", "engagement_records", "credentials", "content_posts"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
