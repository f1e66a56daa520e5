// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Post status lifecycle. Posts are created as draft by the generation
// pipeline, move to scheduled once a publish time is set, and are moved to
// published or error exclusively by the publisher run.
const (
	PostStatusDraft     = "draft"
	PostStatusApproved  = "approved"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusError     = "error"
)

// Supported platform identifiers. Adapters are registered under these keys.
const (
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformLinkedIn  = "linkedin"
)

// Platforms lists every platform identifier with a registered adapter.
var Platforms = []string{PlatformTwitter, PlatformFacebook, PlatformInstagram, PlatformLinkedIn}

// ValidPlatform reports whether p is a known platform identifier.
func ValidPlatform(p string) bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// ContentPost is a generated piece of content owned by a single user and
// bound to one platform. MediaRefs holds already-uploaded asset URLs as a
// newline-separated list; the core treats them as opaque.
type ContentPost struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OwnerID        uint       `gorm:"not null;index" json:"owner_id"`
	BrandID        *uint      `gorm:"index" json:"brand_id,omitempty"`
	Platform       string     `gorm:"not null;index;size:32" json:"platform"`
	Body           string     `gorm:"type:text;not null" json:"body"`
	MediaRefs      string     `gorm:"type:text" json:"media_refs,omitempty"`
	Status         string     `gorm:"not null;index;default:draft;size:16" json:"status"`
	ScheduledAt    *time.Time `gorm:"index" json:"scheduled_at,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	ExternalPostID string     `gorm:"size:128" json:"external_post_id,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	// LockedAt marks a post claimed by an in-flight publisher run. Stale
	// locks (crashed run) become reclaimable after the configured window.
	LockedAt  *time.Time     `gorm:"index" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MediaRefList splits MediaRefs into individual asset references.
func (p *ContentPost) MediaRefList() []string {
	if p.MediaRefs == "" {
		return nil
	}
	var refs []string
	for _, ref := range strings.Split(p.MediaRefs, "\n") {
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}
