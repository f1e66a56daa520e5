package models

import "time"

// Credential stores the encrypted platform access token for one
// (owner, platform) pair. It is written by the OAuth callback flow (outside
// this core) and read-only here; the publisher decrypts EncryptedToken via
// the credential resolver.
type Credential struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	OwnerID           uint      `gorm:"not null;uniqueIndex:idx_credentials_owner_platform" json:"owner_id"`
	Platform          string    `gorm:"not null;size:32;uniqueIndex:idx_credentials_owner_platform" json:"platform"`
	EncryptedToken    string    `gorm:"type:text;not null" json:"-"`
	ExternalAccountID string    `gorm:"size:128" json:"external_account_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
