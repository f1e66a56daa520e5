// Package credentials resolves and decrypts stored platform access tokens.
package credentials

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"ampcast/internal/models"
	"ampcast/internal/repository"

	"golang.org/x/crypto/hkdf"
)

// ErrNoCredential is the single "no usable credential" signal. Missing rows
// and decryption failures both map to it; callers never see the underlying
// cryptographic error.
var ErrNoCredential = errors.New("no usable credential")

// AccessToken is a decrypted platform token plus the external account it
// belongs to. It lives in memory only.
type AccessToken struct {
	Token             string
	ExternalAccountID string
}

// Resolver decrypts stored credentials. The AES-256 key is derived from the
// configured master secret with HKDF so the secret itself is never used as
// key material directly.
type Resolver struct {
	repo   repository.CredentialRepository
	key    []byte
	logger *slog.Logger
}

// NewResolver creates a Resolver bound to the credential store.
func NewResolver(repo repository.CredentialRepository, masterKey string, logger *slog.Logger) (*Resolver, error) {
	if masterKey == "" {
		return nil, errors.New("credential master key is required")
	}
	key, err := deriveKey(masterKey)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, key: key, logger: logger}, nil
}

func deriveKey(masterKey string) ([]byte, error) {
	kdf := hkdf.New(sha256.New, []byte(masterKey), nil, []byte("ampcast-credential-v1"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	return key, nil
}

// Resolve fetches and decrypts the stored token for (ownerID, platform).
// Fails closed: any decryption problem is reported as ErrNoCredential.
func (r *Resolver) Resolve(ctx context.Context, ownerID uint, platform string) (*AccessToken, error) {
	cred, err := r.repo.GetByOwnerAndPlatform(ctx, ownerID, platform)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return nil, ErrNoCredential
		}
		return nil, err
	}

	token, err := r.decrypt(cred.EncryptedToken)
	if err != nil {
		// Log the detail for operators; the caller gets the uniform signal.
		r.logger.WarnContext(ctx, "credential decryption failed",
			slog.Uint64("owner_id", uint64(ownerID)),
			slog.String("platform", platform),
			slog.String("error", err.Error()),
		)
		return nil, ErrNoCredential
	}

	return &AccessToken{Token: token, ExternalAccountID: cred.ExternalAccountID}, nil
}

// Encrypt seals a plaintext token for storage. Used by the OAuth callback
// flow, seeding, and tests.
func (r *Resolver) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (r *Resolver) decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid token encoding: %w", err)
	}
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("token decryption failed: %w", err)
	}
	return string(plaintext), nil
}

// RunCache memoizes decrypted tokens for the lifetime of one batch run so a
// run with many posts per owner decrypts each credential once. It must not
// outlive the run.
type RunCache struct {
	resolver *Resolver

	mu     sync.Mutex
	tokens map[string]*AccessToken
	misses map[string]bool
}

// NewRunCache creates a run-scoped token cache over the resolver.
func NewRunCache(resolver *Resolver) *RunCache {
	return &RunCache{
		resolver: resolver,
		tokens:   make(map[string]*AccessToken),
		misses:   make(map[string]bool),
	}
}

// Resolve returns the cached token for (ownerID, platform) or resolves and
// caches it. Negative results are cached too: a missing credential stays
// missing for the rest of the run.
func (c *RunCache) Resolve(ctx context.Context, ownerID uint, platform string) (*AccessToken, error) {
	key := fmt.Sprintf("%d:%s", ownerID, platform)

	c.mu.Lock()
	if tok, ok := c.tokens[key]; ok {
		c.mu.Unlock()
		return tok, nil
	}
	if c.misses[key] {
		c.mu.Unlock()
		return nil, ErrNoCredential
	}
	c.mu.Unlock()

	tok, err := c.resolver.Resolve(ctx, ownerID, platform)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			c.misses[key] = true
		}
		return nil, err
	}
	c.tokens[key] = tok
	return tok, nil
}
