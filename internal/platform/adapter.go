// Package platform contains the adapters that translate generic publish and
// metrics requests into platform-specific API calls. Each adapter owns its
// platform's payload shape, content limits, and error mapping; callers work
// only with the capability interface and the normalized error taxonomy.
package platform

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// PublishRequest is the generic publish input handed to an adapter.
type PublishRequest struct {
	Body              string
	MediaRefs         []string
	AccessToken       string
	ExternalAccountID string
}

// PublishResult reports the platform-assigned identifier of the new post.
type PublishResult struct {
	ExternalPostID string
}

// MetricsRequest identifies a published post whose counters should be fetched.
type MetricsRequest struct {
	ExternalPostID    string
	AccessToken       string
	ExternalAccountID string
}

// MetricsSnapshot holds normalized engagement counters plus the raw platform
// payload for logging.
type MetricsSnapshot struct {
	Views      int64
	Likes      int64
	Shares     int64
	Comments   int64
	Clicks     int64
	CapturedAt time.Time
	Raw        string
}

// Adapter is the capability set every platform integration implements.
type Adapter interface {
	Name() string
	Publish(ctx context.Context, req PublishRequest) (*PublishResult, error)
	FetchMetrics(ctx context.Context, req MetricsRequest) (*MetricsSnapshot, error)
}

// Registry looks up adapters by platform identifier. Adding a platform is a
// pure-addition change: implement Adapter and register it.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its own name, replacing any previous one.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get returns the adapter for the platform, or a configuration error if no
// adapter is registered under that identifier.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for platform %q", name)
	}
	return a, nil
}

// Names returns the registered platform identifiers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDefaultRegistry registers every built-in adapter on one shared HTTP
// client so the publisher's timeout and connection pool apply uniformly.
func NewDefaultRegistry(client *http.Client) *Registry {
	r := NewRegistry()
	r.Register(NewTwitterAdapter(client, ""))
	r.Register(NewFacebookAdapter(client, ""))
	r.Register(NewInstagramAdapter(client, ""))
	r.Register(NewLinkedInAdapter(client, ""))
	return r
}
