package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	instagramDefaultBaseURL = "https://graph.facebook.com/v19.0"
	instagramMaxCaptionLen  = 2200
)

// InstagramAdapter publishes through the Graph API content-publishing flow:
// create a media container first, then publish it. The credential's external
// account id is the IG user id.
type InstagramAdapter struct {
	baseURL string
	client  httpDoer
}

// NewInstagramAdapter creates an Instagram adapter.
func NewInstagramAdapter(client *http.Client, baseURL string) *InstagramAdapter {
	if baseURL == "" {
		baseURL = instagramDefaultBaseURL
	}
	return &InstagramAdapter{baseURL: baseURL, client: client}
}

// Name implements Adapter.
func (a *InstagramAdapter) Name() string { return "instagram" }

type igContainerRequest struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

type igPublishRequest struct {
	CreationID string `json:"creation_id"`
}

type igIDResponse struct {
	ID string `json:"id"`
}

// Publish creates and publishes a media container. Instagram has no
// text-only posts, so a post without media is rejected locally.
func (a *InstagramAdapter) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if len(req.MediaRefs) == 0 {
		return nil, NewError(a.Name(), KindRejected, "instagram posts require at least one media asset", nil)
	}
	if len([]rune(req.Body)) > instagramMaxCaptionLen {
		return nil, NewError(a.Name(), KindRejected,
			fmt.Sprintf("caption exceeds %d characters", instagramMaxCaptionLen), nil)
	}
	if req.ExternalAccountID == "" {
		return nil, NewError(a.Name(), KindRejected, "instagram user id missing from credential", nil)
	}

	container := igContainerRequest{ImageURL: req.MediaRefs[0], Caption: req.Body}
	var created igIDResponse
	containerURL := fmt.Sprintf("%s/%s/media", a.baseURL, req.ExternalAccountID)
	if err := doJSON(ctx, a.client, a.Name(), http.MethodPost, containerURL, req.AccessToken, nil, container, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, NewError(a.Name(), KindUnavailable, "platform returned no container id", nil)
	}

	var published igIDResponse
	publishURL := fmt.Sprintf("%s/%s/media_publish", a.baseURL, req.ExternalAccountID)
	if err := doJSON(ctx, a.client, a.Name(), http.MethodPost, publishURL, req.AccessToken, nil, igPublishRequest{CreationID: created.ID}, &published); err != nil {
		return nil, err
	}
	if published.ID == "" {
		return nil, NewError(a.Name(), KindUnavailable, "platform returned no media id", nil)
	}
	return &PublishResult{ExternalPostID: published.ID}, nil
}

type igInsightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

// FetchMetrics reads media insights.
func (a *InstagramAdapter) FetchMetrics(ctx context.Context, req MetricsRequest) (*MetricsSnapshot, error) {
	var resp igInsightsResponse
	url := fmt.Sprintf("%s/%s/insights?metric=impressions,likes,comments,shares", a.baseURL, req.ExternalPostID)
	if err := doJSON(ctx, a.client, a.Name(), http.MethodGet, url, req.AccessToken, nil, nil, &resp); err != nil {
		return nil, err
	}

	snap := &MetricsSnapshot{CapturedAt: time.Now().UTC()}
	for _, series := range resp.Data {
		if len(series.Values) == 0 {
			continue
		}
		v := series.Values[len(series.Values)-1].Value
		switch series.Name {
		case "impressions":
			snap.Views = v
		case "likes":
			snap.Likes = v
		case "comments":
			snap.Comments = v
		case "shares":
			snap.Shares = v
		}
	}
	raw, _ := json.Marshal(resp.Data)
	snap.Raw = string(raw)
	return snap, nil
}
