package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	facebookDefaultBaseURL = "https://graph.facebook.com/v19.0"
	facebookMaxBodyLen     = 63206
)

// FacebookAdapter publishes to a page feed through the Graph API. The
// credential's external account id is the page id.
type FacebookAdapter struct {
	baseURL string
	client  httpDoer
}

// NewFacebookAdapter creates a Facebook adapter.
func NewFacebookAdapter(client *http.Client, baseURL string) *FacebookAdapter {
	if baseURL == "" {
		baseURL = facebookDefaultBaseURL
	}
	return &FacebookAdapter{baseURL: baseURL, client: client}
}

// Name implements Adapter.
func (a *FacebookAdapter) Name() string { return "facebook" }

type fbFeedRequest struct {
	Message string   `json:"message"`
	Link    string   `json:"link,omitempty"`
	Attach  []string `json:"attached_media,omitempty"`
}

type fbFeedResponse struct {
	ID string `json:"id"`
}

// Publish posts to the page feed. Media refs ride along as attached media.
func (a *FacebookAdapter) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if len(req.Body) > facebookMaxBodyLen {
		return nil, NewError(a.Name(), KindRejected,
			fmt.Sprintf("post exceeds %d characters", facebookMaxBodyLen), nil)
	}
	if req.ExternalAccountID == "" {
		return nil, NewError(a.Name(), KindRejected, "page id missing from credential", nil)
	}

	payload := fbFeedRequest{Message: req.Body, Attach: req.MediaRefs}
	var resp fbFeedResponse
	url := fmt.Sprintf("%s/%s/feed", a.baseURL, req.ExternalAccountID)
	if err := doJSON(ctx, a.client, a.Name(), http.MethodPost, url, req.AccessToken, nil, payload, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, NewError(a.Name(), KindUnavailable, "platform returned no post id", nil)
	}
	return &PublishResult{ExternalPostID: resp.ID}, nil
}

type fbInsightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

// FetchMetrics reads post insights. Missing metrics default to zero; the
// Graph API omits series the page has no data for.
func (a *FacebookAdapter) FetchMetrics(ctx context.Context, req MetricsRequest) (*MetricsSnapshot, error) {
	var resp fbInsightsResponse
	url := fmt.Sprintf(
		"%s/%s/insights?metric=post_impressions,post_reactions_like_total,post_shares,post_comments,post_clicks",
		a.baseURL, req.ExternalPostID,
	)
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
		case "post_impressions":
			snap.Views = v
		case "post_reactions_like_total":
			snap.Likes = v
		case "post_shares":
			snap.Shares = v
		case "post_comments":
			snap.Comments = v
		case "post_clicks":
			snap.Clicks = v
		}
	}
	raw, _ := json.Marshal(resp.Data)
	snap.Raw = string(raw)
	return snap, nil
}
