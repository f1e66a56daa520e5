package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	twitterDefaultBaseURL = "https://api.twitter.com"
	twitterMaxBodyLen     = 280
)

// TwitterAdapter publishes tweets through the v2 API.
type TwitterAdapter struct {
	baseURL string
	client  httpDoer
}

// NewTwitterAdapter creates a Twitter adapter. baseURL overrides the API
// host (used by tests); empty means the production endpoint.
func NewTwitterAdapter(client *http.Client, baseURL string) *TwitterAdapter {
	if baseURL == "" {
		baseURL = twitterDefaultBaseURL
	}
	return &TwitterAdapter{baseURL: baseURL, client: client}
}

// Name implements Adapter.
func (a *TwitterAdapter) Name() string { return "twitter" }

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Publish posts a tweet. Body length is validated locally so an over-limit
// post fails as rejected without burning an API call.
func (a *TwitterAdapter) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if len([]rune(req.Body)) > twitterMaxBodyLen {
		return nil, NewError(a.Name(), KindRejected,
			fmt.Sprintf("tweet exceeds %d characters", twitterMaxBodyLen), nil)
	}

	var resp tweetResponse
	url := a.baseURL + "/2/tweets"
	if err := doJSON(ctx, a.client, a.Name(), http.MethodPost, url, req.AccessToken, nil, tweetRequest{Text: req.Body}, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, NewError(a.Name(), KindUnavailable, "platform returned no tweet id", nil)
	}
	return &PublishResult{ExternalPostID: resp.Data.ID}, nil
}

type tweetMetricsResponse struct {
	Data struct {
		PublicMetrics struct {
			ImpressionCount int64 `json:"impression_count"`
			LikeCount       int64 `json:"like_count"`
			RetweetCount    int64 `json:"retweet_count"`
			ReplyCount      int64 `json:"reply_count"`
			URLLinkClicks   int64 `json:"url_link_clicks"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// FetchMetrics reads the tweet's public metrics.
func (a *TwitterAdapter) FetchMetrics(ctx context.Context, req MetricsRequest) (*MetricsSnapshot, error) {
	var resp tweetMetricsResponse
	url := fmt.Sprintf("%s/2/tweets/%s?tweet.fields=public_metrics", a.baseURL, req.ExternalPostID)
	if err := doJSON(ctx, a.client, a.Name(), http.MethodGet, url, req.AccessToken, nil, nil, &resp); err != nil {
		return nil, err
	}

	raw, _ := json.Marshal(resp.Data.PublicMetrics)
	m := resp.Data.PublicMetrics
	return &MetricsSnapshot{
		Views:      m.ImpressionCount,
		Likes:      m.LikeCount,
		Shares:     m.RetweetCount,
		Comments:   m.ReplyCount,
		Clicks:     m.URLLinkClicks,
		CapturedAt: time.Now().UTC(),
		Raw:        string(raw),
	}, nil
}
