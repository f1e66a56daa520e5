package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	linkedinDefaultBaseURL = "https://api.linkedin.com"
	linkedinMaxBodyLen     = 3000
)

// LinkedInAdapter publishes member posts through the UGC API. The
// credential's external account id is the member/organization URN suffix.
type LinkedInAdapter struct {
	baseURL string
	client  httpDoer
}

// NewLinkedInAdapter creates a LinkedIn adapter.
func NewLinkedInAdapter(client *http.Client, baseURL string) *LinkedInAdapter {
	if baseURL == "" {
		baseURL = linkedinDefaultBaseURL
	}
	return &LinkedInAdapter{baseURL: baseURL, client: client}
}

// Name implements Adapter.
func (a *LinkedInAdapter) Name() string { return "linkedin" }

type liShareContent struct {
	ShareCommentary struct {
		Text string `json:"text"`
	} `json:"shareCommentary"`
	ShareMediaCategory string `json:"shareMediaCategory"`
}

type liUGCRequest struct {
	Author          string                    `json:"author"`
	LifecycleState  string                    `json:"lifecycleState"`
	SpecificContent map[string]liShareContent `json:"specificContent"`
	Visibility      map[string]string         `json:"visibility"`
}

type liUGCResponse struct {
	ID string `json:"id"`
}

// Publish creates a UGC post.
func (a *LinkedInAdapter) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if len([]rune(req.Body)) > linkedinMaxBodyLen {
		return nil, NewError(a.Name(), KindRejected,
			fmt.Sprintf("post exceeds %d characters", linkedinMaxBodyLen), nil)
	}
	if req.ExternalAccountID == "" {
		return nil, NewError(a.Name(), KindRejected, "member urn missing from credential", nil)
	}

	mediaCategory := "NONE"
	if len(req.MediaRefs) > 0 {
		mediaCategory = "IMAGE"
	}
	content := liShareContent{ShareMediaCategory: mediaCategory}
	content.ShareCommentary.Text = req.Body

	payload := liUGCRequest{
		Author:         "urn:li:person:" + req.ExternalAccountID,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]liShareContent{
			"com.linkedin.ugc.ShareContent": content,
		},
		Visibility: map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	headers := map[string]string{"X-Restli-Protocol-Version": "2.0.0"}
	var resp liUGCResponse
	url := a.baseURL + "/v2/ugcPosts"
	if err := doJSON(ctx, a.client, a.Name(), http.MethodPost, url, req.AccessToken, headers, payload, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, NewError(a.Name(), KindUnavailable, "platform returned no post id", nil)
	}
	return &PublishResult{ExternalPostID: resp.ID}, nil
}

type liSocialActionsResponse struct {
	LikesSummary struct {
		TotalLikes int64 `json:"totalLikes"`
	} `json:"likesSummary"`
	CommentsSummary struct {
		TotalComments int64 `json:"totalFirstLevelComments"`
	} `json:"commentsSummary"`
	SharesSummary struct {
		TotalShares int64 `json:"totalShares"`
	} `json:"sharesSummary"`
	Impressions int64 `json:"impressionCount"`
	Clicks      int64 `json:"clickCount"`
}

// FetchMetrics reads the post's social actions summary.
func (a *LinkedInAdapter) FetchMetrics(ctx context.Context, req MetricsRequest) (*MetricsSnapshot, error) {
	var resp liSocialActionsResponse
	url := fmt.Sprintf("%s/v2/socialActions/%s", a.baseURL, req.ExternalPostID)
	headers := map[string]string{"X-Restli-Protocol-Version": "2.0.0"}
	if err := doJSON(ctx, a.client, a.Name(), http.MethodGet, url, req.AccessToken, headers, nil, &resp); err != nil {
		return nil, err
	}

	raw, _ := json.Marshal(resp)
	return &MetricsSnapshot{
		Views:      resp.Impressions,
		Likes:      resp.LikesSummary.TotalLikes,
		Shares:     resp.SharesSummary.TotalShares,
		Comments:   resp.CommentsSummary.TotalComments,
		Clicks:     resp.Clicks,
		CapturedAt: time.Now().UTC(),
		Raw:        string(raw),
	}, nil
}
