package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ampcast/internal/observability"
)

// maxErrorBody caps how much of a platform error payload is retained for logs.
const maxErrorBody = 2048

// httpDoer lets tests substitute the transport.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// doJSON performs an authenticated JSON request against a platform API and
// decodes the response into out (when out is non-nil). All transport and
// status failures come back as normalized *Error values.
func doJSON(ctx context.Context, client httpDoer, platformName, method, url, token string, headers map[string]string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return NewError(platformName, KindRejected, "could not encode request payload", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return NewError(platformName, KindRejected, "could not build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	observability.AdapterCallDuration.WithLabelValues(platformName, method).Observe(time.Since(start).Seconds())
	if err != nil {
		// Timeouts and connection failures are transient by definition.
		if errors.Is(err, context.Canceled) {
			return err
		}
		return NewError(platformName, KindUnavailable, "platform API unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return NewError(platformName, KindUnavailable, "unreadable platform response", err)
		}
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return classifyStatus(platformName, resp.StatusCode, raw)
}

// classifyStatus maps an HTTP status to the normalized error taxonomy.
func classifyStatus(platformName string, status int, body []byte) *Error {
	cause := fmt.Errorf("status %d: %s", status, string(body))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewError(platformName, KindAuth, "platform rejected the access token", cause)
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500:
		return NewError(platformName, KindUnavailable, fmt.Sprintf("platform API unavailable (HTTP %d)", status), cause)
	default:
		return NewError(platformName, KindRejected, fmt.Sprintf("platform rejected the request (HTTP %d)", status), cause)
	}
}
