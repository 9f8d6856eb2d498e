package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HemisClient talks to the university HEMIS API. It only proxies the 2MB
// arrears lookup; student provisioning goes through the xlsx import instead.
type HemisClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHemisClient returns nil when the integration is not configured so the
// handler can report it as unavailable.
func NewHemisClient(baseURL, token string) *HemisClient {
	if baseURL == "" {
		return nil
	}
	return &HemisClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// StudentArrears fetches the 2MB arrears record for a student.
func (h *HemisClient) StudentArrears(ctx context.Context, hemisID string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/get-2mb-student/%s", h.baseURL, url.PathEscape(hemisID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hemis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hemis returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("hemis returned invalid JSON")
	}
	return json.RawMessage(body), nil
}
