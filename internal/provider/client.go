package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RawResponse is one survey response as delivered by the external survey
// platform. Answers maps question id to the raw answer value; multi-select
// answers arrive as comma-separated option lists.
type RawResponse struct {
	ResponseID     string            `json:"response_id"`
	SurveyID       string            `json:"survey_id"`
	Finished       bool              `json:"finished"`
	StartedAt      time.Time         `json:"started_at"`
	EndedAt        time.Time         `json:"ended_at"`
	RecipientEmail string            `json:"recipient_email,omitempty"`
	RecipientBCC   string            `json:"recipient_bcc,omitempty"`
	Answers        map[string]string `json:"answers"`
}

// Client fetches raw responses from the survey platform. A fetch failure
// is fatal for the current sync cycle; no partial data is committed.
type Client interface {
	FetchResults(ctx context.Context, surveyID string, startedAfter *time.Time) ([]RawResponse, error)
}

// APIError is a non-2xx reply from the survey platform.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("survey platform returned %d: %s", e.StatusCode, e.Body)
}

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type resultsEnvelope struct {
	Responses []RawResponse `json:"responses"`
}

// FetchResults downloads the responses for a survey, optionally limited to
// those started after the given instant for incremental syncs.
func (c *HTTPClient) FetchResults(ctx context.Context, surveyID string, startedAfter *time.Time) ([]RawResponse, error) {
	path := "/surveys/" + url.PathEscape(surveyID) + "/responses"
	if startedAfter != nil {
		path += "?started_after=" + url.QueryEscape(startedAfter.Format(time.RFC3339))
	}
	data, err := c.doReq(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	var env resultsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return env.Responses, nil
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("survey platform %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
