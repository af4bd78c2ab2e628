package resultsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Fetcher is what the result detector needs from the score feed.
type Fetcher interface {
	FetchResult(ctx context.Context, externalRef string) (*Result, error)
}

// Result is one fixture as the external feed reports it.
type Result struct {
	Status    string `json:"status"`
	HomeScore *int   `json:"home_score"`
	AwayScore *int   `json:"away_score"`
}

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

// Finished reports whether the feed confirms the fixture as over with a full score.
func (r *Result) Finished() bool {
	return r != nil && r.Status == StatusFinished && r.HomeScore != nil && r.AwayScore != nil
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

type Client struct {
	host       string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client, host string) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

func (c *Client) FetchResult(ctx context.Context, externalRef string) (*Result, error) {
	body, err := c.doRequest(ctx, "/fixtures/"+url.PathEscape(externalRef))
	if err != nil {
		return nil, err
	}
	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", externalRef, err)
	}
	return &res, nil
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
