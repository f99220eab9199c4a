package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/terra-clan/cookoff-engine/internal/discovery"
	"github.com/terra-clan/cookoff-engine/internal/models"
	"github.com/terra-clan/cookoff-engine/internal/ranking"
)

// Client is a Go SDK for the cookoff-engine API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new cookoff-engine client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error reported by the server in the response envelope
type APIError struct {
	StatusCode int               `json:"-"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s - %s", e.StatusCode, e.Code, e.Message)
}

type envelope[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data"`
	Error   *APIError `json:"error"`
}

// BestResult is returned by ComputeBest
type BestResult struct {
	Best []models.Submission `json:"best"`
	Top  []models.Submission `json:"top"`
	N    int                 `json:"n"`
}

// DiscoverResult is returned by the discovery calls
type DiscoverResult struct {
	Recipes       []models.Recipe `json:"recipes"`
	Total         int             `json:"total"`
	ActiveFilters []string        `json:"active_filters"`
}

// ListChallenges lists challenges, optionally only the active ones
func (c *Client) ListChallenges(ctx context.Context, activeOnly bool) ([]*models.Challenge, error) {
	path := "/api/v1/challenges"
	if activeOnly {
		path += "?active=true"
	}
	data, err := call[struct {
		Challenges []*models.Challenge `json:"challenges"`
	}](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return data.Challenges, nil
}

// CreateChallenge creates a challenge
func (c *Client) CreateChallenge(ctx context.Context, req models.CreateChallengeRequest) (*models.Challenge, error) {
	return call[*models.Challenge](ctx, c, http.MethodPost, "/api/v1/challenges", req)
}

// Submit enters a recipe into a challenge
func (c *Client) Submit(ctx context.Context, challengeID int64, req models.CreateSubmissionRequest) (*models.Submission, error) {
	return call[*models.Submission](ctx, c, http.MethodPost, challengePath(challengeID, "/submissions"), req)
}

// Leaderboard returns a challenge's leaderboard
func (c *Client) Leaderboard(ctx context.Context, challengeID int64) ([]ranking.LeaderboardEntry, error) {
	data, err := call[struct {
		Entries []ranking.LeaderboardEntry `json:"entries"`
	}](ctx, c, http.MethodGet, challengePath(challengeID, "/leaderboard"), nil)
	if err != nil {
		return nil, err
	}
	return data.Entries, nil
}

// BestSubmissions returns each contestant's best submission in a challenge
func (c *Client) BestSubmissions(ctx context.Context, challengeID int64) ([]models.Submission, error) {
	data, err := call[struct {
		Submissions []models.Submission `json:"submissions"`
	}](ctx, c, http.MethodGet, challengePath(challengeID, "/best"), nil)
	if err != nil {
		return nil, err
	}
	return data.Submissions, nil
}

// Top returns the first n best submissions; n < 0 uses the server default
func (c *Client) Top(ctx context.Context, challengeID int64, n int) ([]models.Submission, error) {
	path := challengePath(challengeID, "/top")
	if n >= 0 {
		path += "?n=" + strconv.Itoa(n)
	}
	data, err := call[struct {
		Submissions []models.Submission `json:"submissions"`
	}](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return data.Submissions, nil
}

// Discover filters the server's public catalog
func (c *Client) Discover(ctx context.Context, criteria discovery.Criteria) (*DiscoverResult, error) {
	q := url.Values{}
	for key, value := range map[string]string{
		"q":          criteria.Search,
		"cuisine":    criteria.Cuisine,
		"difficulty": criteria.Difficulty,
		"ratings":    criteria.Ratings,
		"tags":       criteria.Tags,
		"recency":    criteria.Recency,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}

	path := "/api/v1/recipes/discover"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return call[*DiscoverResult](ctx, c, http.MethodGet, path, nil)
}

// Filters returns the selectable values of each filter category
func (c *Client) Filters(ctx context.Context) (map[string][]string, error) {
	data, err := call[struct {
		Values map[string][]string `json:"values"`
	}](ctx, c, http.MethodGet, "/api/v1/filters", nil)
	if err != nil {
		return nil, err
	}
	return data.Values, nil
}

// Standings returns the global standings
func (c *Client) Standings(ctx context.Context) ([]models.StandingEntry, error) {
	data, err := call[struct {
		Standings []models.StandingEntry `json:"standings"`
	}](ctx, c, http.MethodGet, "/api/v1/standings", nil)
	if err != nil {
		return nil, err
	}
	return data.Standings, nil
}

// FeaturedWinners returns the latest featured winners
func (c *Client) FeaturedWinners(ctx context.Context) ([]models.FeaturedWinner, error) {
	data, err := call[struct {
		Winners []models.FeaturedWinner `json:"winners"`
	}](ctx, c, http.MethodGet, "/api/v1/featured-winners", nil)
	if err != nil {
		return nil, err
	}
	return data.Winners, nil
}

// ComputeLeaderboard ranks a caller-supplied submission snapshot
func (c *Client) ComputeLeaderboard(ctx context.Context, subs []models.Submission) ([]ranking.LeaderboardEntry, error) {
	data, err := call[struct {
		Entries []ranking.LeaderboardEntry `json:"entries"`
	}](ctx, c, http.MethodPost, "/api/v1/rank/leaderboard", map[string]any{"submissions": subs})
	if err != nil {
		return nil, err
	}
	return data.Entries, nil
}

// ComputeBest selects best submissions from a caller-supplied snapshot and
// takes the first n of them
func (c *Client) ComputeBest(ctx context.Context, subs []models.Submission, n int) (*BestResult, error) {
	return call[*BestResult](ctx, c, http.MethodPost, "/api/v1/rank/best", map[string]any{"submissions": subs, "n": n})
}

// ComputeDiscover filters a caller-supplied catalog
func (c *Client) ComputeDiscover(ctx context.Context, catalog []models.Recipe, criteria discovery.Criteria) (*DiscoverResult, error) {
	return call[*DiscoverResult](ctx, c, http.MethodPost, "/api/v1/discover", map[string]any{
		"catalog":  catalog,
		"criteria": criteria,
	})
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodGet, "/health", nil)
	return err
}

func challengePath(id int64, suffix string) string {
	return "/api/v1/challenges/" + strconv.FormatInt(id, 10) + suffix
}

// call performs a request and unwraps the response envelope into T
func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	status, respBody, err := c.doRequest(ctx, method, path, reader)
	if err != nil {
		return zero, err
	}

	var result envelope[T]
	if err := json.Unmarshal(respBody, &result); err != nil {
		if status >= 400 {
			return zero, &APIError{StatusCode: status, Code: "http_error", Message: string(respBody)}
		}
		return zero, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || status >= 400 {
		apiErr := result.Error
		if apiErr == nil {
			apiErr = &APIError{Code: "unknown_error", Message: http.StatusText(status)}
		}
		apiErr.StatusCode = status
		return zero, apiErr
	}

	return result.Data, nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
