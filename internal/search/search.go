// Package search is a client for a Twitter-style status search API, used as
// a source of raw documents for classification and corpus building.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the API root used when none is configured.
const DefaultBaseURL = "https://api.twitter.com/1.1"

var (
	// ErrRateLimited is returned for 429 responses once retries are exhausted.
	ErrRateLimited = errors.New("search: rate limit exceeded")
	// ErrForbidden is returned for 403 responses.
	ErrForbidden = errors.New("search: resource access is forbidden")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("search: resource not found")
)

// APIError describes a non-200 response.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("search: API responded with status %d for %s", e.StatusCode, e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap maps well-known statuses to their sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// User is the author of a status.
type User struct {
	ScreenName string `json:"screen_name"`
}

// Status is a single tweet.
type Status struct {
	ID        string `json:"id_str"`
	Text      string `json:"text"`
	FullText  string `json:"full_text,omitempty"`
	Lang      string `json:"lang"`
	CreatedAt string `json:"created_at"`
	User      User   `json:"user"`
}

// Body returns the full text of the status when the API sent it.
func (s Status) Body() string {
	if s.FullText != "" {
		return s.FullText
	}
	return s.Text
}

// Query describes a status search.
type Query struct {
	Text    string
	Lang    string
	Count   int
	SinceID string
	MaxID   string
}

// Client talks to the search API. It is safe for concurrent use; all
// requests share one rate limiter.
type Client struct {
	base      *url.URL
	http      *retryablehttp.Client
	limiter   *rate.Limiter
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit limits requests to r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithRetry sets the retry count and backoff bounds for 429 and 5xx responses.
func WithRetry(retries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.http.RetryMax = retries
		c.http.RetryWaitMin = waitMin
		c.http.RetryWaitMax = waitMax
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client for the API at baseURL, authenticating with a
// bearer token when token is not empty.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("search: invalid base URL: %w", err)
	}

	rc := retryablehttp.NewClient()
	rc.Logger = slog.Default()
	rc.RetryMax = 3
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		rc.HTTPClient = oauth2.NewClient(context.Background(), ts)
	}
	rc.HTTPClient.Timeout = 30 * time.Second

	c := &Client{
		base: base,
		http: rc,
		// 180 requests per 15 minutes
		limiter:   rate.NewLimiter(rate.Every(5*time.Second), 5),
		userAgent: "senti/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FromEnv creates a client from SENTI_SEARCH_URL and SENTI_BEARER_TOKEN.
func FromEnv(opts ...Option) (*Client, error) {
	token := os.Getenv("SENTI_BEARER_TOKEN")
	if token == "" {
		slog.Warn("SENTI_BEARER_TOKEN is not set, requests are unauthenticated")
	}
	return NewClient(os.Getenv("SENTI_SEARCH_URL"), token, opts...)
}

// Search returns the statuses matching q. Statuses whose text was already
// returned earlier in the same response are dropped.
func (c *Client) Search(ctx context.Context, q Query) ([]Status, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, errors.New("search: empty query")
	}
	params := url.Values{"q": {q.Text}, "tweet_mode": {"extended"}}
	if q.Lang != "" {
		params.Set("lang", q.Lang)
	}
	if q.Count > 0 {
		params.Set("count", strconv.Itoa(q.Count))
	}
	if q.SinceID != "" {
		params.Set("since_id", q.SinceID)
	}
	if q.MaxID != "" {
		params.Set("max_id", q.MaxID)
	}

	var resp struct {
		Statuses []Status `json:"statuses"`
	}
	if err := c.get(ctx, "/search/tweets.json", params, &resp); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(resp.Statuses))
	out := make([]Status, 0, len(resp.Statuses))
	for _, s := range resp.Statuses {
		if seen[s.Body()] {
			continue
		}
		seen[s.Body()] = true
		out = append(out, s)
	}
	slog.Debug("Search completed", "query", q.Text, "statuses", len(resp.Statuses), "unique", len(out))
	return out, nil
}

// Get returns the status with the given id.
func (c *Client) Get(ctx context.Context, id string) (*Status, error) {
	params := url.Values{"id": {id}, "tweet_mode": {"extended"}}
	var s Status
	if err := c.get(ctx, "/statuses/show.json", params, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("search: %w", err)
	}

	u := c.base.JoinPath(path)
	u.RawQuery = params.Encode()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("search: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, URL: u.String(), Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("search: decode response from %s: %w", u.String(), err)
	}
	return nil
}
