package ado

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrAuthentication indicates the service rejected the personal access token.
	ErrAuthentication = errors.New("authentication rejected by Azure DevOps")
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
)

// Config configures the REST client.
type Config struct {
	// OrganizationURL is the organization root, e.g. https://dev.azure.com/myorg.
	OrganizationURL string

	// Token is the personal access token.
	Token string

	// Timeout for individual requests (default: 30s).
	Timeout time.Duration

	// RateLimit requests per second (default: 10).
	RateLimit float64

	// RateBurst maximum burst size (default: 5).
	RateBurst int

	// UserAgent string (default: "adoreport/1.0").
	UserAgent string

	// Capabilities routes each operation to an API version.
	Capabilities Capabilities

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

// Client is a rate-limited REST client for the Azure DevOps services used by the report.
type Client struct {
	cfg         Config
	baseURL     *url.URL
	auth        PATAuth
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// New validates cfg and returns a client. It performs no network calls.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.OrganizationURL) == "" {
		return nil, errors.New("organization URL is required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("personal access token is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.OrganizationURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse organization URL %q: %w", cfg.OrganizationURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("organization URL %q must be absolute", cfg.OrganizationURL)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10.0
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "adoreport/1.0"
	}
	if cfg.Capabilities.Released == "" && cfg.Capabilities.Pinned == "" {
		cfg.Capabilities = DefaultCapabilities()
	}

	return &Client{
		cfg:     cfg,
		baseURL: base,
		auth:    PATAuth{Token: cfg.Token},
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}, nil
}

// Capabilities returns the version routing the client uses.
func (c *Client) Capabilities() Capabilities {
	return c.cfg.Capabilities
}

// Verify makes one cheap authenticated call so credential problems surface before any work starts.
func (c *Client) Verify(ctx context.Context) error {
	query := url.Values{}
	query.Set("$top", "1")
	var out listResponse[Project]
	if err := c.getJSON(ctx, OpListProjects, "_apis/projects", query, &out); err != nil {
		return fmt.Errorf("verify connection: %w", err)
	}
	return nil
}

type listResponse[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

func (c *Client) getJSON(ctx context.Context, op Operation, path string, query url.Values, target any) error {
	body, err := c.do(ctx, http.MethodGet, op, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) putJSON(ctx context.Context, op Operation, path string, payload any, target any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", op, err)
	}
	body, err := c.do(ctx, http.MethodPut, op, path, nil, data)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// do executes a single request attempt.
func (c *Client) do(ctx context.Context, method string, op Operation, path string, query url.Values, payload []byte) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.endpoint(path, op, query)
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth.Apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", op, err)
	}

	// A rejected PAT yields a 203 with the HTML sign-in page instead of a 401.
	if resp.StatusCode == http.StatusNonAuthoritativeInfo {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Operation: op, Message: "sign-in page returned"}
	}
	if resp.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Operation: op, Message: truncate(strings.TrimSpace(string(body)), 2048)}
	}
	return body, nil
}

func (c *Client) endpoint(path string, op Operation, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	q.Set("api-version", c.cfg.Capabilities.VersionFor(op))

	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawQuery = q.Encode()
	return u.String()
}

// projectPath prefixes path with the project id or name. Escaping happens when the URL is rendered.
func projectPath(project, path string) string {
	return strings.Trim(project, "/") + "/" + strings.TrimPrefix(path, "/")
}

// HTTPError represents a non-success response from the service.
type HTTPError struct {
	StatusCode int
	Operation  Operation
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Operation, e.StatusCode, e.Message)
}

// Is maps status codes onto the package sentinels.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrAuthentication:
		return e.StatusCode == http.StatusUnauthorized ||
			e.StatusCode == http.StatusForbidden ||
			e.StatusCode == http.StatusNonAuthoritativeInfo
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
