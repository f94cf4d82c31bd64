// Package bitbucket is a client for the parts of the Bitbucket Cloud 2.0
// API that buildsweep uses: branches, commits, pipelines and scheduled
// pipelines.
//
// Authentication is either basic auth with an app password or bearer auth
// with an access token (see [NewClient] and [NewTokenClient]). All requests
// go through a client-side rate limiter so a sweep over a large catalog does
// not trip the API's request limits.
package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.bitbucket.org/2.0"

	defaultRequestsPerSecond = 5
	defaultBurst             = 5
)

// Client is a Bitbucket Cloud API client scoped to a single workspace.
type Client struct {
	baseURL     string
	workspace   string
	username    string
	appPassword string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// ClientOptions configures a Bitbucket client.
type ClientOptions struct {
	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RequestsPerSecond caps outgoing requests. Zero means the default.
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// NewClient creates a client authenticating with username and app password.
func NewClient(workspace, username, appPassword string, opts ClientOptions) *Client {
	c := newClient(workspace, opts)
	c.username = username
	c.appPassword = appPassword

	return c
}

// NewTokenClient creates a client authenticating with an OAuth2 access token.
func NewTokenClient(ctx context.Context, workspace, token string, opts ClientOptions) *Client {
	if opts.HTTPClient == nil {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		opts.HTTPClient = oauth2.NewClient(ctx, ts)
	}

	return newClient(workspace, opts)
}

func newClient(workspace string, opts ClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		workspace:  workspace,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), defaultBurst),
		logger:     logger,
	}
}

// Workspace returns the workspace this client is scoped to.
func (c *Client) Workspace() string {
	return c.workspace
}

// Error is an error response from the Bitbucket API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("bitbucket API error (%d): %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("bitbucket API error (%d)", e.StatusCode)
}

// errorEnvelope is the Bitbucket error body shape.
type errorEnvelope struct {
	Type  string `json:"type"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// repoPath builds the repository-scoped API path for the workspace.
func (c *Client) repoPath(repoSlug, suffix string) string {
	return fmt.Sprintf("/repositories/%s/%s%s",
		url.PathEscape(c.workspace), url.PathEscape(repoSlug), suffix)
}

// do makes a request against a path relative to the API base URL.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u = u + "?" + params.Encode()
	}

	return c.doURL(ctx, method, u, body, result)
}

// doURL makes a request against an absolute URL. Pagination follows the
// "next" links the API returns, which are absolute.
func (c *Client) doURL(ctx context.Context, method, rawURL string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reqBody io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}

		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.appPassword)
	}

	c.logger.Debug("bitbucket API request", "method", method, "url", rawURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &Error{StatusCode: resp.StatusCode}

		var envelope errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Message = envelope.Error.Message
		}

		return apiErr
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// NormalizeUUID validates a Bitbucket object UUID and returns it in the
// braces-wrapped form the API expects in paths.
func NormalizeUUID(s string) (string, error) {
	parsed, err := uuid.Parse(strings.Trim(s, "{}"))
	if err != nil {
		return "", fmt.Errorf("invalid uuid %q: %w", s, err)
	}

	return "{" + parsed.String() + "}", nil
}
