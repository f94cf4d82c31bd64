// Package datadog reads the Datadog service catalog (service definition
// API, schema v2.1) and resolves catalog entries to Bitbucket repository
// slugs.
package datadog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const schemaVersion = "v2.1"

// Client is a Datadog service-definition API client.
type Client struct {
	baseURL    string
	apiKey     string
	appKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOptions configures a Datadog client.
type ClientOptions struct {
	// Site is the Datadog site, e.g. "datadoghq.com" or "datadoghq.eu".
	Site string
	// BaseURL overrides the API endpoint entirely, used in tests.
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates a new service catalog client.
func NewClient(apiKey, appKey string, opts ClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		site := opts.Site
		if site == "" {
			site = "datadoghq.com"
		}

		baseURL = "https://api." + site
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		appKey:     appKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Definition is a single service definition from the catalog.
type Definition struct {
	Attributes struct {
		Schema Schema `json:"schema"`
	} `json:"attributes"`
}

// Schema is the v2.1 service definition schema subset buildsweep reads.
type Schema struct {
	Name  string `json:"dd-service"`
	Links []Link `json:"links"`
}

// Link is an external link attached to a service definition.
type Link struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ListDefinitions returns one page of service definitions. Pages are
// zero-based; an empty result marks the end of the catalog.
func (c *Client) ListDefinitions(ctx context.Context, page int) ([]Definition, error) {
	params := url.Values{}
	params.Set("schema_version", schemaVersion)
	params.Set("page[number]", strconv.Itoa(page))

	u := c.baseURL + "/api/v2/services/definitions?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("DD-API-KEY", c.apiKey)
	req.Header.Set("DD-APPLICATION-KEY", c.appKey)

	c.logger.Debug("datadog API request", "page", page)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		var envelope struct {
			Errors []string `json:"errors"`
		}

		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
			return nil, fmt.Errorf("datadog API error (%d): %s", resp.StatusCode, envelope.Errors[0])
		}

		return nil, fmt.Errorf("datadog API error (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data []Definition `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Data, nil
}

// ListRepositories walks the whole catalog and returns the de-duplicated
// Bitbucket repository slugs its services link to, in catalog order.
func (c *Client) ListRepositories(ctx context.Context) ([]string, error) {
	var (
		slugs []string
		seen  = make(map[string]bool)
	)

	for page := 0; ; page++ {
		definitions, err := c.ListDefinitions(ctx, page)
		if err != nil {
			return nil, err
		}

		if len(definitions) == 0 {
			break
		}

		for _, def := range definitions {
			slug, ok := repoSlug(def)
			if !ok {
				c.logger.Debug("service has no usable repository link",
					"service", def.Attributes.Schema.Name)

				continue
			}

			if seen[slug] {
				continue
			}

			seen[slug] = true
			slugs = append(slugs, slug)
		}
	}

	return slugs, nil
}

// repoSlug extracts the Bitbucket repository slug from a service
// definition's links. Links typed "repo" are preferred; otherwise the last
// link is used. The literal slug "workspace" is a catalog placeholder and
// is dropped.
func repoSlug(def Definition) (string, bool) {
	links := def.Attributes.Schema.Links
	if len(links) == 0 {
		return "", false
	}

	link := links[len(links)-1]

	for _, l := range links {
		if l.Type == "repo" {
			link = l
			break
		}
	}

	parsed, err := url.Parse(link.URL)
	if err != nil {
		return "", false
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 {
		return "", false
	}

	slug := segments[1]
	if slug == "" || slug == "workspace" {
		return "", false
	}

	return slug, true
}
