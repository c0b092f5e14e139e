package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"infiniwiki/internal/config"
	"infiniwiki/internal/domain"
	"infiniwiki/internal/ports"
)

const (
	summaryPath    = "/api/rest_v1/page/summary/"
	mobileHTMLPath = "/api/rest_v1/page/mobile-html/"
	randomPath     = "/api/rest_v1/page/random/summary"
	actionPath     = "/w/api.php"
)

// Client talks to the Wikipedia REST and action APIs.
type Client struct {
	client         *http.Client
	baseURL        string
	userAgent      string
	logger         *slog.Logger
	categoryWalker categoryWalker
}

var _ ports.ContentSource = (*Client)(nil)

// NewClient wires an HTTP client against the configured upstream.
func NewClient(client *http.Client, cfg config.WikipediaConfig, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}
	c := &Client{
		client:    client,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
	c.categoryWalker = c.categoryMembers
	return c
}

// Summary fetches the structured metadata for a normalized title.
func (c *Client) Summary(ctx context.Context, title string) (domain.Summary, error) {
	var summary domain.Summary
	endpoint := c.baseURL + summaryPath + url.PathEscape(domain.NormalizeTitle(title))
	if err := c.getJSON(ctx, endpoint, &summary); err != nil {
		return domain.Summary{}, err
	}
	return summary, nil
}

// PageHTML fetches the raw body markup for a normalized title.
func (c *Client) PageHTML(ctx context.Context, title string) (string, error) {
	endpoint := c.baseURL + mobileHTMLPath + url.PathEscape(domain.NormalizeTitle(title))
	return c.getText(ctx, endpoint)
}

// RandomTitle returns one arbitrary valid article title.
func (c *Client) RandomTitle(ctx context.Context) (string, error) {
	var payload struct {
		Title string `json:"title"`
	}
	if err := c.getJSON(ctx, c.baseURL+randomPath, &payload); err != nil {
		return "", err
	}
	return payload.Title, nil
}

// SearchTitle resolves a free-text phrase to the top-ranked page title.
// A phrase with no upstream matches resolves to itself, never an error.
func (c *Client) SearchTitle(ctx context.Context, phrase string) (string, error) {
	q := strings.TrimSpace(phrase)
	if q == "" {
		return "", fmt.Errorf("phrase: %w", domain.ErrEmptyInput)
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", q)
	params.Set("srlimit", "1")
	params.Set("format", "json")

	var payload struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, c.baseURL+actionPath+"?"+params.Encode(), &payload); err != nil {
		return "", err
	}
	if len(payload.Query.Search) == 0 {
		return q, nil
	}
	return payload.Query.Search[0].Title, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.get(ctx, endpoint, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) getText(ctx context.Context, endpoint string) (string, error) {
	body, err := c.get(ctx, endpoint, "text/html")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Client) get(ctx context.Context, endpoint, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &domain.UpstreamError{URL: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	return body, nil
}
