package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Article is the immutable normalized record shown to the reader.
// URL is the identity key: two Articles with equal URL are the same article.
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	HTML        string `json:"html"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
}

// Summary carries the metadata half of an upstream page.
type Summary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// ErrEmptyInput marks a user-supplied title or phrase that is blank after
// trimming; raised before any network call.
var ErrEmptyInput = errors.New("empty input")

// ErrNoContent marks a topic listing that produced zero usable titles.
var ErrNoContent = errors.New("no content found")

// UpstreamError is a non-success response from the encyclopedia API.
type UpstreamError struct {
	URL        string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s", e.StatusCode, e.URL)
}

var titleWhitespace = regexp.MustCompile(`\s+`)

// NormalizeTitle trims a raw title and replaces internal whitespace with
// the upstream's canonical underscore separator.
func NormalizeTitle(raw string) string {
	return titleWhitespace.ReplaceAllString(strings.TrimSpace(raw), "_")
}
