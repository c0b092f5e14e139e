package ports

import (
	"context"

	"infiniwiki/internal/domain"
)

// ContentSource talks to the upstream encyclopedia API.
type ContentSource interface {
	Summary(ctx context.Context, title string) (domain.Summary, error)
	PageHTML(ctx context.Context, title string) (string, error)
	RandomTitle(ctx context.Context) (string, error)
	SearchTitle(ctx context.Context, phrase string) (string, error)
	TopicTitles(ctx context.Context, topic string, maxCount, maxDepth int) ([]string, error)
}

// ArticleProvider assembles display-ready articles for the feed and routes.
type ArticleProvider interface {
	ByTitle(ctx context.Context, title string) (domain.Article, error)
	Random(ctx context.Context) (domain.Article, error)
	RandomFromTopic(ctx context.Context, topic string) (domain.Article, error)
	SearchBestTitle(ctx context.Context, phrase string) (string, error)
}

// Sanitizer turns raw upstream markup into display-safe HTML plus its
// plain-text projection.
type Sanitizer interface {
	Sanitize(rawHTML string) (html, text string)
}
