package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"infiniwiki/internal/domain"
	"infiniwiki/internal/ports"
)

const (
	defaultArticleCacheSize = 128
	defaultTopicCacheSize   = 16
	defaultTopicMaxTitles   = 150
	defaultTopicMaxDepth    = 2
)

// AssemblerDeps wires driven adapters into the assembler.
type AssemblerDeps struct {
	Source    ports.ContentSource
	Sanitizer ports.Sanitizer
	Logger    *slog.Logger
	BaseURL   string

	ArticleCacheSize int
	TopicCacheSize   int
	TopicMaxTitles   int
	TopicMaxDepth    int
}

// Assembler combines summary metadata and sanitized body markup into
// immutable Article records.
type Assembler struct {
	source    ports.ContentSource
	sanitizer ports.Sanitizer
	logger    *slog.Logger
	baseURL   string

	articles *lru.Cache[string, domain.Article]
	topics   *lru.Cache[string, []string]

	topicMaxTitles int
	topicMaxDepth  int
}

var _ ports.ArticleProvider = (*Assembler)(nil)

// NewAssembler constructs the assembly component with bounded caches.
func NewAssembler(deps AssemblerDeps) *Assembler {
	articleSize := deps.ArticleCacheSize
	if articleSize <= 0 {
		articleSize = defaultArticleCacheSize
	}
	topicSize := deps.TopicCacheSize
	if topicSize <= 0 {
		topicSize = defaultTopicCacheSize
	}
	maxTitles := deps.TopicMaxTitles
	if maxTitles <= 0 {
		maxTitles = defaultTopicMaxTitles
	}
	maxDepth := deps.TopicMaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultTopicMaxDepth
	}

	articleCache, _ := lru.New[string, domain.Article](articleSize)
	topicCache, _ := lru.New[string, []string](topicSize)

	return &Assembler{
		source:         deps.Source,
		sanitizer:      deps.Sanitizer,
		logger:         deps.Logger,
		baseURL:        strings.TrimRight(deps.BaseURL, "/"),
		articles:       articleCache,
		topics:         topicCache,
		topicMaxTitles: maxTitles,
		topicMaxDepth:  maxDepth,
	}
}

// ByTitle assembles the Article for a title: summary and body are fetched
// concurrently, both must succeed before sanitation and assembly proceed.
func (a *Assembler) ByTitle(ctx context.Context, title string) (domain.Article, error) {
	safe := domain.NormalizeTitle(title)
	if safe == "" {
		return domain.Article{}, fmt.Errorf("title: %w", domain.ErrEmptyInput)
	}

	if cached, ok := a.articles.Get(safe); ok {
		return cached, nil
	}

	var (
		summary domain.Summary
		rawHTML string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = a.source.Summary(gctx, safe)
		return err
	})
	g.Go(func() error {
		var err error
		rawHTML, err = a.source.PageHTML(gctx, safe)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Article{}, err
	}

	html, text := a.sanitizer.Sanitize(rawHTML)

	article := domain.Article{
		Title:       summary.Title,
		URL:         a.canonicalURL(summary, safe),
		HTML:        html,
		Text:        text,
		Description: summary.Description,
	}
	if article.Title == "" {
		article.Title = strings.TrimSpace(title)
	}

	a.articles.Add(safe, article)
	a.debug("assembled article", "title", article.Title, "url", article.URL, "text_len", len(text))
	return article, nil
}

// Random assembles an unrestricted random article.
func (a *Assembler) Random(ctx context.Context) (domain.Article, error) {
	title, err := a.source.RandomTitle(ctx)
	if err != nil {
		return domain.Article{}, err
	}
	return a.ByTitle(ctx, title)
}

// RandomFromTopic assembles a random article from a topic's listing.
// Listings are cached per topic; the walk is the expensive part.
func (a *Assembler) RandomFromTopic(ctx context.Context, topic string) (domain.Article, error) {
	key := strings.TrimSpace(topic)
	if key == "" {
		return domain.Article{}, fmt.Errorf("topic: %w", domain.ErrEmptyInput)
	}

	titles, ok := a.topics.Get(key)
	if !ok {
		var err error
		titles, err = a.source.TopicTitles(ctx, key, a.topicMaxTitles, a.topicMaxDepth)
		if err != nil {
			return domain.Article{}, err
		}
		a.topics.Add(key, titles)
	}

	return a.ByTitle(ctx, titles[rand.IntN(len(titles))])
}

// SearchBestTitle resolves a free-text phrase to the best-ranked title.
func (a *Assembler) SearchBestTitle(ctx context.Context, phrase string) (string, error) {
	if strings.TrimSpace(phrase) == "" {
		return "", fmt.Errorf("phrase: %w", domain.ErrEmptyInput)
	}
	return a.source.SearchTitle(ctx, phrase)
}

// canonicalURL prefers the summary-provided desktop link; otherwise the
// link is constructed from the resolved title.
func (a *Assembler) canonicalURL(summary domain.Summary, safeTitle string) string {
	if page := summary.ContentURLs.Desktop.Page; page != "" {
		return page
	}
	resolved := summary.Title
	if resolved == "" {
		resolved = safeTitle
	}
	return a.baseURL + "/wiki/" + url.PathEscape(domain.NormalizeTitle(resolved))
}

func (a *Assembler) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
