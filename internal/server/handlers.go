package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"infiniwiki/internal/domain"
)

// Cache-Control values are a deployment-tuning concern of this thin layer;
// the core is agnostic to them.
const (
	cacheTitleLookup  = "public, s-maxage=86400, stale-while-revalidate=3600"
	cacheRandomLookup = "no-store, no-cache, must-revalidate, private"
	cacheSearch       = "no-cache, no-store, must-revalidate"
)

func (s *Server) handleArticleByTitle(c *gin.Context) {
	article, err := s.provider.ByTitle(c.Request.Context(), c.Param("title"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Cache-Control", cacheTitleLookup)
	c.JSON(http.StatusOK, article)
}

func (s *Server) handleRandomArticle(c *gin.Context) {
	ctx := c.Request.Context()
	category := c.Query("category")

	var (
		article domain.Article
		err     error
	)
	if category != "" {
		article, err = s.provider.RandomFromTopic(ctx, category)
	} else {
		article, err = s.provider.Random(ctx)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Cache-Control", cacheRandomLookup)
	c.JSON(http.StatusOK, article)
}

func (s *Server) handleSearch(c *gin.Context) {
	title, err := s.provider.SearchBestTitle(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Cache-Control", cacheSearch)
	c.JSON(http.StatusOK, gin.H{"title": title})
}

func (s *Server) handleTopics(c *gin.Context) {
	c.Header("Cache-Control", cacheTitleLookup)
	c.JSON(http.StatusOK, gin.H{"topics": s.presets})
}

// respondError maps core failures onto the wire: blank input is the
// caller's fault, everything else surfaces as a 500 with a best-effort
// message. No partial Article is ever returned disguised as success.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrEmptyInput) {
		status = http.StatusBadRequest
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		s.logger.Warn("upstream failure", "url", upstream.URL, "status", upstream.StatusCode)
	} else {
		s.logger.Error("request failed", "error", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
