package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"infiniwiki/internal/feed"
)

type feedRequest struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Phrase   string `json:"phrase"`
}

// bindFeedRequest tolerates an absent body: every field is optional on at
// least one route.
func bindFeedRequest(c *gin.Context) (feedRequest, bool) {
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return feedRequest{}, false
	}
	return req, true
}

func (s *Server) sessionFeed(c *gin.Context) (*feed.Feed, bool) {
	f, ok := s.feeds.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed session not found"})
		return nil, false
	}
	return f, true
}

func (s *Server) handleFeedCreate(c *gin.Context) {
	req, ok := bindFeedRequest(c)
	if !ok {
		return
	}
	id, f, err := s.feeds.Create(c.Request.Context(), req.Category)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":      id,
		"filter":  f.Filter(),
		"entries": f.Snapshot(),
	})
}

func (s *Server) handleFeedSnapshot(c *gin.Context) {
	f, ok := s.sessionFeed(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      c.Param("id"),
		"filter":  f.Filter(),
		"entries": f.Snapshot(),
	})
}

func (s *Server) handleFeedMore(c *gin.Context) {
	f, ok := s.sessionFeed(c)
	if !ok {
		return
	}
	article, err := f.GrowTail(c.Request.Context())
	if errors.Is(err, feed.ErrGrowthInFlight) || errors.Is(err, feed.ErrStaleGrowth) {
		// Another growth is running, or a reset superseded this one; the
		// scroll event is simply dropped.
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) handleFeedOpen(c *gin.Context) {
	f, ok := s.sessionFeed(c)
	if !ok {
		return
	}
	req, ok := bindFeedRequest(c)
	if !ok {
		return
	}
	article, inserted, err := f.Prepend(c.Request.Context(), req.Title)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article, "inserted": inserted})
}

func (s *Server) handleFeedLookup(c *gin.Context) {
	f, ok := s.sessionFeed(c)
	if !ok {
		return
	}
	req, ok := bindFeedRequest(c)
	if !ok {
		return
	}
	article, err := f.Lookup(c.Request.Context(), req.Phrase)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) handleFeedFilter(c *gin.Context) {
	f, ok := s.sessionFeed(c)
	if !ok {
		return
	}
	req, ok := bindFeedRequest(c)
	if !ok {
		return
	}
	if err := f.Reset(c.Request.Context(), req.Category); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"filter":  f.Filter(),
		"entries": f.Snapshot(),
	})
}
