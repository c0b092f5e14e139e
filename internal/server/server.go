// Package server exposes the thin HTTP surface: pass-through handlers
// that translate a request into one call on the core and a JSON response.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"infiniwiki/internal/feed"
	"infiniwiki/internal/ports"
)

// Server holds the router and the core collaborators.
type Server struct {
	engine   *gin.Engine
	provider ports.ArticleProvider
	feeds    *feed.Manager
	presets  []string
	logger   *slog.Logger
}

// New wires routes onto a fresh gin engine. presets is the topic menu
// offered to clients; it does not restrict which topics are accepted.
func New(provider ports.ArticleProvider, feeds *feed.Manager, presets []string, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:   engine,
		provider: provider,
		feeds:    feeds,
		presets:  presets,
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/article/random", s.handleRandomArticle)
	s.engine.GET("/article/:title", s.handleArticleByTitle)
	s.engine.GET("/search", s.handleSearch)
	s.engine.GET("/topics", s.handleTopics)

	s.engine.POST("/feed", s.handleFeedCreate)
	s.engine.GET("/feed/:id", s.handleFeedSnapshot)
	s.engine.POST("/feed/:id/more", s.handleFeedMore)
	s.engine.POST("/feed/:id/open", s.handleFeedOpen)
	s.engine.POST("/feed/:id/lookup", s.handleFeedLookup)
	s.engine.POST("/feed/:id/filter", s.handleFeedFilter)
}
