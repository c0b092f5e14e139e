package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"infiniwiki/internal/config"
	"infiniwiki/internal/feed"
	"infiniwiki/internal/infrastructure/wikipedia"
	"infiniwiki/internal/logging"
	"infiniwiki/internal/sanitize"
	"infiniwiki/internal/server"
	"infiniwiki/internal/usecase"
)

// Application wires config to the core components and the HTTP lifecycle.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	server *http.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	client := wikipedia.NewClient(nil, cfg.Wikipedia, baseLogger.With("component", "wikipedia"))
	sanitizer := sanitize.New(cfg.Wikipedia.BaseURL)

	assembler := usecase.NewAssembler(usecase.AssemblerDeps{
		Source:           client,
		Sanitizer:        sanitizer,
		Logger:           baseLogger.With("component", "assembler"),
		BaseURL:          cfg.Wikipedia.BaseURL,
		ArticleCacheSize: cfg.Cache.Articles,
		TopicCacheSize:   cfg.Cache.Topics,
		TopicMaxTitles:   cfg.Topics.MaxTitles,
		TopicMaxDepth:    cfg.Topics.MaxDepth,
	})

	feedLogger := baseLogger.With("component", "feed")
	feeds := feed.NewManager(cfg.Feed.SessionLimit, func() *feed.Feed {
		return feed.New(assembler, feedLogger, feed.Options{
			PrefetchCount: cfg.Feed.PrefetchCount,
			DedupRetries:  cfg.Feed.DedupRetries,
		})
	})

	srv := server.New(assembler, feeds, cfg.Topics.Presets, baseLogger.With("component", "server"))

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()
	a.logger.Info("listening", "addr", a.cfg.Server.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout())
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	}
}
