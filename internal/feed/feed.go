// Package feed owns the infinite-scroll sequence: an ordered list of
// articles, a seen-URL set for duplicate rejection, and the active topic
// filter. State is an explicit per-Feed object so separate sessions can
// never cross-contaminate.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"infiniwiki/internal/domain"
	"infiniwiki/internal/ports"
)

// ErrGrowthInFlight signals a suppressed GrowTail: another tail growth is
// already running and rapid scroll events must not fan out into parallel
// fetches.
var ErrGrowthInFlight = errors.New("tail growth already in flight")

// ErrStaleGrowth signals a GrowTail whose feed was reset while its fetch
// was out. The fetched article belongs to the pre-reset epoch, possibly
// under a different filter, and is discarded.
var ErrStaleGrowth = errors.New("tail growth superseded by reset")

// Entry is one slot in the feed sequence. A placeholder entry carries a
// synthetic identity (its ID) and no article until resolution; the ID is a
// uuid, so it can never collide with a real article URL.
type Entry struct {
	ID          string         `json:"id"`
	Placeholder bool           `json:"placeholder,omitempty"`
	Phrase      string         `json:"phrase,omitempty"`
	Article     domain.Article `json:"article"`
}

// Options tunes a feed instance.
type Options struct {
	PrefetchCount int
	DedupRetries  int
}

// Feed is the client-side state machine behind one reader session.
type Feed struct {
	provider ports.ArticleProvider
	logger   *slog.Logger
	prefetch int
	retries  int

	mu           sync.Mutex
	entries      []Entry
	seen         map[string]struct{}
	filter       string
	tailInFlight bool
	generation   uint64
}

// New builds an empty feed bound to an article provider.
func New(provider ports.ArticleProvider, logger *slog.Logger, opts Options) *Feed {
	prefetch := opts.PrefetchCount
	if prefetch < 0 {
		prefetch = 0
	}
	retries := opts.DedupRetries
	if retries <= 0 {
		retries = 5
	}
	return &Feed{
		provider: provider,
		logger:   logger,
		prefetch: prefetch,
		retries:  retries,
		seen:     map[string]struct{}{},
	}
}

// Init clears all state, sets the topic filter, seeds the sequence with
// one article and then prefetches ahead so the feed opens with more than
// one article visible. Prefetch failures are logged, not fatal: the seed
// article is already in place.
func (f *Feed) Init(ctx context.Context, filter string) error {
	f.mu.Lock()
	f.entries = nil
	f.seen = map[string]struct{}{}
	f.filter = strings.TrimSpace(filter)
	// Bumping the generation orphans any growth still in its fetch: its
	// completion sees the mismatch and discards itself instead of
	// appending a pre-reset article into the cleared sequence. The flag
	// is handed to the new epoch here, so the reseed below can start.
	f.tailInFlight = false
	f.generation++
	f.mu.Unlock()

	if _, err := f.GrowTail(ctx); err != nil {
		return err
	}
	for i := 0; i < f.prefetch; i++ {
		if _, err := f.GrowTail(ctx); err != nil {
			f.warn("prefetch grow failed", "error", err)
			break
		}
	}
	return nil
}

// Reset is Init under a new filter: full clear and reseed.
func (f *Feed) Reset(ctx context.Context, filter string) error {
	return f.Init(ctx, filter)
}

// GrowTail appends one freshly resolved article. Candidates whose URL is
// already in the feed are refetched up to the retry budget and then
// accepted anyway: bounded latency wins over strict uniqueness once a
// topic's article pool is exhausted. At most one tail growth runs at a
// time; concurrent calls get ErrGrowthInFlight, and a growth orphaned by
// a reset returns ErrStaleGrowth instead of appending.
func (f *Feed) GrowTail(ctx context.Context) (domain.Article, error) {
	f.mu.Lock()
	if f.tailInFlight {
		f.mu.Unlock()
		return domain.Article{}, ErrGrowthInFlight
	}
	f.tailInFlight = true
	gen := f.generation
	filter := f.filter
	f.mu.Unlock()

	for attempt := 0; ; attempt++ {
		article, err := f.nextCandidate(ctx, filter)

		f.mu.Lock()
		if gen != f.generation {
			// A reset ran while the fetch was out; the in-flight flag and
			// the sequence belong to the new epoch now.
			f.mu.Unlock()
			return domain.Article{}, ErrStaleGrowth
		}
		if err != nil {
			f.tailInFlight = false
			f.mu.Unlock()
			return domain.Article{}, err
		}
		// The duplicate check and the append share one critical section:
		// a Prepend landing between them could otherwise slip the same
		// URL past the retry loop.
		if _, dup := f.seen[article.URL]; dup && attempt < f.retries {
			f.mu.Unlock()
			continue
		}
		f.tailInFlight = false
		f.entries = append(f.entries, Entry{ID: uuid.NewString(), Article: article})
		f.seen[article.URL] = struct{}{}
		f.mu.Unlock()
		return article, nil
	}
}

// Prepend assembles the article for title and inserts it at the head as
// the newest item. If its URL is already in the feed the call is a silent
// no-op: the reader is already viewing this content somewhere.
func (f *Feed) Prepend(ctx context.Context, title string) (domain.Article, bool, error) {
	article, err := f.provider.ByTitle(ctx, title)
	if err != nil {
		return domain.Article{}, false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[article.URL]; ok {
		return article, false, nil
	}
	f.entries = append([]Entry{{ID: uuid.NewString(), Article: article}}, f.entries...)
	f.seen[article.URL] = struct{}{}
	return article, true, nil
}

// Lookup runs the search-driven placeholder flow: a synthetic entry is
// inserted at the head immediately, the phrase is resolved and assembled,
// and the placeholder is replaced in place by its correlation token. On
// any failure the placeholder is removed rather than left as a stub.
func (f *Feed) Lookup(ctx context.Context, phrase string) (domain.Article, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return domain.Article{}, fmt.Errorf("phrase: %w", domain.ErrEmptyInput)
	}

	token := f.InsertPlaceholder(phrase)

	title, err := f.provider.SearchBestTitle(ctx, phrase)
	if err != nil {
		f.RemovePlaceholder(token)
		return domain.Article{}, err
	}
	article, err := f.provider.ByTitle(ctx, title)
	if err != nil {
		f.RemovePlaceholder(token)
		return domain.Article{}, err
	}

	if !f.ResolvePlaceholder(token, article) {
		// The placeholder vanished under a concurrent reset; the article
		// is still the answer, there is just no slot left to fill.
		f.warn("placeholder gone before resolution", "phrase", phrase)
	}
	return article, nil
}

// InsertPlaceholder prepends a synthetic loading entry and returns its
// correlation token.
func (f *Feed) InsertPlaceholder(phrase string) string {
	token := uuid.NewString()
	f.mu.Lock()
	f.entries = append([]Entry{{ID: token, Placeholder: true, Phrase: phrase}}, f.entries...)
	f.mu.Unlock()
	return token
}

// ResolvePlaceholder swaps the placeholder matched by token for the real
// article, in place. Matching is by token, never by position: other
// insertions may have shifted the slot while the fetch was in flight.
// Unlike Prepend there is no seen-set check: the reader asked for this
// lookup explicitly, so the resolved article takes its slot even when the
// same URL already appears elsewhere in the feed.
func (f *Feed) ResolvePlaceholder(token string, article domain.Article) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == token && f.entries[i].Placeholder {
			f.entries[i] = Entry{ID: token, Article: article}
			f.seen[article.URL] = struct{}{}
			return true
		}
	}
	return false
}

// RemovePlaceholder drops the placeholder matched by token, if it is
// still present.
func (f *Feed) RemovePlaceholder(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = slices.DeleteFunc(f.entries, func(e Entry) bool {
		return e.ID == token && e.Placeholder
	})
}

// Snapshot returns a copy of the current sequence in insertion order.
func (f *Feed) Snapshot() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.entries)
}

// Filter returns the active topic filter, empty for unrestricted random.
func (f *Feed) Filter() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter
}

// Len reports the current sequence length.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *Feed) nextCandidate(ctx context.Context, filter string) (domain.Article, error) {
	if filter != "" {
		return f.provider.RandomFromTopic(ctx, filter)
	}
	return f.provider.Random(ctx)
}

func (f *Feed) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
