package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"infiniwiki/internal/domain"
)

func article(name string) domain.Article {
	return domain.Article{
		Title: name,
		URL:   "https://en.wikipedia.org/wiki/" + name,
		HTML:  "<p>" + name + "</p>",
		Text:  name,
	}
}

// scriptedProvider serves canned articles for the state machine tests.
type scriptedProvider struct {
	mu           sync.Mutex
	queue        []domain.Article
	byTitle      map[string]domain.Article
	topicArticle domain.Article
	searchTitle  string
	searchErr    error
	byTitleErr   error
	randomCalls  int

	// blockRandom, when set, makes Random park until released.
	blockRandom chan struct{}
	started     chan struct{}
}

func (p *scriptedProvider) Random(_ context.Context) (domain.Article, error) {
	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.blockRandom != nil {
		<-p.blockRandom
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.randomCalls++
	if len(p.queue) == 0 {
		return domain.Article{}, fmt.Errorf("script exhausted")
	}
	next := p.queue[0]
	if len(p.queue) > 1 {
		p.queue = p.queue[1:]
	}
	return next, nil
}

func (p *scriptedProvider) RandomFromTopic(ctx context.Context, _ string) (domain.Article, error) {
	p.mu.Lock()
	topical := p.topicArticle
	p.mu.Unlock()
	if topical.URL != "" {
		return topical, nil
	}
	return p.Random(ctx)
}

func (p *scriptedProvider) ByTitle(_ context.Context, title string) (domain.Article, error) {
	if p.byTitleErr != nil {
		return domain.Article{}, p.byTitleErr
	}
	if a, ok := p.byTitle[title]; ok {
		return a, nil
	}
	return article(title), nil
}

func (p *scriptedProvider) SearchBestTitle(_ context.Context, phrase string) (string, error) {
	if p.searchErr != nil {
		return "", p.searchErr
	}
	if p.searchTitle != "" {
		return p.searchTitle, nil
	}
	return phrase, nil
}

func urls(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Article.URL)
	}
	return out
}

func TestInitSeedsAndPrefetches(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{queue: []domain.Article{article("A"), article("B"), article("C")}}
	f := New(p, nil, Options{PrefetchCount: 1})

	if err := f.Init(context.Background(), ""); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if f.Len() != 2 {
		t.Fatalf("expected 2 entries after init, got %d", f.Len())
	}
}

func TestGrowTailSkipsSeenURLs(t *testing.T) {
	t.Parallel()

	a, b := article("A"), article("B")
	p := &scriptedProvider{queue: []domain.Article{a, a, b}}
	f := New(p, nil, Options{DedupRetries: 5})

	ctx := context.Background()
	if _, err := f.GrowTail(ctx); err != nil {
		t.Fatalf("first grow: %v", err)
	}
	if _, err := f.GrowTail(ctx); err != nil {
		t.Fatalf("second grow: %v", err)
	}

	got := urls(f.Snapshot())
	if len(got) != 2 || got[0] == got[1] {
		t.Fatalf("duplicate slipped through retries: %v", got)
	}
}

func TestGrowTailAcceptsDuplicateAfterRetryBudget(t *testing.T) {
	t.Parallel()

	a := article("A")
	p := &scriptedProvider{queue: []domain.Article{a}}
	f := New(p, nil, Options{DedupRetries: 2})

	ctx := context.Background()
	if _, err := f.GrowTail(ctx); err != nil {
		t.Fatalf("first grow: %v", err)
	}
	if _, err := f.GrowTail(ctx); err != nil {
		t.Fatalf("second grow: %v", err)
	}

	if f.Len() != 2 {
		t.Fatalf("retry cap must accept a duplicate, got %d entries", f.Len())
	}
	// 1 fetch for the first grow, then 1 candidate + 2 retries.
	if p.randomCalls != 4 {
		t.Fatalf("unexpected fetch count: %d", p.randomCalls)
	}
}

func TestGrowTailSuppressedWhileInFlight(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{
		queue:       []domain.Article{article("A")},
		blockRandom: make(chan struct{}),
		started:     make(chan struct{}, 1),
	}
	f := New(p, nil, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := f.GrowTail(context.Background())
		done <- err
	}()
	<-p.started

	if _, err := f.GrowTail(context.Background()); !errors.Is(err, ErrGrowthInFlight) {
		t.Fatalf("expected ErrGrowthInFlight, got %v", err)
	}

	close(p.blockRandom)
	if err := <-done; err != nil {
		t.Fatalf("blocked grow failed: %v", err)
	}
	if f.Len() != 1 {
		t.Fatalf("expected single entry, got %d", f.Len())
	}
}

func TestResetDuringInFlightGrowDiscardsStaleArticle(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{
		queue:        []domain.Article{article("StaleUnfiltered")},
		topicArticle: article("ScienceSeed"),
		blockRandom:  make(chan struct{}),
		started:      make(chan struct{}, 1),
	}
	f := New(p, nil, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := f.GrowTail(context.Background())
		done <- err
	}()
	<-p.started

	// The reset lands while the unfiltered fetch is still out; the reseed
	// runs under the new filter.
	if err := f.Reset(context.Background(), "Science"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	close(p.blockRandom)
	if err := <-done; !errors.Is(err, ErrStaleGrowth) {
		t.Fatalf("expected ErrStaleGrowth, got %v", err)
	}

	got := urls(f.Snapshot())
	if len(got) != 1 || got[0] != article("ScienceSeed").URL {
		t.Fatalf("pre-reset article leaked into the fresh feed: %v", got)
	}
	if _, err := f.GrowTail(context.Background()); errors.Is(err, ErrGrowthInFlight) {
		t.Fatal("stale growth left the in-flight flag held")
	}
}

func TestGrowTailDedupsAgainstConcurrentPrepend(t *testing.T) {
	t.Parallel()

	a, b := article("A"), article("B")
	p := &scriptedProvider{
		queue:       []domain.Article{a, b},
		blockRandom: make(chan struct{}),
		started:     make(chan struct{}, 1),
	}
	f := New(p, nil, Options{DedupRetries: 5})

	done := make(chan error, 1)
	go func() {
		_, err := f.GrowTail(context.Background())
		done <- err
	}()
	<-p.started

	// The same article lands via Prepend while the grow's fetch is out.
	if _, inserted, err := f.Prepend(context.Background(), "A"); err != nil || !inserted {
		t.Fatalf("prepend: inserted=%v err=%v", inserted, err)
	}

	close(p.blockRandom)
	if err := <-done; err != nil {
		t.Fatalf("grow: %v", err)
	}

	got := urls(f.Snapshot())
	if len(got) != 2 || got[0] != a.URL || got[1] != b.URL {
		t.Fatalf("concurrent prepend slipped a duplicate past the retry loop: %v", got)
	}
}

func TestPrependInsertsAtHead(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{queue: []domain.Article{article("A")}}
	f := New(p, nil, Options{})

	ctx := context.Background()
	if _, err := f.GrowTail(ctx); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if _, inserted, err := f.Prepend(ctx, "B"); err != nil || !inserted {
		t.Fatalf("prepend: inserted=%v err=%v", inserted, err)
	}

	got := urls(f.Snapshot())
	if got[0] != article("B").URL {
		t.Fatalf("new article not at head: %v", got)
	}
}

func TestPrependSkipsSeenURL(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{queue: []domain.Article{article("A")}}
	f := New(p, nil, Options{})

	ctx := context.Background()
	if _, err := f.GrowTail(ctx); err != nil {
		t.Fatalf("grow: %v", err)
	}
	_, inserted, err := f.Prepend(ctx, "A")
	if err != nil {
		t.Fatalf("prepend: %v", err)
	}
	if inserted {
		t.Fatal("already-seen article must not be inserted twice")
	}
	if f.Len() != 1 {
		t.Fatalf("sequence changed on duplicate prepend: %d", f.Len())
	}
}

func TestLookupReplacesPlaceholderInPlace(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{
		queue:       []domain.Article{article("A")},
		searchTitle: "Alan Turing",
	}
	f := New(p, nil, Options{})

	ctx := context.Background()
	if _, err := f.GrowTail(ctx); err != nil {
		t.Fatalf("grow: %v", err)
	}

	resolved, err := f.Lookup(ctx, "turing")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if resolved.Title != "Alan Turing" {
		t.Fatalf("unexpected resolution: %s", resolved.Title)
	}

	entries := f.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("replace must keep sequence length, got %d", len(entries))
	}
	if entries[0].Placeholder {
		t.Fatal("placeholder survived resolution")
	}
	if entries[0].Article.Title != "Alan Turing" {
		t.Fatalf("resolved article not at placeholder slot: %v", entries[0])
	}
}

func TestLookupRemovesPlaceholderOnFailure(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{
		queue:      []domain.Article{article("A")},
		byTitleErr: &domain.UpstreamError{URL: "https://en.wikipedia.org/x", StatusCode: 500},
	}
	f := New(p, nil, Options{})

	ctx := context.Background()
	if _, err := f.GrowTail(ctx); err != nil {
		t.Fatalf("grow: %v", err)
	}

	if _, err := f.Lookup(ctx, "turing"); err == nil {
		t.Fatal("expected lookup failure")
	}
	for _, e := range f.Snapshot() {
		if e.Placeholder {
			t.Fatal("failed lookup left a placeholder behind")
		}
	}
	if f.Len() != 1 {
		t.Fatalf("expected pre-insert length restored, got %d", f.Len())
	}
}

func TestLookupEmptyPhrase(t *testing.T) {
	t.Parallel()

	f := New(&scriptedProvider{}, nil, Options{})
	if _, err := f.Lookup(context.Background(), "  "); !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if f.Len() != 0 {
		t.Fatal("blank phrase must not insert a placeholder")
	}
}

func TestResolvePlaceholderMatchesByTokenNotPosition(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{queue: []domain.Article{article("A")}}
	f := New(p, nil, Options{})

	token := f.InsertPlaceholder("turing")
	// Another insertion shifts the placeholder down one slot.
	if _, _, err := f.Prepend(context.Background(), "B"); err != nil {
		t.Fatalf("prepend: %v", err)
	}

	if !f.ResolvePlaceholder(token, article("Resolved")) {
		t.Fatal("placeholder not found by token")
	}

	entries := f.Snapshot()
	if entries[1].Article.Title != "Resolved" {
		t.Fatalf("resolution hit the wrong slot: %v", urls(entries))
	}
}

func TestResetClearsSequenceAndSeen(t *testing.T) {
	t.Parallel()

	a, b := article("A"), article("B")
	p := &scriptedProvider{queue: []domain.Article{a, b}}
	f := New(p, nil, Options{PrefetchCount: 0})

	ctx := context.Background()
	if err := f.Init(ctx, ""); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := f.Reset(ctx, "Science"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if f.Filter() != "Science" {
		t.Fatalf("filter not applied: %q", f.Filter())
	}
	entries := f.Snapshot()
	if len(entries) != 1 {
		t.Fatalf("reset must reseed a fresh sequence, got %d entries", len(entries))
	}
	// The seen set was cleared too: growing may now legitimately serve an
	// article from before the reset.
	if entries[0].Article.URL != b.URL {
		t.Fatalf("unexpected reseed: %v", urls(entries))
	}
}

func TestDedupInvariantAcrossMixedOperations(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{queue: []domain.Article{
		article("A"), article("B"), article("C"), article("D"),
	}}
	f := New(p, nil, Options{DedupRetries: 5})

	ctx := context.Background()
	if err := f.Init(ctx, ""); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, _, err := f.Prepend(ctx, "Zebra"); err != nil {
		t.Fatalf("prepend: %v", err)
	}
	if _, err := f.GrowTail(ctx); err != nil {
		t.Fatalf("grow: %v", err)
	}

	counts := map[string]int{}
	for _, u := range urls(f.Snapshot()) {
		counts[u]++
	}
	for u, n := range counts {
		if n > 1 {
			t.Fatalf("duplicate url %s appears %d times", u, n)
		}
	}
}
