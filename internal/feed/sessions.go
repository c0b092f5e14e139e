package feed

import (
	"context"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultSessionLimit = 256

// Manager owns per-session feeds. The store is a bounded LRU so abandoned
// sessions fall out on their own; there is no server-side persistence.
type Manager struct {
	sessions *lru.Cache[string, *Feed]
	factory  func() *Feed
}

// NewManager builds a session store holding at most limit feeds.
func NewManager(limit int, factory func() *Feed) *Manager {
	if limit <= 0 {
		limit = defaultSessionLimit
	}
	sessions, _ := lru.New[string, *Feed](limit)
	return &Manager{sessions: sessions, factory: factory}
}

// Create initializes a fresh feed under the given topic filter and
// registers it under a new session ID.
func (m *Manager) Create(ctx context.Context, filter string) (string, *Feed, error) {
	f := m.factory()
	if err := f.Init(ctx, filter); err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	m.sessions.Add(id, f)
	return id, f, nil
}

// Get resolves a session ID to its feed.
func (m *Manager) Get(id string) (*Feed, bool) {
	return m.sessions.Get(id)
}
