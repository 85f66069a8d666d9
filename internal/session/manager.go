package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/onepager/internal/favorites"
	"github.com/seenimoa/onepager/internal/logging"
	"github.com/seenimoa/onepager/internal/navigator"
	"github.com/seenimoa/onepager/internal/search"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Config wires the collaborators shared by every session.
type Config struct {
	Catalog   search.CatalogProvider
	Loader    Loader
	Favorites *favorites.Controller
	Search    search.Options // Signals and Logger are set per session

	// Events returns the event sink of a new session. Nil means NopEvents.
	Events func(sessionID string) Events
	Logger *logging.Logger
}

// Manager creates and tracks sessions. It is safe for concurrent use.
type Manager struct {
	cfg    Config
	logger *logging.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager validates cfg and returns an empty manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Catalog == nil {
		return nil, search.ErrNoProvider
	}
	if cfg.Loader == nil {
		return nil, fmt.Errorf("session: loader is required")
	}
	logger := logging.OrSilent(cfg.Logger)
	if cfg.Favorites == nil {
		cfg.Favorites = favorites.New(logger)
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger.Component("session"),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}, nil
}

// Create starts a new session.
func (m *Manager) Create() (*Session, error) {
	id := uuid.NewString()

	var ev Events = NopEvents{}
	if m.cfg.Events != nil {
		if e := m.cfg.Events(id); e != nil {
			ev = e
		}
	}

	opts := m.cfg.Search
	opts.Signals = signals{ev}
	opts.Logger = m.logger
	engine, err := search.New(m.cfg.Catalog, opts)
	if err != nil {
		return nil, err
	}
	engine.OnChange(ev.OnSearchResults)

	nav := navigator.New()
	nav.OnChange(ev.OnSectionChange)

	now := m.now()
	s := &Session{
		ID:         id,
		CreatedAt:  now,
		engine:     engine,
		nav:        nav,
		favs:       m.cfg.Favorites,
		loader:     m.cfg.Loader,
		events:     ev,
		logger:     m.logger,
		now:        m.now,
		lastActive: now,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Debug().Str("session", id).Msg("Session created")
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete closes and forgets session id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Close()
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than maxIdle and returns how many
// were removed.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	var stale []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		m.logger.Info().Int("removed", len(stale)).Msg("Swept idle sessions")
	}
	return len(stale)
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
