// Package session owns the per-viewer state of the one-pager: the search
// engine, the section navigator, the selected company's records and the
// signed-in identity. Favorites live in a controller shared by all
// sessions and keyed by user.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/seenimoa/onepager/internal/favorites"
	"github.com/seenimoa/onepager/internal/logging"
	"github.com/seenimoa/onepager/internal/navigator"
	"github.com/seenimoa/onepager/internal/report"
	"github.com/seenimoa/onepager/internal/search"
	"github.com/seenimoa/onepager/pkg/models"
)

// ErrNoCompany is returned by operations that need a selected company.
var ErrNoCompany = errors.New("no company selected")

// Loader loads the full record set for a symbol.
type Loader interface {
	Load(ctx context.Context, symbol string) (models.RecordSet, error)
}

// Session is one viewer's one-pager state. It is safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	engine *search.Engine
	nav    *navigator.Navigator
	favs   *favorites.Controller
	loader Loader
	events Events
	logger *logging.Logger
	now    func() time.Time

	// selectMu serializes Select and Back so records and the emitted
	// selection always name the same company.
	selectMu sync.Mutex

	mu         sync.RWMutex
	user       *models.User
	records    *models.RecordSet
	lastActive time.Time
}

// View is a snapshot of a session for display.
type View struct {
	ID            string            `json:"id"`
	User          *models.User      `json:"user,omitempty"`
	Company       *models.Company   `json:"company,omitempty"`
	Section       navigator.Section `json:"section"`
	Progress      float64           `json:"progress"`
	Search        search.State      `json:"search"`
	Favorited     bool              `json:"favorited"`
	FavoriteCount int               `json:"favorite_count"`
	Partial       []string          `json:"partial,omitempty"`
}

// signals adapts the component callbacks onto the session's Events.
type signals struct{ ev Events }

func (s signals) OnSearch(q string)                { s.ev.OnSearch(q) }
func (s signals) OnCompanySelect(c models.Company) { s.ev.OnCompanySelect(c) }
func (s signals) OnLogin()                         { s.ev.OnLogin() }
func (s signals) OnAddToFavorites(symbol string)   { s.ev.OnAddToFavorites(symbol) }

var (
	_ search.Signals    = signals{}
	_ favorites.Signals = signals{}
)

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

// LastActive returns the time of the last operation.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// --- Search ---

// Search forwards a keystroke to the search engine.
func (s *Session) Search(query string) {
	s.touch()
	s.engine.Search(query)
}

// SearchState returns the current search snapshot.
func (s *Session) SearchState() search.State {
	return s.engine.State()
}

// DismissSearch closes the result panel.
func (s *Session) DismissSearch() {
	s.touch()
	s.engine.Dismiss()
}

// FocusSearch reopens the result panel.
func (s *Session) FocusSearch() {
	s.touch()
	s.engine.Focus()
}

// Select loads symbol's records, makes it the current company and
// returns the navigator to the first section.
func (s *Session) Select(ctx context.Context, symbol string) (models.RecordSet, error) {
	s.touch()
	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	rs, err := s.loader.Load(ctx, symbol)
	if err != nil {
		return models.RecordSet{}, fmt.Errorf("select %s: %w", symbol, err)
	}
	s.mu.Lock()
	s.records = &rs
	s.mu.Unlock()

	s.nav.Reset()
	s.engine.Select(rs.Company)
	s.logger.Info().Str("session", s.ID).Str("symbol", rs.Company.Symbol).
		Strs("partial", rs.Partial).Msg("Company selected")
	return rs, nil
}

// Back leaves the one-pager for the homepage.
func (s *Session) Back() {
	s.touch()
	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
	s.nav.Reset()
	s.events.OnBack()
}

// Records returns the selected company's records.
func (s *Session) Records() (models.RecordSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.records == nil {
		return models.RecordSet{}, ErrNoCompany
	}
	return *s.records, nil
}

// --- Navigation ---

// SelectSection activates section id. Unknown ids leave the active
// section unchanged.
func (s *Session) SelectSection(id navigator.SectionID) error {
	s.touch()
	return s.nav.Select(id)
}

// NextSection advances to the next section, wrapping after the last.
func (s *Session) NextSection() navigator.Section {
	s.touch()
	return s.nav.Next()
}

// PrevSection moves to the previous section, wrapping before the first.
func (s *Session) PrevSection() navigator.Section {
	s.touch()
	return s.nav.Prev()
}

// ActiveSection returns the active section.
func (s *Session) ActiveSection() navigator.Section {
	return s.nav.Current()
}

// Section composes section id for the selected company.
func (s *Session) Section(id navigator.SectionID) (report.Payload, error) {
	rs, err := s.Records()
	if err != nil {
		return report.Payload{}, err
	}
	return report.Compose(id, rs)
}

// CurrentSection composes the active section.
func (s *Session) CurrentSection() (report.Payload, error) {
	return s.Section(s.nav.Active())
}

// Export renders the full one-pager of the selected company.
func (s *Session) Export(w io.Writer, opts report.ExportOptions) error {
	rs, err := s.Records()
	if err != nil {
		return err
	}
	return report.Export(w, rs, opts)
}

// --- Identity & favorites ---

// Login records the identity supplied by the auth collaborator. A nil or
// anonymous user asks the collaborator to start its login flow instead.
func (s *Session) Login(user *models.User) bool {
	s.touch()
	if user == nil || user.ID == "" {
		s.events.OnLogin()
		return false
	}
	u := *user
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	s.logger.Info().Str("session", s.ID).Str("user", u.ID).Msg("User signed in")
	return true
}

// Logout clears the identity.
func (s *Session) Logout() {
	s.touch()
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	s.events.OnLogout()
}

// User returns the signed-in identity or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// ToggleFavorite flips the selected company in the user's favorites.
// Without a user it requests login and changes nothing.
func (s *Session) ToggleFavorite() (favorites.Result, error) {
	s.touch()
	rs, err := s.Records()
	if err != nil {
		return favorites.Result{}, err
	}
	return s.favs.Toggle(s.User(), rs.Company.Symbol, signals{s.events})
}

// ShowFavorites returns the user's favorites and emits the show signal.
func (s *Session) ShowFavorites() []favorites.Entry {
	s.touch()
	s.events.OnShowFavorites()
	return s.favs.List(s.User())
}

// View returns a display snapshot.
func (s *Session) View() View {
	user := s.User()
	sec := s.nav.Current()
	v := View{
		ID:            s.ID,
		User:          user,
		Section:       sec,
		Progress:      navigator.Progress(sec.ID),
		Search:        s.engine.State(),
		FavoriteCount: s.favs.Count(user),
	}
	if rs, err := s.Records(); err == nil {
		c := rs.Company
		v.Company = &c
		v.Partial = rs.Partial
		v.Favorited = s.favs.IsFavorited(user, c.Symbol)
	}
	return v
}

// Close stops the session's search engine.
func (s *Session) Close() {
	s.engine.Close()
}
