// Package favorites keeps each authenticated user's set of favorite symbols.
//
// Toggling is gated on identity: an anonymous toggle changes nothing and
// asks the caller to start the login flow instead. Sets live in memory for
// the lifetime of the process.
package favorites

import (
	"errors"
	"sync"
	"time"

	"github.com/seenimoa/onepager/internal/logging"
	"github.com/seenimoa/onepager/pkg/models"
	"github.com/seenimoa/onepager/pkg/utils"
)

// ErrInvalidSymbol is returned when the symbol is empty after normalization.
var ErrInvalidSymbol = errors.New("invalid symbol")

// Signals receives the outbound notifications of a toggle.
type Signals interface {
	OnLogin()
	OnAddToFavorites(symbol string)
}

// Entry is one favorited symbol.
type Entry struct {
	Symbol  string    `json:"symbol"`
	AddedAt time.Time `json:"added_at"`
}

// Result describes the outcome of a toggle.
type Result struct {
	RequiresLogin bool     `json:"requires_login"`
	Symbol        string   `json:"symbol,omitempty"`
	Favorited     bool     `json:"favorited"`
	Symbols       []string `json:"symbols"`
	Count         int      `json:"count"`
}

// Controller holds per-user favorite sets. It is safe for concurrent use.
type Controller struct {
	mu     sync.RWMutex
	sets   map[string][]Entry // user id -> entries in insertion order
	now    func() time.Time
	logger *logging.Logger
}

// New creates an empty controller.
func New(logger *logging.Logger) *Controller {
	return &Controller{
		sets:   make(map[string][]Entry),
		now:    time.Now,
		logger: logging.OrSilent(logger).Component("favorites"),
	}
}

// Toggle flips symbol's membership in user's set. A nil user gets
// RequiresLogin, a login signal, and no mutation. sig may be nil.
func (c *Controller) Toggle(user *models.User, symbol string, sig Signals) (Result, error) {
	if user == nil || user.ID == "" {
		if sig != nil {
			sig.OnLogin()
		}
		return Result{RequiresLogin: true, Symbols: []string{}}, nil
	}
	symbol = utils.NormalizeSymbol(symbol)
	if symbol == "" {
		return Result{}, ErrInvalidSymbol
	}

	c.mu.Lock()
	entries := c.sets[user.ID]
	idx := indexOf(entries, symbol)
	favorited := idx < 0
	if favorited {
		entries = append(entries, Entry{Symbol: symbol, AddedAt: c.now()})
	} else {
		entries = append(entries[:idx:idx], entries[idx+1:]...)
	}
	c.sets[user.ID] = entries
	symbols := symbolsOf(entries)
	c.mu.Unlock()

	c.logger.Info().
		Str("user", user.ID).
		Str("symbol", symbol).
		Bool("favorited", favorited).
		Msg("Favorite toggled")

	if sig != nil {
		sig.OnAddToFavorites(symbol)
	}
	return Result{
		Symbol:    symbol,
		Favorited: favorited,
		Symbols:   symbols,
		Count:     len(symbols),
	}, nil
}

// IsFavorited reports whether symbol is in user's set. Always false for a
// nil user.
func (c *Controller) IsFavorited(user *models.User, symbol string) bool {
	if user == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return indexOf(c.sets[user.ID], utils.NormalizeSymbol(symbol)) >= 0
}

// Count returns the size of user's set; 0 for a nil user.
func (c *Controller) Count(user *models.User) int {
	if user == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sets[user.ID])
}

// List returns user's entries in the order they were added.
func (c *Controller) List(user *models.User) []Entry {
	if user == nil {
		return []Entry{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.sets[user.ID]))
	copy(out, c.sets[user.ID])
	return out
}

// Symbols returns user's favorite symbols in the order they were added.
func (c *Controller) Symbols(user *models.User) []string {
	return symbolsOf(c.List(user))
}

func indexOf(entries []Entry, symbol string) int {
	for i, e := range entries {
		if e.Symbol == symbol {
			return i
		}
	}
	return -1
}

func symbolsOf(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Symbol
	}
	return out
}
