// Package search implements incremental company search over a catalog
// provider.
//
// The engine is last-request-wins: every query bumps a generation counter,
// and a lookup completion is published only if its generation is still
// current when it arrives. Superseded lookups also have their context
// cancelled so providers can stop early.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/seenimoa/onepager/internal/logging"
	"github.com/seenimoa/onepager/pkg/models"
)

// ErrNoProvider is returned when an engine is built without a provider.
var ErrNoProvider = errors.New("search: no catalog provider")

// CatalogProvider resolves a query to matching companies.
type CatalogProvider interface {
	Lookup(ctx context.Context, query string) ([]models.Company, error)
}

// Display is the result panel state.
type Display string

const (
	DisplayHidden   Display = "hidden"
	DisplayLoading  Display = "loading"
	DisplayResolved Display = "resolved"
)

// State is a snapshot of the engine.
type State struct {
	Query      string           `json:"query"`
	Display    Display          `json:"display"`
	Results    []models.Company `json:"results"`
	TimedOut   bool             `json:"timed_out,omitempty"`
	Generation uint64           `json:"generation"`
}

// NoResults reports whether a resolved lookup found nothing.
func (s State) NoResults() bool {
	return s.Display == DisplayResolved && len(s.Results) == 0
}

// Signals receives the engine's outbound notifications.
type Signals interface {
	OnSearch(query string)
	OnCompanySelect(company models.Company)
}

// Options configures an Engine.
type Options struct {
	Debounce   time.Duration // delay before a lookup starts
	Timeout    time.Duration // per-lookup deadline; default 5s
	MaxResults int           // 0 = unlimited
	Signals    Signals
	Logger     *logging.Logger
}

// DefaultTimeout bounds a lookup when Options.Timeout is unset.
const DefaultTimeout = 5 * time.Second

// Engine is the search-and-select state machine. It is safe for
// concurrent use.
type Engine struct {
	provider CatalogProvider
	opts     Options
	logger   *logging.Logger

	mu       sync.Mutex
	query    string
	open     bool
	phase    Display
	results  []models.Company
	timedOut bool
	gen      uint64
	seq      uint64
	cancel   context.CancelFunc
	timer    *time.Timer
	closed   bool
	listener func(State)

	notifyMu   sync.Mutex
	notifiedAt uint64

	wg sync.WaitGroup
}

// New creates an engine over provider.
func New(provider CatalogProvider, opts Options) (*Engine, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Engine{
		provider: provider,
		opts:     opts,
		logger:   logging.OrSilent(opts.Logger).Component("search"),
		phase:    DisplayHidden,
	}, nil
}

// OnChange registers fn to receive every published state. Snapshots are
// delivered in order; a listener may miss intermediate states but never
// sees an older state after a newer one.
func (e *Engine) OnChange(fn func(State)) {
	e.mu.Lock()
	e.listener = fn
	e.mu.Unlock()
}

// Search records query, opens the result panel and schedules a lookup.
// A blank query hides the panel without a lookup. Any in-flight lookup is
// superseded either way.
func (e *Engine) Search(query string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.supersedeLocked()
	e.query = query
	e.open = true
	e.results = nil
	e.timedOut = false
	if strings.TrimSpace(query) == "" {
		e.phase = DisplayHidden
	} else {
		e.phase = DisplayLoading
		e.scheduleLocked(e.gen, query)
	}
	st, seq := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Debug().Str("query", query).Uint64("generation", st.Generation).Msg("Search issued")
	e.notify(st, seq)
	if e.opts.Signals != nil {
		e.opts.Signals.OnSearch(query)
	}
}

// Select clears the query, hides the panel and emits the selection.
func (e *Engine) Select(company models.Company) {
	e.mu.Lock()
	e.supersedeLocked()
	e.query = ""
	e.open = false
	e.phase = DisplayHidden
	e.results = nil
	e.timedOut = false
	st, seq := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Debug().Str("symbol", company.Symbol).Msg("Company selected")
	e.notify(st, seq)
	if e.opts.Signals != nil {
		e.opts.Signals.OnCompanySelect(company)
	}
}

// Dismiss closes the result panel without touching the query.
func (e *Engine) Dismiss() {
	e.setOpen(false)
}

// Focus reopens the result panel for the current query.
func (e *Engine) Focus() {
	e.setOpen(true)
}

func (e *Engine) setOpen(open bool) {
	e.mu.Lock()
	if e.open == open {
		e.mu.Unlock()
		return
	}
	e.open = open
	st, seq := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(st, seq)
}

// State returns the current snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, _ := e.snapshotLocked()
	return st
}

// Close cancels pending work and waits for running lookups to return.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.supersedeLocked()
	e.mu.Unlock()
	e.wg.Wait()
}

// supersedeLocked invalidates the current generation and stops its lookup.
func (e *Engine) supersedeLocked() {
	e.gen++
	if e.timer != nil {
		if e.timer.Stop() {
			e.wg.Done()
		}
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) scheduleLocked(gen uint64, query string) {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg.Add(1)
	if e.opts.Debounce > 0 {
		e.timer = time.AfterFunc(e.opts.Debounce, func() { e.run(ctx, gen, query) })
		return
	}
	go e.run(ctx, gen, query)
}

type outcome struct {
	results []models.Company
	err     error
}

// run performs one lookup and hands the outcome to complete. The provider
// runs in its own goroutine so a provider that ignores ctx still cannot
// hold the engine in loading past the timeout.
func (e *Engine) run(ctx context.Context, gen uint64, query string) {
	defer e.wg.Done()
	if ctx.Err() != nil {
		return
	}
	lctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		res, err := e.provider.Lookup(lctx, query)
		ch <- outcome{res, err}
	}()

	select {
	case o := <-ch:
		if o.err != nil && ctx.Err() == nil {
			e.logger.Warn().Err(o.err).Str("query", query).Msg("Catalog lookup failed")
		}
		// A provider that honours lctx returns as the deadline fires.
		expired := o.err != nil && ctx.Err() == nil && errors.Is(lctx.Err(), context.DeadlineExceeded)
		e.complete(gen, o.results, o.err, expired)
	case <-lctx.Done():
		if ctx.Err() != nil {
			e.logger.Debug().Str("query", query).Uint64("generation", gen).Msg("Lookup superseded")
			return
		}
		e.logger.Warn().Str("query", query).Dur("timeout", e.opts.Timeout).Msg("Catalog lookup timed out")
		e.complete(gen, nil, lctx.Err(), true)
	}
}

// complete publishes a lookup outcome if gen is still current. Errors
// resolve to an empty result.
func (e *Engine) complete(gen uint64, results []models.Company, err error, timedOut bool) {
	e.mu.Lock()
	if gen != e.gen || e.closed {
		e.mu.Unlock()
		e.logger.Debug().Uint64("generation", gen).Msg("Discarding stale lookup")
		return
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.timer = nil
	e.phase = DisplayResolved
	e.timedOut = timedOut
	if err != nil {
		e.results = []models.Company{}
	} else {
		e.results = dedupe(results, e.opts.MaxResults)
	}
	st, seq := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(st, seq)
}

func (e *Engine) snapshotLocked() (State, uint64) {
	e.seq++
	display := e.phase
	if !e.open || strings.TrimSpace(e.query) == "" {
		display = DisplayHidden
	}
	var results []models.Company
	if e.results != nil {
		results = make([]models.Company, len(e.results))
		copy(results, e.results)
	}
	return State{
		Query:      e.query,
		Display:    display,
		Results:    results,
		TimedOut:   e.timedOut,
		Generation: e.gen,
	}, e.seq
}

func (e *Engine) notify(st State, seq uint64) {
	e.mu.Lock()
	fn := e.listener
	e.mu.Unlock()
	if fn == nil {
		return
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	if seq <= e.notifiedAt {
		return
	}
	e.notifiedAt = seq
	fn(st)
}
