package session

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/onepager/internal/datasource"
	"github.com/seenimoa/onepager/internal/favorites"
	"github.com/seenimoa/onepager/internal/navigator"
	"github.com/seenimoa/onepager/internal/report"
	"github.com/seenimoa/onepager/internal/search"
	"github.com/seenimoa/onepager/pkg/models"
)

// recorder captures events by name.
type recorder struct {
	mu     sync.Mutex
	events []string
	last   search.State
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	r.events = append(r.events, name)
	r.mu.Unlock()
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == name {
			n++
		}
	}
	return n
}

func (r *recorder) OnSearch(q string) { r.add("search:" + q) }
func (r *recorder) OnSearchResults(st search.State) {
	r.mu.Lock()
	r.last = st
	r.mu.Unlock()
	r.add("results")
}
func (r *recorder) OnCompanySelect(c models.Company)    { r.add("select:" + c.Symbol) }
func (r *recorder) OnSectionChange(s navigator.Section) { r.add("section") }
func (r *recorder) OnAddToFavorites(symbol string)      { r.add("fav:" + symbol) }
func (r *recorder) OnLogin()                            { r.add("login") }
func (r *recorder) OnLogout()                           { r.add("logout") }
func (r *recorder) OnShowFavorites()                    { r.add("show-favorites") }
func (r *recorder) OnBack()                             { r.add("back") }

func newTestManager(t *testing.T) (*Manager, map[string]*recorder) {
	t.Helper()
	ds, err := datasource.LoadDataset("")
	require.NoError(t, err)
	store := datasource.NewFixtureStore(ds)
	agg, err := datasource.NewAggregator(datasource.Sources{
		Catalog: store, News: store, Earnings: store, Metrics: store, Competitors: store, Chart: store,
	}, datasource.AggregatorOptions{})
	require.NoError(t, err)

	var mu sync.Mutex
	recs := make(map[string]*recorder)
	m, err := NewManager(Config{
		Catalog:   store,
		Loader:    agg,
		Favorites: favorites.New(nil),
		Events: func(id string) Events {
			mu.Lock()
			defer mu.Unlock()
			r := &recorder{}
			recs[id] = r
			return r
		},
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, recs
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(Config{})
	assert.ErrorIs(t, err, search.ErrNoProvider)

	_, err = NewManager(Config{Catalog: datasource.NewStaticCatalog(nil)})
	assert.Error(t, err)
}

func TestManager_CreateGetDelete(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(s.ID), ErrNotFound)
}

func TestManager_Sweep(t *testing.T) {
	m, _ := newTestManager(t)
	now := time.Date(2024, 10, 25, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	idle, _ := m.Create()
	now = now.Add(time.Hour)
	active, _ := m.Create()

	assert.Equal(t, 1, m.Sweep(30*time.Minute))
	_, err := m.Get(idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(active.ID)
	assert.NoError(t, err)
}

func TestSession_SearchEmitsEvents(t *testing.T) {
	m, recs := newTestManager(t)
	s, _ := m.Create()
	rec := recs[s.ID]

	s.Search("app")
	require.Eventually(t, func() bool {
		return s.SearchState().Display == search.DisplayResolved
	}, time.Second, 2*time.Millisecond)

	st := s.SearchState()
	require.Len(t, st.Results, 1)
	assert.Equal(t, "AAPL", st.Results[0].Symbol)
	assert.Equal(t, 1, rec.count("search:app"))
	require.Eventually(t, func() bool { return rec.count("results") >= 2 }, time.Second, time.Millisecond)

	s.DismissSearch()
	assert.Equal(t, search.DisplayHidden, s.SearchState().Display)
	s.FocusSearch()
	assert.Equal(t, search.DisplayResolved, s.SearchState().Display)
}

func TestSession_SelectResetsNavigator(t *testing.T) {
	m, recs := newTestManager(t)
	s, _ := m.Create()

	s.NextSection()
	s.NextSection()
	assert.Equal(t, navigator.SectionID(3), s.ActiveSection().ID)

	s.Search("micro")
	rs, err := s.Select(context.Background(), "msft")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", rs.Company.Symbol)
	assert.Equal(t, navigator.FinancialOverview, s.ActiveSection().ID)
	assert.Equal(t, 1, recs[s.ID].count("select:MSFT"))

	st := s.SearchState()
	assert.Equal(t, "", st.Query)
	assert.Equal(t, search.DisplayHidden, st.Display)

	v := s.View()
	require.NotNil(t, v.Company)
	assert.Equal(t, "MSFT", v.Company.Symbol)
	assert.Equal(t, 0.1, v.Progress)
}

func TestSession_SelectUnknown(t *testing.T) {
	m, _ := newTestManager(t)
	s, _ := m.Create()
	_, err := s.Select(context.Background(), "NOPE")
	assert.ErrorIs(t, err, datasource.ErrSymbolNotFound)
	_, err = s.Records()
	assert.ErrorIs(t, err, ErrNoCompany)
}

func TestSession_Sections(t *testing.T) {
	m, _ := newTestManager(t)
	s, _ := m.Create()

	_, err := s.CurrentSection()
	assert.ErrorIs(t, err, ErrNoCompany)

	_, err = s.Select(context.Background(), "AAPL")
	require.NoError(t, err)

	require.NoError(t, s.SelectSection(navigator.RealTimeNews))
	p, err := s.CurrentSection()
	require.NoError(t, err)
	assert.Equal(t, report.KindNewsFeed, p.Kind)
	assert.InDelta(t, 0.3, p.Progress, 1e-9)

	err = s.SelectSection(11)
	assert.ErrorIs(t, err, navigator.ErrUnknownSection)
	assert.Equal(t, navigator.RealTimeNews, s.ActiveSection().ID)

	assert.Equal(t, navigator.SectionID(2), s.PrevSection().ID)

	_, err = s.Section(0)
	assert.ErrorIs(t, err, report.ErrUnknownSection)
}

func TestSession_FavoritesRequireLogin(t *testing.T) {
	m, recs := newTestManager(t)
	s, _ := m.Create()
	rec := recs[s.ID]

	_, err := s.ToggleFavorite()
	assert.ErrorIs(t, err, ErrNoCompany)

	_, err = s.Select(context.Background(), "AAPL")
	require.NoError(t, err)

	res, err := s.ToggleFavorite()
	require.NoError(t, err)
	assert.True(t, res.RequiresLogin)
	assert.Equal(t, 1, rec.count("login"))
	assert.Equal(t, 0, s.View().FavoriteCount)

	assert.True(t, s.Login(&models.User{ID: "u1", Name: "Sam"}))
	res, err = s.ToggleFavorite()
	require.NoError(t, err)
	assert.True(t, res.Favorited)
	assert.True(t, s.View().Favorited)

	res, err = s.ToggleFavorite()
	require.NoError(t, err)
	assert.False(t, res.Favorited)
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, 2, rec.count("fav:AAPL"))
}

func TestSession_FavoritesSharedAcrossSessions(t *testing.T) {
	m, recs := newTestManager(t)
	a, _ := m.Create()
	b, _ := m.Create()
	user := &models.User{ID: "u1"}
	a.Login(user)
	b.Login(user)

	_, err := a.Select(context.Background(), "TSLA")
	require.NoError(t, err)
	_, err = a.ToggleFavorite()
	require.NoError(t, err)

	entries := b.ShowFavorites()
	require.Len(t, entries, 1)
	assert.Equal(t, "TSLA", entries[0].Symbol)
	assert.Equal(t, 1, recs[b.ID].count("show-favorites"))
}

func TestSession_LoginLogoutBack(t *testing.T) {
	m, recs := newTestManager(t)
	s, _ := m.Create()
	rec := recs[s.ID]

	assert.False(t, s.Login(nil))
	assert.False(t, s.Login(&models.User{}))
	assert.Equal(t, 2, rec.count("login"))
	assert.Nil(t, s.User())

	s.Login(&models.User{ID: "u1"})
	s.Logout()
	assert.Nil(t, s.User())
	assert.Equal(t, 1, rec.count("logout"))
	assert.Empty(t, s.ShowFavorites())

	_, err := s.Select(context.Background(), "AAPL")
	require.NoError(t, err)
	s.Back()
	assert.Equal(t, 1, rec.count("back"))
	assert.Nil(t, s.View().Company)
}

func TestSession_Export(t *testing.T) {
	m, _ := newTestManager(t)
	s, _ := m.Create()

	var buf bytes.Buffer
	assert.ErrorIs(t, s.Export(&buf, report.DefaultExportOptions()), ErrNoCompany)

	_, err := s.Select(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NoError(t, s.Export(&buf, report.ExportOptions{Format: report.FormatText}))
	assert.Contains(t, buf.String(), "Apple Inc. (AAPL) One-Pager")
}

// heldLoader holds every Load until release is closed.
type heldLoader struct {
	Loader
	mu      sync.Mutex
	calls   []string
	release chan struct{}
}

func (l *heldLoader) Load(ctx context.Context, symbol string) (models.RecordSet, error) {
	l.mu.Lock()
	l.calls = append(l.calls, symbol)
	l.mu.Unlock()
	<-l.release
	return l.Loader.Load(ctx, symbol)
}

func (l *heldLoader) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (r *recorder) lastSelect() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if strings.HasPrefix(r.events[i], "select:") {
			return strings.TrimPrefix(r.events[i], "select:")
		}
	}
	return ""
}

func TestSession_ConcurrentSelectsStayConsistent(t *testing.T) {
	ds, err := datasource.LoadDataset("")
	require.NoError(t, err)
	store := datasource.NewFixtureStore(ds)
	agg, err := datasource.NewAggregator(datasource.Sources{
		Catalog: store, News: store, Earnings: store, Metrics: store, Competitors: store, Chart: store,
	}, datasource.AggregatorOptions{})
	require.NoError(t, err)
	loader := &heldLoader{Loader: agg, release: make(chan struct{})}

	rec := &recorder{}
	m, err := NewManager(Config{
		Catalog:   store,
		Loader:    loader,
		Favorites: favorites.New(nil),
		Events:    func(string) Events { return rec },
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	s, err := m.Create()
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.Select(context.Background(), "AAPL")
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return len(loader.Calls()) == 1 }, time.Second, time.Millisecond)
	go func() {
		defer wg.Done()
		_, err := s.Select(context.Background(), "MSFT")
		assert.NoError(t, err)
	}()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"AAPL"}, loader.Calls(), "second select must wait for the first")

	close(loader.release)
	wg.Wait()

	rs, err := s.Records()
	require.NoError(t, err)
	assert.Equal(t, "MSFT", rs.Company.Symbol)
	assert.Equal(t, rs.Company.Symbol, rec.lastSelect())
	assert.Equal(t, []string{"AAPL", "MSFT"}, loader.Calls())
}
