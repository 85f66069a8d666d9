package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seenimoa/onepager/internal/config"
	"github.com/seenimoa/onepager/internal/datasource"
	"github.com/seenimoa/onepager/internal/favorites"
	"github.com/seenimoa/onepager/internal/navigator"
	"github.com/seenimoa/onepager/internal/report"
	"github.com/seenimoa/onepager/internal/search"
	"github.com/seenimoa/onepager/internal/session"
	"github.com/seenimoa/onepager/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Port = 8080
	cfg.Search.TimeoutMS = 1000
	cfg.Search.MaxResults = 10
	cfg.Data.Catalog = "static"
	cfg.News.Provider = "fixture"
	cfg.Report.Format = "text"
	return cfg
}

func testServer(t *testing.T) *Server {
	t.Helper()
	ds, err := datasource.LoadDataset("")
	if err != nil {
		t.Fatalf("load dataset: %v", err)
	}
	store := datasource.NewFixtureStore(ds)
	agg, err := datasource.NewAggregator(datasource.Sources{
		Catalog: store, News: store, Earnings: store, Metrics: store, Competitors: store, Chart: store,
	}, datasource.AggregatorOptions{})
	if err != nil {
		t.Fatalf("aggregator: %v", err)
	}
	srv, err := NewServer(testConfig(), Deps{
		Catalog:   store,
		Loader:    agg,
		Trending:  store,
		Favorites: favorites.New(nil),
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() {
		srv.wsHub.Close()
		srv.sessions.Close()
	})
	return srv
}

type rawResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, srv *Server, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) rawResponse {
	t.Helper()
	var resp rawResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if v != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, v); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
	return resp
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/v1/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d", rec.Code)
	}
	var v session.View
	decode(t, rec, &v)
	if v.ID == "" {
		t.Fatal("session id is empty")
	}
	return v.ID
}

func selectCompany(t *testing.T, srv *Server, id, symbol string) {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/select", SelectRequest{Symbol: symbol})
	if rec.Code != http.StatusOK {
		t.Fatalf("select %s status = %d: %s", symbol, rec.Code, rec.Body.String())
	}
}

// ════════════════════════════════════════════════════════════════════
// Catalog endpoints
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv := testServer(t)
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := do(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
		var data map[string]interface{}
		resp := decode(t, rec, &data)
		if !resp.Success || data["status"] != "ok" || data["version"] != "test" {
			t.Errorf("%s unexpected body: %+v", path, data)
		}
	}
}

func TestSections(t *testing.T) {
	srv := testServer(t)
	var sections []navigator.Section
	decode(t, do(t, srv, http.MethodGet, "/api/v1/sections", nil), &sections)
	if len(sections) != navigator.Total {
		t.Fatalf("got %d sections, want %d", len(sections), navigator.Total)
	}
	if sections[0].Title != "Financial Overview" || sections[9].Title != "Forward Outlook" {
		t.Errorf("unexpected order: %q .. %q", sections[0].Title, sections[9].Title)
	}
}

func TestCompanySearch(t *testing.T) {
	srv := testServer(t)
	tests := []struct {
		query string
		want  []string
	}{
		{"app", []string{"AAPL"}},
		{"corp", []string{"MSFT", "NVDA"}},
		{"", nil},
		{"   ", nil},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []models.Company
			rec := do(t, srv, http.MethodGet, "/api/v1/companies/search?q="+strings.ReplaceAll(tt.query, " ", "%20"), nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			decode(t, rec, &got)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d results, want %d", len(got), len(tt.want))
			}
			for i, c := range got {
				if c.Symbol != tt.want[i] {
					t.Errorf("result[%d] = %s, want %s", i, c.Symbol, tt.want[i])
				}
			}
		})
	}
}

func TestTrending(t *testing.T) {
	srv := testServer(t)
	var got []models.Company
	decode(t, do(t, srv, http.MethodGet, "/api/v1/companies/trending", nil), &got)
	want := []string{"AAPL", "MSFT", "NVDA", "TSLA"}
	if len(got) != len(want) {
		t.Fatalf("got %d trending, want %d", len(got), len(want))
	}
	for i, c := range got {
		if c.Symbol != want[i] {
			t.Errorf("trending[%d] = %s, want %s", i, c.Symbol, want[i])
		}
	}
}

func TestStatusAndConfig(t *testing.T) {
	srv := testServer(t)
	createSession(t, srv)

	var status StatusResponse
	decode(t, do(t, srv, http.MethodGet, "/api/v1/status", nil), &status)
	if status.Sessions != 1 || status.Catalog != "static" || status.News != "fixture" {
		t.Errorf("unexpected status: %+v", status)
	}
	if len(status.Keys) != 2 {
		t.Errorf("got %d key statuses, want 2", len(status.Keys))
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/config", nil)
	if strings.Contains(strings.ToLower(rec.Body.String()), "secret") {
		t.Error("config view must not expose credentials")
	}
	var view ConfigView
	decode(t, rec, &view)
	if view.Search.MaxResults != 10 || view.Report.Format != "text" {
		t.Errorf("unexpected config view: %+v", view)
	}
}

// ════════════════════════════════════════════════════════════════════
// Session endpoints
// ════════════════════════════════════════════════════════════════════

func TestSession_NotFound(t *testing.T) {
	srv := testServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/sessions/missing"},
		{http.MethodGet, "/api/v1/sessions/missing/section"},
		{http.MethodPost, "/api/v1/sessions/missing/favorite"},
		{http.MethodDelete, "/api/v1/sessions/missing"},
		{http.MethodGet, "/api/v1/ws?session=missing"},
	} {
		rec := do(t, srv, tc.method, tc.path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}
}

func TestSession_SearchFlow(t *testing.T) {
	srv := testServer(t)
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/search", SearchRequest{Query: "tes"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("search status = %d", rec.Code)
	}

	deadline := time.Now().Add(time.Second)
	var st search.State
	for time.Now().Before(deadline) {
		decode(t, do(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/search", nil), &st)
		if st.Display == search.DisplayResolved {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if st.Display != search.DisplayResolved || len(st.Results) != 1 || st.Results[0].Symbol != "TSLA" {
		t.Fatalf("unexpected search state: %+v", st)
	}

	decode(t, do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/search/dismiss", nil), &st)
	if st.Display != search.DisplayHidden {
		t.Errorf("display after dismiss = %s", st.Display)
	}
	decode(t, do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/search/focus", nil), &st)
	if st.Display != search.DisplayResolved {
		t.Errorf("display after focus = %s", st.Display)
	}
}

func TestSession_SelectErrors(t *testing.T) {
	srv := testServer(t)
	id := createSession(t, srv)

	if rec := do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/select", SelectRequest{}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank symbol status = %d, want 400", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/select", SelectRequest{Symbol: "NOPE"}); rec.Code != http.StatusNotFound {
		t.Errorf("unknown symbol status = %d, want 404", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/section", nil); rec.Code != http.StatusConflict {
		t.Errorf("section without company status = %d, want 409", rec.Code)
	}
}

func TestSession_Navigation(t *testing.T) {
	srv := testServer(t)
	id := createSession(t, srv)
	selectCompany(t, srv, id, "aapl")
	base := "/api/v1/sessions/" + id

	var p report.Payload
	decode(t, do(t, srv, http.MethodGet, base+"/section", nil), &p)
	if p.Kind != report.KindOverview || p.SectionID != navigator.FinancialOverview {
		t.Fatalf("initial payload = %s/%d", p.Kind, p.SectionID)
	}

	rec := do(t, srv, http.MethodPut, base+"/section", SectionRequest{ID: 11})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid section status = %d, want 400", rec.Code)
	}

	var sec navigator.Section
	decode(t, do(t, srv, http.MethodPut, base+"/section", SectionRequest{ID: navigator.RealTimeNews}), &sec)
	if sec.ID != navigator.RealTimeNews {
		t.Errorf("active = %d, want %d", sec.ID, navigator.RealTimeNews)
	}
	decode(t, do(t, srv, http.MethodGet, base+"/section", nil), &p)
	if p.Kind != report.KindNewsFeed {
		t.Errorf("kind = %s, want %s", p.Kind, report.KindNewsFeed)
	}

	decode(t, do(t, srv, http.MethodPost, base+"/section/next", nil), &sec)
	if sec.ID != navigator.EarningsCall {
		t.Errorf("next = %d", sec.ID)
	}
	decode(t, do(t, srv, http.MethodPost, base+"/section/prev", nil), &sec)
	decode(t, do(t, srv, http.MethodPost, base+"/section/prev", nil), &sec)
	if sec.ID != navigator.NewsAnalysis {
		t.Errorf("prev = %d", sec.ID)
	}

	decode(t, do(t, srv, http.MethodGet, base+"/sections/8", nil), &p)
	if p.Kind != report.KindHealth {
		t.Errorf("sections/8 kind = %s", p.Kind)
	}
	for _, sid := range []string{"0", "99", "abc"} {
		if rec := do(t, srv, http.MethodGet, base+"/sections/"+sid, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("sections/%s status = %d, want 400", sid, rec.Code)
		}
	}

	var v session.View
	decode(t, do(t, srv, http.MethodPost, base+"/back", nil), &v)
	if v.Company != nil || v.Section.ID != navigator.FinancialOverview {
		t.Errorf("after back: company=%v section=%d", v.Company, v.Section.ID)
	}
}

func TestSession_FavoritesAndLogin(t *testing.T) {
	srv := testServer(t)
	id := createSession(t, srv)
	base := "/api/v1/sessions/" + id

	if rec := do(t, srv, http.MethodPost, base+"/favorite", nil); rec.Code != http.StatusConflict {
		t.Errorf("favorite without company status = %d, want 409", rec.Code)
	}
	selectCompany(t, srv, id, "MSFT")

	var res favorites.Result
	decode(t, do(t, srv, http.MethodPost, base+"/favorite", nil), &res)
	if !res.RequiresLogin || res.Count != 0 {
		t.Errorf("anonymous toggle = %+v", res)
	}

	var login LoginResponse
	decode(t, do(t, srv, http.MethodPost, base+"/login", nil), &login)
	if !login.RequiresLogin || login.LoggedIn {
		t.Errorf("login without identity = %+v", login)
	}

	decode(t, do(t, srv, http.MethodPost, base+"/login", nil, "X-User-ID", "u-42", "X-User-Name", "Pat"), &login)
	if !login.LoggedIn || login.User == nil || login.User.ID != "u-42" {
		t.Fatalf("login = %+v", login)
	}

	decode(t, do(t, srv, http.MethodPost, base+"/favorite", nil), &res)
	if !res.Favorited || res.Count != 1 {
		t.Errorf("first toggle = %+v", res)
	}

	var entries []favorites.Entry
	decode(t, do(t, srv, http.MethodGet, base+"/favorites", nil), &entries)
	if len(entries) != 1 || entries[0].Symbol != "MSFT" {
		t.Errorf("favorites = %+v", entries)
	}

	decode(t, do(t, srv, http.MethodPost, base+"/favorite", nil), &res)
	if res.Favorited || res.Count != 0 {
		t.Errorf("second toggle = %+v", res)
	}

	decode(t, do(t, srv, http.MethodPost, base+"/logout", nil), &login)
	var v session.View
	decode(t, do(t, srv, http.MethodGet, base, nil), &v)
	if v.User != nil {
		t.Errorf("user after logout = %+v", v.User)
	}
}

func TestSession_LoginFromBody(t *testing.T) {
	srv := testServer(t)
	id := createSession(t, srv)
	var login LoginResponse
	decode(t, do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/login", LoginRequest{ID: "u-7", Name: "Kim"}), &login)
	if !login.LoggedIn || login.User.Name != "Kim" {
		t.Errorf("login = %+v", login)
	}
}

func TestSession_Export(t *testing.T) {
	srv := testServer(t)
	id := createSession(t, srv)
	base := "/api/v1/sessions/" + id

	if rec := do(t, srv, http.MethodGet, base+"/export", nil); rec.Code != http.StatusConflict {
		t.Errorf("export without company status = %d, want 409", rec.Code)
	}
	selectCompany(t, srv, id, "AAPL")

	rec := do(t, srv, http.MethodGet, base+"/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("text export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Apple Inc. (AAPL) One-Pager") {
		t.Error("text export missing title")
	}

	rec = do(t, srv, http.MethodGet, base+"/export?format=html&charts=false", nil)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if strings.Contains(rec.Body.String(), "<svg") {
		t.Error("charts=false should omit charts")
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "AAPL-onepager.html") {
		t.Errorf("content disposition = %q", rec.Header().Get("Content-Disposition"))
	}

	if rec := do(t, srv, http.MethodGet, base+"/export?format=pdf", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("pdf export status = %d, want 400", rec.Code)
	}
}

func TestSession_Delete(t *testing.T) {
	srv := testServer(t)
	id := createSession(t, srv)
	if rec := do(t, srv, http.MethodDelete, "/api/v1/sessions/"+id, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/v1/sessions/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// WebSocket
// ════════════════════════════════════════════════════════════════════

func TestWebSocket_StreamsSessionEvents(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	id := createSession(t, srv)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?session=" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() WSMessage {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	if msg := read(); msg.Type != "subscribed" || msg.Session != id {
		t.Fatalf("first frame = %+v", msg)
	}

	selectCompany(t, srv, id, "TSLA")
	seen := map[string]bool{}
	for i := 0; i < 10 && !seen[EventCompanySelect]; i++ {
		seen[read().Type] = true
	}
	if !seen[EventCompanySelect] {
		t.Fatalf("company_select not received, saw %v", seen)
	}

	if err := conn.WriteJSON(map[string]string{"type": "search", "query": "nvid"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for i := 0; i < 10 && !seen[EventSearch]; i++ {
		seen[read().Type] = true
	}
	if !seen[EventSearch] {
		t.Errorf("search event not received, saw %v", seen)
	}
}

func TestWSHub_PublishScopedToSession(t *testing.T) {
	hub := NewWSHub(nil)
	a := hub.Register("a")
	b := hub.Register("b")

	hub.Events("a").OnBack()
	select {
	case msg := <-a.send:
		if msg.Type != EventBack || msg.Session != "a" {
			t.Errorf("unexpected message %+v", msg)
		}
	default:
		t.Fatal("subscriber of a got nothing")
	}
	select {
	case msg := <-b.send:
		t.Errorf("subscriber of b got %+v", msg)
	default:
	}

	if hub.ClientCount() != 2 {
		t.Errorf("ClientCount = %d, want 2", hub.ClientCount())
	}
	hub.CloseSession("a")
	if _, ok := <-a.send; ok {
		t.Error("send channel of a should be closed")
	}
	hub.Unregister(a) // no-op after close
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1", hub.ClientCount())
	}
}

func TestWSHub_DropsSlowClients(t *testing.T) {
	hub := NewWSHub(nil)
	c := hub.Register("s")
	for i := 0; i < sendBuffer+1; i++ {
		hub.Publish("s", WSMessage{Type: "x"})
	}
	if hub.ClientCount() != 0 {
		t.Errorf("slow client still registered")
	}
	n := 0
	for range c.send {
		n++
	}
	if n != sendBuffer {
		t.Errorf("buffered %d messages, want %d", n, sendBuffer)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{navigator.ErrUnknownSection, http.StatusBadRequest},
		{favorites.ErrInvalidSymbol, http.StatusBadRequest},
		{datasource.ErrSymbolNotFound, http.StatusNotFound},
		{session.ErrNotFound, http.StatusNotFound},
		{session.ErrNoCompany, http.StatusConflict},
		{search.ErrNoProvider, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
