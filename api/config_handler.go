package api

import (
	"net/http"

	"github.com/seenimoa/onepager/internal/config"
)

// ConfigView is the non-sensitive part of the running configuration
// returned by GET /api/v1/config.
type ConfigView struct {
	Search struct {
		DebounceMS int `json:"debounce_ms"`
		TimeoutMS  int `json:"timeout_ms"`
		MaxResults int `json:"max_results"`
	} `json:"search"`
	Data struct {
		Catalog  string `json:"catalog"`
		CacheTTL int    `json:"cache_ttl"`
		Fixtures string `json:"fixtures_path,omitempty"`
	} `json:"data"`
	News struct {
		Provider string   `json:"provider"`
		Feeds    []string `json:"feeds,omitempty"`
		Limit    int      `json:"limit"`
	} `json:"news"`
	Report struct {
		Format string `json:"format"`
	} `json:"report"`
}

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	Version     string             `json:"version"`
	Catalog     string             `json:"catalog"`
	News        string             `json:"news"`
	Sessions    int                `json:"sessions"`
	Subscribers int                `json:"subscribers"`
	Keys        []config.KeyStatus `json:"keys"`
}

func newConfigView(cfg *config.Config) ConfigView {
	var v ConfigView
	v.Search.DebounceMS = cfg.Search.DebounceMS
	v.Search.TimeoutMS = cfg.Search.TimeoutMS
	v.Search.MaxResults = cfg.Search.MaxResults
	v.Data.Catalog = cfg.Data.Catalog
	v.Data.CacheTTL = cfg.Data.CacheTTL
	v.Data.Fixtures = cfg.Data.FixturesPath
	v.News.Provider = cfg.News.Provider
	if cfg.News.Provider == "rss" {
		v.News.Feeds = cfg.News.Feeds
	}
	v.News.Limit = cfg.News.Limit
	v.Report.Format = cfg.Report.Format
	return v
}

// handleGetConfig returns the running configuration without credentials.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: newConfigView(s.cfg)})
}

// handleGetConfigKeys returns the status of all sensitive API keys.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: config.CheckAPIKeys(s.cfg)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: StatusResponse{
			Version:     s.deps.Version,
			Catalog:     s.cfg.Data.Catalog,
			News:        s.cfg.News.Provider,
			Sessions:    s.sessions.Len(),
			Subscribers: s.wsHub.ClientCount(),
			Keys:        config.CheckAPIKeys(s.cfg),
		},
	})
}
