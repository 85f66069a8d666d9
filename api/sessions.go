package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/onepager/internal/navigator"
	"github.com/seenimoa/onepager/internal/report"
	"github.com/seenimoa/onepager/internal/session"
	"github.com/seenimoa/onepager/pkg/models"
)

// sessionFrom resolves the {id} URL parameter, writing a 404 when it is
// unknown.
func (s *Server) sessionFrom(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: sess.View()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sess.View()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(id); err != nil {
		writeErr(w, err)
		return
	}
	s.wsHub.CloseSession(id)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]string{"deleted": id}})
}

// --- Search ---

func (s *Server) handleSearchState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sess.SearchState()})
}

// handleSearch forwards a keystroke. Results arrive asynchronously over the
// event stream; the response carries the state right after the keystroke.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	var req SearchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.Search(req.Query)
	writeJSON(w, http.StatusAccepted, APIResponse{Success: true, Data: sess.SearchState()})
}

func (s *Server) handleSearchDismiss(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	sess.DismissSearch()
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sess.SearchState()})
}

func (s *Server) handleSearchFocus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	sess.FocusSearch()
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sess.SearchState()})
}

// --- Selection ---

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	var req SelectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if _, err := sess.Select(r.Context(), req.Symbol); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sess.View()})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	sess.Back()
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sess.View()})
}

// --- Navigation ---

func (s *Server) handleCurrentSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	p, err := sess.CurrentSection()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: p})
}

func (s *Server) handleSetSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	var req SectionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.SelectSection(req.ID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sess.ActiveSection()})
}

func (s *Server) handleNextSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sess.NextSection()})
}

func (s *Server) handlePrevSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sess.PrevSection()})
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	sid, err := strconv.Atoi(chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "section id must be a number")
		return
	}
	p, err := sess.Section(navigator.SectionID(sid))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: p})
}

// --- Favorites & identity ---

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	res, err := sess.ToggleFavorite()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sess.ShowFavorites()})
}

// handleLogin accepts the identity from the auth collaborator. Without one
// the session emits its login signal so the client can start the flow.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	user := userFromRequest(r)
	if !sess.Login(user) {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: LoginResponse{RequiresLogin: true}})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: LoginResponse{LoggedIn: true, User: sess.User()}})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	sess.Logout()
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: LoginResponse{}})
}

func userFromRequest(r *http.Request) *models.User {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return &models.User{ID: id, Name: strings.TrimSpace(r.Header.Get("X-User-Name"))}
	}
	if r.ContentLength == 0 {
		return nil
	}
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.ID) == "" {
		return nil
	}
	return &models.User{ID: strings.TrimSpace(req.ID), Name: strings.TrimSpace(req.Name)}
}

// --- Export ---

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("format")
	if name == "" {
		name = s.cfg.Report.Format
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := report.DefaultExportOptions()
	opts.Format = format
	if v := r.URL.Query().Get("charts"); v != "" {
		if charts, err := strconv.ParseBool(v); err == nil {
			opts.Charts = charts
		}
	}

	rs, err := sess.Records()
	if err != nil {
		writeErr(w, err)
		return
	}
	var buf bytes.Buffer
	if err := report.Export(&buf, rs, opts); err != nil {
		writeErr(w, err)
		return
	}

	ext := "txt"
	if format == report.FormatHTML {
		ext = "html"
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s-onepager.%s"`, rs.Company.Symbol, ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
