package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seenimoa/onepager/internal/logging"
	"github.com/seenimoa/onepager/internal/navigator"
	"github.com/seenimoa/onepager/internal/search"
	"github.com/seenimoa/onepager/internal/session"
	"github.com/seenimoa/onepager/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS already restricts browser origins for the REST calls
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer = 64
)

// Event types pushed to session subscribers.
const (
	EventSearch         = "search"
	EventSearchResults  = "search_results"
	EventCompanySelect  = "company_select"
	EventSectionChange  = "section_change"
	EventAddToFavorites = "add_to_favorites"
	EventLogin          = "login"
	EventLogout         = "logout"
	EventShowFavorites  = "show_favorites"
	EventBack           = "back"
)

// WSMessage is one frame on the event stream.
type WSMessage struct {
	Type    string      `json:"type"`
	Session string      `json:"session,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Time    time.Time   `json:"time"`
}

// WSClient represents a single WebSocket connection subscribed to one
// session.
type WSClient struct {
	session string
	send    chan WSMessage
}

// WSHub fans session events out to that session's subscribers.
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]map[*WSClient]struct{}
	logger  *logging.Logger
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub(logger *logging.Logger) *WSHub {
	return &WSHub{
		clients: make(map[string]map[*WSClient]struct{}),
		logger:  logging.OrSilent(logger),
	}
}

// Register subscribes a new client to sessionID.
func (h *WSHub) Register(sessionID string) *WSClient {
	c := &WSClient{session: sessionID, send: make(chan WSMessage, sendBuffer)}
	h.mu.Lock()
	set, ok := h.clients[sessionID]
	if !ok {
		set = make(map[*WSClient]struct{})
		h.clients[sessionID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// Unregister removes a client and closes its send channel.
func (h *WSHub) Unregister(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *WSHub) removeLocked(c *WSClient) {
	set, ok := h.clients[c.session]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.session)
	}
}

// Publish delivers msg to every subscriber of sessionID. Subscribers whose
// buffer is full are disconnected.
func (h *WSHub) Publish(sessionID string, msg WSMessage) {
	msg.Session = sessionID
	if msg.Time.IsZero() {
		msg.Time = time.Now().UTC()
	}

	var slow []*WSClient
	h.mu.RLock()
	for c := range h.clients[sessionID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range slow {
		h.removeLocked(c)
	}
	h.mu.Unlock()
	h.logger.Warn().Str("session", sessionID).Int("dropped", len(slow)).Msg("Disconnected slow WebSocket clients")
}

// Send delivers msg to one registered client. It reports false when the
// client is gone or its buffer is full.
func (h *WSHub) Send(c *WSClient, msg WSMessage) bool {
	msg.Session = c.session
	if msg.Time.IsZero() {
		msg.Time = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.session][c]; !ok {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// CloseSession disconnects every subscriber of sessionID.
func (h *WSHub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[sessionID] {
		h.removeLocked(c)
	}
}

// Close disconnects every client.
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.removeLocked(c)
		}
	}
}

// Events returns the session.Events sink that publishes to sessionID's
// subscribers.
func (h *WSHub) Events(sessionID string) session.Events {
	return hubEvents{hub: h, id: sessionID}
}

type hubEvents struct {
	hub *WSHub
	id  string
}

var _ session.Events = hubEvents{}

func (e hubEvents) publish(typ string, data interface{}) {
	e.hub.Publish(e.id, WSMessage{Type: typ, Data: data})
}

func (e hubEvents) OnSearch(query string) {
	e.publish(EventSearch, map[string]string{"query": query})
}

func (e hubEvents) OnSearchResults(st search.State) { e.publish(EventSearchResults, st) }

func (e hubEvents) OnCompanySelect(c models.Company) { e.publish(EventCompanySelect, c) }

func (e hubEvents) OnSectionChange(s navigator.Section) {
	e.publish(EventSectionChange, map[string]interface{}{
		"section":  s,
		"progress": navigator.Progress(s.ID),
	})
}

func (e hubEvents) OnAddToFavorites(symbol string) {
	e.publish(EventAddToFavorites, map[string]string{"symbol": symbol})
}

func (e hubEvents) OnLogin()         { e.publish(EventLogin, nil) }
func (e hubEvents) OnLogout()        { e.publish(EventLogout, nil) }
func (e hubEvents) OnShowFavorites() { e.publish(EventShowFavorites, nil) }
func (e hubEvents) OnBack()          { e.publish(EventBack, nil) }

// clientMessage is a frame sent by the browser.
type clientMessage struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
}

// handleWebSocket upgrades GET /api/v1/ws?session={id} and streams that
// session's events. Clients may also send search keystrokes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.URL.Query().Get("session"))
	if err != nil {
		writeErr(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := s.wsHub.Register(sess.ID)
	s.wsHub.Send(client, WSMessage{Type: "subscribed", Data: sess.View()})

	go wsWritePump(conn, client)
	go s.wsReadPump(conn, client, sess)
}

// wsReadPump reads client frames until the connection drops.
func (s *Server) wsReadPump(conn *websocket.Conn, client *WSClient, sess *session.Session) {
	defer func() {
		s.wsHub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Str("session", client.session).Msg("WebSocket read error")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "search":
			sess.Search(msg.Query)
		case "dismiss":
			sess.DismissSearch()
		case "focus":
			sess.FocusSearch()
		case "ping":
			s.wsHub.Send(client, WSMessage{Type: "pong"})
		}
	}
}

// wsWritePump pumps messages from the hub to the WebSocket connection.
func wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
