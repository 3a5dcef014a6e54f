// internal/ws/ws.go
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tablemirror/settlers/internal/auth"
	"github.com/tablemirror/settlers/internal/cache"
	"github.com/tablemirror/settlers/internal/command"
	"github.com/tablemirror/settlers/internal/table"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 64
)

// reply is the direct response to one operator command; broadcasts use
// table.Event.
type reply struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// client is one connected websocket with its outbound queue.
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	tableID uuid.UUID
	role    auth.Role
	addr    string
}

// Server accepts websocket connections, authenticates them against a table
// token, feeds operator lines to the command dispatcher, and fans table
// events out to everyone watching that table.
type Server struct {
	Tables     *table.Manager
	Auth       *auth.Service
	Dispatcher *command.Dispatcher
	Presence   *cache.Cache // optional; nil disables presence markers

	mu      sync.Mutex
	clients map[uuid.UUID]map[*client]struct{}
}

// NewServer wires a transport over the table registry. Tables created later
// must have their BroadcastFn pointed at (*Server).Broadcast.
func NewServer(tables *table.Manager, authSvc *auth.Service, dispatcher *command.Dispatcher) *Server {
	return &Server{
		Tables:     tables,
		Auth:       authSvc,
		Dispatcher: dispatcher,
		clients:    make(map[uuid.UUID]map[*client]struct{}),
	}
}

// Mount registers the websocket and health endpoints.
func (s *Server) Mount(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

// Broadcast sends a table event to every client watching that table. Safe
// to call from under a table lock: sends are non-blocking and slow clients
// drop messages rather than stall the game.
func (s *Server) Broadcast(ev table.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).Error("marshal event")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients[ev.TableID] {
		select {
		case c.send <- data:
		default:
			logrus.WithField("table", ev.TableID).Warn("dropping event for slow client")
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	claims, err := s.Auth.ParseToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	tbl, err := s.Tables.Resolve(claims.TableID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket accept failed")
		return
	}

	c := &client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		tableID: claims.TableID,
		role:    claims.Role,
		addr:    r.RemoteAddr,
	}
	s.register(c)
	defer s.unregister(c)

	log := logrus.WithFields(logrus.Fields{"table": claims.TableID, "role": claims.Role})
	log.Info("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go c.writeLoop(ctx)

	if claims.Role == auth.RoleOperator {
		if err := s.Presence.MarkPresent(ctx, claims.TableID, r.RemoteAddr); err != nil {
			log.WithError(err).Warn("presence mark failed")
		}
	}

	// Late joiners get the full derived state immediately.
	tbl.SyncState()

	s.readLoop(ctx, c, tbl, log)
	conn.Close(websocket.StatusNormalClosure, "bye")
	log.Info("client disconnected")
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c.tableID] == nil {
		s.clients[c.tableID] = make(map[*client]struct{})
	}
	s.clients[c.tableID][c] = struct{}{}
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients[c.tableID], c)
	if len(s.clients[c.tableID]) == 0 {
		delete(s.clients, c.tableID)
	}
}

// readLoop consumes operator command lines. Spectators can connect but any
// line they send is refused.
func (s *Server) readLoop(ctx context.Context, c *client, tbl *table.Table, log *logrus.Entry) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		line := string(data)
		if c.role != auth.RoleOperator {
			s.replyTo(c, "spectators cannot submit commands")
			continue
		}
		// Presence has a short TTL; each command line refreshes it.
		s.Presence.MarkPresent(ctx, c.tableID, c.addr)
		text, err := s.Dispatcher.Execute(ctx, tbl, line)
		if err != nil {
			// Consistency failure: report loudly but keep serving; the
			// operator may still !undo or !load a good state.
			log.WithError(err).Error("tracker consistency failure")
		}
		if text != "" {
			s.replyTo(c, text)
		}
	}
}

func (s *Server) replyTo(c *client, text string) {
	data, err := json.Marshal(reply{Type: "reply", Text: text})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writeLoop owns the connection's write side: queued messages plus pings.
func (c *client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(wctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
