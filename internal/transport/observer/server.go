// Package observer streams a running simulation's per-step stats to
// read-only websocket clients. The server carries no simulation state
// of its own: it remembers the latest stats written to it and fans new
// ones out to whoever is connected.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fgamador/evo2/internal/protocol"
	"github.com/fgamador/evo2/internal/sim/world"
)

// RunInfo identifies the run being observed.
type RunInfo struct {
	RunID    string
	Scenario string
	Seed     int64
}

type Server struct {
	info RunInfo
	log  *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	last    world.TickStats
	clients map[uint64]chan []byte
}

func NewServer(info RunInfo, logger *log.Logger) *Server {
	return &Server{
		info: info,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8 * 1024,
			WriteBufferSize: 8 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[uint64]chan []byte{},
	}
}

// Handler routes the observer endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/bootstrap", s.handleBootstrap)
	mux.HandleFunc("/v1/ws", s.handleWS)
	return mux
}

// WriteTick implements world.StatsLogger. It remembers the stats for
// future bootstraps and pushes a TICK message to every client. A client
// whose buffer is full is dropped rather than allowed to stall the
// simulation loop.
func (s *Server) WriteTick(ts world.TickStats) error {
	b, err := json.Marshal(protocol.NewTickMsg(ts))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.last = ts
	for id, ch := range s.clients {
		select {
		case ch <- b:
		default:
			delete(s.clients, id)
			close(ch)
			if s.log != nil {
				s.log.Printf("observer %d dropped: too slow", id)
			}
		}
	}
	s.mu.Unlock()
	return nil
}

// NumClients reports how many observers are connected.
func (s *Server) NumClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every observer.
func (s *Server) Close() {
	s.mu.Lock()
	for id, ch := range s.clients {
		delete(s.clients, id)
		close(ch)
	}
	s.mu.Unlock()
}

func (s *Server) handleBootstrap(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}

	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	resp := protocol.BootstrapResponse{
		ProtocolVersion: protocol.Version,
		RunID:           s.info.RunID,
		Scenario:        s.info.Scenario,
		Seed:            s.info.Seed,
		Tick:            last.Tick,
		Cells:           last.Cells,
		Food:            last.Food,
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(resp)
}

func (s *Server) handleWS(rw http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id := s.nextID.Add(1)
	out := make(chan []byte, 64)
	s.mu.Lock()
	s.clients[id] = out
	s.mu.Unlock()
	defer s.removeClient(id)

	// Writer goroutine. Closing the connection here also unblocks the
	// read loop below when the client is dropped server-side.
	go func() {
		defer conn.Close()
		for b := range out {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
	}()

	// Read loop: the transport is one-way, so incoming payloads are
	// ignored; reading still services close frames and detects hangups.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(id uint64) {
	s.mu.Lock()
	if ch, ok := s.clients[id]; ok {
		delete(s.clients, id)
		close(ch)
	}
	s.mu.Unlock()
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
