// Package stream broadcasts simulation samples to websocket clients as
// the run progresses, for external plotting and monitoring tools.
package stream

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/san-kum/blocksim/internal/sim"
)

const maxClients = 32

// Server accepts websocket connections on /ws and pushes every observed
// sample to all connected clients as a JSON object. It implements
// sim.Observer, so it can be attached directly to a running simulator.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	srv      *http.Server

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

func NewServer(addr string) *Server {
	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start binds the listener and serves in the background. The bind error,
// if any, is returned synchronously.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()
	go s.srv.Serve(ln)
	return nil
}

// Addr returns the bound address, useful when starting on port 0.
func (s *Server) Addr() string { return s.addr }

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	n := len(s.clients)
	s.mu.RUnlock()
	if n >= maxClients {
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	// Drain control frames; a read error means the client is gone.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if s.clients[conn] {
		delete(s.clients, conn)
		conn.Close()
	}
	s.mu.Unlock()
}

// wireSample is the JSON layout pushed to clients.
type wireSample struct {
	Time   float64   `json:"time"`
	State  []float64 `json:"state"`
	Output []float64 `json:"output"`
	Event  int       `json:"event"`
}

// OnSample implements sim.Observer.
func (s *Server) OnSample(sample sim.Sample) {
	msg, err := json.Marshal(wireSample{
		Time:   sample.Time,
		State:  sample.State,
		Output: sample.Output,
		Event:  sample.Event,
	})
	if err != nil {
		return
	}

	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.drop(conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Shutdown closes all client connections and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.mu.Unlock()
	return s.srv.Shutdown(ctx)
}
