// Package apiserver exposes a running Simple86 machine over HTTP: a
// GET /state snapshot endpoint and a GET /ws WebSocket stream that
// pushes a fresh snapshot after every step, so a TUI, GUI, or any other
// client can attach to a machine driven from elsewhere.
package apiserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jpsantos/simple86/vm"
)

// Server serves one machine's state over HTTP and WebSocket.
type Server struct {
	machine     *vm.Machine
	broadcaster *Broadcaster
	mux         *http.ServeMux
	server      *http.Server
	addr        string

	memoryBase   int16
	memoryWindow int
}

// NewServer wraps a machine for serving. addr is the listen address
// (host:port). The memory window reported in every snapshot starts at
// base and spans window words.
func NewServer(m *vm.Machine, addr string, base int16, window int) *Server {
	s := &Server{
		machine:      m,
		broadcaster:  NewBroadcaster(),
		mux:          http.NewServeMux(),
		addr:         addr,
		memoryBase:   base,
		memoryWindow: window,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/state", s.handleState)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/", s.handleNotFound)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("no such route: %s", r.URL.Path))
}

// Handler returns the HTTP handler with CORS middleware applied.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start runs the HTTP server, blocking until it stops or errors.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("apiserver: listening on http://%s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and disconnects WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.broadcaster.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// NotifyStep publishes the machine's current state to every connected
// WebSocket client. Callers drive the machine (e.g. a -api-server
// command-line loop, or a debugger's continue/step commands) and call
// this after each step so the broadcaster stays a pure fan-out with no
// stepping logic of its own.
func (s *Server) NotifyStep() {
	s.broadcaster.Broadcast(toStateResponse(s.machine.Snapshot(s.memoryBase, s.memoryWindow)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.broadcaster.SubscriptionCount(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.machine.Snapshot(s.memoryBase, s.memoryWindow)
	writeJSON(w, http.StatusOK, toStateResponse(snap))
}

// corsMiddleware restricts cross-origin requests to localhost, matching
// a local debugging tool's threat model: browsers on the same machine,
// never a remote origin.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if isAllowedOrigin(origin) && origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://127.0.0.1") {
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("apiserver: error encoding JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
