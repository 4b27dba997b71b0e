// Package monitor serves a read-only HTTP view of a running device.
package monitor

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/sarchlab/simtsim/timing/gpu"
)

// Server keeps the most recent snapshot and statistics of a device and
// serves them as JSON. Its Trace method makes it a gpu.Tracer.
type Server struct {
	mu       sync.RWMutex
	snapshot gpu.Snapshot
	stats    gpu.Statistics
	traced   uint64

	router *mux.Router
}

// NewServer creates a Server with its routes registered.
func NewServer() *Server {
	s := &Server{router: mux.NewRouter()}

	// Routes stay on the root router: a method mismatch on a subrouter
	// answers 404 instead of 405.
	s.router.HandleFunc("/api/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	s.router.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	s.router.HandleFunc("/api/cores/{id:[0-9]+}", s.handleCore).Methods(http.MethodGet)
	s.router.HandleFunc("/api/cores/{id:[0-9]+}/lanes/{lane:[0-9]+}", s.handleLane).
		Methods(http.MethodGet)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Trace records the latest snapshot.
func (s *Server) Trace(snap gpu.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	s.traced++
}

// UpdateStats records the latest statistics.
func (s *Server) UpdateStats(stats gpu.Statistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

// Traced returns the number of snapshots recorded.
func (s *Server) Traced() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.traced
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.snapshot)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSON(w, http.StatusOK, struct {
		gpu.Statistics
		CPI float64 `json:"cpi"`
	}{s.stats, s.stats.CPI()})
}

func (s *Server) handleCore(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.RLock()
	defer s.mu.RUnlock()

	if id >= len(s.snapshot.Cores) {
		writeError(w, http.StatusNotFound, "no such core")
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot.Cores[id])
}

func (s *Server) handleLane(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, _ := strconv.Atoi(vars["id"])
	lane, _ := strconv.Atoi(vars["lane"])

	s.mu.RLock()
	defer s.mu.RUnlock()

	if id >= len(s.snapshot.Cores) {
		writeError(w, http.StatusNotFound, "no such core")
		return
	}
	lanes := s.snapshot.Cores[id].Lanes
	if lane >= len(lanes) {
		writeError(w, http.StatusNotFound, "no such lane")
		return
	}
	writeJSON(w, http.StatusOK, lanes[lane])
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
