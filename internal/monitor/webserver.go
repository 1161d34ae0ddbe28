// Package monitor serves a small HTTP interface over live observation groups:
// JSON state for tooling plus rendered ECharts pages for quick visual checks
// without a plotting toolchain on the host.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/plasmadiag/sightline/internal/monitoring"
	"github.com/plasmadiag/sightline/internal/observer"
	"github.com/plasmadiag/sightline/internal/storage"
)

// WebServer handles the HTTP interface for monitoring observation groups.
type WebServer struct {
	address string
	groups  []observer.GroupView
	db      *storage.DB
	server  *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Groups  []observer.GroupView
	DB      *storage.DB
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		groups:  config.Groups,
		db:      config.DB,
	}
	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.Routes(),
	}
	return ws
}

// Routes configures the HTTP routes and handlers.
func (ws *WebServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/groups", ws.handleGroups)
	mux.HandleFunc("/api/signals", ws.handleSignals)
	mux.HandleFunc("/api/runs", ws.handleRuns)
	mux.HandleFunc("/charts/signals", ws.handleSignalChart)
	mux.HandleFunc("/charts/spectra", ws.handleSpectraChart)

	return mux
}

// Start begins the HTTP server in a goroutine and shuts it down when the
// context is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("starting monitor HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("monitor server error: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down monitor HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("monitor server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("monitor server force close error: %v", err)
		}
	}
	return nil
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("monitor JSON encode error: %v", err)
	}
}

// findGroup resolves the group query parameter. An empty name selects the
// first registered group.
func (ws *WebServer) findGroup(name string) (observer.GroupView, bool) {
	if len(ws.groups) == 0 {
		return nil, false
	}
	if name == "" {
		return ws.groups[0], true
	}
	for _, g := range ws.groups {
		if g.Name() == name {
			return g, true
		}
	}
	return nil, false
}

// parseItem turns the item query parameter into a pipeline lookup key:
// a decimal integer becomes a positional index, anything else is a name.
// A missing parameter selects pipeline 0.
func parseItem(raw string) any {
	if raw == "" {
		return 0
	}
	if idx, err := strconv.Atoi(raw); err == nil {
		return idx
	}
	return raw
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, map[string]any{"status": "ok", "groups": len(ws.groups)})
}

type pipelineState struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Samples int    `json:"samples"`
}

type sensorState struct {
	Index     int             `json:"index"`
	Name      string          `json:"name"`
	Pipelines []pipelineState `json:"pipelines"`
}

type groupState struct {
	Name    string        `json:"name"`
	Size    int           `json:"size"`
	Sensors []sensorState `json:"sensors"`
}

func (ws *WebServer) handleGroups(w http.ResponseWriter, r *http.Request) {
	states := make([]groupState, 0, len(ws.groups))
	for _, g := range ws.groups {
		gs := groupState{Name: g.Name(), Size: g.Len()}
		for i, sensor := range g.Observers() {
			ss := sensorState{Index: i, Name: sensor.Name()}
			for _, pipe := range sensor.Pipelines() {
				ss.Pipelines = append(ss.Pipelines, pipelineState{
					Name:    pipe.Name,
					Kind:    pipe.Kind().String(),
					Samples: pipe.SampleCount(),
				})
			}
			gs.Sensors = append(gs.Sensors, ss)
		}
		states = append(states, gs)
	}
	ws.writeJSON(w, states)
}

func (ws *WebServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}
	runs, err := ws.db.ListRuns(r.Context())
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ws.writeJSON(w, runs)
}
