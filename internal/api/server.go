// Package api provides the HTTP API for observing and steering the colony.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/ecs"
	"github.com/talgya/hearthfall/internal/game"
	"github.com/talgya/hearthfall/internal/persistence"
)

// Server serves the colony state over HTTP.
type Server struct {
	Sim      *game.Simulation
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// Snapshots hit the database; keep the endpoint from being hammered.
	snapshotLimiter := NewRateLimiter(30, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/citizens", s.handleCitizens)
	mux.HandleFunc("/api/v1/buildings", s.handleBuildings)
	mux.HandleFunc("/api/v1/resources", s.handleResources)
	mux.HandleFunc("/api/v1/nodes", s.handleNodes)
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// WebSocket event stream.
	mux.HandleFunc("/api/v1/stream", s.handleStream())

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("/api/v1/place", s.adminOnly(s.handlePlace))
	mux.HandleFunc("/api/v1/demolish", s.adminOnly(s.handleDemolish))
	mux.HandleFunc("/api/v1/spawn", s.adminOnly(s.handleSpawn))
	mux.HandleFunc("/api/v1/snapshot", RateLimitMiddleware(snapshotLimiter, s.adminOnly(s.handleSnapshot)))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that serve both).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no HEARTHFALL_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var citizens, buildings, sites, nodes int
	s.Sim.View(func(world *ecs.World) {
		citizens = ecs.Count[components.Citizen](world)
		ecs.Each(world, func(e ecs.Entity, b components.Building) {
			buildings++
			if !b.Constructed {
				sites++
			}
		})
		nodes = ecs.Count[components.ResourceNode](world)
	})

	writeJSON(w, map[string]any{
		"name":               "Hearthfall",
		"tick":               s.Sim.Tick(),
		"elapsed":            s.Sim.ElapsedTime(),
		"time_scale":         s.Sim.TimeScale(),
		"paused":             s.Sim.Paused(),
		"citizens":           citizens,
		"buildings":          buildings,
		"under_construction": sites,
		"resource_nodes":     nodes,
		"totals":             s.Sim.Totals(),
	})
}

func (s *Server) handleCitizens(w http.ResponseWriter, r *http.Request) {
	type citizenSummary struct {
		ID      uint64                 `json:"id"`
		Name    string                 `json:"name"`
		Job     components.JobType     `json:"job"`
		State   components.CitizenState `json:"state"`
		X       float64                `json:"x"`
		Z       float64                `json:"z"`
		Hunger  float64                `json:"hunger"`
		Fatigue float64                `json:"fatigue"`
		Mood    float64                `json:"mood"`
		Carry   *components.Carry      `json:"carry,omitempty"`
	}

	result := []citizenSummary{}
	s.Sim.View(func(world *ecs.World) {
		ecs.Each(world, func(e ecs.Entity, cit components.Citizen) {
			entry := citizenSummary{
				ID:      uint64(e),
				Name:    cit.Name,
				State:   cit.State,
				Hunger:  cit.Hunger,
				Fatigue: cit.Fatigue,
				Mood:    cit.Mood,
			}
			if job, ok := ecs.Get[components.JobAssignment](world, e); ok {
				entry.Job = job.Job
			}
			if tr, ok := ecs.Get[components.Transform](world, e); ok {
				entry.X, entry.Z = tr.Position.X, tr.Position.Z
			}
			if carry, ok := ecs.Get[components.Carry](world, e); ok {
				entry.Carry = &carry
			}
			result = append(result, entry)
		})
	})
	writeJSON(w, result)
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	type buildingSummary struct {
		ID          uint64                      `json:"id"`
		Type        components.BuildingType     `json:"type"`
		Constructed bool                        `json:"constructed"`
		X           float64                     `json:"x"`
		Z           float64                     `json:"z"`
		Progress    float64                     `json:"progress,omitempty"`
		Stocked     bool                        `json:"stocked"`
		Storage     components.ResourceAmounts  `json:"storage,omitempty"`
	}

	result := []buildingSummary{}
	s.Sim.View(func(world *ecs.World) {
		ecs.Each(world, func(e ecs.Entity, b components.Building) {
			entry := buildingSummary{
				ID:          uint64(e),
				Type:        b.Type,
				Constructed: b.Constructed,
				Stocked:     b.Constructed,
			}
			if tr, ok := ecs.Get[components.Transform](world, e); ok {
				entry.X, entry.Z = tr.Position.X, tr.Position.Z
			}
			if site, ok := ecs.Get[components.ConstructionSite](world, e); ok {
				if site.BuildTime > 0 {
					entry.Progress = site.BuildProgress / site.BuildTime
				}
				entry.Stocked = site.Stocked()
			}
			if st, ok := ecs.Get[components.Storage](world, e); ok {
				entry.Storage = st.Contents.Clone()
			}
			result = append(result, entry)
		})
	})
	writeJSON(w, result)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Totals())
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	type nodeSummary struct {
		ID       uint64                  `json:"id"`
		Resource components.ResourceType `json:"resource"`
		Amount   int                     `json:"amount"`
		Max      int                     `json:"max"`
		Depleted bool                    `json:"depleted"`
		X        float64                 `json:"x"`
		Z        float64                 `json:"z"`
	}

	result := []nodeSummary{}
	s.Sim.View(func(world *ecs.World) {
		ecs.Each(world, func(e ecs.Entity, n components.ResourceNode) {
			entry := nodeSummary{
				ID:       uint64(e),
				Resource: n.Resource,
				Amount:   n.Amount,
				Max:      n.MaxAmount,
				Depleted: ecs.Has[components.DepletedResource](world, e),
			}
			if tr, ok := ecs.Get[components.Transform](world, e); ok {
				entry.X, entry.Z = tr.Position.X, tr.Position.Z
			}
			result = append(result, entry)
		})
	})
	writeJSON(w, result)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.Events()

	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []game.Record
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Scale float64 `json:"scale"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Scale <= 0 || req.Scale > 100 {
			http.Error(w, "scale must be in (0, 100]", http.StatusBadRequest)
			return
		}
		s.Sim.SetTimeScale(req.Scale)
		slog.Info("time scale changed", "scale", req.Scale)
	}
	writeJSON(w, map[string]float64{"scale": s.Sim.TimeScale()})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Paused bool `json:"paused"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		s.Sim.SetPaused(req.Paused)
		slog.Info("pause toggled", "paused", req.Paused)
	}
	writeJSON(w, map[string]bool{"paused": s.Sim.Paused()})
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Type components.BuildingType `json:"type"`
		X    float64                 `json:"x"`
		Z    float64                 `json:"z"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	switch req.Type {
	case components.BuildingStorehouse, components.BuildingFarm, components.BuildingHouse:
	default:
		http.Error(w, "unknown building type", http.StatusBadRequest)
		return
	}

	s.Sim.PlaceBuilding(req.Type, components.Vec3{X: req.X, Z: req.Z})
	writeJSON(w, map[string]any{"queued": true})
}

func (s *Server) handleDemolish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID uint64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	s.Sim.DemolishBuilding(ecs.Entity(req.ID))
	writeJSON(w, map[string]any{"queued": true})
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Job components.JobType `json:"job"`
		X   float64            `json:"x"`
		Z   float64            `json:"z"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Job == "" {
		req.Job = components.JobNone
	}

	e := s.Sim.SpawnCitizen(req.Job, components.Vec3{X: req.X, Z: req.Z})
	writeJSON(w, map[string]any{"id": uint64(e)})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	snap, err := s.Sim.Snapshot()
	if err != nil {
		slog.Error("snapshot failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	if err := s.DB.SaveSnapshot(snap); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"id": snap.ID, "tick": snap.Tick})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
