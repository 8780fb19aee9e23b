package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/statusboard/internal/depgraph"
	"github.com/hamed0406/statusboard/internal/dispatch"
	"github.com/hamed0406/statusboard/internal/history"
	"github.com/hamed0406/statusboard/internal/probe"
	"github.com/hamed0406/statusboard/internal/registry"
)

// Server is the thin boundary layer: it runs a check cycle on demand and
// merges dispatcher results, graph queries and history analytics into one
// JSON payload. It owns no health logic of its own.
type Server struct {
	Logger     *zap.Logger
	Registry   registry.Registry
	Dispatcher *dispatch.Dispatcher
	History    *history.Store
}

func NewServer(l *zap.Logger, reg registry.Registry, d *dispatch.Dispatcher, h *history.Store) *Server {
	return &Server{Logger: l, Registry: reg, Dispatcher: d, History: h}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/impact/{id}", s.handleImpact)

	return r
}

type graphNodeView struct {
	DependsOn   []string `json:"dependsOn"`
	RequiredBy  []string `json:"requiredBy"`
	BlastRadius int      `json:"blastRadius"`
}

type historyView struct {
	Sparklines map[string][]*int64 `json:"sparklines"`
	Uptime     map[string]float64  `json:"uptime"`
	Incidents  []history.Incident  `json:"incidents"`
}

type statusPayload struct {
	Timestamp time.Time                `json:"timestamp"`
	Results   []probe.Result           `json:"results"`
	Graph     map[string]graphNodeView `json:"graph"`
	History   historyView              `json:"history"`
	Groups    []registry.Group         `json:"groups,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	opts := registry.FilterOptions{
		Category:    r.URL.Query().Get("category"),
		Environment: r.URL.Query().Get("environment"),
	}

	results := s.Dispatcher.Run(r.Context(), opts)
	snap := s.History.Append(results)

	g := depgraph.Build(s.Registry.Endpoints)
	graph := make(map[string]graphNodeView, len(g))
	for id, node := range g {
		graph[id] = graphNodeView{
			DependsOn:   node.DependsOn,
			RequiredBy:  node.RequiredBy,
			BlastRadius: depgraph.BlastRadius(g, id),
		}
	}

	writeJSON(w, statusPayload{
		Timestamp: snap.T,
		Results:   results,
		Graph:     graph,
		History: historyView{
			Sparklines: s.History.Sparklines(),
			Uptime:     s.History.Uptimes(),
			Incidents:  s.History.Incidents(),
		},
		Groups: s.Registry.Groups,
	})
}

type impactPayload struct {
	ID            string                  `json:"id"`
	BlastRadius   int                     `json:"blastRadius"`
	CascadeLevels []depgraph.CascadeLevel `json:"cascadeLevels"`
}

func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.Registry.ByID(id); !ok {
		http.Error(w, "unknown endpoint id", http.StatusNotFound)
		return
	}

	g := depgraph.Build(s.Registry.Endpoints)
	writeJSON(w, impactPayload{
		ID:            id,
		BlastRadius:   depgraph.BlastRadius(g, id),
		CascadeLevels: depgraph.CascadeLevels(g, id),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
