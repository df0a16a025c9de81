package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alisaviation/metricboard/internal/logger"
	"github.com/alisaviation/metricboard/internal/models"
	"github.com/alisaviation/metricboard/internal/registry"
	"github.com/alisaviation/metricboard/internal/scheduler"
	"github.com/alisaviation/metricboard/internal/store"
)

// Server is the thin presentation layer over the registry, store and
// scheduler. Catalog is optional; when set, source changes are persisted
// best-effort.
type Server struct {
	Registry  *registry.Registry
	Store     *store.Store
	Scheduler *scheduler.Scheduler
	Catalog   *registry.Catalog
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.GetDashboard)
	r.Get("/api/snapshot", s.GetSnapshot)
	r.Get("/api/sources", s.GetSources)
	r.Post("/api/sources", s.AddSource)
	r.Delete("/api/sources/{id}", s.DeleteSource)
	r.Post("/api/refresh", s.TriggerRefresh)
	r.Put("/api/settings", s.UpdateSettings)
	r.Get("/api/status", s.GetStatus)
}

func (s *Server) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot := s.Store.Snapshot()

	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	var response strings.Builder
	response.WriteString("<html><body><h1>Metrics</h1>")
	response.WriteString("<p>" + html.EscapeString(s.Scheduler.Status()) + "</p>")
	response.WriteString("<table border=\"1\"><tr><th>Name</th><th>Aggregate</th><th>Samples</th></tr>")
	for _, name := range names {
		entry := snapshot[name]
		response.WriteString("<tr><td>" + html.EscapeString(name) + "</td>")
		response.WriteString("<td>" + store.FormatValue(entry.Aggregate) + "</td><td><ul>")
		for _, m := range entry.Records {
			response.WriteString(fmt.Sprintf("<li>%s%s = %s (%s)</li>",
				html.EscapeString(m.Name),
				html.EscapeString(formatLabels(m.Labels)),
				store.FormatValue(m.Value),
				html.EscapeString(m.Source)))
		}
		response.WriteString("</ul></td></tr>")
	}
	response.WriteString("</table></body></html>")

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(response.String()))
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Store.Snapshot())
}

func (s *Server) GetSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Registry.List())
}

func (s *Server) AddSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	kind := models.SourceKind(req.Kind)
	if kind == "" {
		kind = models.Remote
	}
	if kind != models.Remote && kind != models.Local {
		http.Error(w, "Bad Request: invalid source kind", http.StatusBadRequest)
		return
	}

	src, err := s.Registry.Add(kind, req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.Catalog != nil {
		if err := s.Catalog.Save(r.Context(), src); err != nil {
			logger.Log.Warn("failed to persist source", zap.String("id", src.ID), zap.Error(err))
		}
	}

	// Adding a source triggers a refresh cycle. The request context would be
	// canceled as soon as this handler returns, so the cycle gets its own.
	go s.Scheduler.Refresh(context.Background())

	writeJSON(w, src)
}

func (s *Server) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Registry.Remove(id) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if s.Catalog != nil {
		if err := s.Catalog.Delete(r.Context(), id); err != nil {
			logger.Log.Warn("failed to delete persisted source", zap.String("id", id), zap.Error(err))
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	s.Scheduler.Refresh(r.Context())
	writeJSON(w, map[string]string{"status": s.Scheduler.Status()})
}

func (s *Server) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := make(map[string]any)
	if v, ok := req["interval"]; ok {
		d := s.Scheduler.SetInterval(fmt.Sprint(v))
		resp["interval"] = d.Seconds()
	}
	if v, ok := req["autoRefresh"]; ok {
		enabled, ok := v.(bool)
		if !ok {
			http.Error(w, "Bad Request: autoRefresh must be a boolean", http.StatusBadRequest)
			return
		}
		s.Scheduler.SetAutoRefresh(enabled)
		resp["autoRefresh"] = enabled
	}

	writeJSON(w, resp)
}

func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"state":  string(s.Scheduler.State()),
		"status": s.Scheduler.Status(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	jsonData, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(jsonData)
}
