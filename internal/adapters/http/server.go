// Package http exposes a module over a JSON API. Mutations are serialized
// through one mutex because the engine itself is single-threaded.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/cadence/internal/runtime"
	"github.com/aretw0/cadence/pkg/document"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/expr"
)

// Engine is the module surface the API serves.
type Engine interface {
	AddEntity(parent int, sources map[string]string) (int, error)
	RemoveEntity(id int, mode runtime.RemoveMode) error
	SetVariable(id int, name, source string) error
	SetStringVariable(id int, name, text string) error
	GetVariable(id int, name string) (expr.Value, error)
	EvaluateAll() (map[int]map[string]expr.Value, error)
	DirectDependencies(id int) ([]int, error)
	DependentEntities(id int) ([]int, error)
	RebaseToRoot(id int) (runtime.RebaseCounts, error)
	RebaseModule() (runtime.RebaseReport, error)
	Liberate(id int) error
	Snapshot() *document.Document
	Revision() int64
}

// Server routes requests to the engine.
type Server struct {
	engine  Engine
	logger  *slog.Logger
	metrics *metrics

	mu sync.Mutex
}

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	edits    prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{registry: prometheus.NewRegistry()}
	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cadence",
		Name:      "http_requests_total",
		Help:      "API requests by route and status code.",
	}, []string{"route", "code"})
	m.edits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cadence",
		Name:      "edits_total",
		Help:      "Committed entity and variable mutations.",
	})
	m.registry.MustRegister(m.requests, m.edits)
	return m
}

// NewHandler builds the API router for the engine.
func NewHandler(engine Engine, logger *slog.Logger) http.Handler {
	s := &Server{engine: engine, logger: logger, metrics: newMetrics()}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/entities", func(r chi.Router) {
		r.Get("/", s.listEntities)
		r.Post("/", s.addEntity)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getEntity)
			r.Delete("/", s.removeEntity)
			r.Get("/dependencies", s.dependencies)
			r.Get("/dependents", s.dependents)
			r.Post("/rebase", s.rebaseEntity)
			r.Post("/liberate", s.liberate)
			r.Route("/variables/{name}", func(r chi.Router) {
				r.Get("/", s.getVariable)
				r.Put("/", s.setVariable)
			})
		})
	})
	r.Get("/evaluate", s.evaluateAll)
	r.Post("/rebase", s.rebaseModule)
	r.Get("/document", s.getDocument)

	return r
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(recorder, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(recorder.Status())).Inc()
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rev := s.engine.Revision()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "revision": rev})
}

// entityView is the read form of an entity: structure plus evaluated values.
type entityView struct {
	ID        int                   `json:"id"`
	Parent    *int                  `json:"parent,omitempty"`
	Variables map[string]string     `json:"variables"`
	Values    map[string]expr.Value `json:"values"`
}

func (s *Server) entityViewLocked(record document.EntityRecord) (entityView, error) {
	view := entityView{
		ID:        record.ID,
		Parent:    record.Parent,
		Variables: record.Sources(),
		Values:    make(map[string]expr.Value, len(record.Variables)),
	}
	for name := range record.Variables {
		value, err := s.engine.GetVariable(record.ID, name)
		if err != nil {
			return view, err
		}
		view.Values[name] = value
	}
	return view, nil
}

func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]entityView, 0)
	for _, record := range s.engine.Snapshot().Entities {
		view, err := s.entityViewLocked(record)
		if err != nil {
			s.writeError(w, err)
			return
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, views)
}

type addEntityRequest struct {
	Parent    *int              `json:"parent,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
	Strings   map[string]string `json:"strings,omitempty"`
}

func (s *Server) addEntity(w http.ResponseWriter, r *http.Request) {
	var body addEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	parent := domain.NoParent
	if body.Parent != nil {
		parent = *body.Parent
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.engine.AddEntity(parent, body.Variables)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for name, text := range body.Strings {
		if err := s.engine.SetStringVariable(id, name, text); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.metrics.edits.Inc()
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "revision": s.engine.Revision()})
}

func (s *Server) getEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.entityID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.engine.Snapshot().Entities {
		if record.ID != id {
			continue
		}
		view, err := s.entityViewLocked(record)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
		return
	}
	s.writeError(w, &expr.UnknownEntityError{Entity: id})
}

func (s *Server) removeEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.entityID(w, r)
	if !ok {
		return
	}
	mode := runtime.RemoveMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = runtime.RemoveCascade
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.RemoveEntity(id, mode); err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.edits.Inc()
	writeJSON(w, http.StatusOK, map[string]any{"removed": id, "revision": s.engine.Revision()})
}

type setVariableRequest struct {
	Source *string `json:"source,omitempty"`
	Text   *string `json:"text,omitempty"`
}

func (s *Server) setVariable(w http.ResponseWriter, r *http.Request) {
	id, ok := s.entityID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	var body setVariableRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	switch {
	case body.Source != nil:
		err = s.engine.SetVariable(id, name, *body.Source)
	case body.Text != nil:
		err = s.engine.SetStringVariable(id, name, *body.Text)
	default:
		s.writeBadRequest(w, "body must carry source or text")
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.edits.Inc()
	writeJSON(w, http.StatusOK, map[string]any{"revision": s.engine.Revision()})
}

func (s *Server) getVariable(w http.ResponseWriter, r *http.Request) {
	id, ok := s.entityID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	defer s.mu.Unlock()
	value, err := s.engine.GetVariable(id, name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (s *Server) dependencies(w http.ResponseWriter, r *http.Request) {
	s.dependencyList(w, r, s.engine.DirectDependencies)
}

func (s *Server) dependents(w http.ResponseWriter, r *http.Request) {
	s.dependencyList(w, r, s.engine.DependentEntities)
}

func (s *Server) dependencyList(w http.ResponseWriter, r *http.Request, query func(int) ([]int, error)) {
	id, ok := s.entityID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := query(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": ids})
}

func (s *Server) evaluateAll(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.engine.EvaluateAll()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (s *Server) rebaseEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.entityID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	counts, err := s.engine.RebaseToRoot(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.edits.Inc()
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) rebaseModule(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, err := s.engine.RebaseModule()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.edits.Inc()
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) liberate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.entityID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.Liberate(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.edits.Inc()
	writeJSON(w, http.StatusOK, map[string]any{"liberated": id, "revision": s.engine.Revision()})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc := s.engine.Snapshot()
	s.mu.Unlock()

	data, err := doc.Marshal()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) entityID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeBadRequest(w, "entity id must be an integer")
		return 0, false
	}
	return id, true
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps domain errors onto status codes: unknown targets are 404,
// rejected edits are 409, bad source is 422.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		unknownEntity *expr.UnknownEntityError
		unknownVar    *expr.UnknownVariableError
		syntax        *expr.SyntaxError
		selfRef       *domain.SelfReferenceError
		circular      *domain.CircularDependencyError
	)
	switch {
	case errors.As(err, &unknownEntity), errors.As(err, &unknownVar):
		status = http.StatusNotFound
	case errors.As(err, &syntax):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &selfRef), errors.As(err, &circular), errors.Is(err, domain.ErrRootEntity):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fmt.Printf("response encode error: %v\n", err)
	}
}
