package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/orrery/orrery/internal/config"
	"go.uber.org/zap"
)

// Server exposes the hub over HTTP.
type Server struct {
	cfg config.InspectorConfig
	hub *Hub
	log *zap.Logger
}

func NewServer(cfg config.InspectorConfig, hub *Hub, log *zap.Logger) *Server {
	return &Server{cfg: cfg, hub: hub, log: log}
}

// Handler builds the router:
//
//	GET /ws                       snapshot feed
//	GET /api/snapshot             latest snapshot envelope
//	GET /api/entities/{name}      one entity of the latest snapshot
//	GET /healthz
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.hub.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(handlers.CompressHandler)
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/entities/{name}", s.handleEntity).Methods(http.MethodGet)

	h := handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.log)))(r)
	return handlers.LoggingHandler(zap.NewStdLog(s.log).Writer(), h)
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.BindAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("inspector listening", zap.String("addr", s.cfg.BindAddress))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.hub.Close()
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "clients": s.hub.Clients()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	last := s.hub.Last()
	if last == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(last)
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	snap, ok := s.hub.LastSnapshot()
	if !ok {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	for _, e := range snap.Entities {
		if e.Name == name {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	http.Error(w, "unknown entity", http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
