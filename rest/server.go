package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/loomworks/loom/cache"
	"github.com/loomworks/loom/executor"
	"github.com/loomworks/loom/graph"
	"github.com/loomworks/loom/logger"
	"github.com/loomworks/loom/persistence"
	"github.com/loomworks/loom/registry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port        int
	storage     persistence.Storage
	registry    *registry.Registry
	executor    *executor.Executor
	resultCache *cache.ResultCache
}

func NewServer(httpPort int, storage persistence.Storage, reg *registry.Registry, exec *executor.Executor, resultCache *cache.ResultCache) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr: fmt.Sprintf(":%d", httpPort),
		},
		Port:        httpPort,
		storage:     storage,
		registry:    reg,
		executor:    exec,
		resultCache: resultCache,
	}

	router := mux.NewRouter()
	router.HandleFunc("/workflow", s.HandleCreateWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/workflow", s.HandleListWorkflows).Methods(http.MethodGet)
	router.HandleFunc("/workflow/{id}", s.HandleGetWorkflow).Methods(http.MethodGet)
	router.HandleFunc("/workflow/{id}", s.HandleUpdateWorkflow).Methods(http.MethodPut)
	router.HandleFunc("/workflow/{id}", s.HandleDeleteWorkflow).Methods(http.MethodDelete)
	router.HandleFunc("/workflow/{id}/execute", s.HandleExecuteWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}/executions", s.HandleListExecutions).Methods(http.MethodGet)
	router.HandleFunc("/execution/{id}", s.HandleGetExecution).Methods(http.MethodGet)
	router.HandleFunc("/execution/{id}/cancel", s.HandleCancelExecution).Methods(http.MethodPost)
	router.HandleFunc("/node-types", s.HandleListNodeTypes).Methods(http.MethodGet)
	router.HandleFunc("/node-types/{kind}", s.HandleGetNodeType).Methods(http.MethodGet)
	router.HandleFunc("/node-types/{kind}/preview", s.HandlePreviewNode).Methods(http.MethodPost)
	router.HandleFunc("/cache/stats", s.HandleCacheStats).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(err error) int {
	switch err.(type) {
	case persistence.NotFoundError:
		return http.StatusNotFound
	case persistence.VersionConflictError:
		return http.StatusConflict
	case graph.InvalidGraphError:
		return http.StatusBadRequest
	case registry.UnknownKindError:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
