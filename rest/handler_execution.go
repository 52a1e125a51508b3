package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/loomworks/loom/executor"
	"github.com/loomworks/loom/logger"
	"github.com/loomworks/loom/model"
	"go.uber.org/zap"
)

type ExecuteWorkflowRequest struct {
	Input           map[string]any `json:"input"`
	UseCache        *bool          `json:"use_cache,omitempty"`
	TimeoutSeconds  int            `json:"timeout_seconds,omitempty"`
	ContinueOnError *bool          `json:"continue_on_error,omitempty"`
}

func (s *Server) HandleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowId := mux.Vars(r)["id"]
	var req ExecuteWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "malformed execution request")
		return
	}
	defer r.Body.Close()

	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}
	executionId, err := s.executor.Submit(executor.SubmitRequest{
		WorkflowId:      workflowId,
		Input:           req.Input,
		UseCache:        useCache,
		Timeout:         time.Duration(req.TimeoutSeconds) * time.Second,
		ContinueOnError: req.ContinueOnError,
	})
	if err != nil {
		logger.Error("error submitting execution", zap.String("workflow", workflowId), zap.Error(err))
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]any{
		"execution_id": executionId,
		"workflow_id":  workflowId,
		"status":       model.EXECUTION_PENDING,
	})
}

func (s *Server) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	execution, err := s.executor.Status(id)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, execution)
}

func (s *Server) HandleListExecutions(w http.ResponseWriter, r *http.Request) {
	workflowId := mux.Vars(r)["id"]
	executions, err := s.storage.ListExecutions(workflowId)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"executions": executions,
		"total":      len(executions),
	})
}

func (s *Server) HandleCancelExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.executor.Cancel(id); err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "cancellation requested"})
}

func (s *Server) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.resultCache.Stats())
}
