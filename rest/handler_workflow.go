package rest

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/loomworks/loom/graph"
	"github.com/loomworks/loom/logger"
	"github.com/loomworks/loom/model"
	"go.uber.org/zap"
)

type CreateWorkflowRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Nodes       map[string]model.Node `json:"nodes"`
	Edges       []model.Edge          `json:"edges"`
}

type UpdateWorkflowRequest struct {
	Name        *string               `json:"name,omitempty"`
	Description *string               `json:"description,omitempty"`
	Nodes       map[string]model.Node `json:"nodes,omitempty"`
	Edges       []model.Edge          `json:"edges,omitempty"`
	Version     int                   `json:"version,omitempty"`
}

func (s *Server) HandleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed workflow definition")
		return
	}
	defer r.Body.Close()

	wf := &model.Workflow{
		Id:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Version:     1,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
	}
	if err := graph.Validate(wf, s.registry); err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	if _, err := s.storage.CreateWorkflow(wf); err != nil {
		logger.Error("error creating workflow", zap.String("name", req.Name), zap.Error(err))
		respondWithError(w, statusForError(err), "error creating workflow")
		return
	}
	respondWithJSON(w, http.StatusCreated, wf)
}

func (s *Server) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	wf, err := s.storage.GetWorkflow(id)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, wf)
}

func (s *Server) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := s.storage.ListWorkflows()
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"workflows": workflows,
		"total":     len(workflows),
	})
}

func (s *Server) HandleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req UpdateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed workflow definition")
		return
	}
	defer r.Body.Close()

	wf, err := s.storage.GetWorkflow(id)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	if req.Name != nil {
		wf.Name = *req.Name
	}
	if req.Description != nil {
		wf.Description = *req.Description
	}
	if req.Nodes != nil {
		wf.Nodes = req.Nodes
	}
	if req.Edges != nil {
		wf.Edges = req.Edges
	}
	if req.Version != 0 {
		wf.Version = req.Version
	}
	if err := graph.Validate(wf, s.registry); err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	if err := s.storage.UpdateWorkflow(id, wf); err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, wf)
}

func (s *Server) HandleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.storage.DeleteWorkflow(id); err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "workflow deleted"})
}
