package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type PreviewNodeRequest struct {
	Config  map[string]any `json:"config"`
	Inputs  map[string]any `json:"inputs"`
	Context map[string]any `json:"context"`
}

func (s *Server) HandleListNodeTypes(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"node_types": s.registry.List(),
	})
}

func (s *Server) HandleGetNodeType(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	desc, err := s.registry.Get(kind)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, desc)
}

func (s *Server) HandlePreviewNode(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	var req PreviewNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed preview request")
		return
	}
	defer r.Body.Close()

	result, err := s.executor.Preview(kind, req.Config, req.Inputs, req.Context)
	if err != nil {
		code := statusForError(err)
		if code == http.StatusInternalServerError {
			// config validation failures are the caller's fault
			code = http.StatusBadRequest
		}
		respondWithError(w, code, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
