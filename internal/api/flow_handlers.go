// Package api provides chatbot flow editor handlers for the nursery endpoints.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/botflow"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
)

// createFlowHandler handles POST /flows
func (s *Server) createFlowHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("createFlowHandler invoked", "method", r.Method, "path", r.URL.Path)

	var g models.FlowGraph
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		slog.Warn("createFlowHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := g.Validate(); err != nil {
		slog.Warn("createFlowHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	// Ids are assigned by the store; a client cannot choose them.
	g.ID = ""
	g.IsActive = false
	saved, err := s.st.SaveFlow(g)
	if err != nil {
		slog.Error("createFlowHandler save failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save flow"))
		return
	}

	slog.Info("Flow created", "id", saved.ID, "name", saved.Name)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Flow created successfully", saved))
}

// listFlowsHandler handles GET /flows
func (s *Server) listFlowsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("listFlowsHandler invoked", "method", r.Method, "path", r.URL.Path)

	flows, err := s.st.ListFlows()
	if err != nil {
		slog.Error("listFlowsHandler failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list flows"))
		return
	}

	slog.Debug("listFlowsHandler succeeded", "count", len(flows))
	writeJSONResponse(w, http.StatusOK, models.Success(flows))
}

// getFlowHandler handles GET /flows/{id}
func (s *Server) getFlowHandler(w http.ResponseWriter, r *http.Request) {
	flowID := r.PathValue("id")
	slog.Debug("getFlowHandler invoked", "flowID", flowID)

	g, err := s.st.GetFlow(flowID)
	if err != nil {
		slog.Error("getFlowHandler failed", "error", err, "flowID", flowID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get flow"))
		return
	}
	if g == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Flow not found"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(g))
}

// updateFlowHandler handles PUT /flows/{id}. The graph is replaced wholesale;
// node and edge ids supplied by the editor are preserved.
func (s *Server) updateFlowHandler(w http.ResponseWriter, r *http.Request) {
	flowID := r.PathValue("id")
	slog.Debug("updateFlowHandler invoked", "flowID", flowID)

	var g models.FlowGraph
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		slog.Warn("updateFlowHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := g.Validate(); err != nil {
		slog.Warn("updateFlowHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	existing, err := s.st.GetFlow(flowID)
	if err != nil {
		slog.Error("updateFlowHandler check failed", "error", err, "flowID", flowID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to check flow"))
		return
	}
	if existing == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Flow not found"))
		return
	}

	g.ID = flowID
	saved, err := s.st.SaveFlow(g)
	if err != nil {
		slog.Error("updateFlowHandler save failed", "error", err, "flowID", flowID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update flow"))
		return
	}

	slog.Info("Flow updated", "id", flowID, "name", saved.Name)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flow updated successfully", saved))
}

// deleteFlowHandler handles DELETE /flows/{id}
func (s *Server) deleteFlowHandler(w http.ResponseWriter, r *http.Request) {
	flowID := r.PathValue("id")
	slog.Debug("deleteFlowHandler invoked", "flowID", flowID)

	existing, err := s.st.GetFlow(flowID)
	if err != nil {
		slog.Error("deleteFlowHandler check failed", "error", err, "flowID", flowID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to check flow"))
		return
	}
	if existing == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Flow not found"))
		return
	}

	if err := s.st.DeleteFlow(flowID); err != nil {
		slog.Error("deleteFlowHandler delete failed", "error", err, "flowID", flowID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete flow"))
		return
	}

	slog.Info("Flow deleted", "id", flowID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flow deleted successfully", nil))
}

// activateFlowHandler handles POST /flows/{id}/activate. Activation is a
// single pointer write; whichever flow was active before is implicitly
// deactivated. Existing chat sessions keep the graph they started on.
func (s *Server) activateFlowHandler(w http.ResponseWriter, r *http.Request) {
	flowID := r.PathValue("id")
	slog.Debug("activateFlowHandler invoked", "flowID", flowID)

	existing, err := s.st.GetFlow(flowID)
	if err != nil {
		slog.Error("activateFlowHandler check failed", "error", err, "flowID", flowID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to check flow"))
		return
	}
	if existing == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Flow not found"))
		return
	}

	if err := s.st.SetActiveFlow(flowID); err != nil {
		slog.Error("activateFlowHandler activation failed", "error", err, "flowID", flowID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to activate flow"))
		return
	}

	slog.Info("Flow activated", "id", flowID, "name", existing.Name)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flow activated successfully", nil))
}

// exportFlowHandler handles GET /flows/{id}/export. The response is the raw
// interchange document, not the API envelope, so the file can be re-imported
// as-is.
func (s *Server) exportFlowHandler(w http.ResponseWriter, r *http.Request) {
	flowID := r.PathValue("id")
	slog.Debug("exportFlowHandler invoked", "flowID", flowID)

	g, err := s.st.GetFlow(flowID)
	if err != nil {
		slog.Error("exportFlowHandler failed", "error", err, "flowID", flowID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get flow"))
		return
	}
	if g == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Flow not found"))
		return
	}

	data, err := botflow.FromGraph(*g).ExportJSON()
	if err != nil {
		slog.Error("exportFlowHandler export failed", "error", err, "flowID", flowID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to export flow"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="flow.json"`)
	if _, err := w.Write(data); err != nil {
		slog.Error("exportFlowHandler write failed", "error", err, "flowID", flowID)
	}
}

// importFlowHandler handles POST /flows/import. The body is the interchange
// document produced by export. Node and edge ids survive the round trip.
func (s *Server) importFlowHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("importFlowHandler invoked", "method", r.Method, "path", r.URL.Path)

	data, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Warn("importFlowHandler read failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Failed to read request body"))
		return
	}

	builder := botflow.NewBuilder("")
	if err := builder.ImportJSON(data); err != nil {
		if errors.Is(err, botflow.ErrBadFlowJSON) {
			slog.Warn("importFlowHandler rejected document", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid flow document"))
			return
		}
		slog.Error("importFlowHandler import failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to import flow"))
		return
	}

	g := builder.Graph()
	if g.Name == "" {
		g.Name = "Imported flow"
	}
	saved, err := s.st.SaveFlow(g)
	if err != nil {
		slog.Error("importFlowHandler save failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save imported flow"))
		return
	}

	slog.Info("Flow imported", "id", saved.ID, "name", saved.Name, "nodes", len(saved.Nodes), "edges", len(saved.Edges))
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Flow imported successfully", saved))
}
