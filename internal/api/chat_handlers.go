// Package api provides live chat session handlers for the nursery endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/botflow"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/util"
)

// chatSession is one visitor's in-progress conversation. The engine is bound
// to the graph that was active when the session started; later activations
// do not retarget running sessions.
type chatSession struct {
	engine     *botflow.Engine
	cursor     botflow.Cursor
	flowID     string
	lastActive time.Time
}

// chatSessions holds all live sessions. Sessions are memory-only and vanish
// on restart; the widget starts a fresh session when its id is unknown.
type chatSessions struct {
	mu       sync.Mutex
	sessions map[string]*chatSession
}

func newChatSessions() *chatSessions {
	return &chatSessions{sessions: make(map[string]*chatSession)}
}

// prune drops sessions that have been idle longer than maxIdle and returns
// how many were removed. Called periodically by the housekeeping scheduler.
func (cs *chatSessions) prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	removed := 0
	for id, session := range cs.sessions {
		if session.lastActive.Before(cutoff) {
			delete(cs.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Pruned idle chat sessions", "removed", removed, "remaining", len(cs.sessions))
	}
	return removed
}

// chatSessionResponse is the payload returned by the chat endpoints.
type chatSessionResponse struct {
	SessionID  string              `json:"session_id,omitempty"`
	Configured bool                `json:"configured"`
	Status     botflow.StepStatus  `json:"status,omitempty"`
	Message    *models.ChatMessage `json:"message,omitempty"`
	Action     *models.ChatAction  `json:"action,omitempty"`
}

// stepChatRequest is the body of POST /chat/sessions/{id}/step.
type stepChatRequest struct {
	Option string `json:"option"`
}

// createChatSessionHandler handles POST /chat/sessions. A missing or
// unreadable active flow is not an error: the widget renders a "no chatbot
// configured" state and the storefront stays up.
func (s *Server) createChatSessionHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("createChatSessionHandler invoked", "method", r.Method, "path", r.URL.Path)

	g, err := s.st.GetActiveFlow()
	if err != nil {
		slog.Error("createChatSessionHandler active flow lookup failed", "error", err)
		g = nil
	}
	if g == nil {
		slog.Debug("createChatSessionHandler no active flow")
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("No chatbot configured", chatSessionResponse{Configured: false}))
		return
	}

	engine := botflow.NewEngine(*g)
	sessionID := util.GenerateSessionID()
	session := &chatSession{
		engine:     engine,
		cursor:     engine.NewCursor(),
		flowID:     g.ID,
		lastActive: time.Now(),
	}

	s.sessions.mu.Lock()
	s.sessions.sessions[sessionID] = session
	s.sessions.mu.Unlock()

	resp := chatSessionResponse{SessionID: sessionID, Configured: true}
	if msg, ok := engine.Welcome(); ok {
		resp.Message = &msg
	}
	if action, ok := engine.ActionFor(session.cursor.CurrentNodeID); ok {
		resp.Action = &action
	}

	slog.Info("Chat session created", "sessionID", sessionID, "flowID", g.ID)
	writeJSONResponse(w, http.StatusCreated, models.Success(resp))
}

// stepChatSessionHandler handles POST /chat/sessions/{id}/step
func (s *Server) stepChatSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("stepChatSessionHandler invoked", "sessionID", sessionID)

	var req stepChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("stepChatSessionHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	s.sessions.mu.Lock()
	session, ok := s.sessions.sessions[sessionID]
	if !ok {
		s.sessions.mu.Unlock()
		writeJSONResponse(w, http.StatusNotFound, models.Error("Chat session not found"))
		return
	}

	session.lastActive = time.Now()
	result := session.engine.Step(&session.cursor, req.Option)
	resp := chatSessionResponse{
		SessionID:  sessionID,
		Configured: true,
		Status:     result.Status,
		Message:    result.Message,
	}
	if result.Status == botflow.StepTransitioned {
		if action, ok := session.engine.ActionFor(result.NodeID); ok {
			resp.Action = &action
		}
	}
	s.sessions.mu.Unlock()

	slog.Debug("stepChatSessionHandler stepped", "sessionID", sessionID, "status", result.Status)
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

// resetChatSessionHandler handles POST /chat/sessions/{id}/reset
func (s *Server) resetChatSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("resetChatSessionHandler invoked", "sessionID", sessionID)

	s.sessions.mu.Lock()
	session, ok := s.sessions.sessions[sessionID]
	if !ok {
		s.sessions.mu.Unlock()
		writeJSONResponse(w, http.StatusNotFound, models.Error("Chat session not found"))
		return
	}

	session.lastActive = time.Now()
	session.engine.Reset(&session.cursor)
	resp := chatSessionResponse{SessionID: sessionID, Configured: true}
	if msg, ok := session.engine.Welcome(); ok {
		resp.Message = &msg
	}
	s.sessions.mu.Unlock()

	slog.Debug("resetChatSessionHandler reset", "sessionID", sessionID)
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}
