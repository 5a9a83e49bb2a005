package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/botflow"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
)

// chatFlow wires start -> greeting (Yes -> catalog message, Chat -> support
// redirect action). The "No" option is deliberately left unwired.
func chatFlow() models.FlowGraph {
	return models.FlowGraph{
		Name: "Storefront chat",
		Nodes: []models.FlowNode{
			{ID: "n_start", Kind: models.NodeKindStart},
			{ID: "n_hi", Kind: models.NodeKindMessage, Text: "Hi! Looking for a plant?", Options: []models.NodeOption{
				{ID: "opt_yes", Label: "Yes"},
				{ID: "opt_no", Label: "No"},
				{ID: "opt_chat", Label: "Chat with us"},
			}},
			{ID: "n_browse", Kind: models.NodeKindMessage, Text: "Great, browse our catalog!"},
			{ID: "n_support", Kind: models.NodeKindAction, Action: models.ActionMessagingRedirect, ActionValue: "15551234567"},
		},
		Edges: []models.FlowEdge{
			{ID: "e_start", Source: "n_start", Target: "n_hi"},
			{ID: "e_yes", Source: "n_hi", SourceHandle: "opt_yes", Target: "n_browse"},
			{ID: "e_chat", Source: "n_hi", SourceHandle: "opt_chat", Target: "n_support"},
		},
	}
}

func startChatSession(t *testing.T, s *Server) chatSessionResponse {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/chat/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var resp chatSessionResponse
	decodeResult(t, rec, &resp)
	return resp
}

func TestCreateChatSessionWithoutActiveFlow(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/chat/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp chatSessionResponse
	env := decodeResult(t, rec, &resp)
	if env.Status != string(models.APIStatusOK) {
		t.Errorf("Missing chatbot must not be an error, got status %s", env.Status)
	}
	if resp.Configured {
		t.Error("Expected configured=false without an active flow")
	}
	if resp.SessionID != "" {
		t.Error("No session should be created without an active flow")
	}
}

func TestChatSessionWelcomeAndStep(t *testing.T) {
	s, st, _ := newTestServer(t)

	saved, _ := st.SaveFlow(chatFlow())
	if err := st.SetActiveFlow(saved.ID); err != nil {
		t.Fatalf("Failed to activate flow: %v", err)
	}

	session := startChatSession(t, s)
	if !session.Configured || session.SessionID == "" {
		t.Fatalf("Expected a configured session, got %+v", session)
	}
	if session.Message == nil || session.Message.Text != "Hi! Looking for a plant?" {
		t.Fatalf("Unexpected welcome message %+v", session.Message)
	}
	if len(session.Message.Options) != 3 {
		t.Errorf("Expected 3 options, got %v", session.Message.Options)
	}

	rec := doJSON(t, s, http.MethodPost, "/chat/sessions/"+session.SessionID+"/step", stepChatRequest{Option: "Yes"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var stepResp chatSessionResponse
	decodeResult(t, rec, &stepResp)
	if stepResp.Status != botflow.StepTransitioned {
		t.Fatalf("Expected transition, got %s", stepResp.Status)
	}
	if stepResp.Message == nil || stepResp.Message.Text != "Great, browse our catalog!" {
		t.Errorf("Unexpected step message %+v", stepResp.Message)
	}
	if stepResp.Action != nil {
		t.Errorf("Message node must not carry an action, got %+v", stepResp.Action)
	}
}

func TestChatSessionStepOntoActionNode(t *testing.T) {
	s, st, _ := newTestServer(t)

	saved, _ := st.SaveFlow(chatFlow())
	st.SetActiveFlow(saved.ID)

	session := startChatSession(t, s)
	rec := doJSON(t, s, http.MethodPost, "/chat/sessions/"+session.SessionID+"/step", stepChatRequest{Option: "Chat with us"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp chatSessionResponse
	decodeResult(t, rec, &resp)
	if resp.Status != botflow.StepTransitioned {
		t.Fatalf("Expected transition, got %s", resp.Status)
	}
	if resp.Action == nil || resp.Action.Kind != models.ActionMessagingRedirect || resp.Action.Value != "15551234567" {
		t.Errorf("Expected messaging-redirect action, got %+v", resp.Action)
	}
	if resp.Message == nil || resp.Message.Text != "Opening support chat..." {
		t.Errorf("Expected fallback action text, got %+v", resp.Message)
	}
}

func TestChatSessionDeadEndKeepsCursor(t *testing.T) {
	s, st, _ := newTestServer(t)

	saved, _ := st.SaveFlow(chatFlow())
	st.SetActiveFlow(saved.ID)

	session := startChatSession(t, s)

	// "No" has no outgoing edge: dead end, cursor stays put.
	rec := doJSON(t, s, http.MethodPost, "/chat/sessions/"+session.SessionID+"/step", stepChatRequest{Option: "No"})
	var resp chatSessionResponse
	decodeResult(t, rec, &resp)
	if resp.Status != botflow.StepDeadEnd {
		t.Fatalf("Expected dead end, got %s", resp.Status)
	}

	// The same session can still take the wired option.
	rec = doJSON(t, s, http.MethodPost, "/chat/sessions/"+session.SessionID+"/step", stepChatRequest{Option: "Yes"})
	decodeResult(t, rec, &resp)
	if resp.Status != botflow.StepTransitioned {
		t.Errorf("Expected transition after dead end, got %s", resp.Status)
	}
}

func TestChatSessionReset(t *testing.T) {
	s, st, _ := newTestServer(t)

	saved, _ := st.SaveFlow(chatFlow())
	st.SetActiveFlow(saved.ID)

	session := startChatSession(t, s)
	doJSON(t, s, http.MethodPost, "/chat/sessions/"+session.SessionID+"/step", stepChatRequest{Option: "Yes"})

	rec := doJSON(t, s, http.MethodPost, "/chat/sessions/"+session.SessionID+"/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp chatSessionResponse
	decodeResult(t, rec, &resp)
	if resp.Message == nil || resp.Message.Text != "Hi! Looking for a plant?" {
		t.Errorf("Expected welcome message after reset, got %+v", resp.Message)
	}

	// Reset is idempotent.
	rec = doJSON(t, s, http.MethodPost, "/chat/sessions/"+session.SessionID+"/reset", nil)
	decodeResult(t, rec, &resp)
	if resp.Message == nil || resp.Message.Text != "Hi! Looking for a plant?" {
		t.Errorf("Expected identical welcome after second reset, got %+v", resp.Message)
	}
}

func TestPruneIdleSessions(t *testing.T) {
	s, st, _ := newTestServer(t)

	saved, _ := st.SaveFlow(chatFlow())
	st.SetActiveFlow(saved.ID)

	idle := startChatSession(t, s)
	active := startChatSession(t, s)

	// Backdate the idle session past the sweep cutoff.
	s.sessions.mu.Lock()
	s.sessions.sessions[idle.SessionID].lastActive = time.Now().Add(-time.Hour)
	s.sessions.mu.Unlock()

	if removed := s.sessions.prune(30 * time.Minute); removed != 1 {
		t.Fatalf("Expected 1 pruned session, got %d", removed)
	}

	rec := doJSON(t, s, http.MethodPost, "/chat/sessions/"+idle.SessionID+"/step", stepChatRequest{Option: "Yes"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected pruned session to be gone, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/chat/sessions/"+active.SessionID+"/step", stepChatRequest{Option: "Yes"})
	if rec.Code != http.StatusOK {
		t.Errorf("Expected active session to survive the sweep, got %d", rec.Code)
	}
}

func TestStepUnknownSessionReturns404(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/chat/sessions/cs_unknown/step", stepChatRequest{Option: "Yes"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionKeepsGraphAcrossActivation(t *testing.T) {
	s, st, _ := newTestServer(t)

	first, _ := st.SaveFlow(chatFlow())
	st.SetActiveFlow(first.ID)
	session := startChatSession(t, s)

	replacement := models.FlowGraph{
		Name: "Replacement",
		Nodes: []models.FlowNode{
			{ID: "n_start", Kind: models.NodeKindStart},
			{ID: "n_other", Kind: models.NodeKindMessage, Text: "Different greeting"},
		},
		Edges: []models.FlowEdge{{ID: "e_1", Source: "n_start", Target: "n_other"}},
	}
	second, _ := st.SaveFlow(replacement)
	st.SetActiveFlow(second.ID)

	// The running session still walks the graph it started on.
	rec := doJSON(t, s, http.MethodPost, "/chat/sessions/"+session.SessionID+"/step", stepChatRequest{Option: "Yes"})
	var resp chatSessionResponse
	decodeResult(t, rec, &resp)
	if resp.Status != botflow.StepTransitioned || resp.Message.Text != "Great, browse our catalog!" {
		t.Errorf("Expected original graph semantics, got %+v", resp)
	}

	// A new session picks up the new active graph.
	fresh := startChatSession(t, s)
	if fresh.Message == nil || fresh.Message.Text != "Different greeting" {
		t.Errorf("Expected new graph welcome, got %+v", fresh.Message)
	}
}
