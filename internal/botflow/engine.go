package botflow

import (
	"log/slog"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
)

// StepStatus tags the outcome of a single Step call, keeping the three
// failure modes distinguishable instead of collapsing them into one nil.
type StepStatus string

const (
	// StepTransitioned means the cursor moved and a message was produced.
	StepTransitioned StepStatus = "transitioned"
	// StepDeadEnd means the chosen option leads nowhere; the cursor is
	// unchanged. This is a designed outcome, not an error.
	StepDeadEnd StepStatus = "dead_end"
	// StepBrokenCursor means the cursor points at a node that no longer
	// exists; the conversation cannot continue.
	StepBrokenCursor StepStatus = "broken_cursor"
)

// StepResult is the tagged outcome of a Step call. Message and NodeID are
// set only when Status is StepTransitioned.
type StepResult struct {
	Status  StepStatus          `json:"status"`
	Message *models.ChatMessage `json:"message,omitempty"`
	NodeID  string              `json:"node_id,omitempty"`
}

// Cursor is the position of one in-progress conversation within the graph.
// It lives for the session only and is never persisted.
type Cursor struct {
	CurrentNodeID string `json:"current_node_id"`
}

// Fallback texts shown when an action node carries no override text.
const (
	fallbackMessagingRedirect = "Opening support chat..."
	fallbackExternalLink      = "Opening link..."
	fallbackTerminate         = "Thank you for chatting with us! Have a great day!"
)

type edgeKey struct {
	source string
	handle string
}

// Engine drives a conversation forward one user choice at a time over a
// loaded graph. It never mutates the graph; all lookup failures degrade to
// non-transition outcomes so a broken graph can never crash the chat widget.
type Engine struct {
	nodesByID map[string]*models.FlowNode
	// edgeByKey keeps the first edge per (source, handle) pair, giving
	// first-match-wins semantics for duplicate wiring.
	edgeByKey map[edgeKey]*models.FlowEdge
	initialID string
}

// NewEngine indexes the graph and resolves the initial node: the target of
// the start node's first outgoing edge, falling back to the start node
// itself when it has no outgoing edge. A graph without a start node yields
// an engine whose cursors are immediately broken.
func NewEngine(g models.FlowGraph) *Engine {
	e := &Engine{
		nodesByID: make(map[string]*models.FlowNode, len(g.Nodes)),
		edgeByKey: make(map[edgeKey]*models.FlowEdge, len(g.Edges)),
	}
	var start *models.FlowNode
	for i := range g.Nodes {
		n := &g.Nodes[i]
		e.nodesByID[n.ID] = n
		if n.Kind == models.NodeKindStart && start == nil {
			start = n
		}
	}
	for i := range g.Edges {
		edge := &g.Edges[i]
		k := edgeKey{source: edge.Source, handle: edge.SourceHandle}
		if _, ok := e.edgeByKey[k]; !ok {
			e.edgeByKey[k] = edge
		}
	}
	if start != nil {
		e.initialID = start.ID
		if first, ok := e.edgeByKey[edgeKey{source: start.ID}]; ok {
			if _, exists := e.nodesByID[first.Target]; exists {
				e.initialID = first.Target
			}
		}
	}
	slog.Debug("Engine initialized", "flow", g.Name, "nodes", len(g.Nodes), "edges", len(g.Edges), "initial_node", e.initialID)
	return e
}

// NewCursor creates a cursor positioned at the initial node.
func (e *Engine) NewCursor() Cursor {
	return Cursor{CurrentNodeID: e.initialID}
}

// Reset re-resolves the cursor to the initial node. Idempotent.
func (e *Engine) Reset(c *Cursor) {
	c.CurrentNodeID = e.initialID
}

// Welcome synthesizes the message for whatever node the initial cursor
// points to, independent of Step. Returns false when the graph has no nodes
// to greet from.
func (e *Engine) Welcome() (models.ChatMessage, bool) {
	n, ok := e.nodesByID[e.initialID]
	if !ok {
		return models.ChatMessage{}, false
	}
	return e.messageFor(n), true
}

// Step resolves the user's chosen option label against the node under the
// cursor. The cursor moves only when every lookup succeeds, so it always
// points at a valid node. Option labels match exactly (case-sensitive);
// when a node carries duplicate labels the first in option order wins.
func (e *Engine) Step(c *Cursor, optionLabel string) StepResult {
	current, ok := e.nodesByID[c.CurrentNodeID]
	if !ok {
		slog.Warn("Engine.Step: cursor points at missing node", "node", c.CurrentNodeID)
		return StepResult{Status: StepBrokenCursor}
	}

	var matched *models.NodeOption
	for i := range current.Options {
		if current.Options[i].Label == optionLabel {
			matched = &current.Options[i]
			break
		}
	}
	if matched == nil {
		slog.Debug("Engine.Step: no matching option", "node", current.ID, "label", optionLabel)
		return StepResult{Status: StepDeadEnd}
	}

	edge, ok := e.edgeByKey[edgeKey{source: current.ID, handle: matched.ID}]
	if !ok {
		slog.Debug("Engine.Step: option has no outgoing edge", "node", current.ID, "option", matched.ID)
		return StepResult{Status: StepDeadEnd}
	}

	target, ok := e.nodesByID[edge.Target]
	if !ok {
		slog.Debug("Engine.Step: edge target missing", "edge", edge.ID, "target", edge.Target)
		return StepResult{Status: StepDeadEnd}
	}

	c.CurrentNodeID = target.ID
	msg := e.messageFor(target)
	slog.Debug("Engine.Step: transitioned", "from", current.ID, "to", target.ID)
	return StepResult{Status: StepTransitioned, Message: &msg, NodeID: target.ID}
}

// ActionFor reports the external effect attached to a node, if any. The
// caller fires the effect explicitly; Step never does.
func (e *Engine) ActionFor(nodeID string) (models.ChatAction, bool) {
	n, ok := e.nodesByID[nodeID]
	if !ok || n.Kind != models.NodeKindAction {
		return models.ChatAction{}, false
	}
	return models.ChatAction{Kind: n.Action, Value: n.ActionValue}, true
}

func (e *Engine) messageFor(n *models.FlowNode) models.ChatMessage {
	switch n.Kind {
	case models.NodeKindMessage:
		labels := make([]string, 0, len(n.Options))
		for _, opt := range n.Options {
			labels = append(labels, opt.Label)
		}
		return models.ChatMessage{Text: n.Text, Options: labels}
	case models.NodeKindAction:
		text := n.Text
		if text == "" {
			switch n.Action {
			case models.ActionMessagingRedirect:
				text = fallbackMessagingRedirect
			case models.ActionExternalLink:
				text = fallbackExternalLink
			case models.ActionTerminate:
				text = fallbackTerminate
			}
		}
		return models.ChatMessage{Text: text}
	default:
		// Start node: no message content.
		return models.ChatMessage{}
	}
}
