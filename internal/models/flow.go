// Package models defines the core data structures for the nursery backend.
//
// This file holds the chatbot flow entities: the graph persisted by the admin
// flow editor and walked by the execution engine.
package models

import (
	"errors"
	"strings"
	"time"
)

// NodeKind tags the variant of a flow node.
type NodeKind string

const (
	// NodeKindStart marks the designated entry point of a flow. Exactly one
	// per graph; it carries no message content.
	NodeKindStart NodeKind = "start"
	// NodeKindMessage is a bot utterance with selectable options.
	NodeKindMessage NodeKind = "message"
	// NodeKindAction is a terminal node producing an externally-observable
	// effect (open a link, open a chat deeplink, end the conversation).
	NodeKindAction NodeKind = "action"
)

// IsValidNodeKind checks if the given node kind is supported.
func IsValidNodeKind(k NodeKind) bool {
	switch k {
	case NodeKindStart, NodeKindMessage, NodeKindAction:
		return true
	default:
		return false
	}
}

// ActionKind tags the effect an action node fires.
type ActionKind string

const (
	// ActionMessagingRedirect opens a messaging deep link (support chat).
	ActionMessagingRedirect ActionKind = "messaging-redirect"
	// ActionExternalLink opens an external URL.
	ActionExternalLink ActionKind = "external-link"
	// ActionTerminate ends the conversation.
	ActionTerminate ActionKind = "terminate"
)

// IsValidActionKind checks if the given action kind is supported.
func IsValidActionKind(k ActionKind) bool {
	switch k {
	case ActionMessagingRedirect, ActionExternalLink, ActionTerminate:
		return true
	default:
		return false
	}
}

// Error variables for flow validation.
var (
	ErrEmptyFlowName    = errors.New("flow name cannot be empty")
	ErrInvalidNodeKind  = errors.New("invalid node kind")
	ErrEmptyOptionLabel = errors.New("option label cannot be empty")
)

// Position is the editor canvas placement of a node. Presentation only;
// irrelevant to execution.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeOption is one selectable choice on a message node. ID is unique within
// the node and is the join key to outgoing edges.
type NodeOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FlowNode is one step in a conversation flow, tagged by Kind.
type FlowNode struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Position Position `json:"position"`
	Label    string   `json:"label,omitempty"`

	// Message node fields.
	Text    string       `json:"text,omitempty"`
	Options []NodeOption `json:"options,omitempty"`

	// Action node fields. ActionValue is the destination (phone number or
	// URL); ignored for terminate. Text doubles as the override message
	// shown before the action fires.
	Action      ActionKind `json:"action,omitempty"`
	ActionValue string     `json:"action_value,omitempty"`
}

// FlowEdge is a directed, option-labeled link between two nodes.
// SourceHandle is the option id the edge leaves through; empty for edges
// leaving the start node.
type FlowEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceHandle string `json:"source_handle,omitempty"`
	Target       string `json:"target"`
}

// FlowGraph is a full chatbot script: nodes and edges in insertion order.
// IsActive is derived on read from the store's active pointer; it is never
// written through the graph itself.
type FlowGraph struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Nodes     []FlowNode `json:"nodes"`
	Edges     []FlowEdge `json:"edges"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// Validate performs validation on a FlowGraph before persisting. Structural
// problems in nodes and edges are deliberately tolerated; a broken graph
// degrades to dead ends at execution time rather than failing a save.
func (g *FlowGraph) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyFlowName
	}
	return nil
}

// ChatMessage is what the execution engine hands the chat UI: the bot's
// utterance plus the labels the user can click next.
type ChatMessage struct {
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}

// ChatAction describes the external effect attached to an action node. The
// UI fires it explicitly; stepping onto the node never triggers it.
type ChatAction struct {
	Kind  ActionKind `json:"kind"`
	Value string     `json:"value,omitempty"`
}
