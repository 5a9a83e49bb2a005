// Package botflow implements the chatbot flow subsystem: the editor-facing
// graph builder and the execution engine that walks a published graph.
package botflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/util"
)

// Error variables for builder operations.
var (
	ErrStartNodeExists = errors.New("graph already has a start node")
	ErrNodeNotFound    = errors.New("node not found")
	ErrEdgeNotFound    = errors.New("edge not found")
	ErrOptionNotFound  = errors.New("option not found")
	ErrNotMessageNode  = errors.New("node is not a message node")
	ErrEmptyEndpoint   = errors.New("edge source and target cannot be empty")
	ErrBadFlowJSON     = errors.New("flow JSON is not parseable")
)

// Builder is the editor's in-memory mutation API over a flow graph. Nodes and
// edges live in maps keyed by their stable ids, with insertion-order slices
// preserving the serialized sequence. All mutation goes through methods that
// keep the cascade-on-delete invariant: no surviving edge ever references a
// deleted node, and no surviving edge leaves through a deleted option.
//
// Nothing here touches storage; the caller persists a Graph() snapshot
// explicitly.
type Builder struct {
	graphID   string
	name      string
	nodes     map[string]*models.FlowNode
	edges     map[string]*models.FlowEdge
	nodeOrder []string
	edgeOrder []string
}

// NewBuilder creates an empty builder for a new flow.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]*models.FlowNode),
		edges: make(map[string]*models.FlowEdge),
	}
}

// FromGraph creates a builder seeded from a persisted graph. Node and edge
// ids are kept as-is so edits round-trip with stable identity.
func FromGraph(g models.FlowGraph) *Builder {
	b := NewBuilder(g.Name)
	b.graphID = g.ID
	for i := range g.Nodes {
		n := g.Nodes[i]
		b.nodes[n.ID] = &n
		b.nodeOrder = append(b.nodeOrder, n.ID)
	}
	for i := range g.Edges {
		e := g.Edges[i]
		b.edges[e.ID] = &e
		b.edgeOrder = append(b.edgeOrder, e.ID)
	}
	return b
}

// Name returns the flow's display name.
func (b *Builder) Name() string { return b.name }

// SetName updates the flow's display name. No uniqueness constraint.
func (b *Builder) SetName(name string) { b.name = name }

// NodeData carries the variant-specific fields replaced wholesale by
// UpdateNode. The options list is managed separately through AddOption and
// DeleteOption and is never touched by an update.
type NodeData struct {
	Label       string
	Position    models.Position
	Text        string
	Action      models.ActionKind
	ActionValue string
}

// AddNode allocates a node with a fresh unique id and appends it. Message
// nodes start with an empty options list. Adding a second start node is
// rejected.
func (b *Builder) AddNode(kind models.NodeKind, pos models.Position) (*models.FlowNode, error) {
	if !models.IsValidNodeKind(kind) {
		return nil, models.ErrInvalidNodeKind
	}
	if kind == models.NodeKindStart && b.startNode() != nil {
		slog.Warn("Builder.AddNode: rejected duplicate start node", "flow", b.name)
		return nil, ErrStartNodeExists
	}
	n := &models.FlowNode{
		ID:       util.GenerateNodeID(),
		Kind:     kind,
		Position: pos,
	}
	b.nodes[n.ID] = n
	b.nodeOrder = append(b.nodeOrder, n.ID)
	slog.Debug("Builder.AddNode: node added", "id", n.ID, "kind", kind)
	return n, nil
}

// AddActionNode allocates an action node with the given action kind.
func (b *Builder) AddActionNode(action models.ActionKind, pos models.Position) (*models.FlowNode, error) {
	if !models.IsValidActionKind(action) {
		return nil, fmt.Errorf("unsupported action kind %q", action)
	}
	n, err := b.AddNode(models.NodeKindAction, pos)
	if err != nil {
		return nil, err
	}
	n.Action = action
	return n, nil
}

// Connect allocates an edge with a fresh unique id and appends it. The
// builder is deliberately permissive: it does not check that target exists or
// that sourceHandle names a real option. Broken references degrade to dead
// ends at execution time instead of blocking the editor.
func (b *Builder) Connect(source, sourceHandle, target string) (*models.FlowEdge, error) {
	if source == "" || target == "" {
		return nil, ErrEmptyEndpoint
	}
	e := &models.FlowEdge{
		ID:           util.GenerateEdgeID(),
		Source:       source,
		SourceHandle: sourceHandle,
		Target:       target,
	}
	b.edges[e.ID] = e
	b.edgeOrder = append(b.edgeOrder, e.ID)
	slog.Debug("Builder.Connect: edge added", "id", e.ID, "source", source, "handle", sourceHandle, "target", target)
	return e, nil
}

// Disconnect removes a single edge.
func (b *Builder) Disconnect(edgeID string) error {
	if _, ok := b.edges[edgeID]; !ok {
		return ErrEdgeNotFound
	}
	b.removeEdges(func(e *models.FlowEdge) bool { return e.ID == edgeID })
	return nil
}

// UpdateNode replaces a node's variant-specific data wholesale. The node's
// id, kind and options are preserved.
func (b *Builder) UpdateNode(id string, data NodeData) error {
	n, ok := b.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.Label = data.Label
	n.Position = data.Position
	n.Text = data.Text
	n.Action = data.Action
	n.ActionValue = data.ActionValue
	slog.Debug("Builder.UpdateNode: node updated", "id", id)
	return nil
}

// DeleteNode removes a node and cascades: every edge whose source or target
// equals the node id is removed with it.
func (b *Builder) DeleteNode(id string) error {
	if _, ok := b.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	delete(b.nodes, id)
	b.nodeOrder = removeID(b.nodeOrder, id)
	removed := b.removeEdges(func(e *models.FlowEdge) bool {
		return e.Source == id || e.Target == id
	})
	slog.Debug("Builder.DeleteNode: node deleted", "id", id, "cascaded_edges", removed)
	return nil
}

// AddOption appends a fresh option to a message node's options list.
func (b *Builder) AddOption(nodeID, label string) (*models.NodeOption, error) {
	if strings.TrimSpace(label) == "" {
		return nil, models.ErrEmptyOptionLabel
	}
	n, ok := b.nodes[nodeID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	if n.Kind != models.NodeKindMessage {
		return nil, ErrNotMessageNode
	}
	opt := models.NodeOption{ID: util.GenerateOptionID(), Label: label}
	n.Options = append(n.Options, opt)
	slog.Debug("Builder.AddOption: option added", "node", nodeID, "option", opt.ID, "label", label)
	return &n.Options[len(n.Options)-1], nil
}

// DeleteOption removes an option from a message node and cascades to edges
// leaving through it: any edge whose source is the node and whose source
// handle equals the option id is removed. An edge through a deleted option
// could never fire again, so it is not left dangling.
func (b *Builder) DeleteOption(nodeID, optionID string) error {
	n, ok := b.nodes[nodeID]
	if !ok {
		return ErrNodeNotFound
	}
	found := false
	kept := n.Options[:0]
	for _, opt := range n.Options {
		if opt.ID == optionID {
			found = true
			continue
		}
		kept = append(kept, opt)
	}
	if !found {
		return ErrOptionNotFound
	}
	n.Options = kept
	removed := b.removeEdges(func(e *models.FlowEdge) bool {
		return e.Source == nodeID && e.SourceHandle == optionID
	})
	slog.Debug("Builder.DeleteOption: option deleted", "node", nodeID, "option", optionID, "cascaded_edges", removed)
	return nil
}

// Graph returns a snapshot of the builder state as a persistable FlowGraph.
// Nodes and edges appear in insertion order with their stable ids.
func (b *Builder) Graph() models.FlowGraph {
	g := models.FlowGraph{
		ID:    b.graphID,
		Name:  b.name,
		Nodes: make([]models.FlowNode, 0, len(b.nodeOrder)),
		Edges: make([]models.FlowEdge, 0, len(b.edgeOrder)),
	}
	for _, id := range b.nodeOrder {
		n := *b.nodes[id]
		if len(n.Options) > 0 {
			n.Options = append([]models.NodeOption(nil), n.Options...)
		}
		g.Nodes = append(g.Nodes, n)
	}
	for _, id := range b.edgeOrder {
		g.Edges = append(g.Edges, *b.edges[id])
	}
	return g
}

// flowDocument is the import/export file format: the {name, nodes, edges}
// triple, nothing else.
type flowDocument struct {
	Name  string            `json:"name"`
	Nodes []models.FlowNode `json:"nodes"`
	Edges []models.FlowEdge `json:"edges"`
}

// ExportJSON serializes the builder state to the interchange format.
func (b *Builder) ExportJSON() ([]byte, error) {
	g := b.Graph()
	doc := flowDocument{Name: g.Name, Nodes: g.Nodes, Edges: g.Edges}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to export flow %q: %w", b.name, err)
	}
	return data, nil
}

// ImportJSON replaces the builder state wholesale with the parsed document.
// Only non-parseable input is rejected, and rejection happens before any
// state mutation. No structural validation is performed; malformed graphs
// surface downstream as execution dead ends.
func (b *Builder) ImportJSON(data []byte) error {
	var doc flowDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Builder.ImportJSON: rejected unparseable input", "error", err)
		return fmt.Errorf("%w: %v", ErrBadFlowJSON, err)
	}
	b.name = doc.Name
	b.nodes = make(map[string]*models.FlowNode, len(doc.Nodes))
	b.edges = make(map[string]*models.FlowEdge, len(doc.Edges))
	b.nodeOrder = b.nodeOrder[:0]
	b.edgeOrder = b.edgeOrder[:0]
	for i := range doc.Nodes {
		n := doc.Nodes[i]
		b.nodes[n.ID] = &n
		b.nodeOrder = append(b.nodeOrder, n.ID)
	}
	for i := range doc.Edges {
		e := doc.Edges[i]
		b.edges[e.ID] = &e
		b.edgeOrder = append(b.edgeOrder, e.ID)
	}
	slog.Debug("Builder.ImportJSON: state replaced", "name", b.name, "nodes", len(b.nodeOrder), "edges", len(b.edgeOrder))
	return nil
}

func (b *Builder) startNode() *models.FlowNode {
	for _, id := range b.nodeOrder {
		if b.nodes[id].Kind == models.NodeKindStart {
			return b.nodes[id]
		}
	}
	return nil
}

// removeEdges drops every edge matching the predicate and returns how many
// were removed.
func (b *Builder) removeEdges(match func(*models.FlowEdge) bool) int {
	removed := 0
	kept := b.edgeOrder[:0]
	for _, id := range b.edgeOrder {
		if match(b.edges[id]) {
			delete(b.edges, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	b.edgeOrder = kept
	return removed
}

func removeID(ids []string, id string) []string {
	kept := ids[:0]
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	return kept
}
