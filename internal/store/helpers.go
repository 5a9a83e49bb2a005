package store

import (
	"encoding/json"
	"fmt"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
)

// appStateActiveFlow is the pointer record naming the active flow graph.
// Activation is a single write to this key, so there is no window where a
// concurrent reader observes zero active graphs.
const appStateActiveFlow = "active_flow"

// rowScanner abstracts sql.Row and sql.Rows so scan helpers serve both.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// marshalFlowDoc serializes a flow's nodes and edges for the JSON document
// columns. Nil slices serialize as empty arrays so round-trips stay stable.
func marshalFlowDoc(g models.FlowGraph) (nodes, edges string, err error) {
	if g.Nodes == nil {
		g.Nodes = []models.FlowNode{}
	}
	if g.Edges == nil {
		g.Edges = []models.FlowEdge{}
	}
	nodesJSON, err := json.Marshal(g.Nodes)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal flow nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(g.Edges)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal flow edges: %w", err)
	}
	return string(nodesJSON), string(edgesJSON), nil
}

// scanFlow scans a flow row (id, name, nodes, edges, created_at, updated_at)
// and deserializes the JSON document columns.
func scanFlow(row rowScanner) (models.FlowGraph, error) {
	var g models.FlowGraph
	var nodesJSON, edgesJSON string
	if err := row.Scan(&g.ID, &g.Name, &nodesJSON, &edgesJSON, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return g, err
	}
	if err := json.Unmarshal([]byte(nodesJSON), &g.Nodes); err != nil {
		return g, fmt.Errorf("failed to unmarshal flow nodes for %s: %w", g.ID, err)
	}
	if err := json.Unmarshal([]byte(edgesJSON), &g.Edges); err != nil {
		return g, fmt.Errorf("failed to unmarshal flow edges for %s: %w", g.ID, err)
	}
	return g, nil
}

// scanPlant scans a plant row in column order
// (id, name, slug, description, category_id, price, discounted_price, stock,
// featured, care_level, light, created_at, updated_at). Images and variants
// come from linked tables and are attached by the caller.
func scanPlant(row rowScanner) (models.Plant, error) {
	var p models.Plant
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.CategoryID,
		&p.Price, &p.DiscountedPrice, &p.Stock, &p.Featured,
		&p.CareLevel, &p.Light, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}
	return p, nil
}

// scanCategory scans a category row (id, name, slug, description, image_url, position).
func scanCategory(row rowScanner) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.Position)
	return c, err
}

// scanReview scans a review row (id, plant_id, author, rating, body, approved, created_at).
func scanReview(row rowScanner) (models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.PlantID, &r.Author, &r.Rating, &r.Body, &r.Approved, &r.CreatedAt)
	return r, err
}
