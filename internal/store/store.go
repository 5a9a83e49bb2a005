// Package store provides storage backends for the nursery backend.
//
// It includes an in-memory store used by tests and zero-config runs, plus
// SQLite and PostgreSQL stores selected by DSN. All backends persist flow
// graphs wholesale (nodes and edges serialized as JSON documents) and map
// catalog entities 1:1 to rows, with images and variants in linked tables
// re-assembled on read.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
)

// State kinds for session-scoped state blobs.
const (
	// StateKindCart keys a session's cart collection.
	StateKindCart = "cart"
	// StateKindWishlist keys a session's wishlist collection.
	StateKindWishlist = "wishlist"
)

// Store defines the persistence contract shared by all backends.
//
// Not-found is reported as a nil result with a nil error; callers on read
// paths additionally treat storage errors as absence (logged, degraded),
// while write-path errors always propagate.
type Store interface {
	// Flow graphs. SaveFlow assigns an id on first save and replaces
	// name/nodes/edges wholesale afterwards. SetActiveFlow updates a single
	// pointer record; an empty id clears it.
	SaveFlow(g models.FlowGraph) (models.FlowGraph, error)
	GetFlow(id string) (*models.FlowGraph, error)
	GetActiveFlow() (*models.FlowGraph, error)
	ListFlows() ([]models.FlowGraph, error)
	DeleteFlow(id string) error
	SetActiveFlow(id string) error

	// Catalog.
	SavePlant(p models.Plant) error
	GetPlant(id string) (*models.Plant, error)
	GetPlantBySlug(slug string) (*models.Plant, error)
	ListPlants() ([]models.Plant, error)
	DeletePlant(id string) error

	SaveCategory(c models.Category) error
	ListCategories() ([]models.Category, error)
	DeleteCategory(id string) error

	SaveReview(r models.Review) error
	ListReviews(plantID string) ([]models.Review, error)
	ListPendingReviews() ([]models.Review, error)
	ApproveReview(id string) error
	DeleteReview(id string) error

	GetSettings() (*models.SiteSettings, error)
	SaveSettings(s models.SiteSettings) error

	// Session state blobs (cart/wishlist). The blob is opaque JSON owned by
	// the cart package; last write wins.
	GetState(kind, sessionID string) ([]byte, error)
	SaveState(kind, sessionID string, blob []byte) error

	Close() error
}

type stateKey struct {
	kind      string
	sessionID string
}

// InMemoryStore is a mutex-guarded map-backed store. It backs tests and
// runs without a configured DSN.
type InMemoryStore struct {
	mu         sync.RWMutex
	flows      map[string]models.FlowGraph
	flowOrder  []string
	activeFlow string
	plants     map[string]models.Plant
	categories map[string]models.Category
	reviews    map[string]models.Review
	settings   *models.SiteSettings
	states     map[stateKey][]byte
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		flows:      make(map[string]models.FlowGraph),
		plants:     make(map[string]models.Plant),
		categories: make(map[string]models.Category),
		reviews:    make(map[string]models.Review),
		states:     make(map[stateKey][]byte),
	}
}

func (s *InMemoryStore) SaveFlow(g models.FlowGraph) (models.FlowGraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if g.ID == "" {
		g.ID = uuid.NewString()
		g.CreatedAt = now
		s.flowOrder = append(s.flowOrder, g.ID)
	} else if _, ok := s.flows[g.ID]; !ok {
		s.flowOrder = append(s.flowOrder, g.ID)
		if g.CreatedAt.IsZero() {
			g.CreatedAt = now
		}
	} else {
		g.CreatedAt = s.flows[g.ID].CreatedAt
	}
	g.UpdatedAt = now
	g.IsActive = s.activeFlow == g.ID
	s.flows[g.ID] = cloneFlow(g)
	return g, nil
}

func (s *InMemoryStore) GetFlow(id string) (*models.FlowGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.flows[id]
	if !ok {
		return nil, nil
	}
	g = cloneFlow(g)
	g.IsActive = s.activeFlow == id
	return &g, nil
}

func (s *InMemoryStore) GetActiveFlow() (*models.FlowGraph, error) {
	s.mu.RLock()
	active := s.activeFlow
	s.mu.RUnlock()
	if active == "" {
		return nil, nil
	}
	return s.GetFlow(active)
}

func (s *InMemoryStore) ListFlows() ([]models.FlowGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flows := make([]models.FlowGraph, 0, len(s.flowOrder))
	for _, id := range s.flowOrder {
		g := cloneFlow(s.flows[id])
		g.IsActive = s.activeFlow == id
		flows = append(flows, g)
	}
	return flows, nil
}

func (s *InMemoryStore) DeleteFlow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, id)
	kept := s.flowOrder[:0]
	for _, v := range s.flowOrder {
		if v != id {
			kept = append(kept, v)
		}
	}
	s.flowOrder = kept
	if s.activeFlow == id {
		s.activeFlow = ""
	}
	return nil
}

func (s *InMemoryStore) SetActiveFlow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeFlow = id
	return nil
}

func (s *InMemoryStore) SavePlant(p models.Plant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plants[p.ID] = clonePlant(p)
	return nil
}

func (s *InMemoryStore) GetPlant(id string) (*models.Plant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plants[id]
	if !ok {
		return nil, nil
	}
	p = clonePlant(p)
	return &p, nil
}

func (s *InMemoryStore) GetPlantBySlug(slug string) (*models.Plant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plants {
		if p.Slug == slug {
			p = clonePlant(p)
			return &p, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) ListPlants() ([]models.Plant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plants := make([]models.Plant, 0, len(s.plants))
	for _, p := range s.plants {
		plants = append(plants, clonePlant(p))
	}
	sort.Slice(plants, func(i, j int) bool { return plants[i].CreatedAt.Before(plants[j].CreatedAt) })
	return plants, nil
}

func (s *InMemoryStore) DeletePlant(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plants, id)
	return nil
}

func (s *InMemoryStore) SaveCategory(c models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *InMemoryStore) ListCategories() ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	categories := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Position < categories[j].Position })
	return categories, nil
}

func (s *InMemoryStore) DeleteCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.categories, id)
	return nil
}

func (s *InMemoryStore) SaveReview(r models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[r.ID] = r
	return nil
}

func (s *InMemoryStore) ListReviews(plantID string) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var reviews []models.Review
	for _, r := range s.reviews {
		if r.PlantID == plantID && r.Approved {
			reviews = append(reviews, r)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.Before(reviews[j].CreatedAt) })
	return reviews, nil
}

func (s *InMemoryStore) ListPendingReviews() ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var reviews []models.Review
	for _, r := range s.reviews {
		if !r.Approved {
			reviews = append(reviews, r)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.Before(reviews[j].CreatedAt) })
	return reviews, nil
}

func (s *InMemoryStore) ApproveReview(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil
	}
	r.Approved = true
	s.reviews[id] = r
	return nil
}

func (s *InMemoryStore) DeleteReview(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reviews, id)
	return nil
}

func (s *InMemoryStore) GetSettings() (*models.SiteSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, nil
	}
	cp := *s.settings
	return &cp, nil
}

func (s *InMemoryStore) SaveSettings(settings models.SiteSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.UpdatedAt = time.Now()
	s.settings = &settings
	return nil
}

func (s *InMemoryStore) GetState(kind, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.states[stateKey{kind: kind, sessionID: sessionID}]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), blob...), nil
}

func (s *InMemoryStore) SaveState(kind, sessionID string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[stateKey{kind: kind, sessionID: sessionID}] = append([]byte(nil), blob...)
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

func cloneFlow(g models.FlowGraph) models.FlowGraph {
	g.Nodes = append([]models.FlowNode(nil), g.Nodes...)
	for i := range g.Nodes {
		if len(g.Nodes[i].Options) > 0 {
			g.Nodes[i].Options = append([]models.NodeOption(nil), g.Nodes[i].Options...)
		}
	}
	g.Edges = append([]models.FlowEdge(nil), g.Edges...)
	return g
}

func clonePlant(p models.Plant) models.Plant {
	p.Images = append([]models.PlantImage(nil), p.Images...)
	p.Variants = append([]models.PlantVariant(nil), p.Variants...)
	return p
}
