// Package cart maintains session-scoped cart and wishlist collections with
// derived totals, the server-side analog of the storefront's per-browser
// storage. Collections are serialized wholesale after every mutation; last
// write wins, with a per-session broadcast standing in for the cross-tab
// refresh signal.
package cart

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/store"
)

// Storage persists opaque state blobs per (kind, session). Satisfied by
// every store backend.
type Storage interface {
	GetState(kind, sessionID string) ([]byte, error)
	SaveState(kind, sessionID string, blob []byte) error
}

// Entry is one cart line, identified by the (PlantID, VariantID) composite
// key. UnitPrice is the effective price resolved when the item was added.
type Entry struct {
	PlantID      string  `json:"plant_id"`
	VariantID    string  `json:"variant_id,omitempty"`
	Name         string  `json:"name"`
	VariantLabel string  `json:"variant_label,omitempty"`
	UnitPrice    float64 `json:"unit_price"`
	Quantity     int     `json:"quantity"`
}

// State is a session's full cart with totals derived by folding over the
// entries after every mutation.
type State struct {
	Items      []Entry   `json:"items"`
	TotalItems int       `json:"total_items"`
	TotalPrice float64   `json:"total_price"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Event signals that a session's collection changed so other open views can
// refresh.
type Event struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
}

// Manager owns cart and wishlist state for all sessions. Mutations hold a
// single mutex; the collections are tiny and every operation is a handful
// of slice scans.
type Manager struct {
	storage Storage
	mu      sync.Mutex
	subs    map[string][]chan Event
}

// NewManager creates a manager over the given storage backend.
func NewManager(storage Storage) *Manager {
	return &Manager{
		storage: storage,
		subs:    make(map[string][]chan Event),
	}
}

// Get loads a session's cart. A missing or corrupt blob degrades to an
// empty cart; storage errors on this read path are logged, not surfaced.
func (m *Manager) Get(sessionID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(sessionID)
}

// AddItem adds quantity units of an item, merging with an existing entry
// with the same composite key. A non-positive quantity counts as one.
func (m *Manager) AddItem(sessionID string, item Entry) (State, error) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.load(sessionID)
	merged := false
	for i := range s.Items {
		if s.Items[i].PlantID == item.PlantID && s.Items[i].VariantID == item.VariantID {
			s.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.Items = append(s.Items, item)
	}
	return m.commit(sessionID, s)
}

// UpdateQuantity sets an entry's quantity. A quantity of zero or below
// removes the entry; quantities never persist at or below zero.
func (m *Manager) UpdateQuantity(sessionID, plantID, variantID string, quantity int) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.load(sessionID)
	kept := s.Items[:0]
	for _, e := range s.Items {
		if e.PlantID == plantID && e.VariantID == variantID {
			if quantity <= 0 {
				continue
			}
			e.Quantity = quantity
		}
		kept = append(kept, e)
	}
	s.Items = kept
	return m.commit(sessionID, s)
}

// RemoveItem filters out the entry with the matching composite key.
func (m *Manager) RemoveItem(sessionID, plantID, variantID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.load(sessionID)
	kept := s.Items[:0]
	for _, e := range s.Items {
		if e.PlantID == plantID && e.VariantID == variantID {
			continue
		}
		kept = append(kept, e)
	}
	s.Items = kept
	return m.commit(sessionID, s)
}

// Clear resets the session's cart to the empty collection.
func (m *Manager) Clear(sessionID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commit(sessionID, State{})
}

// Subscribe returns a channel receiving change events for the session.
// Events are dropped, not queued, when the receiver lags.
func (m *Manager) Subscribe(sessionID string) <-chan Event {
	ch := make(chan Event, 4)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sessionID] = append(m.subs[sessionID], ch)
	return ch
}

// Unsubscribe removes and closes a previously subscribed channel.
func (m *Manager) Unsubscribe(sessionID string, ch <-chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.subs[sessionID]
	for i, sub := range subs {
		if sub == ch {
			m.subs[sessionID] = append(subs[:i], subs[i+1:]...)
			close(sub)
			break
		}
	}
	if len(m.subs[sessionID]) == 0 {
		delete(m.subs, sessionID)
	}
}

// load reads and decodes a session's cart under the held mutex.
func (m *Manager) load(sessionID string) State {
	blob, err := m.storage.GetState(store.StateKindCart, sessionID)
	if err != nil {
		slog.Error("cart load failed, serving empty cart", "error", err, "session", sessionID)
		return State{}
	}
	if blob == nil {
		return State{}
	}
	var s State
	if err := json.Unmarshal(blob, &s); err != nil {
		slog.Error("cart blob corrupt, serving empty cart", "error", err, "session", sessionID)
		return State{}
	}
	return s
}

// commit recomputes totals, persists the whole collection, and notifies
// subscribers. Persist failures propagate; the prior stored state stays
// untouched.
func (m *Manager) commit(sessionID string, s State) (State, error) {
	if s.Items == nil {
		s.Items = []Entry{}
	}
	s.TotalItems = 0
	s.TotalPrice = 0
	for _, e := range s.Items {
		s.TotalItems += e.Quantity
		s.TotalPrice += e.UnitPrice * float64(e.Quantity)
	}
	s.UpdatedAt = time.Now()

	blob, err := json.Marshal(s)
	if err != nil {
		return s, fmt.Errorf("failed to marshal cart for %s: %w", sessionID, err)
	}
	if err := m.storage.SaveState(store.StateKindCart, sessionID, blob); err != nil {
		return s, fmt.Errorf("failed to persist cart for %s: %w", sessionID, err)
	}
	m.broadcast(sessionID, store.StateKindCart)
	return s, nil
}

func (m *Manager) broadcast(sessionID, kind string) {
	for _, ch := range m.subs[sessionID] {
		select {
		case ch <- Event{SessionID: sessionID, Kind: kind}:
		default:
		}
	}
}
