package cart

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/store"
)

// WishlistEntry is one saved item, identified by the same composite key as
// cart entries.
type WishlistEntry struct {
	PlantID   string    `json:"plant_id"`
	VariantID string    `json:"variant_id,omitempty"`
	Name      string    `json:"name"`
	AddedAt   time.Time `json:"added_at"`
}

// WishlistState is a session's full wishlist.
type WishlistState struct {
	Items     []WishlistEntry `json:"items"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Wishlist loads a session's wishlist with the same fail-soft read policy
// as the cart.
func (m *Manager) Wishlist(sessionID string) WishlistState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadWishlist(sessionID)
}

// WishlistAdd saves an item. Adding an already-saved composite key is a
// no-op, keeping the original AddedAt.
func (m *Manager) WishlistAdd(sessionID string, entry WishlistEntry) (WishlistState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.loadWishlist(sessionID)
	for _, e := range s.Items {
		if e.PlantID == entry.PlantID && e.VariantID == entry.VariantID {
			return s, nil
		}
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}
	s.Items = append(s.Items, entry)
	return m.commitWishlist(sessionID, s)
}

// WishlistRemove filters out the entry with the matching composite key.
func (m *Manager) WishlistRemove(sessionID, plantID, variantID string) (WishlistState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.loadWishlist(sessionID)
	kept := s.Items[:0]
	for _, e := range s.Items {
		if e.PlantID == plantID && e.VariantID == variantID {
			continue
		}
		kept = append(kept, e)
	}
	s.Items = kept
	return m.commitWishlist(sessionID, s)
}

func (m *Manager) loadWishlist(sessionID string) WishlistState {
	blob, err := m.storage.GetState(store.StateKindWishlist, sessionID)
	if err != nil {
		slog.Error("wishlist load failed, serving empty wishlist", "error", err, "session", sessionID)
		return WishlistState{}
	}
	if blob == nil {
		return WishlistState{}
	}
	var s WishlistState
	if err := json.Unmarshal(blob, &s); err != nil {
		slog.Error("wishlist blob corrupt, serving empty wishlist", "error", err, "session", sessionID)
		return WishlistState{}
	}
	return s
}

func (m *Manager) commitWishlist(sessionID string, s WishlistState) (WishlistState, error) {
	if s.Items == nil {
		s.Items = []WishlistEntry{}
	}
	s.UpdatedAt = time.Now()
	blob, err := json.Marshal(s)
	if err != nil {
		return s, fmt.Errorf("failed to marshal wishlist for %s: %w", sessionID, err)
	}
	if err := m.storage.SaveState(store.StateKindWishlist, sessionID, blob); err != nil {
		return s, fmt.Errorf("failed to persist wishlist for %s: %w", sessionID, err)
	}
	m.broadcast(sessionID, store.StateKindWishlist)
	return s, nil
}
