package cart

import (
	"errors"
	"testing"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/store"
)

func newTestManager() *Manager {
	return NewManager(store.NewInMemoryStore())
}

func TestAddItemMergesOnCompositeKey(t *testing.T) {
	m := newTestManager()
	s, err := m.AddItem("sess", Entry{PlantID: "p1", Name: "Monstera", UnitPrice: 100, Quantity: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err = m.AddItem("sess", Entry{PlantID: "p1", Name: "Monstera", UnitPrice: 100, Quantity: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Items) != 1 || s.Items[0].Quantity != 3 {
		t.Errorf("expected merged entry with quantity 3, got %+v", s.Items)
	}

	// Same plant, different variant: distinct composite key.
	s, _ = m.AddItem("sess", Entry{PlantID: "p1", VariantID: "v-large", Name: "Monstera", UnitPrice: 180, Quantity: 1})
	if len(s.Items) != 2 {
		t.Errorf("expected variant to get its own entry, got %+v", s.Items)
	}
	if s.TotalItems != 4 {
		t.Errorf("expected 4 total items, got %d", s.TotalItems)
	}
	if s.TotalPrice != 3*100+180 {
		t.Errorf("expected total price 480, got %v", s.TotalPrice)
	}
}

func TestTotalsInvariantAcrossMutations(t *testing.T) {
	m := newTestManager()
	m.AddItem("sess", Entry{PlantID: "a", UnitPrice: 50, Quantity: 2})
	m.AddItem("sess", Entry{PlantID: "b", UnitPrice: 30, Quantity: 1})
	m.UpdateQuantity("sess", "a", "", 5)
	s, err := m.RemoveItem("sess", "b", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantItems := 0
	wantPrice := 0.0
	for _, e := range s.Items {
		if e.Quantity <= 0 {
			t.Errorf("entry %s persisted with quantity %d", e.PlantID, e.Quantity)
		}
		wantItems += e.Quantity
		wantPrice += e.UnitPrice * float64(e.Quantity)
	}
	if s.TotalItems != wantItems || s.TotalPrice != wantPrice {
		t.Errorf("totals out of sync: %d/%v vs %d/%v", s.TotalItems, s.TotalPrice, wantItems, wantPrice)
	}
	if s.TotalItems != 5 || s.TotalPrice != 250 {
		t.Errorf("expected 5 items for 250, got %d for %v", s.TotalItems, s.TotalPrice)
	}
}

func TestUpdateQuantityZeroRemovesEntry(t *testing.T) {
	m := newTestManager()
	m.AddItem("sess", Entry{PlantID: "a", UnitPrice: 100, Quantity: 2})
	s, err := m.UpdateQuantity("sess", "a", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Items) != 0 || s.TotalItems != 0 || s.TotalPrice != 0 {
		t.Errorf("expected empty cart after zeroing quantity, got %+v", s)
	}

	m.AddItem("sess", Entry{PlantID: "a", UnitPrice: 100})
	s, _ = m.UpdateQuantity("sess", "a", "", -3)
	if len(s.Items) != 0 {
		t.Errorf("negative quantity must remove the entry, got %+v", s.Items)
	}
}

func TestClear(t *testing.T) {
	m := newTestManager()
	m.AddItem("sess", Entry{PlantID: "a", UnitPrice: 10, Quantity: 4})
	s, err := m.Clear("sess")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Items) != 0 || s.TotalItems != 0 {
		t.Errorf("expected empty state, got %+v", s)
	}
}

func TestCartPersistsAcrossManagers(t *testing.T) {
	st := store.NewInMemoryStore()
	m1 := NewManager(st)
	m1.AddItem("sess", Entry{PlantID: "a", UnitPrice: 75, Quantity: 2})

	m2 := NewManager(st)
	s := m2.Get("sess")
	if s.TotalItems != 2 || s.TotalPrice != 150 {
		t.Errorf("expected cart reloaded from storage, got %+v", s)
	}
}

func TestCorruptBlobDegradesToEmptyCart(t *testing.T) {
	st := store.NewInMemoryStore()
	st.SaveState(store.StateKindCart, "sess", []byte("{broken"))
	m := NewManager(st)
	s := m.Get("sess")
	if len(s.Items) != 0 {
		t.Errorf("expected empty cart for corrupt blob, got %+v", s)
	}
}

type failingStorage struct{}

var errStorageDown = errors.New("storage down")

func (failingStorage) GetState(kind, sessionID string) ([]byte, error) { return nil, errStorageDown }
func (failingStorage) SaveState(kind, sessionID string, blob []byte) error {
	return errStorageDown
}

func TestWriteErrorsPropagate(t *testing.T) {
	m := NewManager(failingStorage{})
	if _, err := m.AddItem("sess", Entry{PlantID: "a", UnitPrice: 10}); !errors.Is(err, errStorageDown) {
		t.Errorf("expected storage error to propagate, got %v", err)
	}
	// Read path degrades instead.
	if s := m.Get("sess"); len(s.Items) != 0 {
		t.Errorf("expected empty cart on read failure, got %+v", s)
	}
}

func TestSubscribeReceivesChangeEvents(t *testing.T) {
	m := newTestManager()
	ch := m.Subscribe("sess")
	m.AddItem("sess", Entry{PlantID: "a", UnitPrice: 10})

	select {
	case ev := <-ch:
		if ev.SessionID != "sess" || ev.Kind != store.StateKindCart {
			t.Errorf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected a change event")
	}

	// Other sessions do not leak events.
	m.AddItem("other", Entry{PlantID: "b", UnitPrice: 10})
	select {
	case ev := <-ch:
		t.Errorf("unexpected cross-session event %+v", ev)
	default:
	}

	m.Unsubscribe("sess", ch)
	if _, open := <-ch; open {
		t.Error("expected channel closed after unsubscribe")
	}
}

func TestWishlistAddIsIdempotent(t *testing.T) {
	m := newTestManager()
	m.WishlistAdd("sess", WishlistEntry{PlantID: "p1", Name: "Monstera"})
	s, err := m.WishlistAdd("sess", WishlistEntry{PlantID: "p1", Name: "Monstera"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Items) != 1 {
		t.Errorf("expected idempotent add, got %+v", s.Items)
	}

	s, _ = m.WishlistAdd("sess", WishlistEntry{PlantID: "p1", VariantID: "v1", Name: "Monstera"})
	if len(s.Items) != 2 {
		t.Errorf("expected distinct variant entry, got %+v", s.Items)
	}
}

func TestWishlistRemove(t *testing.T) {
	m := newTestManager()
	m.WishlistAdd("sess", WishlistEntry{PlantID: "p1"})
	m.WishlistAdd("sess", WishlistEntry{PlantID: "p2"})
	s, err := m.WishlistRemove("sess", "p1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Items) != 1 || s.Items[0].PlantID != "p2" {
		t.Errorf("expected only p2 to remain, got %+v", s.Items)
	}
}
