package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/cart"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/store"
)

func seedPlant(t *testing.T, st store.Store) models.Plant {
	t.Helper()
	p := models.Plant{
		ID:              "pl_monstera",
		Name:            "Monstera Deliciosa",
		Slug:            "monstera-deliciosa",
		Price:           600,
		DiscountedPrice: 450,
		Stock:           5,
		Variants: []models.PlantVariant{
			{ID: "var_large", Label: "Large", Price: 950, Stock: 2},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := st.SavePlant(p); err != nil {
		t.Fatalf("Failed to seed plant: %v", err)
	}
	return p
}

func TestCartRequiresSessionID(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/cart", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestAddCartItemResolvesServerPrice(t *testing.T) {
	s, st, _ := newTestServer(t)
	seedPlant(t, st)

	rec := doJSON(t, s, http.MethodPost, "/cart/items?session_id=visitor1", cartItemRequest{PlantID: "pl_monstera", Quantity: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var state cart.State
	decodeResult(t, rec, &state)
	if len(state.Items) != 1 {
		t.Fatalf("Expected 1 entry, got %+v", state.Items)
	}
	// Discounted price wins over base price.
	if state.Items[0].UnitPrice != 450 {
		t.Errorf("Expected discounted unit price 450, got %v", state.Items[0].UnitPrice)
	}
	if state.TotalItems != 2 || state.TotalPrice != 900 {
		t.Errorf("Unexpected totals %d/%v", state.TotalItems, state.TotalPrice)
	}

	// Variant price wins over the discount.
	rec = doJSON(t, s, http.MethodPost, "/cart/items?session_id=visitor1", cartItemRequest{PlantID: "pl_monstera", VariantID: "var_large", Quantity: 1})
	decodeResult(t, rec, &state)
	if len(state.Items) != 2 || state.Items[1].UnitPrice != 950 {
		t.Errorf("Expected variant entry at 950, got %+v", state.Items)
	}
}

func TestAddCartItemUnknownPlant(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/cart/items?session_id=visitor1", cartItemRequest{PlantID: "pl_ghost", Quantity: 1})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestAddCartItemUnknownVariant(t *testing.T) {
	s, st, _ := newTestServer(t)
	seedPlant(t, st)

	rec := doJSON(t, s, http.MethodPost, "/cart/items?session_id=visitor1", cartItemRequest{PlantID: "pl_monstera", VariantID: "var_ghost", Quantity: 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUpdateAndRemoveCartItem(t *testing.T) {
	s, st, _ := newTestServer(t)
	seedPlant(t, st)

	doJSON(t, s, http.MethodPost, "/cart/items?session_id=visitor1", cartItemRequest{PlantID: "pl_monstera", Quantity: 2})

	rec := doJSON(t, s, http.MethodPatch, "/cart/items?session_id=visitor1", cartItemRequest{PlantID: "pl_monstera", Quantity: 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var state cart.State
	decodeResult(t, rec, &state)
	if len(state.Items) != 0 || state.TotalItems != 0 || state.TotalPrice != 0 {
		t.Errorf("Expected empty cart after zero quantity, got %+v", state)
	}
}

func TestCheckoutLink(t *testing.T) {
	s, st, notifier := newTestServer(t)
	seedPlant(t, st)
	if err := st.SaveSettings(models.SiteSettings{
		ShopName:      "Green Leaf",
		OwnerWhatsApp: "919876543210",
	}); err != nil {
		t.Fatalf("Failed to seed settings: %v", err)
	}

	doJSON(t, s, http.MethodPost, "/cart/items?session_id=visitor1", cartItemRequest{PlantID: "pl_monstera", Quantity: 2})

	rec := doJSON(t, s, http.MethodPost, "/cart/checkout-link?session_id=visitor1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp checkoutLinkResponse
	decodeResult(t, rec, &resp)
	if !strings.HasPrefix(resp.Link, "https://wa.me/919876543210?text=") {
		t.Errorf("Unexpected checkout link %q", resp.Link)
	}

	if len(notifier.Notifications) != 1 {
		t.Fatalf("Expected 1 owner notification, got %d", len(notifier.Notifications))
	}
	if !strings.Contains(notifier.Notifications[0], "2 items") {
		t.Errorf("Unexpected notification body %q", notifier.Notifications[0])
	}
}

func TestBuyNowLink(t *testing.T) {
	s, st, _ := newTestServer(t)
	seedPlant(t, st)
	if err := st.SaveSettings(models.SiteSettings{
		ShopName:      "Green Leaf",
		OwnerWhatsApp: "919876543210",
	}); err != nil {
		t.Fatalf("Failed to seed settings: %v", err)
	}

	rec := doJSON(t, s, http.MethodPost, "/plants/pl_monstera/buy-now-link", cartItemRequest{VariantID: "var_large", Quantity: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp checkoutLinkResponse
	decodeResult(t, rec, &resp)
	if !strings.HasPrefix(resp.Link, "https://wa.me/919876543210?text=") {
		t.Errorf("Unexpected buy-now link %q", resp.Link)
	}
	// Variant label and variant price are part of the encoded message.
	if !strings.Contains(resp.Link, "Large") || !strings.Contains(resp.Link, "950.00") {
		t.Errorf("Expected variant details in link %q", resp.Link)
	}
}

func TestBuyNowLinkUnknownPlant(t *testing.T) {
	s, st, _ := newTestServer(t)
	if err := st.SaveSettings(models.SiteSettings{OwnerWhatsApp: "919876543210"}); err != nil {
		t.Fatalf("Failed to seed settings: %v", err)
	}

	rec := doJSON(t, s, http.MethodPost, "/plants/pl_missing/buy-now-link", cartItemRequest{Quantity: 1})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCheckoutLinkEmptyCart(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/cart/checkout-link?session_id=visitor1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestCheckoutLinkWithoutSettings(t *testing.T) {
	s, st, _ := newTestServer(t)
	seedPlant(t, st)
	doJSON(t, s, http.MethodPost, "/cart/items?session_id=visitor1", cartItemRequest{PlantID: "pl_monstera", Quantity: 1})

	rec := doJSON(t, s, http.MethodPost, "/cart/checkout-link?session_id=visitor1", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestNotificationFailureDoesNotBlockCheckout(t *testing.T) {
	s, st, notifier := newTestServer(t)
	seedPlant(t, st)
	st.SaveSettings(models.SiteSettings{OwnerWhatsApp: "919876543210"})
	notifier.Err = http.ErrHandlerTimeout

	doJSON(t, s, http.MethodPost, "/cart/items?session_id=visitor1", cartItemRequest{PlantID: "pl_monstera", Quantity: 1})

	rec := doJSON(t, s, http.MethodPost, "/cart/checkout-link?session_id=visitor1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected checkout to succeed despite notification failure, got %d", rec.Code)
	}
}

func TestSessionIDHeaderTakesPrecedence(t *testing.T) {
	s, st, _ := newTestServer(t)
	seedPlant(t, st)

	req := doJSONWithHeader(t, s, http.MethodPost, "/cart/items?session_id=queryvisitor",
		cartItemRequest{PlantID: "pl_monstera", Quantity: 1}, "X-Session-ID", "headervisitor")
	if req.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, req.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/cart?session_id=headervisitor", nil)
	var state cart.State
	decodeResult(t, rec, &state)
	if len(state.Items) != 1 {
		t.Errorf("Expected item under header session, got %+v", state.Items)
	}

	rec = doJSON(t, s, http.MethodGet, "/cart?session_id=queryvisitor", nil)
	decodeResult(t, rec, &state)
	if len(state.Items) != 0 {
		t.Errorf("Expected empty cart under query session, got %+v", state.Items)
	}
}

func TestWishlistEndpoints(t *testing.T) {
	s, st, _ := newTestServer(t)
	seedPlant(t, st)

	rec := doJSON(t, s, http.MethodPost, "/wishlist/items?session_id=visitor1", cartItemRequest{PlantID: "pl_monstera"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Idempotent.
	doJSON(t, s, http.MethodPost, "/wishlist/items?session_id=visitor1", cartItemRequest{PlantID: "pl_monstera"})

	var state cart.WishlistState
	rec = doJSON(t, s, http.MethodGet, "/wishlist?session_id=visitor1", nil)
	decodeResult(t, rec, &state)
	if len(state.Items) != 1 || state.Items[0].Name != "Monstera Deliciosa" {
		t.Fatalf("Expected 1 wishlist entry, got %+v", state.Items)
	}

	rec = doJSON(t, s, http.MethodDelete, "/wishlist/items?session_id=visitor1&plant_id=pl_monstera", nil)
	decodeResult(t, rec, &state)
	if len(state.Items) != 0 {
		t.Errorf("Expected empty wishlist, got %+v", state.Items)
	}
}
