// Package api provides cart and wishlist handlers for the nursery endpoints.
// Prices are resolved server-side from the catalog at add time; the client
// only ever names a plant, a variant, and a quantity.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/cart"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/messaging"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
)

// cartItemRequest is the body of POST and PATCH /cart/items.
type cartItemRequest struct {
	PlantID   string `json:"plant_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// checkoutLinkResponse is the payload of POST /cart/checkout-link.
type checkoutLinkResponse struct {
	Link string `json:"link"`
}

// getCartHandler handles GET /cart
func (s *Server) getCartHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Session id is required"))
		return
	}
	slog.Debug("getCartHandler invoked", "sessionID", sessionID)

	writeJSONResponse(w, http.StatusOK, models.Success(s.carts.Get(sessionID)))
}

// addCartItemHandler handles POST /cart/items
func (s *Server) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Session id is required"))
		return
	}
	slog.Debug("addCartItemHandler invoked", "sessionID", sessionID)

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("addCartItemHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	p, err := s.st.GetPlant(req.PlantID)
	if err != nil {
		slog.Error("addCartItemHandler plant lookup failed", "error", err, "plantID", req.PlantID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to look up plant"))
		return
	}
	if p == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Plant not found"))
		return
	}

	var variant *models.PlantVariant
	var variantLabel string
	if req.VariantID != "" {
		variant = p.Variant(req.VariantID)
		if variant == nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Unknown variant for plant"))
			return
		}
		variantLabel = variant.Label
	}

	state, err := s.carts.AddItem(sessionID, cart.Entry{
		PlantID:      p.ID,
		VariantID:    req.VariantID,
		Name:         p.Name,
		VariantLabel: variantLabel,
		UnitPrice:    models.EffectivePrice(p, variant),
		Quantity:     req.Quantity,
	})
	if err != nil {
		slog.Error("addCartItemHandler add failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update cart"))
		return
	}

	slog.Info("Cart item added", "sessionID", sessionID, "plantID", p.ID, "variantID", req.VariantID)
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// updateCartItemHandler handles PATCH /cart/items. A quantity of zero or
// less removes the entry.
func (s *Server) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Session id is required"))
		return
	}
	slog.Debug("updateCartItemHandler invoked", "sessionID", sessionID)

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("updateCartItemHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	state, err := s.carts.UpdateQuantity(sessionID, req.PlantID, req.VariantID, req.Quantity)
	if err != nil {
		slog.Error("updateCartItemHandler update failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update cart"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// removeCartItemHandler handles DELETE /cart/items. The item is named by
// plant_id and optional variant_id query parameters.
func (s *Server) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Session id is required"))
		return
	}
	q := r.URL.Query()
	slog.Debug("removeCartItemHandler invoked", "sessionID", sessionID, "plantID", q.Get("plant_id"))

	state, err := s.carts.RemoveItem(sessionID, q.Get("plant_id"), q.Get("variant_id"))
	if err != nil {
		slog.Error("removeCartItemHandler remove failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update cart"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// clearCartHandler handles POST /cart/clear
func (s *Server) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Session id is required"))
		return
	}
	slog.Debug("clearCartHandler invoked", "sessionID", sessionID)

	state, err := s.carts.Clear(sessionID)
	if err != nil {
		slog.Error("clearCartHandler failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to clear cart"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// checkoutLinkHandler handles POST /cart/checkout-link. It builds the wa.me
// deep link for the current cart and fires a best-effort owner notification;
// a notification failure never blocks the checkout handoff.
func (s *Server) checkoutLinkHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Session id is required"))
		return
	}
	slog.Debug("checkoutLinkHandler invoked", "sessionID", sessionID)

	state := s.carts.Get(sessionID)
	if len(state.Items) == 0 {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Cart is empty"))
		return
	}

	settings, err := s.st.GetSettings()
	if err != nil {
		slog.Error("checkoutLinkHandler settings lookup failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load settings"))
		return
	}
	if settings == nil || settings.OwnerWhatsApp == "" {
		writeJSONResponse(w, http.StatusConflict, models.Error("Checkout is not configured"))
		return
	}

	link, err := messaging.CheckoutLink(state, *settings)
	if err != nil {
		slog.Error("checkoutLinkHandler link build failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to build checkout link"))
		return
	}

	if s.notifier != nil {
		body := fmt.Sprintf("New order request: %d items, total %s%.2f", state.TotalItems, settings.CurrencySymbol, state.TotalPrice)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Notify(ctx, body); err != nil {
			slog.Warn("checkoutLinkHandler owner notification failed", "error", err)
		}
	}

	slog.Info("Checkout link issued", "sessionID", sessionID, "items", state.TotalItems)
	writeJSONResponse(w, http.StatusOK, models.Success(checkoutLinkResponse{Link: link}))
}

// buyNowLinkHandler handles POST /plants/{id}/buy-now-link. It builds a
// single-item wa.me deep link without touching the session cart.
func (s *Server) buyNowLinkHandler(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("id")
	slog.Debug("buyNowLinkHandler invoked", "plantID", plantID)

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("buyNowLinkHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	p, err := s.st.GetPlant(plantID)
	if err != nil {
		slog.Error("buyNowLinkHandler plant lookup failed", "error", err, "plantID", plantID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to look up plant"))
		return
	}
	if p == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Plant not found"))
		return
	}

	var variant *models.PlantVariant
	if req.VariantID != "" {
		variant = p.Variant(req.VariantID)
		if variant == nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Unknown variant for plant"))
			return
		}
	}

	settings, err := s.st.GetSettings()
	if err != nil {
		slog.Error("buyNowLinkHandler settings lookup failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load settings"))
		return
	}
	if settings == nil || settings.OwnerWhatsApp == "" {
		writeJSONResponse(w, http.StatusConflict, models.Error("Checkout is not configured"))
		return
	}

	link, err := messaging.BuyNowLink(*p, variant, req.Quantity, *settings)
	if err != nil {
		slog.Error("buyNowLinkHandler link build failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to build order link"))
		return
	}

	slog.Info("Buy-now link issued", "plantID", p.ID, "variantID", req.VariantID)
	writeJSONResponse(w, http.StatusOK, models.Success(checkoutLinkResponse{Link: link}))
}

// getWishlistHandler handles GET /wishlist
func (s *Server) getWishlistHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Session id is required"))
		return
	}
	slog.Debug("getWishlistHandler invoked", "sessionID", sessionID)

	writeJSONResponse(w, http.StatusOK, models.Success(s.carts.Wishlist(sessionID)))
}

// addWishlistItemHandler handles POST /wishlist/items
func (s *Server) addWishlistItemHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Session id is required"))
		return
	}
	slog.Debug("addWishlistItemHandler invoked", "sessionID", sessionID)

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("addWishlistItemHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	p, err := s.st.GetPlant(req.PlantID)
	if err != nil {
		slog.Error("addWishlistItemHandler plant lookup failed", "error", err, "plantID", req.PlantID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to look up plant"))
		return
	}
	if p == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Plant not found"))
		return
	}

	state, err := s.carts.WishlistAdd(sessionID, cart.WishlistEntry{
		PlantID:   p.ID,
		VariantID: req.VariantID,
		Name:      p.Name,
		AddedAt:   time.Now(),
	})
	if err != nil {
		slog.Error("addWishlistItemHandler add failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update wishlist"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// removeWishlistItemHandler handles DELETE /wishlist/items
func (s *Server) removeWishlistItemHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Session id is required"))
		return
	}
	q := r.URL.Query()
	slog.Debug("removeWishlistItemHandler invoked", "sessionID", sessionID, "plantID", q.Get("plant_id"))

	state, err := s.carts.WishlistRemove(sessionID, q.Get("plant_id"), q.Get("variant_id"))
	if err != nil {
		slog.Error("removeWishlistItemHandler remove failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update wishlist"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(state))
}
