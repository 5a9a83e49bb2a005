// Package messaging builds WhatsApp deep links for checkout and buy-now
// handoff. There is no request/response cycle here: the storefront hands the
// visitor a wa.me URL with a pre-filled order message and the conversation
// continues on WhatsApp.
package messaging

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/cart"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
)

// phoneNumberRegex matches all non-numeric characters for canonicalization.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// MinPhoneDigits is the minimum digit count accepted for a WhatsApp number.
const MinPhoneDigits = 6

// CanonicalizePhone validates and canonicalizes a WhatsApp phone number.
// It removes all non-numeric characters and validates the result has at
// least MinPhoneDigits digits.
func CanonicalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("phone number cannot be empty")
	}

	// Canonicalize by removing all non-numeric characters
	canonical := phoneNumberRegex.ReplaceAllString(raw, "")
	wasModified := raw != canonical

	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in %q", raw)
	}
	if len(canonical) < MinPhoneDigits {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum %d digits required)", canonical, MinPhoneDigits)
	}

	if wasModified {
		slog.Debug("messaging.CanonicalizePhone canonicalized number", "original", raw, "canonical", canonical)
	}

	return canonical, nil
}

// CheckoutMessage renders a cart as the pre-filled order text: a greeting,
// one numbered line per item with quantity and line total, and the grand
// total. The output is deterministic for a given cart so links are stable.
func CheckoutMessage(state cart.State, settings models.SiteSettings) string {
	cur := settings.CurrencySymbol
	if cur == "" {
		cur = models.DefaultCurrencySymbol
	}

	var b strings.Builder
	b.WriteString("Hello! I would like to place an order:\n\n")
	for i, item := range state.Items {
		name := item.Name
		if item.VariantLabel != "" {
			name = fmt.Sprintf("%s (%s)", name, item.VariantLabel)
		}
		lineTotal := item.UnitPrice * float64(item.Quantity)
		fmt.Fprintf(&b, "%d. %s x%d - %s%.2f\n", i+1, name, item.Quantity, cur, lineTotal)
	}
	fmt.Fprintf(&b, "\nTotal: %s%.2f", cur, state.TotalPrice)
	return b.String()
}

// BuyNowMessage renders the single-item order text used by the "buy now"
// button on a product page.
func BuyNowMessage(plant models.Plant, variant *models.PlantVariant, quantity int, settings models.SiteSettings) string {
	if quantity <= 0 {
		quantity = 1
	}
	cur := settings.CurrencySymbol
	if cur == "" {
		cur = models.DefaultCurrencySymbol
	}

	name := plant.Name
	if variant != nil && variant.Label != "" {
		name = fmt.Sprintf("%s (%s)", name, variant.Label)
	}
	price := models.EffectivePrice(&plant, variant)

	var b strings.Builder
	b.WriteString("Hello! I would like to buy:\n\n")
	fmt.Fprintf(&b, "%s x%d - %s%.2f", name, quantity, cur, price*float64(quantity))
	return b.String()
}

// DeepLink builds a wa.me URL targeting phone with text pre-filled in the
// chat box. The phone is canonicalized to bare digits first.
func DeepLink(phone, text string) (string, error) {
	canonical, err := CanonicalizePhone(phone)
	if err != nil {
		return "", fmt.Errorf("failed to build deep link: %w", err)
	}
	link := "https://wa.me/" + canonical
	if text != "" {
		link += "?text=" + url.QueryEscape(text)
	}
	return link, nil
}

// CheckoutLink builds the full checkout deep link for a cart against the
// owner's number from site settings.
func CheckoutLink(state cart.State, settings models.SiteSettings) (string, error) {
	return DeepLink(settings.OwnerWhatsApp, CheckoutMessage(state, settings))
}

// BuyNowLink builds a single-item deep link for a plant (and optional
// variant) against the owner's number from site settings.
func BuyNowLink(plant models.Plant, variant *models.PlantVariant, quantity int, settings models.SiteSettings) (string, error) {
	return DeepLink(settings.OwnerWhatsApp, BuyNowMessage(plant, variant, quantity, settings))
}
