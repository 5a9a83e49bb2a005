// Package models defines the core data structures for the nursery backend.
//
// It includes the catalog entities (plants, categories, reviews, settings),
// the chatbot flow entities, and the API response envelope shared across modules.
package models

import (
	"errors"
	"strings"
	"time"
)

// Validation constants for input validation
const (
	// MaxPlantNameLength defines the maximum allowed length for a plant name
	MaxPlantNameLength = 200
	// MaxReviewBodyLength defines the maximum allowed length for a review body
	MaxReviewBodyLength = 2000
	// MinReviewRating defines the minimum allowed review rating
	MinReviewRating = 1
	// MaxReviewRating defines the maximum allowed review rating
	MaxReviewRating = 5
)

// Error variables for better error handling and testability
var (
	ErrEmptyPlantName     = errors.New("plant name cannot be empty")
	ErrPlantNameTooLong   = errors.New("plant name exceeds maximum length")
	ErrNegativePrice      = errors.New("price cannot be negative")
	ErrEmptyCategoryName  = errors.New("category name cannot be empty")
	ErrEmptyReviewAuthor  = errors.New("review author cannot be empty")
	ErrEmptyReviewBody    = errors.New("review body cannot be empty")
	ErrReviewBodyTooLong  = errors.New("review body exceeds maximum length")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrEmptyOwnerWhatsApp = errors.New("owner WhatsApp number cannot be empty")
)

// CareLevel describes how demanding a plant is to keep alive.
type CareLevel string

const (
	CareLevelEasy     CareLevel = "easy"
	CareLevelModerate CareLevel = "moderate"
	CareLevelExpert   CareLevel = "expert"
)

// LightRequirement describes the light a plant needs.
type LightRequirement string

const (
	LightLow      LightRequirement = "low"
	LightIndirect LightRequirement = "indirect"
	LightFull     LightRequirement = "full-sun"
)

// PlantImage is a single catalog image. Position controls gallery order.
type PlantImage struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// PlantVariant is a purchasable variation of a plant (e.g. pot size).
// A zero Price means the variant inherits the plant's price.
type PlantVariant struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// Plant is a catalog product.
type Plant struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	Description     string           `json:"description,omitempty"`
	CategoryID      string           `json:"category_id,omitempty"`
	Price           float64          `json:"price"`
	DiscountedPrice float64          `json:"discounted_price,omitempty"` // 0 means no discount
	Stock           int              `json:"stock"`
	Featured        bool             `json:"featured"`
	CareLevel       CareLevel        `json:"care_level,omitempty"`
	Light           LightRequirement `json:"light,omitempty"`
	Images          []PlantImage     `json:"images,omitempty"`
	Variants        []PlantVariant   `json:"variants,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Validate performs validation on a Plant structure.
func (p *Plant) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyPlantName
	}
	if len(p.Name) > MaxPlantNameLength {
		return ErrPlantNameTooLong
	}
	if p.Price < 0 || p.DiscountedPrice < 0 {
		return ErrNegativePrice
	}
	for _, v := range p.Variants {
		if v.Price < 0 {
			return ErrNegativePrice
		}
	}
	return nil
}

// Variant returns the variant with the given id, or nil if the plant has no
// such variant. An empty id always returns nil.
func (p *Plant) Variant(variantID string) *PlantVariant {
	if variantID == "" {
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// EffectivePrice resolves the price charged for a plant, preferring a
// variant-specific price over the discounted price over the base price.
func EffectivePrice(p *Plant, variant *PlantVariant) float64 {
	if variant != nil && variant.Price > 0 {
		return variant.Price
	}
	if p.DiscountedPrice > 0 {
		return p.DiscountedPrice
	}
	return p.Price
}

// Category groups plants for browsing.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Position    int    `json:"position"`
}

// Validate performs validation on a Category structure.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	return nil
}

// Review is a customer review of a plant. Reviews are held until an admin
// approves them.
type Review struct {
	ID        string    `json:"id"`
	PlantID   string    `json:"plant_id"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Body      string    `json:"body"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate performs validation on a Review structure.
func (r *Review) Validate() error {
	if strings.TrimSpace(r.Author) == "" {
		return ErrEmptyReviewAuthor
	}
	if strings.TrimSpace(r.Body) == "" {
		return ErrEmptyReviewBody
	}
	if len(r.Body) > MaxReviewBodyLength {
		return ErrReviewBodyTooLong
	}
	if r.Rating < MinReviewRating || r.Rating > MaxReviewRating {
		return ErrInvalidRating
	}
	return nil
}

// DefaultCurrencySymbol is used when site settings carry no symbol.
const DefaultCurrencySymbol = "₹"

// SiteSettings holds storefront-wide configuration edited from the admin panel.
type SiteSettings struct {
	ShopName       string            `json:"shop_name"`
	OwnerWhatsApp  string            `json:"owner_whatsapp"` // E.164-ish, canonicalized on save
	CurrencyCode   string            `json:"currency_code"`
	CurrencySymbol string            `json:"currency_symbol"`
	Announcement   string            `json:"announcement,omitempty"`
	SocialLinks    map[string]string `json:"social_links,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Validate performs validation on SiteSettings.
func (s *SiteSettings) Validate() error {
	if strings.TrimSpace(s.OwnerWhatsApp) == "" {
		return ErrEmptyOwnerWhatsApp
	}
	return nil
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}
