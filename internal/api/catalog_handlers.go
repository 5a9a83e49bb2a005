// Package api provides catalog, review, and settings handlers for the
// nursery endpoints. Storefront read paths degrade to empty results on
// store failures so a broken database never blanks the whole site; admin
// write paths surface errors to the caller.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/catalog"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/messaging"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/util"
)

// listPlantsHandler handles GET /plants with filter and sort query params.
func (s *Server) listPlantsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("listPlantsHandler invoked", "method", r.Method, "query", r.URL.RawQuery)

	plants, err := s.st.ListPlants()
	if err != nil {
		slog.Error("listPlantsHandler list failed, degrading to empty catalog", "error", err)
		writeJSONResponse(w, http.StatusOK, models.Success([]models.Plant{}))
		return
	}

	q := r.URL.Query()
	opts := catalog.ListOptions{
		CategoryID:   q.Get("category"),
		Query:        q.Get("q"),
		InStockOnly:  q.Get("in_stock") == "true",
		FeaturedOnly: q.Get("featured") == "true",
		SortBy:       q.Get("sort"),
	}
	if v, err := strconv.ParseFloat(q.Get("min_price"), 64); err == nil {
		opts.MinPrice = v
	}
	if v, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil {
		opts.MaxPrice = v
	}

	filtered := catalog.Filter(plants, opts)
	slog.Debug("listPlantsHandler succeeded", "total", len(plants), "matched", len(filtered))
	writeJSONResponse(w, http.StatusOK, models.Success(filtered))
}

// getPlantHandler handles GET /plants/{id}. The path segment is tried as a
// record id first, then as a slug, so product pages can use either.
func (s *Server) getPlantHandler(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("id")
	slog.Debug("getPlantHandler invoked", "plantID", plantID)

	p, err := s.st.GetPlant(plantID)
	if err != nil {
		slog.Error("getPlantHandler lookup failed", "error", err, "plantID", plantID)
		p = nil
	}
	if p == nil {
		p, err = s.st.GetPlantBySlug(plantID)
		if err != nil {
			slog.Error("getPlantHandler slug lookup failed", "error", err, "slug", plantID)
			p = nil
		}
	}
	if p == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Plant not found"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(p))
}

// createPlantHandler handles POST /plants
func (s *Server) createPlantHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("createPlantHandler invoked", "method", r.Method, "path", r.URL.Path)

	var p models.Plant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		slog.Warn("createPlantHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := p.Validate(); err != nil {
		slog.Warn("createPlantHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	p.ID = util.GenerateRecordID("pl_")
	if p.Slug == "" {
		p.Slug = util.Slugify(p.Name)
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	for i := range p.Images {
		if p.Images[i].ID == "" {
			p.Images[i].ID = util.GenerateRecordID("img_")
		}
	}
	for i := range p.Variants {
		if p.Variants[i].ID == "" {
			p.Variants[i].ID = util.GenerateRecordID("var_")
		}
	}

	if err := s.st.SavePlant(p); err != nil {
		slog.Error("createPlantHandler save failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save plant"))
		return
	}

	slog.Info("Plant created", "id", p.ID, "name", p.Name)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Plant created successfully", p))
}

// updatePlantHandler handles PUT /plants/{id}. Images and variants are
// replaced wholesale with the submitted collections.
func (s *Server) updatePlantHandler(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("id")
	slog.Debug("updatePlantHandler invoked", "plantID", plantID)

	var p models.Plant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		slog.Warn("updatePlantHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := p.Validate(); err != nil {
		slog.Warn("updatePlantHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	existing, err := s.st.GetPlant(plantID)
	if err != nil {
		slog.Error("updatePlantHandler check failed", "error", err, "plantID", plantID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to check plant"))
		return
	}
	if existing == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Plant not found"))
		return
	}

	p.ID = plantID
	if p.Slug == "" {
		p.Slug = existing.Slug
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	for i := range p.Images {
		if p.Images[i].ID == "" {
			p.Images[i].ID = util.GenerateRecordID("img_")
		}
	}
	for i := range p.Variants {
		if p.Variants[i].ID == "" {
			p.Variants[i].ID = util.GenerateRecordID("var_")
		}
	}

	if err := s.st.SavePlant(p); err != nil {
		slog.Error("updatePlantHandler save failed", "error", err, "plantID", plantID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update plant"))
		return
	}

	slog.Info("Plant updated", "id", plantID, "name", p.Name)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Plant updated successfully", p))
}

// deletePlantHandler handles DELETE /plants/{id}
func (s *Server) deletePlantHandler(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("id")
	slog.Debug("deletePlantHandler invoked", "plantID", plantID)

	existing, err := s.st.GetPlant(plantID)
	if err != nil {
		slog.Error("deletePlantHandler check failed", "error", err, "plantID", plantID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to check plant"))
		return
	}
	if existing == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Plant not found"))
		return
	}

	if err := s.st.DeletePlant(plantID); err != nil {
		slog.Error("deletePlantHandler delete failed", "error", err, "plantID", plantID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete plant"))
		return
	}

	slog.Info("Plant deleted", "id", plantID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Plant deleted successfully", nil))
}

// listCategoriesHandler handles GET /categories
func (s *Server) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("listCategoriesHandler invoked", "method", r.Method, "path", r.URL.Path)

	categories, err := s.st.ListCategories()
	if err != nil {
		slog.Error("listCategoriesHandler failed, degrading to empty list", "error", err)
		categories = nil
	}
	if categories == nil {
		categories = []models.Category{}
	}

	writeJSONResponse(w, http.StatusOK, models.Success(categories))
}

// createCategoryHandler handles POST /categories
func (s *Server) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("createCategoryHandler invoked", "method", r.Method, "path", r.URL.Path)

	var c models.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		slog.Warn("createCategoryHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := c.Validate(); err != nil {
		slog.Warn("createCategoryHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	c.ID = util.GenerateRecordID("cat_")
	if c.Slug == "" {
		c.Slug = util.Slugify(c.Name)
	}

	if err := s.st.SaveCategory(c); err != nil {
		slog.Error("createCategoryHandler save failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save category"))
		return
	}

	slog.Info("Category created", "id", c.ID, "name", c.Name)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Category created successfully", c))
}

// updateCategoryHandler handles PUT /categories/{id}
func (s *Server) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("id")
	slog.Debug("updateCategoryHandler invoked", "categoryID", categoryID)

	var c models.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		slog.Warn("updateCategoryHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := c.Validate(); err != nil {
		slog.Warn("updateCategoryHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	c.ID = categoryID
	if c.Slug == "" {
		c.Slug = util.Slugify(c.Name)
	}

	if err := s.st.SaveCategory(c); err != nil {
		slog.Error("updateCategoryHandler save failed", "error", err, "categoryID", categoryID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update category"))
		return
	}

	slog.Info("Category updated", "id", categoryID, "name", c.Name)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Category updated successfully", c))
}

// deleteCategoryHandler handles DELETE /categories/{id}
func (s *Server) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("id")
	slog.Debug("deleteCategoryHandler invoked", "categoryID", categoryID)

	if err := s.st.DeleteCategory(categoryID); err != nil {
		slog.Error("deleteCategoryHandler delete failed", "error", err, "categoryID", categoryID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete category"))
		return
	}

	slog.Info("Category deleted", "id", categoryID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Category deleted successfully", nil))
}

// listReviewsHandler handles GET /reviews. With plant_id it returns approved
// reviews for that plant; with pending=true it returns the moderation queue.
func (s *Server) listReviewsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slog.Debug("listReviewsHandler invoked", "query", r.URL.RawQuery)

	var reviews []models.Review
	var err error
	if q.Get("pending") == "true" {
		reviews, err = s.st.ListPendingReviews()
	} else {
		reviews, err = s.st.ListReviews(q.Get("plant_id"))
	}
	if err != nil {
		slog.Error("listReviewsHandler failed, degrading to empty list", "error", err)
		reviews = nil
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	writeJSONResponse(w, http.StatusOK, models.Success(reviews))
}

// createReviewHandler handles POST /reviews. New reviews enter the
// moderation queue unapproved regardless of what the client submits.
func (s *Server) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("createReviewHandler invoked", "method", r.Method, "path", r.URL.Path)

	var review models.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		slog.Warn("createReviewHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := review.Validate(); err != nil {
		slog.Warn("createReviewHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	review.ID = util.GenerateRecordID("rev_")
	review.Approved = false
	review.CreatedAt = time.Now()

	if err := s.st.SaveReview(review); err != nil {
		slog.Error("createReviewHandler save failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save review"))
		return
	}

	slog.Info("Review submitted", "id", review.ID, "plantID", review.PlantID, "rating", review.Rating)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Review submitted for moderation", review))
}

// approveReviewHandler handles POST /reviews/{id}/approve
func (s *Server) approveReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("id")
	slog.Debug("approveReviewHandler invoked", "reviewID", reviewID)

	if err := s.st.ApproveReview(reviewID); err != nil {
		slog.Error("approveReviewHandler failed", "error", err, "reviewID", reviewID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to approve review"))
		return
	}

	slog.Info("Review approved", "id", reviewID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Review approved successfully", nil))
}

// deleteReviewHandler handles DELETE /reviews/{id}
func (s *Server) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID := r.PathValue("id")
	slog.Debug("deleteReviewHandler invoked", "reviewID", reviewID)

	if err := s.st.DeleteReview(reviewID); err != nil {
		slog.Error("deleteReviewHandler failed", "error", err, "reviewID", reviewID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete review"))
		return
	}

	slog.Info("Review deleted", "id", reviewID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Review deleted successfully", nil))
}

// getSettingsHandler handles GET /settings. Missing settings degrade to the
// zero value so the storefront renders with defaults.
func (s *Server) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("getSettingsHandler invoked", "method", r.Method, "path", r.URL.Path)

	settings, err := s.st.GetSettings()
	if err != nil {
		slog.Error("getSettingsHandler failed, degrading to defaults", "error", err)
		settings = nil
	}
	if settings == nil {
		settings = &models.SiteSettings{CurrencySymbol: models.DefaultCurrencySymbol}
	}

	writeJSONResponse(w, http.StatusOK, models.Success(settings))
}

// updateSettingsHandler handles PUT /settings. The owner WhatsApp number is
// canonicalized on save so deep links never re-validate it.
func (s *Server) updateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("updateSettingsHandler invoked", "method", r.Method, "path", r.URL.Path)

	var settings models.SiteSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		slog.Warn("updateSettingsHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := settings.Validate(); err != nil {
		slog.Warn("updateSettingsHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	canonical, err := messaging.CanonicalizePhone(settings.OwnerWhatsApp)
	if err != nil {
		slog.Warn("updateSettingsHandler phone validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid owner WhatsApp number: "+err.Error()))
		return
	}
	settings.OwnerWhatsApp = canonical

	if err := s.st.SaveSettings(settings); err != nil {
		slog.Error("updateSettingsHandler save failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save settings"))
		return
	}

	slog.Info("Settings updated", "shop", settings.ShopName)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Settings updated successfully", settings))
}
