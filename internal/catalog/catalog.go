// Package catalog implements the storefront listing pipeline: in-memory
// filtering and sorting over the plant catalog. The catalog is bounded to a
// few hundred items, so the pipeline is plain slice folds with no indexing.
package catalog

import (
	"sort"
	"strings"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
)

// Sort keys accepted by ListOptions.SortBy.
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortName      = "name"
	SortNewest    = "newest"
	// SortDefault orders featured plants first, newest within each group.
	SortDefault = ""
)

// ListOptions narrows and orders a plant listing. Zero values mean
// "no constraint".
type ListOptions struct {
	CategoryID   string
	Query        string
	MinPrice     float64
	MaxPrice     float64
	InStockOnly  bool
	FeaturedOnly bool
	SortBy       string
}

// Filter applies opts to the plants slice and returns a new ordered slice.
// The input is never mutated. Price bounds apply to the effective price, so
// a discounted plant priced into range is included.
func Filter(plants []models.Plant, opts ListOptions) []models.Plant {
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	out := make([]models.Plant, 0, len(plants))
	for _, p := range plants {
		if opts.CategoryID != "" && p.CategoryID != opts.CategoryID {
			continue
		}
		if query != "" && !matchesQuery(&p, query) {
			continue
		}
		price := models.EffectivePrice(&p, nil)
		if opts.MinPrice > 0 && price < opts.MinPrice {
			continue
		}
		if opts.MaxPrice > 0 && price > opts.MaxPrice {
			continue
		}
		if opts.InStockOnly && !hasStock(&p) {
			continue
		}
		if opts.FeaturedOnly && !p.Featured {
			continue
		}
		out = append(out, p)
	}
	sortPlants(out, opts.SortBy)
	return out
}

func matchesQuery(p *models.Plant, query string) bool {
	return strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query)
}

func hasStock(p *models.Plant) bool {
	if p.Stock > 0 {
		return true
	}
	for _, v := range p.Variants {
		if v.Stock > 0 {
			return true
		}
	}
	return false
}

func sortPlants(plants []models.Plant, sortBy string) {
	switch sortBy {
	case SortPriceAsc:
		sort.SliceStable(plants, func(i, j int) bool {
			return models.EffectivePrice(&plants[i], nil) < models.EffectivePrice(&plants[j], nil)
		})
	case SortPriceDesc:
		sort.SliceStable(plants, func(i, j int) bool {
			return models.EffectivePrice(&plants[i], nil) > models.EffectivePrice(&plants[j], nil)
		})
	case SortName:
		sort.SliceStable(plants, func(i, j int) bool {
			return strings.ToLower(plants[i].Name) < strings.ToLower(plants[j].Name)
		})
	case SortNewest:
		sort.SliceStable(plants, func(i, j int) bool {
			return plants[i].CreatedAt.After(plants[j].CreatedAt)
		})
	default:
		sort.SliceStable(plants, func(i, j int) bool {
			if plants[i].Featured != plants[j].Featured {
				return plants[i].Featured
			}
			return plants[i].CreatedAt.After(plants[j].CreatedAt)
		})
	}
}
