package catalog

import (
	"testing"
	"time"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
)

func samplePlants() []models.Plant {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []models.Plant{
		{ID: "p1", Name: "Monstera Deliciosa", Description: "Large split leaves", CategoryID: "indoor", Price: 1200, Stock: 5, CreatedAt: base},
		{ID: "p2", Name: "Snake Plant", Description: "Hardy air purifier", CategoryID: "indoor", Price: 600, DiscountedPrice: 450, Stock: 0, Featured: true, CreatedAt: base.AddDate(0, 0, 1)},
		{ID: "p3", Name: "Rose Bush", Description: "Outdoor flowering", CategoryID: "outdoor", Price: 300, Stock: 10, CreatedAt: base.AddDate(0, 0, 2)},
		{ID: "p4", Name: "Fiddle Leaf Fig", Description: "Statement plant", CategoryID: "indoor", Price: 2000, Stock: 0,
			Variants: []models.PlantVariant{{ID: "v1", Label: "6in", Price: 1500, Stock: 3}}, CreatedAt: base.AddDate(0, 0, 3)},
	}
}

func TestFilterByCategory(t *testing.T) {
	got := Filter(samplePlants(), ListOptions{CategoryID: "outdoor"})
	if len(got) != 1 || got[0].ID != "p3" {
		t.Errorf("expected only the rose bush, got %v", ids(got))
	}
}

func TestFilterByQueryIsCaseInsensitive(t *testing.T) {
	got := Filter(samplePlants(), ListOptions{Query: "SNAKE"})
	if len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("expected snake plant, got %v", ids(got))
	}
	// Matches descriptions too.
	got = Filter(samplePlants(), ListOptions{Query: "air purifier"})
	if len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("expected description match, got %v", ids(got))
	}
}

func TestFilterPriceBoundsUseEffectivePrice(t *testing.T) {
	// Snake plant lists at 600 but sells at 450; a 500 cap must include it.
	got := Filter(samplePlants(), ListOptions{MaxPrice: 500})
	if len(got) != 2 {
		t.Fatalf("expected 2 plants under 500, got %v", ids(got))
	}
	for _, p := range got {
		if p.ID != "p2" && p.ID != "p3" {
			t.Errorf("unexpected plant %s in result", p.ID)
		}
	}
	got = Filter(samplePlants(), ListOptions{MinPrice: 1000})
	if len(got) != 2 {
		t.Errorf("expected 2 plants at 1000+, got %v", ids(got))
	}
}

func TestFilterInStockCountsVariantStock(t *testing.T) {
	got := Filter(samplePlants(), ListOptions{InStockOnly: true})
	// p2 is out of stock everywhere; p4 has variant stock only.
	if len(got) != 3 {
		t.Fatalf("expected 3 in-stock plants, got %v", ids(got))
	}
	for _, p := range got {
		if p.ID == "p2" {
			t.Error("out-of-stock plant included")
		}
	}
}

func TestFilterFeaturedOnly(t *testing.T) {
	got := Filter(samplePlants(), ListOptions{FeaturedOnly: true})
	if len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("expected only the featured plant, got %v", ids(got))
	}
}

func TestSortPriceAscending(t *testing.T) {
	got := Filter(samplePlants(), ListOptions{SortBy: SortPriceAsc})
	want := []string{"p3", "p2", "p1", "p4"}
	assertOrder(t, got, want)
}

func TestSortPriceDescending(t *testing.T) {
	got := Filter(samplePlants(), ListOptions{SortBy: SortPriceDesc})
	want := []string{"p4", "p1", "p2", "p3"}
	assertOrder(t, got, want)
}

func TestSortByName(t *testing.T) {
	got := Filter(samplePlants(), ListOptions{SortBy: SortName})
	want := []string{"p4", "p1", "p3", "p2"}
	assertOrder(t, got, want)
}

func TestDefaultSortFeaturedFirstThenNewest(t *testing.T) {
	got := Filter(samplePlants(), ListOptions{})
	want := []string{"p2", "p4", "p3", "p1"}
	assertOrder(t, got, want)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	plants := samplePlants()
	Filter(plants, ListOptions{SortBy: SortPriceDesc})
	if plants[0].ID != "p1" {
		t.Error("input slice order was mutated")
	}
}

func ids(plants []models.Plant) []string {
	out := make([]string, len(plants))
	for i, p := range plants {
		out[i] = p.ID
	}
	return out
}

func assertOrder(t *testing.T, got []models.Plant, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d plants, got %v", len(want), ids(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %v", i, id, ids(got))
			return
		}
	}
}
