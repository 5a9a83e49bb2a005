// Package store provides storage backends for the nursery backend.
//
// This file implements the SQLite-backed store, the default persistence for
// single-host deployments.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/models"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveFlow(g models.FlowGraph) (models.FlowGraph, error) {
	now := time.Now()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now

	nodes, edges, err := marshalFlowDoc(g)
	if err != nil {
		return g, err
	}
	_, err = s.db.Exec(`INSERT INTO flows (id, name, nodes, edges, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, nodes = excluded.nodes, edges = excluded.edges, updated_at = excluded.updated_at`,
		g.ID, g.Name, nodes, edges, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveFlow failed", "error", err, "flow", g.ID)
		return g, fmt.Errorf("failed to save flow %s: %w", g.ID, err)
	}

	active, err := s.activeFlowID()
	if err != nil {
		return g, err
	}
	g.IsActive = active == g.ID
	slog.Debug("SQLiteStore SaveFlow succeeded", "flow", g.ID, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

func (s *SQLiteStore) GetFlow(id string) (*models.FlowGraph, error) {
	row := s.db.QueryRow(`SELECT id, name, nodes, edges, created_at, updated_at FROM flows WHERE id = ?`, id)
	g, err := scanFlow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetFlow failed", "error", err, "flow", id)
		return nil, fmt.Errorf("failed to get flow %s: %w", id, err)
	}
	active, err := s.activeFlowID()
	if err != nil {
		return nil, err
	}
	g.IsActive = active == g.ID
	return &g, nil
}

func (s *SQLiteStore) GetActiveFlow() (*models.FlowGraph, error) {
	active, err := s.activeFlowID()
	if err != nil {
		return nil, err
	}
	if active == "" {
		return nil, nil
	}
	return s.GetFlow(active)
}

func (s *SQLiteStore) ListFlows() ([]models.FlowGraph, error) {
	rows, err := s.db.Query(`SELECT id, name, nodes, edges, created_at, updated_at FROM flows ORDER BY created_at`)
	if err != nil {
		slog.Error("SQLiteStore ListFlows query failed", "error", err)
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}
	defer rows.Close()

	active, err := s.activeFlowID()
	if err != nil {
		return nil, err
	}
	var flows []models.FlowGraph
	for rows.Next() {
		g, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow row: %w", err)
		}
		g.IsActive = active == g.ID
		flows = append(flows, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flow rows: %w", err)
	}
	return flows, nil
}

func (s *SQLiteStore) DeleteFlow(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete flow tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM flows WHERE id = ?`, id); err != nil {
		slog.Error("SQLiteStore DeleteFlow failed", "error", err, "flow", id)
		return fmt.Errorf("failed to delete flow %s: %w", id, err)
	}
	// Clear the active pointer if it referenced the deleted flow.
	if _, err := tx.Exec(`DELETE FROM app_state WHERE key = ? AND value = ?`, appStateActiveFlow, id); err != nil {
		return fmt.Errorf("failed to clear active pointer for %s: %w", id, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) SetActiveFlow(id string) error {
	if id == "" {
		_, err := s.db.Exec(`DELETE FROM app_state WHERE key = ?`, appStateActiveFlow)
		if err != nil {
			return fmt.Errorf("failed to clear active flow: %w", err)
		}
		return nil
	}
	// Single-write pointer update; readers never observe a window with no
	// active flow during activation.
	_, err := s.db.Exec(`INSERT INTO app_state (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, appStateActiveFlow, id)
	if err != nil {
		slog.Error("SQLiteStore SetActiveFlow failed", "error", err, "flow", id)
		return fmt.Errorf("failed to set active flow %s: %w", id, err)
	}
	slog.Debug("SQLiteStore SetActiveFlow succeeded", "flow", id)
	return nil
}

func (s *SQLiteStore) activeFlowID() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, appStateActiveFlow).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read active flow pointer: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) SavePlant(p models.Plant) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save plant tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO plants (id, name, slug, description, category_id, price, discounted_price, stock, featured, care_level, light, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, slug = excluded.slug, description = excluded.description,
			category_id = excluded.category_id, price = excluded.price, discounted_price = excluded.discounted_price,
			stock = excluded.stock, featured = excluded.featured, care_level = excluded.care_level,
			light = excluded.light, updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Slug, p.Description, p.CategoryID, p.Price, p.DiscountedPrice, p.Stock, p.Featured,
		string(p.CareLevel), string(p.Light), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SavePlant failed", "error", err, "plant", p.ID)
		return fmt.Errorf("failed to save plant %s: %w", p.ID, err)
	}

	// Linked collections are replaced wholesale.
	if _, err := tx.Exec(`DELETE FROM plant_images WHERE plant_id = ?`, p.ID); err != nil {
		return fmt.Errorf("failed to clear images for %s: %w", p.ID, err)
	}
	for _, img := range p.Images {
		if _, err := tx.Exec(`INSERT INTO plant_images (id, plant_id, url, position) VALUES (?, ?, ?, ?)`,
			img.ID, p.ID, img.URL, img.Position); err != nil {
			return fmt.Errorf("failed to insert image for %s: %w", p.ID, err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM plant_variants WHERE plant_id = ?`, p.ID); err != nil {
		return fmt.Errorf("failed to clear variants for %s: %w", p.ID, err)
	}
	for _, v := range p.Variants {
		if _, err := tx.Exec(`INSERT INTO plant_variants (id, plant_id, label, price, stock) VALUES (?, ?, ?, ?, ?)`,
			v.ID, p.ID, v.Label, v.Price, v.Stock); err != nil {
			return fmt.Errorf("failed to insert variant for %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetPlant(id string) (*models.Plant, error) {
	row := s.db.QueryRow(`SELECT id, name, slug, description, category_id, price, discounted_price, stock, featured, care_level, light, created_at, updated_at
		FROM plants WHERE id = ?`, id)
	return s.plantFromRow(row)
}

func (s *SQLiteStore) GetPlantBySlug(slug string) (*models.Plant, error) {
	row := s.db.QueryRow(`SELECT id, name, slug, description, category_id, price, discounted_price, stock, featured, care_level, light, created_at, updated_at
		FROM plants WHERE slug = ?`, slug)
	return s.plantFromRow(row)
}

func (s *SQLiteStore) plantFromRow(row *sql.Row) (*models.Plant, error) {
	p, err := scanPlant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan plant: %w", err)
	}
	if err := s.attachPlantCollections(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) attachPlantCollections(p *models.Plant) error {
	imgRows, err := s.db.Query(`SELECT id, url, position FROM plant_images WHERE plant_id = ? ORDER BY position`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to query images for %s: %w", p.ID, err)
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var img models.PlantImage
		if err := imgRows.Scan(&img.ID, &img.URL, &img.Position); err != nil {
			return fmt.Errorf("failed to scan image row: %w", err)
		}
		p.Images = append(p.Images, img)
	}
	if err := imgRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate image rows: %w", err)
	}

	varRows, err := s.db.Query(`SELECT id, label, price, stock FROM plant_variants WHERE plant_id = ?`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to query variants for %s: %w", p.ID, err)
	}
	defer varRows.Close()
	for varRows.Next() {
		var v models.PlantVariant
		if err := varRows.Scan(&v.ID, &v.Label, &v.Price, &v.Stock); err != nil {
			return fmt.Errorf("failed to scan variant row: %w", err)
		}
		p.Variants = append(p.Variants, v)
	}
	return varRows.Err()
}

func (s *SQLiteStore) ListPlants() ([]models.Plant, error) {
	rows, err := s.db.Query(`SELECT id, name, slug, description, category_id, price, discounted_price, stock, featured, care_level, light, created_at, updated_at
		FROM plants ORDER BY created_at`)
	if err != nil {
		slog.Error("SQLiteStore ListPlants query failed", "error", err)
		return nil, fmt.Errorf("failed to query plants: %w", err)
	}
	defer rows.Close()

	var plants []models.Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plant row: %w", err)
		}
		plants = append(plants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plant rows: %w", err)
	}
	for i := range plants {
		if err := s.attachPlantCollections(&plants[i]); err != nil {
			return nil, err
		}
	}
	return plants, nil
}

func (s *SQLiteStore) DeletePlant(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete plant tx: %w", err)
	}
	defer tx.Rollback()
	for _, q := range []string{
		`DELETE FROM plant_images WHERE plant_id = ?`,
		`DELETE FROM plant_variants WHERE plant_id = ?`,
		`DELETE FROM plants WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			slog.Error("SQLiteStore DeletePlant failed", "error", err, "plant", id)
			return fmt.Errorf("failed to delete plant %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveCategory(c models.Category) error {
	_, err := s.db.Exec(`INSERT INTO categories (id, name, slug, description, image_url, position) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, slug = excluded.slug, description = excluded.description,
			image_url = excluded.image_url, position = excluded.position`,
		c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.Position)
	if err != nil {
		slog.Error("SQLiteStore SaveCategory failed", "error", err, "category", c.ID)
		return fmt.Errorf("failed to save category %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListCategories() ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT id, name, slug, description, image_url, position FROM categories ORDER BY position`)
	if err != nil {
		slog.Error("SQLiteStore ListCategories query failed", "error", err)
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) DeleteCategory(id string) error {
	if _, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
		slog.Error("SQLiteStore DeleteCategory failed", "error", err, "category", id)
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) SaveReview(r models.Review) error {
	_, err := s.db.Exec(`INSERT INTO reviews (id, plant_id, author, rating, body, approved, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET author = excluded.author, rating = excluded.rating, body = excluded.body, approved = excluded.approved`,
		r.ID, r.PlantID, r.Author, r.Rating, r.Body, r.Approved, r.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveReview failed", "error", err, "review", r.ID)
		return fmt.Errorf("failed to save review %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListReviews(plantID string) ([]models.Review, error) {
	return s.queryReviews(`SELECT id, plant_id, author, rating, body, approved, created_at FROM reviews WHERE plant_id = ? AND approved = 1 ORDER BY created_at`, plantID)
}

func (s *SQLiteStore) ListPendingReviews() ([]models.Review, error) {
	return s.queryReviews(`SELECT id, plant_id, author, rating, body, approved, created_at FROM reviews WHERE approved = 0 ORDER BY created_at`)
}

func (s *SQLiteStore) queryReviews(query string, args ...interface{}) ([]models.Review, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore review query failed", "error", err)
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *SQLiteStore) ApproveReview(id string) error {
	if _, err := s.db.Exec(`UPDATE reviews SET approved = 1 WHERE id = ?`, id); err != nil {
		slog.Error("SQLiteStore ApproveReview failed", "error", err, "review", id)
		return fmt.Errorf("failed to approve review %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteReview(id string) error {
	if _, err := s.db.Exec(`DELETE FROM reviews WHERE id = ?`, id); err != nil {
		slog.Error("SQLiteStore DeleteReview failed", "error", err, "review", id)
		return fmt.Errorf("failed to delete review %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) GetSettings() (*models.SiteSettings, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM site_settings WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSettings failed", "error", err)
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	var settings models.SiteSettings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &settings, nil
}

func (s *SQLiteStore) SaveSettings(settings models.SiteSettings) error {
	settings.UpdatedAt = time.Now()
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO site_settings (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), settings.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSettings failed", "error", err)
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetState(kind, sessionID string) ([]byte, error) {
	var blob string
	err := s.db.QueryRow(`SELECT blob FROM session_states WHERE kind = ? AND session_id = ?`, kind, sessionID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetState failed", "error", err, "kind", kind)
		return nil, fmt.Errorf("failed to get %s state: %w", kind, err)
	}
	return []byte(blob), nil
}

func (s *SQLiteStore) SaveState(kind, sessionID string, blob []byte) error {
	_, err := s.db.Exec(`INSERT INTO session_states (kind, session_id, blob, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, session_id) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		kind, sessionID, string(blob), time.Now())
	if err != nil {
		slog.Error("SQLiteStore SaveState failed", "error", err, "kind", kind)
		return fmt.Errorf("failed to save %s state: %w", kind, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
