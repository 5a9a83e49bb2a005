// Package api provides HTTP handlers and the main API server logic for the
// nursery storefront.
//
// It exposes RESTful endpoints for the catalog, cart and wishlist, the
// chatbot flow editor, and live chat sessions. The API integrates with the
// store, botflow, cart, and twilionotify modules.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/cart"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/scheduler"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/store"
	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/twilionotify"
)

// DefaultAddr is the listen address used when no address is configured.
const DefaultAddr = ":8080"

// Chat sessions are memory-only; idle ones are swept so an abandoned widget
// tab cannot pin an engine forever.
const (
	sessionIdleTimeout = 30 * time.Minute
	sessionSweepCron   = "*/10 * * * *"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address for the API server.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	st       store.Store
	carts    *cart.Manager
	notifier twilionotify.Notifier // nil when owner notifications are not configured
	sessions *chatSessions
	addr     string
}

// NewServer creates a Server over the given store, cart manager, and
// optional owner notifier.
func NewServer(st store.Store, carts *cart.Manager, notifier twilionotify.Notifier, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{
		st:       st,
		carts:    carts,
		notifier: notifier,
		sessions: newChatSessions(),
		addr:     cfg.Addr,
	}
}

// Handler builds the route table. Split out from ListenAndServe so tests can
// drive the mux directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Flow editor.
	mux.HandleFunc("POST /flows", s.createFlowHandler)
	mux.HandleFunc("GET /flows", s.listFlowsHandler)
	mux.HandleFunc("GET /flows/{id}", s.getFlowHandler)
	mux.HandleFunc("PUT /flows/{id}", s.updateFlowHandler)
	mux.HandleFunc("DELETE /flows/{id}", s.deleteFlowHandler)
	mux.HandleFunc("POST /flows/{id}/activate", s.activateFlowHandler)
	mux.HandleFunc("GET /flows/{id}/export", s.exportFlowHandler)
	mux.HandleFunc("POST /flows/import", s.importFlowHandler)

	// Chat widget.
	mux.HandleFunc("POST /chat/sessions", s.createChatSessionHandler)
	mux.HandleFunc("POST /chat/sessions/{id}/step", s.stepChatSessionHandler)
	mux.HandleFunc("POST /chat/sessions/{id}/reset", s.resetChatSessionHandler)

	// Catalog.
	mux.HandleFunc("GET /plants", s.listPlantsHandler)
	mux.HandleFunc("GET /plants/{id}", s.getPlantHandler)
	mux.HandleFunc("POST /plants", s.createPlantHandler)
	mux.HandleFunc("PUT /plants/{id}", s.updatePlantHandler)
	mux.HandleFunc("DELETE /plants/{id}", s.deletePlantHandler)
	mux.HandleFunc("POST /plants/{id}/buy-now-link", s.buyNowLinkHandler)

	mux.HandleFunc("GET /categories", s.listCategoriesHandler)
	mux.HandleFunc("POST /categories", s.createCategoryHandler)
	mux.HandleFunc("PUT /categories/{id}", s.updateCategoryHandler)
	mux.HandleFunc("DELETE /categories/{id}", s.deleteCategoryHandler)

	mux.HandleFunc("GET /reviews", s.listReviewsHandler)
	mux.HandleFunc("POST /reviews", s.createReviewHandler)
	mux.HandleFunc("POST /reviews/{id}/approve", s.approveReviewHandler)
	mux.HandleFunc("DELETE /reviews/{id}", s.deleteReviewHandler)

	mux.HandleFunc("GET /settings", s.getSettingsHandler)
	mux.HandleFunc("PUT /settings", s.updateSettingsHandler)

	// Cart and wishlist.
	mux.HandleFunc("GET /cart", s.getCartHandler)
	mux.HandleFunc("POST /cart/items", s.addCartItemHandler)
	mux.HandleFunc("PATCH /cart/items", s.updateCartItemHandler)
	mux.HandleFunc("DELETE /cart/items", s.removeCartItemHandler)
	mux.HandleFunc("POST /cart/clear", s.clearCartHandler)
	mux.HandleFunc("POST /cart/checkout-link", s.checkoutLinkHandler)

	mux.HandleFunc("GET /wishlist", s.getWishlistHandler)
	mux.HandleFunc("POST /wishlist/items", s.addWishlistItemHandler)
	mux.HandleFunc("DELETE /wishlist/items", s.removeWishlistItemHandler)

	return mux
}

// ListenAndServe starts the HTTP server. It blocks until the server exits.
func (s *Server) ListenAndServe() error {
	slog.Info("Nursery API running", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// Run builds a store from the given options, wires the cart manager and the
// optional owner notifier, and starts the API server. Notifier construction
// failures are non-fatal: the storefront runs without owner notifications.
func Run(storeOpts []store.Option, notifyOpts []twilionotify.Option, apiOpts []Option) error {
	st, err := buildStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	var notifier twilionotify.Notifier
	if client, err := twilionotify.NewClient(notifyOpts...); err != nil {
		slog.Warn("Owner notifications disabled", "error", err)
	} else {
		notifier = client
	}

	server := NewServer(st, cart.NewManager(st), notifier, apiOpts...)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(sessionSweepCron, func() {
		server.sessions.prune(sessionIdleTimeout)
	}); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	return server.ListenAndServe()
}

// buildStore picks the store backend from the configured DSN: Postgres,
// SQLite, or in-memory when no DSN is set.
func buildStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	switch {
	case cfg.DSN == "":
		slog.Info("No database DSN configured, using in-memory store")
		return store.NewInMemoryStore(), nil
	case store.DetectDSNType(cfg.DSN) == "postgres":
		slog.Info("Using PostgreSQL store")
		return store.NewPostgresStore(storeOpts...)
	default:
		slog.Info("Using SQLite store", "path", cfg.DSN)
		return store.NewSQLiteStore(storeOpts...)
	}
}
