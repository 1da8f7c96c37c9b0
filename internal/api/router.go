// Package api - Router setup
package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRouter creates and configures the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(h.RecoveryMiddleware)
	r.Use(CORSMiddleware)
	r.Use(h.LoggingMiddleware)

	// Public routes
	r.HandleFunc("/", h.ServerInfo).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Session creation (public; identity comes from the operator token)
	api.HandleFunc("/session", h.CreateSession).Methods("POST")

	// Game catalog (public)
	api.HandleFunc("/games", h.GetGames).Methods("GET")
	api.HandleFunc("/games/{id}", h.GetGame).Methods("GET")

	// Player routes (session token required)
	player := api.PathPrefix("").Subrouter()
	player.Use(h.SessionMiddleware)
	player.HandleFunc("/session", h.EndSession).Methods("DELETE")
	player.HandleFunc("/init", h.Init).Methods("GET")
	player.HandleFunc("/play", h.Play).Methods("POST")
	player.HandleFunc("/state", h.GetState).Methods("GET")
	player.HandleFunc("/limits", h.GetLimits).Methods("GET")
	player.HandleFunc("/limits", h.SetLimit).Methods("POST")
	player.HandleFunc("/exclude", h.SelfExclude).Methods("POST")

	// WebSocket for real-time play
	player.HandleFunc("/ws", h.HandleWebSocket).Methods("GET")

	// Operator control routes (operator key required)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.OperatorMiddleware)
	admin.HandleFunc("/status", h.GetControlStatus).Methods("GET")
	admin.HandleFunc("/gaming/disable", h.DisableGaming).Methods("POST")
	admin.HandleFunc("/gaming/enable", h.EnableGaming).Methods("POST")
	admin.HandleFunc("/games/{id}/disable", h.DisableGame).Methods("POST")
	admin.HandleFunc("/games/{id}/enable", h.EnableGame).Methods("POST")
	admin.HandleFunc("/games/{id}/reconfigure", h.ReconfigureGame).Methods("POST")
	admin.HandleFunc("/catalog/reload", h.ReloadCatalog).Methods("POST")
	admin.HandleFunc("/rng/health", h.RNGHealth).Methods("GET")
	admin.HandleFunc("/audit/events", h.GetAuditEvents).Methods("GET")

	return r
}

// NotFoundHandler handles 404 errors
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}
