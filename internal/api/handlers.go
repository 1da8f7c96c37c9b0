// Package api provides the HTTP surface of the RGS
// Implements player session, game action and operator control endpoints
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/luckyreel/rgs/internal/audit"
	"github.com/luckyreel/rgs/internal/catalog"
	"github.com/luckyreel/rgs/internal/control"
	"github.com/luckyreel/rgs/internal/domain"
	"github.com/luckyreel/rgs/internal/engine"
	"github.com/luckyreel/rgs/internal/lease"
	"github.com/luckyreel/rgs/internal/limits"
	"github.com/luckyreel/rgs/internal/rng"
	"github.com/luckyreel/rgs/internal/session"
	"github.com/luckyreel/rgs/internal/state"
)

// Authenticator exchanges an operator-issued auth token for a player
// identity. Wired to the operator platform client in production; nil
// in standalone deployments, where the session request names the user
// directly.
type Authenticator interface {
	Authenticate(ctx context.Context, authToken, gameID string) (userID string, err error)
}

// Handler contains all HTTP handlers
type Handler struct {
	sessions   *session.Service
	dispatcher *engine.Dispatcher
	registry   *engine.Registry
	store      *state.Store
	catalog    *catalog.Catalog
	control    *control.Service
	limits     *limits.Service
	rng        *rng.Service
	audit      *audit.Service
	authn      Authenticator
	gamesDir   string
	log        *logrus.Logger
}

// Deps bundles the services the handler dispatches into.
type Deps struct {
	Sessions   *session.Service
	Dispatcher *engine.Dispatcher
	Registry   *engine.Registry
	Store      *state.Store
	Catalog    *catalog.Catalog
	Control    *control.Service
	Limits     *limits.Service
	RNG        *rng.Service
	Audit      *audit.Service
	Authn      Authenticator
	GamesDir   string
	Log        *logrus.Logger
}

// New creates a new API handler
func New(d Deps) *Handler {
	if d.Log == nil {
		d.Log = logrus.New()
	}
	return &Handler{
		sessions:   d.Sessions,
		dispatcher: d.Dispatcher,
		registry:   d.Registry,
		store:      d.Store,
		catalog:    d.Catalog,
		control:    d.Control,
		limits:     d.Limits,
		rng:        d.RNG,
		audit:      d.Audit,
		authn:      d.Authn,
		gamesDir:   d.GamesDir,
		log:        d.Log,
	}
}

// Response helpers

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	})
}

// === Health & Info ===

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	rngHealth, _ := h.rng.HealthCheck()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"gaming_enabled": h.control.IsGamingEnabled(),
		"rng_status":     rngHealth,
	})
}

// ServerInfo handles GET /
func (h *Handler) ServerInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "RGS",
		"version":     "1.0.0",
		"description": "Remote Gaming Server - slot execution core",
	})
}

// === Sessions ===

// CreateSession handles POST /api/v1/session. With an operator wired
// the auth token is exchanged for the player identity; without one the
// request names the user directly.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AuthToken string `json:"authToken,omitempty"`
		UserID    string `json:"userId,omitempty"`
		GameID    string `json:"gameId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.GameID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "gameId is required")
		return
	}

	if _, err := h.catalog.ByID(req.GameID); err != nil {
		respondError(w, http.StatusNotFound, "GAME_NOT_FOUND", "Game not found")
		return
	}
	if err := h.control.CheckAccess(req.GameID); err != nil {
		respondControlError(w, err)
		return
	}

	userID := req.UserID
	if h.authn != nil && req.AuthToken != "" {
		id, err := h.authn.Authenticate(r.Context(), req.AuthToken, req.GameID)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "AUTH_FAILED", "Auth token rejected by operator")
			return
		}
		userID = id
	}
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "userId or authToken is required")
		return
	}

	st, err := h.store.Initialize(r.Context(), userID, req.GameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STATE_ERROR", "Failed to initialize player state")
		return
	}

	token, err := h.sessions.IssueToken(userID, req.GameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SESSION_ERROR", "Failed to issue session token")
		return
	}

	h.audit.Log(r.Context(), audit.EventSessionStart, domain.SeverityInfo,
		"player session started", map[string]interface{}{"balance": st.Balance},
		audit.WithUser(userID), audit.WithGame(req.GameID))

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token":   token,
		"userId":  userID,
		"gameId":  req.GameID,
		"balance": st.Balance,
	})
}

// EndSession handles DELETE /api/v1/session. Settles the live state
// back to the durable store and drops it.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)

	if err := h.store.EndSession(r.Context(), claims.UserID, claims.GameID); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			respondError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "No live session state")
			return
		}
		respondError(w, http.StatusInternalServerError, "SESSION_ERROR", err.Error())
		return
	}

	h.audit.Log(r.Context(), audit.EventSessionEnd, domain.SeverityInfo,
		"player session ended", nil,
		audit.WithUser(claims.UserID), audit.WithGame(claims.GameID))

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Session ended",
	})
}

// === Game play ===

// Init handles GET /api/v1/init
func (h *Handler) Init(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)

	data, err := h.dispatcher.Init(r.Context(), claims.UserID, claims.GameID)
	if err != nil {
		respondDispatchError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// Play handles POST /api/v1/play. The action identity comes from the
// session token, never from the request body.
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)

	var act domain.Action
	if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	act.UserID = claims.UserID
	act.GameID = claims.GameID

	resp, err := h.dispatcher.Dispatch(r.Context(), &act)
	if err != nil {
		respondDispatchError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetState handles GET /api/v1/state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)

	st, err := h.store.Get(r.Context(), claims.UserID, claims.GameID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			respondError(w, http.StatusNotFound, "STATE_NOT_FOUND", "No live session state")
			return
		}
		respondError(w, http.StatusInternalServerError, "STATE_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// === Catalog ===

// GetGames handles GET /api/v1/games
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	defs := h.catalog.List()

	gameList := make([]map[string]interface{}, len(defs))
	for i, def := range defs {
		gameList[i] = map[string]interface{}{
			"id":            def.ID,
			"name":          def.Name,
			"type":          def.TypePrefix,
			"columns":       def.Columns,
			"rows":          def.Rows,
			"paylines":      len(def.Paylines),
			"denominations": def.Denominations,
			"enabled":       h.control.IsGameEnabled(def.ID),
		}
	}

	respondJSON(w, http.StatusOK, gameList)
}

// GetGame handles GET /api/v1/games/{id}
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	def, err := h.catalog.ByID(gameID)
	if err != nil {
		respondError(w, http.StatusNotFound, "GAME_NOT_FOUND", "Game not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":            def.ID,
		"name":          def.Name,
		"type":          def.TypePrefix,
		"columns":       def.Columns,
		"rows":          def.Rows,
		"paylines":      def.Paylines,
		"denominations": def.Denominations,
		"enabled":       h.control.IsGameEnabled(def.ID),
	})
}

// === Responsible gaming ===

// GetLimits handles GET /api/v1/limits
func (h *Handler) GetLimits(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)

	pl, err := h.limits.GetLimits(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "LIMITS_ERROR", "Failed to load limits")
		return
	}
	respondJSON(w, http.StatusOK, pl)
}

// SetLimit handles POST /api/v1/limits
func (h *Handler) SetLimit(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)

	var req struct {
		Kind   limits.Kind   `json:"kind"`
		Period limits.Period `json:"period"`
		Amount int64         `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	pl, err := h.limits.SetLimit(r.Context(), claims.UserID, req.Kind, req.Period, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, limits.ErrInvalidLimit), errors.Is(err, limits.ErrInvalidPeriod):
			respondError(w, http.StatusBadRequest, "INVALID_LIMIT", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "LIMITS_ERROR", err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, pl)
}

// SelfExclude handles POST /api/v1/exclude. Duration of 0 is permanent.
func (h *Handler) SelfExclude(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)

	var req struct {
		Reason string `json:"reason"`
		Days   int    `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.Days < 0 {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "days must not be negative")
		return
	}

	duration := time.Duration(req.Days) * 24 * time.Hour
	if err := h.limits.SelfExclude(r.Context(), claims.UserID, req.Reason, duration); err != nil {
		respondError(w, http.StatusInternalServerError, "LIMITS_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"excluded":  true,
		"permanent": req.Days == 0,
	})
}

// === Operator control ===

// GetControlStatus handles GET /api/v1/admin/status
func (h *Handler) GetControlStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.control.GetStatus())
}

// DisableGaming handles POST /api/v1/admin/gaming/disable
func (h *Handler) DisableGaming(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason       string `json:"reason"`
		AuthorizedBy string `json:"authorized_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.control.DisableAllGaming(r.Context(), req.Reason, req.AuthorizedBy); err != nil {
		respondError(w, http.StatusInternalServerError, "CONTROL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.control.GetStatus())
}

// EnableGaming handles POST /api/v1/admin/gaming/enable
func (h *Handler) EnableGaming(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AuthorizedBy string `json:"authorized_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.control.EnableAllGaming(r.Context(), req.AuthorizedBy); err != nil {
		respondError(w, http.StatusInternalServerError, "CONTROL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.control.GetStatus())
}

// DisableGame handles POST /api/v1/admin/games/{id}/disable
func (h *Handler) DisableGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		Reason       string `json:"reason"`
		AuthorizedBy string `json:"authorized_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.control.DisableGame(r.Context(), gameID, req.Reason, req.AuthorizedBy); err != nil {
		respondError(w, http.StatusInternalServerError, "CONTROL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.control.GetStatus())
}

// EnableGame handles POST /api/v1/admin/games/{id}/enable
func (h *Handler) EnableGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		AuthorizedBy string `json:"authorized_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.control.EnableGame(r.Context(), gameID, req.AuthorizedBy); err != nil {
		respondError(w, http.StatusInternalServerError, "CONTROL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.control.GetStatus())
}

// ReloadCatalog handles POST /api/v1/admin/catalog/reload. Reloads game
// definitions from disk and drops cached engine instances so the next
// action picks up the new math.
func (h *Handler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	if h.gamesDir == "" {
		respondError(w, http.StatusBadRequest, "NO_CATALOG_DIR", "No game definition directory configured")
		return
	}

	if err := h.catalog.LoadDir(h.gamesDir); err != nil {
		respondError(w, http.StatusInternalServerError, "RELOAD_FAILED", err.Error())
		return
	}
	h.registry.Reset()

	h.audit.Log(r.Context(), audit.EventCatalogReload, domain.SeverityInfo,
		"game catalog reloaded", map[string]interface{}{"games": len(h.catalog.List())})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": len(h.catalog.List()),
	})
}

// ReconfigureGame handles POST /api/v1/admin/games/{id}/reconfigure.
// The body is a complete YAML definition document for the named game;
// on success it replaces the cached definition and drops that game's
// engine instance, leaving the rest of the catalog untouched.
func (h *Handler) ReconfigureGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	content, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || len(content) == 0 {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Missing definition document")
		return
	}

	old, err := h.catalog.ByID(gameID)
	if err != nil {
		respondError(w, http.StatusNotFound, "GAME_NOT_FOUND", "Game not found")
		return
	}

	def, err := h.catalog.Reconfigure(gameID, content)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_DEFINITION", err.Error())
		return
	}

	// A tag or type change moves the registry key, so drop both.
	h.registry.Invalidate(old.Key())
	if def.Key() != old.Key() {
		h.registry.Invalidate(def.Key())
	}

	h.audit.Log(r.Context(), audit.EventGameReconfigure, domain.SeverityInfo,
		"game definition reconfigured", map[string]interface{}{"key": def.Key()},
		audit.WithGame(gameID))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":  def.ID,
		"key": def.Key(),
	})
}

// RNGHealth handles GET /api/v1/admin/rng/health
func (h *Handler) RNGHealth(w http.ResponseWriter, r *http.Request) {
	result, err := h.rng.HealthCheck()
	if err != nil {
		h.audit.Log(r.Context(), audit.EventRNGHealthCheck, domain.SeverityCritical,
			"rng health check failed", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "RNG_UNHEALTHY", err.Error())
		return
	}

	h.audit.Log(r.Context(), audit.EventRNGHealthCheck, domain.SeverityInfo,
		"rng health check passed", result)
	respondJSON(w, http.StatusOK, result)
}

// GetAuditEvents handles GET /api/v1/admin/audit/events
func (h *Handler) GetAuditEvents(w http.ResponseWriter, r *http.Request) {
	filter := &audit.EventFilter{
		UserID: r.URL.Query().Get("user_id"),
		GameID: r.URL.Query().Get("game_id"),
		Type:   r.URL.Query().Get("type"),
		Limit:  100,
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			filter.Limit = n
		}
	}

	events, err := h.audit.GetEvents(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "AUDIT_ERROR", "Failed to query audit events")
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// === Error mapping ===

func respondControlError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, control.ErrGamingDisabled):
		respondError(w, http.StatusServiceUnavailable, "GAMING_DISABLED", "Gaming is currently disabled")
	case errors.Is(err, control.ErrGameDisabled):
		respondError(w, http.StatusServiceUnavailable, "GAME_DISABLED", "Game is currently disabled")
	default:
		respondError(w, http.StatusInternalServerError, "CONTROL_ERROR", err.Error())
	}
}

func respondDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnknownGame):
		respondError(w, http.StatusNotFound, "GAME_NOT_FOUND", "Game not found")
	case errors.Is(err, control.ErrGamingDisabled), errors.Is(err, control.ErrGameDisabled):
		respondControlError(w, err)
	case errors.Is(err, engine.ErrUnknownAction):
		respondError(w, http.StatusBadRequest, "UNKNOWN_ACTION", "Unknown action type")
	case errors.Is(err, engine.ErrBadPayload):
		respondError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Malformed action payload")
	case errors.Is(err, engine.ErrBadBetIndex):
		respondError(w, http.StatusBadRequest, "INVALID_BET", "Bet index out of range")
	case errors.Is(err, state.ErrNotFound):
		respondError(w, http.StatusNotFound, "STATE_NOT_FOUND", "No live session state")
	case errors.Is(err, lease.ErrBusy):
		respondError(w, http.StatusServiceUnavailable, "RESOURCE_BUSY", "Player state is busy, retry shortly")
	default:
		respondError(w, http.StatusInternalServerError, "GAME_ERROR", err.Error())
	}
}
