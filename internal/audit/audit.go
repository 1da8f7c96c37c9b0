// Package audit provides significant-event logging for the execution core
// Compliant with GLI-19 §2.8.8: Significant Event Information
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luckyreel/rgs/internal/domain"
)

// Event types per GLI-19 §2.8.8
const (
	EventSessionStart    = "session_start"
	EventSessionEnd      = "session_end"
	EventLargeWin        = "large_win"
	EventFreeSpinTrigger = "free_spin_trigger"
	EventBonusTrigger    = "bonus_trigger"
	EventReconcile       = "reconcile"
	EventLeaseTimeout    = "lease_timeout"
	EventGameDisabled    = "game_disabled"
	EventCatalogReload   = "catalog_reload"
	EventGameReconfigure = "game_reconfigure"
	EventRNGHealthCheck  = "rng_health_check"
	EventLimitChange     = "limit_change"
	EventSelfExclusion   = "self_exclusion"
	EventSystemError     = "system_error"
)

// Service provides audit logging functionality
type Service struct {
	db *sql.DB
}

// New creates a new audit service
func New(db *sql.DB) *Service {
	return &Service{db: db}
}

// LogEvent records a significant event
func (s *Service) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	if s == nil || s.db == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, type, severity, timestamp, user_id, game_id, description, data, component)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, event.ID, event.Type, event.Severity, event.Timestamp, event.UserID, event.GameID,
		event.Description, string(event.Data), event.Component)

	return err
}

// Log is a convenience method for logging events
func (s *Service) Log(ctx context.Context, eventType string, severity domain.EventSeverity, description string, data interface{}, opts ...EventOption) error {
	event := &domain.AuditEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Severity:    severity,
		Timestamp:   time.Now().UTC(),
		Description: description,
		Component:   "rgs",
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err == nil {
			event.Data = jsonData
		}
	}

	for _, opt := range opts {
		opt(event)
	}

	return s.LogEvent(ctx, event)
}

// EventOption is a functional option for configuring audit events
type EventOption func(*domain.AuditEvent)

// WithUser sets the user ID for the event
func WithUser(userID string) EventOption {
	return func(e *domain.AuditEvent) {
		e.UserID = &userID
	}
}

// WithGame sets the game ID for the event
func WithGame(gameID string) EventOption {
	return func(e *domain.AuditEvent) {
		e.GameID = &gameID
	}
}

// WithComponent sets the component for the event
func WithComponent(component string) EventOption {
	return func(e *domain.AuditEvent) {
		e.Component = component
	}
}

// GetEvents retrieves audit events with optional filtering. Without a
// database the service logs nowhere, so the result is always empty.
func (s *Service) GetEvents(ctx context.Context, filter *EventFilter) ([]*domain.AuditEvent, error) {
	if s == nil || s.db == nil {
		return []*domain.AuditEvent{}, nil
	}

	query := `SELECT id, type, severity, timestamp, user_id, game_id, description, data, component
			  FROM audit_events WHERE 1=1`
	args := []interface{}{}
	paramIdx := 1

	if filter != nil {
		if filter.UserID != "" {
			query += fmt.Sprintf(" AND user_id = $%d", paramIdx)
			args = append(args, filter.UserID)
			paramIdx++
		}
		if filter.GameID != "" {
			query += fmt.Sprintf(" AND game_id = $%d", paramIdx)
			args = append(args, filter.GameID)
			paramIdx++
		}
		if filter.Type != "" {
			query += fmt.Sprintf(" AND type = $%d", paramIdx)
			args = append(args, filter.Type)
			paramIdx++
		}
		if !filter.From.IsZero() {
			query += fmt.Sprintf(" AND timestamp >= $%d", paramIdx)
			args = append(args, filter.From)
			paramIdx++
		}
		if !filter.To.IsZero() {
			query += fmt.Sprintf(" AND timestamp <= $%d", paramIdx)
			args = append(args, filter.To)
			paramIdx++
		}
	}

	query += " ORDER BY timestamp DESC"

	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", paramIdx)
		args = append(args, filter.Limit)
	} else {
		query += " LIMIT 100"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var userID, gameID sql.NullString
		var data string

		err := rows.Scan(&event.ID, &event.Type, &event.Severity, &event.Timestamp,
			&userID, &gameID, &event.Description, &data, &event.Component)
		if err != nil {
			return nil, err
		}

		if userID.Valid {
			event.UserID = &userID.String
		}
		if gameID.Valid {
			event.GameID = &gameID.String
		}
		if data != "" {
			event.Data = json.RawMessage(data)
		}

		events = append(events, &event)
	}

	return events, nil
}

// EventFilter defines criteria for filtering audit events
type EventFilter struct {
	UserID string
	GameID string
	Type   string
	From   time.Time
	To     time.Time
	Limit  int
}
