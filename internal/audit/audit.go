// Package audit records dashboard mutations for later review.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

// Action is the kind of change an admin made.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionReorder Action = "reorder"
	ActionStatus  Action = "status"
	ActionLogin   Action = "login"
	ActionLogout  Action = "logout"
	ActionEmail   Action = "email"
)

// Event is one immutable audit record.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	OrgID     string    `json:"org_id,omitempty"`
	CenterID  string    `json:"center_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Entity    string    `json:"entity"`
	Action    Action    `json:"action"`
	TargetID  string    `json:"target_id,omitempty"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder writes events to Postgres. A nil Recorder, or one without a
// database, discards everything.
type Recorder struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewRecorder(db *sql.DB, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{db: db, logger: logger}
}

// Enabled reports whether events are persisted.
func (r *Recorder) Enabled() bool {
	return r != nil && r.db != nil
}

// Ping checks the database connection. A disabled recorder is always healthy.
func (r *Recorder) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	return r.db.PingContext(ctx)
}

// Log inserts an event.
func (r *Recorder) Log(ctx context.Context, event Event) error {
	if !r.Enabled() {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO dashboard_audit_events (
			id, session_id, org_id, center_id, user_id,
			entity, action, target_id, success, message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		nullString(event.SessionID),
		nullString(event.OrgID),
		nullString(event.CenterID),
		nullString(event.UserID),
		event.Entity,
		string(event.Action),
		nullString(event.TargetID),
		event.Success,
		nullString(event.Message),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: failed to log event: %w", err)
	}
	return nil
}

// Record is Log for callers that must not fail because auditing did.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if err := r.Log(ctx, event); err != nil {
		r.logger.Warn("audit: event dropped", "entity", event.Entity, "action", event.Action, "error", err)
	}
}

// Filter narrows Query.
type Filter struct {
	OrgID     string
	Entity    string
	Action    Action
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// Query returns events for an organization, newest first.
func (r *Recorder) Query(ctx context.Context, filter Filter) ([]Event, error) {
	if !r.Enabled() {
		return nil, nil
	}
	query := `
		SELECT id, session_id, org_id, center_id, user_id,
			   entity, action, target_id, success, message, created_at
		FROM dashboard_audit_events
		WHERE org_id = $1
	`
	args := []interface{}{filter.OrgID}
	argIdx := 2

	if filter.Entity != "" {
		query += fmt.Sprintf(" AND entity = $%d", argIdx)
		args = append(args, filter.Entity)
		argIdx++
	}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, string(filter.Action))
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var action string
		var sessionID, orgID, centerID, userID, targetID, message sql.NullString
		if err := rows.Scan(
			&e.ID, &sessionID, &orgID, &centerID, &userID,
			&e.Entity, &action, &targetID, &e.Success, &message, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("audit: failed to scan event: %w", err)
		}
		e.Action = Action(action)
		e.SessionID = sessionID.String
		e.OrgID = orgID.String
		e.CenterID = centerID.String
		e.UserID = userID.String
		e.TargetID = targetID.String
		e.Message = message.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: failed to read events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
