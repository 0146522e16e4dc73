package security

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository persists audit events to the security_events table.
type EventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Persist(ctx context.Context, event SecurityEvent) error {
	query := `
		INSERT INTO security_events (
			event_type, severity, subject_type, subject_value,
			ip_address, user_agent, request_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	detailsJSON := []byte("null")
	if len(event.Details) > 0 {
		detailsJSON, _ = json.Marshal(event.Details)
	}

	var ipAddr any
	if event.IP != "" {
		ipAddr = event.IP
	}

	_, err := r.db.Exec(ctx, query,
		string(event.Event),
		string(event.Severity),
		event.SubjectType,
		event.SubjectValue,
		ipAddr,
		event.UserAgent,
		event.RequestID,
		detailsJSON,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to persist security event: %w", err)
	}
	return nil
}

// EventFilter narrows List. Zero values are ignored.
type EventFilter struct {
	EventType string
	Since     time.Time
	Limit     int
}

func (r *EventRepository) List(ctx context.Context, f EventFilter) ([]SecurityEvent, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT event_type, severity, COALESCE(subject_type, ''), COALESCE(subject_value, ''),
		       COALESCE(host(ip_address), ''), COALESCE(user_agent, ''), COALESCE(request_id, ''),
		       details, created_at
		FROM security_events
		WHERE ($1 = '' OR event_type = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, f.EventType, nullableTime(f.Since), f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SecurityEvent
	for rows.Next() {
		var e SecurityEvent
		var eventType, severity string
		var details []byte
		if err := rows.Scan(&eventType, &severity, &e.SubjectType, &e.SubjectValue,
			&e.IP, &e.UserAgent, &e.RequestID, &details, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Event = EventType(eventType)
		e.Severity = Severity(severity)
		if len(details) > 0 {
			_ = json.Unmarshal(details, &e.Details)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
