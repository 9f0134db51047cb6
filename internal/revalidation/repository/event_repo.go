package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/domain"
)

// EventRepository is the append-only revalidation audit log.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Insert appends ev, assigning its id and creation time.
func (r *EventRepository) Insert(ctx context.Context, ev domain.Event) (domain.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}

	query := `
		INSERT INTO revalidation_events (
			id, project_id, path, fingerprint, previous_fingerprint,
			state, error, secondary_ok, secondary_failed, duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		ev.ID,
		ev.ProjectID,
		ev.Path,
		ev.Fingerprint,
		ev.PreviousFingerprint,
		string(ev.State),
		ev.Error,
		ev.SecondaryOK,
		ev.SecondaryFailed,
		ev.DurationMs,
	).Scan(&ev.CreatedAt)
	if err != nil {
		return domain.Event{}, fmt.Errorf("failed to insert revalidation event: %w", err)
	}

	return ev, nil
}

// ListByProject returns the newest events of a project first. limit <= 0
// means 50.
func (r *EventRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, project_id, path, fingerprint, previous_fingerprint,
		       state, error, secondary_ok, secondary_failed, duration_ms, created_at
		FROM revalidation_events
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list revalidation events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0, limit)
	for rows.Next() {
		var (
			ev    domain.Event
			state string
		)
		if err := rows.Scan(
			&ev.ID,
			&ev.ProjectID,
			&ev.Path,
			&ev.Fingerprint,
			&ev.PreviousFingerprint,
			&state,
			&ev.Error,
			&ev.SecondaryOK,
			&ev.SecondaryFailed,
			&ev.DurationMs,
			&ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan revalidation event: %w", err)
		}
		ev.State = domain.State(state)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate revalidation events: %w", err)
	}

	return events, nil
}
