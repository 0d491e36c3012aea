package queries

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Insert(ctx context.Context, event *models.Event) error {
	var data []byte
	if event.Data != nil {
		var err error
		if data, err = json.Marshal(event.Data); err != nil {
			return err
		}
	}

	var runID sql.NullString
	if event.RunID != "" {
		runID = sql.NullString{String: event.RunID, Valid: true}
	}

	query := `
		INSERT INTO events (id, run_id, type, severity, message, data, trace_id, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, runID, event.Type, event.Severity, event.Message, data, event.TraceID, event.Timestamp,
	)
	return err
}

func (r *EventRepository) ListByRun(ctx context.Context, runID string, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, run_id, type, severity, message, data, trace_id, timestamp
		FROM events
		WHERE run_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var (
			e     models.Event
			runID sql.NullString
			data  []byte
		)
		if err := rows.Scan(&e.ID, &runID, &e.Type, &e.Severity, &e.Message, &data, &e.TraceID, &e.Timestamp); err != nil {
			return nil, err
		}
		e.RunID = runID.String
		if len(data) > 0 {
			var payload interface{}
			if err := json.Unmarshal(data, &payload); err != nil {
				return nil, err
			}
			e.Data = payload
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
