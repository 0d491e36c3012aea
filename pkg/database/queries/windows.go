package queries

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

type WindowRepository struct {
	db *sql.DB
}

func NewWindowRepository(db *sql.DB) *WindowRepository {
	return &WindowRepository{db: db}
}

func (r *WindowRepository) Insert(ctx context.Context, w *models.WindowReport) error {
	population, err := json.Marshal(w.Population)
	if err != nil {
		return err
	}
	ipsByLabel, err := json.Marshal(w.IPsByLabel)
	if err != nil {
		return err
	}
	labelCounts, err := json.Marshal(w.LabelCounts)
	if err != nil {
		return err
	}
	algorithms, err := json.Marshal(w.Algorithms)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO windows
			(run_id, window_id, mode, start_time, end_time, lines_read, unique_ips,
			 population, ips_by_label, label_counts, escalations, algorithms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (run_id, window_id) DO NOTHING`

	_, err = r.db.ExecContext(ctx, query,
		w.RunID, w.WindowID, w.Mode, w.Start, w.End, w.LinesRead, w.UniqueIPs,
		population, ipsByLabel, labelCounts, w.Escalations, algorithms,
	)
	return err
}

func (r *WindowRepository) ListByRun(ctx context.Context, runID string, limit, offset int) ([]*models.WindowReport, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT run_id, window_id, mode, start_time, end_time, lines_read, unique_ips,
			   population, ips_by_label, label_counts, escalations, algorithms
		FROM windows
		WHERE run_id = $1
		ORDER BY window_id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, runID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.WindowReport
	for rows.Next() {
		var w models.WindowReport
		var population, ipsByLabel, labelCounts, algorithmsJSON []byte
		err := rows.Scan(
			&w.RunID, &w.WindowID, &w.Mode, &w.Start, &w.End, &w.LinesRead, &w.UniqueIPs,
			&population, &ipsByLabel, &labelCounts, &w.Escalations, &algorithmsJSON,
		)
		if err != nil {
			return nil, err
		}
		if err := unmarshalAll(
			population, &w.Population,
			ipsByLabel, &w.IPsByLabel,
			labelCounts, &w.LabelCounts,
			algorithmsJSON, &w.Algorithms,
		); err != nil {
			return nil, err
		}
		reports = append(reports, &w)
	}
	return reports, rows.Err()
}

// unmarshalAll decodes pairs of raw JSON and destination.
func unmarshalAll(pairs ...interface{}) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		data, _ := pairs[i].([]byte)
		if len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}
