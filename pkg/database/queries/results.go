package queries

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// InsertTx writes every algorithm result of a run inside tx.
func (r *ResultRepository) InsertTx(ctx context.Context, tx *sql.Tx, results []models.AlgorithmResult) error {
	query := `
		INSERT INTO algorithm_results
			(run_id, name, baseline, rank, score, beats_baseline, trend, counts, metrics, weighted_metrics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, name) DO UPDATE SET
			rank = EXCLUDED.rank, score = EXCLUDED.score, beats_baseline = EXCLUDED.beats_baseline,
			trend = EXCLUDED.trend, counts = EXCLUDED.counts, metrics = EXCLUDED.metrics,
			weighted_metrics = EXCLUDED.weighted_metrics`

	for _, res := range results {
		counts, err := json.Marshal(res.Counts)
		if err != nil {
			return err
		}
		metrics, err := json.Marshal(res.Metrics)
		if err != nil {
			return err
		}
		var weighted []byte
		if res.WeightedMetrics != nil {
			if weighted, err = json.Marshal(res.WeightedMetrics); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, query,
			res.RunID, res.Name, res.Baseline, res.Rank, res.Score, res.BeatsBaseline,
			res.Trend, counts, metrics, weighted,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ResultRepository) GetByRun(ctx context.Context, runID string) ([]models.AlgorithmResult, error) {
	query := `
		SELECT run_id, name, baseline, rank, score, beats_baseline, trend, counts, metrics, weighted_metrics
		FROM algorithm_results
		WHERE run_id = $1
		ORDER BY rank, name`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.AlgorithmResult
	for rows.Next() {
		var res models.AlgorithmResult
		var counts, metrics, weighted []byte
		err := rows.Scan(
			&res.RunID, &res.Name, &res.Baseline, &res.Rank, &res.Score, &res.BeatsBaseline,
			&res.Trend, &counts, &metrics, &weighted,
		)
		if err != nil {
			return nil, err
		}
		if err := unmarshalAll(counts, &res.Counts, metrics, &res.Metrics); err != nil {
			return nil, err
		}
		if len(weighted) > 0 {
			var m models.DerivedMetrics
			if err := json.Unmarshal(weighted, &m); err != nil {
				return nil, err
			}
			res.WeightedMetrics = &m
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
