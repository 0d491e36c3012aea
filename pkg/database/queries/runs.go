package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

var ErrRunNotFound = errors.New("run not found")

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, input_file, format, mode, window_width, alpha, ground_truth, algorithms,
		status, error, windows, lines_read, duration, started_at, finished_at`

func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	truthJSON, err := json.Marshal(run.GroundTruth)
	if err != nil {
		return err
	}
	algorithmsJSON, err := json.Marshal(run.Algorithms)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO runs (id, input_file, format, mode, window_width, alpha, ground_truth, algorithms, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.InputFile,
		run.Format,
		run.Mode,
		int64(run.WindowWidth),
		run.Alpha,
		truthJSON,
		algorithmsJSON,
		run.Status,
		run.StartedAt,
	)
	return err
}

func (r *RunRepository) Fail(ctx context.Context, runID, reason string, finishedAt time.Time) error {
	query := `UPDATE runs SET status = $2, error = $3, finished_at = $4 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, runID, models.RunStatusFailed, reason, finishedAt)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	return run, err
}

func (r *RunRepository) List(ctx context.Context, limit, offset int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		run            models.Run
		width          int64
		duration       int64
		truthJSON      []byte
		algorithmsJSON []byte
		finishedAt     sql.NullTime
	)

	err := row.Scan(
		&run.ID, &run.InputFile, &run.Format, &run.Mode, &width, &run.Alpha,
		&truthJSON, &algorithmsJSON, &run.Status, &run.Error,
		&run.Windows, &run.LinesRead, &duration, &run.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.WindowWidth = time.Duration(width)
	run.Duration = time.Duration(duration)
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	if err := json.Unmarshal(truthJSON, &run.GroundTruth); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(algorithmsJSON, &run.Algorithms); err != nil {
		return nil, err
	}
	return &run, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}
