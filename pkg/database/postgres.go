package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/database/queries"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

// PostgresStore is the ResultStore backed by the queries repositories.
type PostgresStore struct {
	db      *DB
	runs    *queries.RunRepository
	windows *queries.WindowRepository
	results *queries.ResultRepository
	events  *queries.EventRepository
	users   *queries.UserRepository
}

func NewPostgresStore(db *DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		runs:    queries.NewRunRepository(db.DB),
		windows: queries.NewWindowRepository(db.DB),
		results: queries.NewResultRepository(db.DB),
		events:  queries.NewEventRepository(db.DB),
		users:   queries.NewUserRepository(db.DB),
	}
}

func (s *PostgresStore) DB() *DB {
	return s.db
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.Run) error {
	if err := s.runs.Create(ctx, run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveWindow(ctx context.Context, report *models.WindowReport) error {
	if err := s.windows.Insert(ctx, report); err != nil {
		return fmt.Errorf("failed to save window %d: %w", report.WindowID, err)
	}
	return nil
}

// CompleteRun marks the run completed and stores its algorithm results in
// one transaction.
func (s *PostgresStore) CompleteRun(ctx context.Context, result *models.RunResult) error {
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE runs SET status = $2, windows = $3, lines_read = $4, duration = $5, finished_at = $6 WHERE id = $1`,
			result.Run.ID, models.RunStatusCompleted, result.Windows, result.LinesRead,
			int64(result.Duration), result.Run.FinishedAt,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return s.results.InsertTx(ctx, tx, models.ResultsFromRun(result))
	})
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID, reason string, finishedAt time.Time) error {
	if err := s.runs.Fail(ctx, runID, reason, finishedAt); err != nil {
		return fmt.Errorf("failed to mark run failed: %w", mapErr(err))
	}
	return nil
}

func (s *PostgresStore) SaveEvent(ctx context.Context, event *models.Event) error {
	return s.events.Insert(ctx, event)
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*models.Run, error) {
	run, err := s.runs.GetByID(ctx, id)
	return run, mapErr(err)
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit, offset int) ([]*models.Run, error) {
	return s.runs.List(ctx, limit, offset)
}

func (s *PostgresStore) ListWindows(ctx context.Context, runID string, limit, offset int) ([]*models.WindowReport, error) {
	return s.windows.ListByRun(ctx, runID, limit, offset)
}

func (s *PostgresStore) GetResults(ctx context.Context, runID string) ([]models.AlgorithmResult, error) {
	return s.results.GetByRun(ctx, runID)
}

func (s *PostgresStore) ListEvents(ctx context.Context, runID string, limit int) ([]*models.Event, error) {
	return s.events.ListByRun(ctx, runID, limit)
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user, err := s.users.Create(ctx, username, passwordHash)
	return user, mapErr(err)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	return user, mapErr(err)
}

func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, queries.ErrRunNotFound):
		return ErrNotFound
	case errors.Is(err, queries.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, queries.ErrUserExists):
		return ErrUserExists
	}
	return err
}
