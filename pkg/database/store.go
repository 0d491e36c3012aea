package database

import (
	"context"
	"errors"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// ResultStore persists finished evaluation results. Nothing stored here is
// read back into an evaluation.
type ResultStore interface {
	CreateRun(ctx context.Context, run *models.Run) error
	SaveWindow(ctx context.Context, report *models.WindowReport) error
	CompleteRun(ctx context.Context, result *models.RunResult) error
	FailRun(ctx context.Context, runID, reason string, finishedAt time.Time) error
	SaveEvent(ctx context.Context, event *models.Event) error

	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*models.Run, error)
	ListWindows(ctx context.Context, runID string, limit, offset int) ([]*models.WindowReport, error)
	GetResults(ctx context.Context, runID string) ([]models.AlgorithmResult, error)
	ListEvents(ctx context.Context, runID string, limit int) ([]*models.Event, error)

	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	HealthCheck(ctx context.Context) error
	Close() error
}
