package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/database"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

type runRow struct {
	ID          string                   `gorm:"primaryKey"`
	InputFile   string                   `gorm:"not null"`
	Format      string                   `gorm:"not null"`
	Mode        string                   `gorm:"not null"`
	WindowWidth int64                    `gorm:"default:0"`
	Alpha       float64                  `gorm:"default:0"`
	GroundTruth models.GroundTruthLabels `gorm:"serializer:json"`
	Algorithms  []string                 `gorm:"serializer:json"`
	Status      string                   `gorm:"index;not null"`
	Error       string
	Windows     int
	LinesRead   int
	Duration    int64
	StartedAt   time.Time `gorm:"index"`
	FinishedAt  *time.Time
}

func (runRow) TableName() string { return "runs" }

type windowRow struct {
	RunID       string                     `gorm:"primaryKey"`
	WindowID    int                        `gorm:"primaryKey;autoIncrement:false"`
	Mode        string                     `gorm:"not null"`
	StartTime   time.Time                  `gorm:"not null"`
	EndTime     time.Time                  `gorm:"not null"`
	LinesRead   int                        `gorm:"not null"`
	UniqueIPs   int                        `gorm:"not null"`
	Population  models.Population          `gorm:"serializer:json"`
	IPsByLabel  map[string]int             `gorm:"serializer:json"`
	LabelCounts map[string]int             `gorm:"serializer:json"`
	Escalations int                        `gorm:"default:0"`
	Algorithms  []models.AlgorithmSnapshot `gorm:"serializer:json"`
}

func (windowRow) TableName() string { return "windows" }

type resultRow struct {
	RunID           string                 `gorm:"primaryKey"`
	Name            string                 `gorm:"primaryKey"`
	Baseline        bool                   `gorm:"default:false"`
	Rank            int                    `gorm:"default:0"`
	Score           float64                `gorm:"default:-1"`
	BeatsBaseline   bool                   `gorm:"default:false"`
	Trend           string                 `gorm:"default:unknown"`
	Counts          models.ConfusionCounts `gorm:"serializer:json"`
	Metrics         models.DerivedMetrics  `gorm:"serializer:json"`
	WeightedMetrics *models.DerivedMetrics `gorm:"serializer:json"`
}

func (resultRow) TableName() string { return "algorithm_results" }

type eventRow struct {
	ID        string `gorm:"primaryKey"`
	RunID     string `gorm:"index"`
	Type      string `gorm:"not null"`
	Severity  string `gorm:"not null"`
	Message   string
	Data      string
	TraceID   string
	Timestamp time.Time `gorm:"index"`
}

func (eventRow) TableName() string { return "events" }

type userRow struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

// Store is a single-file ResultStore for runs without a Postgres server.
type Store struct {
	db *gorm.DB
}

var _ database.ResultStore = (*Store)(nil)

// Open opens (or creates) the database at path and migrates its schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&runRow{}, &windowRow{}, &resultRow{}, &eventRow{}, &userRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) CreateRun(ctx context.Context, run *models.Run) error {
	row := runRow{
		ID:          run.ID,
		InputFile:   run.InputFile,
		Format:      run.Format,
		Mode:        string(run.Mode),
		WindowWidth: int64(run.WindowWidth),
		Alpha:       run.Alpha,
		GroundTruth: run.GroundTruth,
		Algorithms:  run.Algorithms,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (s *Store) SaveWindow(ctx context.Context, r *models.WindowReport) error {
	row := windowRow{
		RunID:       r.RunID,
		WindowID:    r.WindowID,
		Mode:        string(r.Mode),
		StartTime:   r.Start,
		EndTime:     r.End,
		LinesRead:   r.LinesRead,
		UniqueIPs:   r.UniqueIPs,
		Population:  r.Population,
		IPsByLabel:  r.IPsByLabel,
		LabelCounts: r.LabelCounts,
		Escalations: r.Escalations,
		Algorithms:  r.Algorithms,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save window %d: %w", r.WindowID, err)
	}
	return nil
}

func (s *Store) CompleteRun(ctx context.Context, result *models.RunResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&runRow{}).Where("id = ?", result.Run.ID).Updates(map[string]interface{}{
			"status":      string(models.RunStatusCompleted),
			"windows":     result.Windows,
			"lines_read":  result.LinesRead,
			"duration":    int64(result.Duration),
			"finished_at": result.Run.FinishedAt,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to complete run: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return database.ErrNotFound
		}

		for _, r := range models.ResultsFromRun(result) {
			row := resultRow{
				RunID:           r.RunID,
				Name:            r.Name,
				Baseline:        r.Baseline,
				Rank:            r.Rank,
				Score:           r.Score,
				BeatsBaseline:   r.BeatsBaseline,
				Trend:           string(r.Trend),
				Counts:          r.Counts,
				Metrics:         r.Metrics,
				WeightedMetrics: r.WeightedMetrics,
			}
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("failed to save result for %s: %w", r.Name, err)
			}
		}
		return nil
	})
}

func (s *Store) FailRun(ctx context.Context, runID, reason string, finishedAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&runRow{}).Where("id = ?", runID).Updates(map[string]interface{}{
		"status":      string(models.RunStatusFailed),
		"error":       reason,
		"finished_at": finishedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to mark run failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (s *Store) SaveEvent(ctx context.Context, event *models.Event) error {
	row := eventRow{
		ID:        event.ID,
		RunID:     event.RunID,
		Type:      string(event.Type),
		Severity:  string(event.Severity),
		Message:   event.Message,
		TraceID:   event.TraceID,
		Timestamp: event.Timestamp,
	}
	if event.Data != nil {
		data, err := json.Marshal(event.Data)
		if err != nil {
			return err
		}
		row.Data = string(data)
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *Store) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var row runRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runRow
	err := s.db.WithContext(ctx).Order("started_at desc").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	runs := make([]*models.Run, 0, len(rows))
	for i := range rows {
		runs = append(runs, rows[i].toModel())
	}
	return runs, nil
}

func (s *Store) ListWindows(ctx context.Context, runID string, limit, offset int) ([]*models.WindowReport, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []windowRow
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("window_id").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	reports := make([]*models.WindowReport, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, &models.WindowReport{
			RunID:       r.RunID,
			WindowID:    r.WindowID,
			Mode:        models.Mode(r.Mode),
			Start:       r.StartTime,
			End:         r.EndTime,
			LinesRead:   r.LinesRead,
			UniqueIPs:   r.UniqueIPs,
			Population:  r.Population,
			IPsByLabel:  r.IPsByLabel,
			LabelCounts: r.LabelCounts,
			Escalations: r.Escalations,
			Algorithms:  r.Algorithms,
		})
	}
	return reports, nil
}

func (s *Store) GetResults(ctx context.Context, runID string) ([]models.AlgorithmResult, error) {
	var rows []resultRow
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("rank, name").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]models.AlgorithmResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, models.AlgorithmResult{
			RunID:           r.RunID,
			Name:            r.Name,
			Baseline:        r.Baseline,
			Rank:            r.Rank,
			Score:           r.Score,
			BeatsBaseline:   r.BeatsBaseline,
			Trend:           models.Trend(r.Trend),
			Counts:          r.Counts,
			Metrics:         r.Metrics,
			WeightedMetrics: r.WeightedMetrics,
		})
	}
	return results, nil
}

// ListEvents returns the newest events of a run first.
func (s *Store) ListEvents(ctx context.Context, runID string, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []eventRow
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("timestamp desc").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	events := make([]*models.Event, 0, len(rows))
	for _, r := range rows {
		e := &models.Event{
			ID:        r.ID,
			RunID:     r.RunID,
			Type:      models.EventType(r.Type),
			Severity:  models.EventSeverity(r.Severity),
			Message:   r.Message,
			TraceID:   r.TraceID,
			Timestamp: r.Timestamp,
		}
		if r.Data != "" {
			var payload interface{}
			if err := json.Unmarshal([]byte(r.Data), &payload); err != nil {
				return nil, fmt.Errorf("failed to decode event %s: %w", r.ID, err)
			}
			e.Data = payload
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userRow{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return database.ErrUserExists
		}
		row = userRow{Username: username, PasswordHash: passwordHash}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).First(&row, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *runRow) toModel() *models.Run {
	return &models.Run{
		ID:          r.ID,
		InputFile:   r.InputFile,
		Format:      r.Format,
		Mode:        models.Mode(r.Mode),
		WindowWidth: time.Duration(r.WindowWidth),
		Alpha:       r.Alpha,
		GroundTruth: r.GroundTruth,
		Algorithms:  r.Algorithms,
		Status:      models.RunStatus(r.Status),
		Error:       r.Error,
		Windows:     r.Windows,
		LinesRead:   r.LinesRead,
		Duration:    time.Duration(r.Duration),
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

func (r *userRow) toModel() *models.User {
	return &models.User{
		ID:           int(r.ID),
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}
