package config

import (
	"errors"
	"fmt"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/validation"
)

func (c *Config) Validate() error {
	var errs []error

	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Evaluation validation
	mode := models.Mode(c.Evaluation.Mode)
	if !mode.IsValid() {
		errs = append(errs, fmt.Errorf("evaluation.mode must be one of: flow, time, weight"))
	}
	if mode.Windowed() {
		if err := validation.ValidateWindowWidth(c.Evaluation.WindowWidth); err != nil {
			errs = append(errs, fmt.Errorf("evaluation.window_width: %w", err))
		}
	}
	if mode == models.ModeWeight {
		if err := validation.ValidateAlpha(c.Evaluation.Alpha); err != nil {
			errs = append(errs, fmt.Errorf("evaluation.alpha: %w", err))
		}
	}
	if !models.MatchStrategy(c.Evaluation.LabelMatch).IsValid() {
		errs = append(errs, errors.New("evaluation.label_match must be one of: prefix, contains"))
	}

	validFormats := map[string]bool{"auto": true, "netflow": true, "argus": true}
	if !validFormats[c.Input.Format] {
		errs = append(errs, errors.New("input.format must be one of: auto, netflow, argus"))
	}

	validReports := map[string]bool{"text": true, "csv": true, "json": true, "yaml": true}
	for _, f := range c.Report.Formats {
		if !validReports[f] {
			errs = append(errs, fmt.Errorf("report.formats: unknown format %q", f))
		}
	}

	validRankBy := false
	for _, name := range models.MetricNames() {
		if c.Analyzer.RankBy == name {
			validRankBy = true
		}
	}
	if !validRankBy {
		errs = append(errs, fmt.Errorf("analyzer.rank_by must be one of: %v", models.MetricNames()))
	}
	if c.Analyzer.TrendWindows < 2 {
		errs = append(errs, errors.New("analyzer.trend_windows must be at least 2"))
	}

	// Store validation
	switch c.Store.Driver {
	case "none":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
		}
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required"))
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, errors.New("database.port must be between 1 and 65535"))
		}
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required"))
		}
		if c.Database.MaxConnections <= 0 {
			errs = append(errs, errors.New("database.max_connections must be positive"))
		}
	default:
		errs = append(errs, errors.New("store.driver must be one of: none, sqlite, postgres"))
	}

	if c.API.Enabled {
		if c.API.Port <= 0 || c.API.Port > 65535 {
			errs = append(errs, errors.New("api.port must be between 1 and 65535"))
		}
		if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
			errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
		}
		if c.Store.Driver == "none" {
			errs = append(errs, errors.New("api requires store.driver sqlite or postgres"))
		}
	}

	if c.Prometheus.Enabled && (c.Prometheus.Port <= 0 || c.Prometheus.Port > 65535) {
		errs = append(errs, errors.New("prometheus.port must be between 1 and 65535"))
	}

	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			errs = append(errs, errors.New("nats.url is required"))
		}
		if c.NATS.Subject == "" {
			errs = append(errs, errors.New("nats.subject is required"))
		}
	}

	if c.Events.BufferSize <= 0 {
		errs = append(errs, errors.New("events.buffer_size must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
