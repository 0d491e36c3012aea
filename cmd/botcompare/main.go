package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/api"
	"github.com/OldStager01/botnet-detectors-comparer/internal/auth"
	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/internal/metrics"
	"github.com/OldStager01/botnet-detectors-comparer/internal/orchestrator"
	"github.com/OldStager01/botnet-detectors-comparer/internal/report"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/config"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/database"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/database/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	file       string
	mode       string
	width      float64
	alpha      float64
	csvFile    string
	outFile    string
	verbosity  int
	debug      int
	formats    string
	store      string
	serve      bool
	migrate    bool
	createUser string
	password   string
}

func parseFlags() (*options, map[string]bool) {
	o := &options{}
	flag.StringVar(&o.configPath, "config", "", "path to config file")
	flag.StringVar(&o.file, "f", "", "labeled flow log to evaluate")
	flag.StringVar(&o.mode, "t", "", "evaluation mode: flow, time or weight")
	flag.Float64Var(&o.width, "T", 0, "time window width in seconds")
	flag.Float64Var(&o.alpha, "a", 0, "decay factor of the weighted errors")
	flag.StringVar(&o.csvFile, "c", "", "append the final results to this CSV file")
	flag.StringVar(&o.outFile, "o", "", "also write the text report to this file")
	flag.IntVar(&o.verbosity, "v", -1, "report verbosity; 0 prints only the final report")
	flag.IntVar(&o.debug, "D", 0, "debug level; 1 or more logs at debug")
	flag.StringVar(&o.formats, "formats", "", "comma-separated report formats: text, csv, json, yaml")
	flag.StringVar(&o.store, "store", "", "result store: none, sqlite or postgres")
	flag.BoolVar(&o.serve, "serve", false, "serve the results API")
	flag.BoolVar(&o.migrate, "migrate", false, "run postgres migrations and exit")
	flag.StringVar(&o.createUser, "create-user", "", "create an API user and exit")
	flag.StringVar(&o.password, "password", "", "password for -create-user (default $BOTCOMPARE_PASSWORD)")
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cfg *config.Config, o *options, set map[string]bool) {
	if set["f"] {
		cfg.Input.File = o.file
	}
	if set["t"] {
		cfg.Evaluation.Mode = o.mode
	}
	if set["T"] {
		cfg.Evaluation.WindowWidth = o.width
	}
	if set["a"] {
		cfg.Evaluation.Alpha = o.alpha
	}
	if set["formats"] {
		cfg.Report.Formats = strings.Split(o.formats, ",")
	}
	if set["c"] {
		cfg.Report.CSVFile = o.csvFile
		if !contains(cfg.Report.Formats, "csv") {
			cfg.Report.Formats = append(cfg.Report.Formats, "csv")
		}
	}
	if set["o"] {
		cfg.Report.OutFile = o.outFile
	}
	if set["v"] {
		cfg.Report.Verbosity = o.verbosity
	}
	if o.debug > 0 {
		cfg.App.LogLevel = "debug"
	}
	if set["store"] {
		cfg.Store.Driver = o.store
	}
	if o.serve {
		cfg.API.Enabled = true
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func run() error {
	o, set := parseFlags()

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cfg, o, set)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Debugf("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	if o.migrate {
		return migrate(cfg)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	if o.createUser != "" {
		return createUser(store, o.createUser, o.password)
	}

	if cfg.Input.File == "" && !cfg.API.Enabled {
		flag.Usage()
		return errors.New("an input file (-f) or -serve is required")
	}

	var m *metrics.Metrics
	if cfg.Prometheus.Enabled || cfg.API.Enabled {
		m = metrics.New()
	}
	if cfg.Prometheus.Enabled {
		srv := m.StartServer(cfg.Prometheus.Port, cfg.Prometheus.Path)
		defer shutdown(cfg, "metrics server", srv.Shutdown)
	}

	orch := orchestrator.New(cfg, store, m)
	if err := orch.Start(); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}
	defer orch.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	if cfg.API.Enabled {
		if store == nil {
			return errors.New("the results API needs a store (-store sqlite or postgres)")
		}
		server := api.NewServer(cfg, store, orch, m)
		go func() {
			logger.Infof("API server listening on port %d", cfg.API.Port)
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
		defer shutdown(cfg, "API server", server.Shutdown)
	}

	if cfg.Input.File != "" {
		if err := evaluate(ctx, cfg, orch); err != nil {
			return err
		}
		if !cfg.API.Enabled {
			return nil
		}
	}

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}
	return nil
}

func evaluate(ctx context.Context, cfg *config.Config, orch *orchestrator.Orchestrator) error {
	var out io.Writer = os.Stdout
	if cfg.Report.OutFile != "" {
		w, closer, err := report.Tee(os.Stdout, cfg.Report.OutFile)
		if err != nil {
			return err
		}
		defer closer.Close()
		out = w
	}

	_, err := orch.Run(ctx, orchestrator.RunRequest{InputFile: cfg.Input.File, Out: out})
	return err
}

func openStore(cfg *config.Config) (database.ResultStore, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		store, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Infof("SQLite result store at %s", cfg.Store.SQLitePath)
		return store, nil
	case "postgres":
		db, err := database.New(cfg.Database.ToDBConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		logger.Info("Database connection established")
		return database.NewPostgresStore(db), nil
	default:
		return nil, nil
	}
}

func migrate(cfg *config.Config) error {
	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("Running database migrations")
	if err := database.NewMigrator(db, cfg.Database.MigrationTimeout).Run(context.Background()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Migrations completed successfully")
	return nil
}

func createUser(store database.ResultStore, username, password string) error {
	if store == nil {
		return errors.New("-create-user needs a store (-store sqlite or postgres)")
	}
	if password == "" {
		password = os.Getenv(config.EnvPrefix + "_PASSWORD")
	}
	if password == "" {
		return errors.New("a password is required (-password or " + config.EnvPrefix + "_PASSWORD)")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := store.CreateUser(ctx, username, hash)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	logger.Infof("Created user %s (id %d)", user.Username, user.ID)
	return nil
}

func shutdown(cfg *config.Config, name string, fn func(context.Context) error) {
	timeout := cfg.App.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		logger.Warnf("Failed to stop %s: %v", name, err)
	}
}
