package config

import (
	"fmt"
	"time"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Input      InputConfig      `mapstructure:"input"`
	Report     ReportConfig     `mapstructure:"report"`
	Analyzer   AnalyzerConfig   `mapstructure:"analyzer"`
	Store      StoreConfig      `mapstructure:"store"`
	Database   DatabaseConfig   `mapstructure:"database"`
	API        APIConfig        `mapstructure:"api"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Events     EventsConfig     `mapstructure:"events"`
	NATS       NATSConfig       `mapstructure:"nats"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// EvaluationConfig drives the windowing engine.
type EvaluationConfig struct {
	Mode string `mapstructure:"mode"`
	// WindowWidth is in seconds, as on the command line.
	WindowWidth     float64 `mapstructure:"window_width"`
	Alpha           float64 `mapstructure:"alpha"`
	FirstSum        float64 `mapstructure:"first_sum"`
	SecondSum       float64 `mapstructure:"second_sum"`
	LabelMatch      string  `mapstructure:"label_match"`
	NormalQualifier string  `mapstructure:"normal_qualifier"`
	CCQualifier     string  `mapstructure:"cc_qualifier"`
}

func (e EvaluationConfig) Width() time.Duration {
	return time.Duration(e.WindowWidth * float64(time.Second))
}

type InputConfig struct {
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"`
}

type ReportConfig struct {
	Formats     []string `mapstructure:"formats"`
	OutputDir   string   `mapstructure:"output_dir"`
	CSVFile     string   `mapstructure:"csv_file"`
	CSVAppend   bool     `mapstructure:"csv_append"`
	OutFile     string   `mapstructure:"out_file"`
	ShowCurrent bool     `mapstructure:"show_current"`
	Verbosity   int      `mapstructure:"verbosity"`
}

type AnalyzerConfig struct {
	RankBy         string  `mapstructure:"rank_by"`
	TrendWindows   int     `mapstructure:"trend_windows"`
	TrendThreshold float64 `mapstructure:"trend_threshold"`
	MaxHistory     int     `mapstructure:"max_history"`
}

// StoreConfig selects where finished results are persisted.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type DatabaseConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Name             string        `mapstructure:"name"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	MaxConnections   int           `mapstructure:"max_connections"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout      time.Duration `mapstructure:"ping_timeout"`
	MigrationTimeout time.Duration `mapstructure:"migration_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
	HalfOpenMax int           `mapstructure:"half_open_max"`
}

type APIConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    int           `mapstructure:"rate_limit"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTDuration  time.Duration `mapstructure:"jwt_duration"`
	JWTIssuer    string        `mapstructure:"jwt_issuer"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

type WebSocketConfig struct {
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type EventsConfig struct {
	BufferSize int  `mapstructure:"buffer_size"`
	LogEvents  bool `mapstructure:"log_events"`
}

// NATSConfig configures forwarding of run events to a NATS subject.
type NATSConfig struct {
	Enabled        bool                 `mapstructure:"enabled"`
	URL            string               `mapstructure:"url"`
	Subject        string               `mapstructure:"subject"`
	ConnectTimeout time.Duration        `mapstructure:"connect_timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}
