package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "BOTCOMPARE"

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/botcompare")
	}

	// BOTCOMPARE_EVALUATION_ALPHA overrides evaluation.alpha
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not unmarshal: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "botnet-detectors-comparer")
	v.SetDefault("app.mode", "production")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "10s")

	v.SetDefault("evaluation.mode", "time")
	v.SetDefault("evaluation.window_width", 300.0)
	v.SetDefault("evaluation.alpha", 0.01)
	v.SetDefault("evaluation.first_sum", 0.0)
	v.SetDefault("evaluation.second_sum", 1.0)
	v.SetDefault("evaluation.label_match", "contains")
	v.SetDefault("evaluation.normal_qualifier", "from")
	v.SetDefault("evaluation.cc_qualifier", "cc")

	v.SetDefault("input.format", "auto")

	v.SetDefault("report.formats", []string{"text"})
	v.SetDefault("report.output_dir", ".")
	v.SetDefault("report.csv_append", true)
	v.SetDefault("report.show_current", true)
	v.SetDefault("report.verbosity", 1)

	v.SetDefault("analyzer.rank_by", "f1")
	v.SetDefault("analyzer.trend_windows", 5)
	v.SetDefault("analyzer.trend_threshold", 0.02)
	v.SetDefault("analyzer.max_history", 10000)

	v.SetDefault("store.driver", "none")
	v.SetDefault("store.sqlite_path", "botcompare.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "botcompare")
	v.SetDefault("database.user", "botcompare")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "1m")
	v.SetDefault("database.ping_timeout", "5s")
	v.SetDefault("database.migration_timeout", "30s")

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.jwt_issuer", "botcompare")
	v.SetDefault("api.default_limit", 50)
	v.SetDefault("api.max_limit", 500)
	v.SetDefault("api.cors.allowed_origins", []string{"*"})
	v.SetDefault("api.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("api.cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization", "X-Trace-ID"})

	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.broadcast_buffer", 256)
	v.SetDefault("websocket.client_buffer", 256)

	v.SetDefault("prometheus.enabled", false)
	v.SetDefault("prometheus.port", 9090)
	v.SetDefault("prometheus.path", "/metrics")

	v.SetDefault("events.buffer_size", 1000)
	v.SetDefault("events.log_events", true)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.subject", "botcompare.events")
	v.SetDefault("nats.connect_timeout", "5s")
	v.SetDefault("nats.circuit_breaker.max_failures", 5)
	v.SetDefault("nats.circuit_breaker.timeout", "30s")
	v.SetDefault("nats.circuit_breaker.half_open_max", 1)
}
