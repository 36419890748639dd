package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig is the top-level configuration of the solver server.
type ServerConfig struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Translation TranslationConfig `yaml:"translation"`
	Redis       RedisConfig       `yaml:"redis"`
	Jobs        JobsConfig        `yaml:"jobs"`
	Solvers     []SolverEntry     `yaml:"solvers"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TranslationConfig configures the LibreTranslate-compatible translation collaborator.
type TranslationConfig struct {
	Enabled       bool          `yaml:"enabled"`
	URL           string        `yaml:"url"`
	APIKey        string        `yaml:"apiKey"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"ratePerSecond"`
	Burst         int           `yaml:"burst"`
	CacheTTL      time.Duration `yaml:"cacheTTL"`
	CacheSize     int           `yaml:"cacheSize"`
}

// RedisConfig configures the optional shared translation cache.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// JobsConfig sizes the background job worker pool.
type JobsConfig struct {
	Workers int `yaml:"workers"`
}

// SolverEntry declares a solver to create at startup, optionally preloaded from a corpus file.
type SolverEntry struct {
	SolverSettings `yaml:",inline"`
	CorpusFile string `yaml:"corpusFile"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*ServerConfig, error) {
	cfg := defaultServerConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultServerConfig() *ServerConfig {
	return &ServerConfig{
		HTTP: HTTPConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    32 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Translation: TranslationConfig{
			URL:           "http://localhost:5000",
			Timeout:       5 * time.Second,
			RatePerSecond: 10,
			Burst:         5,
			CacheTTL:      time.Hour,
			CacheSize:     1024,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Jobs: JobsConfig{
			Workers: 2,
		},
	}
}

// applyEnvOverrides reads BM25_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *ServerConfig) {
	if v := os.Getenv("BM25_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}
	if v := os.Getenv("BM25_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BM25_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("BM25_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
	if v := os.Getenv("BM25_TRANSLATION_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Translation.Enabled = enabled
		}
	}
	if v := os.Getenv("BM25_TRANSLATION_URL"); v != "" {
		cfg.Translation.URL = v
	}
	if v := os.Getenv("BM25_TRANSLATION_API_KEY"); v != "" {
		cfg.Translation.APIKey = v
	}
	if v := os.Getenv("BM25_REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = enabled
		}
	}
	if v := os.Getenv("BM25_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BM25_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BM25_JOBS_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			cfg.Jobs.Workers = workers
		}
	}
}
