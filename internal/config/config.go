package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. SPRINTPULSE_SERVER_PORT
const EnvPrefix = "SPRINTPULSE"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration.
// Relative entries are resolved against BaseDir, or the executable
// directory when BaseDir is empty.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	TempDir    string `yaml:"temp_dir" envconfig:"TEMP_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// StorageConfig configures the remote object-storage relay
type StorageConfig struct {
	Provider        string `yaml:"provider" envconfig:"PROVIDER"`
	Bucket          string `yaml:"bucket" envconfig:"BUCKET"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	PublicBaseURL   string `yaml:"public_base_url" envconfig:"PUBLIC_BASE_URL"`
	ProcessedPrefix string `yaml:"processed_prefix" envconfig:"PROCESSED_PREFIX"`
}

// PipelineConfig tunes the data-cleaning and metric pipeline
type PipelineConfig struct {
	HistoryDateLayouts  []string `yaml:"history_date_layouts" envconfig:"HISTORY_DATE_LAYOUTS"`
	CutoffLayout        string   `yaml:"cutoff_layout" envconfig:"CUTOFF_LAYOUT"`
	ToDoStatuses        []string `yaml:"todo_statuses" envconfig:"TODO_STATUSES"`
	InProgressStatuses  []string `yaml:"in_progress_statuses" envconfig:"IN_PROGRESS_STATUSES"`
	DoneStatuses        []string `yaml:"done_statuses" envconfig:"DONE_STATUSES"`
	ExcludedResolutions []string `yaml:"excluded_resolutions" envconfig:"EXCLUDED_RESOLUTIONS"`
	BacklogStatuses     []string `yaml:"backlog_statuses" envconfig:"BACKLOG_STATUSES"`
	DedupeWorkers       int      `yaml:"dedupe_workers" envconfig:"DEDUPE_WORKERS"`
}

// Load builds the configuration from defaults, an optional YAML file,
// a .env file and the process environment, in increasing precedence.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit YAML path; an empty path skips the file.
func LoadFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// A missing .env is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document onto cfg; absent keys keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize fixes up values that have a single allowed form
func (c *Config) normalize() {
	// Logs are always JSON
	c.Logging.Format = "json"
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	c.Storage.Provider = strings.ToLower(c.Storage.Provider)
	c.Storage.PublicBaseURL = strings.TrimRight(c.Storage.PublicBaseURL, "/")
	c.Storage.ProcessedPrefix = strings.Trim(c.Storage.ProcessedPrefix, "/")
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}

	switch c.Storage.Provider {
	case "none", "memory":
	case "gcs":
		if c.Storage.ProcessedPrefix == "" {
			return fmt.Errorf("storage processed prefix must not be empty")
		}
	default:
		return fmt.Errorf("unsupported storage provider: %q", c.Storage.Provider)
	}

	p := c.Pipeline
	if len(p.HistoryDateLayouts) == 0 {
		return fmt.Errorf("at least one history date layout must be specified")
	}
	if p.CutoffLayout == "" {
		return fmt.Errorf("cutoff layout must be specified")
	}
	if len(p.ToDoStatuses) == 0 || len(p.InProgressStatuses) == 0 || len(p.DoneStatuses) == 0 {
		return fmt.Errorf("status rule sets must not be empty")
	}
	if p.DedupeWorkers <= 0 {
		return fmt.Errorf("dedupe workers must be positive: %d", p.DedupeWorkers)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  2 * time.Minute,
			MaxUploadBytes:  DefaultMaxUploadBytes,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   "json",
			Output:   "console",
			FilePath: "logs/sprintpulse.log",
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
		},
		Storage: StorageConfig{
			Provider:        "none",
			PublicBaseURL:   DefaultPublicBaseURL,
			ProcessedPrefix: DefaultProcessedPrefix,
		},
		Pipeline: PipelineConfig{
			HistoryDateLayouts:  append([]string(nil), DefaultHistoryDateLayouts...),
			CutoffLayout:        DefaultCutoffLayout,
			ToDoStatuses:        []string{StatusCreated},
			InProgressStatuses:  []string{StatusInProgress},
			DoneStatuses:        []string{StatusClosed, StatusCompleted},
			ExcludedResolutions: []string{ResolutionRejected, ResolutionCancelled, ResolutionDuplicate},
			BacklogStatuses:     []string{StatusPostponed},
			DedupeWorkers:       DefaultDedupeWorkers,
		},
	}
}
