package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Scraper     ScraperConfig    `toml:"scraper"`
	Classifier  ClassifierConfig `toml:"classifier"`
	Dedup       DedupConfig      `toml:"dedup"`
	Cache       CacheConfig      `toml:"cache"`
	Queue       QueueConfig      `toml:"queue"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	Logging     LoggingConfig    `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// ScraperConfig contains configuration for the external scraping provider
type ScraperConfig struct {
	BaseURL        string        `toml:"base_url"`        // Provider API base URL
	APIKey         string        `toml:"api_key"`         // Provider API key
	WebhookURL     string        `toml:"webhook_url"`     // Publicly reachable webhook URL passed on submission (optional)
	WebhookSecret  string        `toml:"webhook_secret"`  // Shared secret for webhook authentication (optional)
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
	RateLimit      time.Duration `toml:"rate_limit"`      // Minimum time between provider API requests
	TaskTimeout    time.Duration `toml:"task_timeout"`    // Tasks submitted longer ago than this are failed by the sweep
	DefaultLimit   int           `toml:"default_limit"`   // Default result-count limit per scrape request
}

// ClassifierProvider represents the AI provider type
type ClassifierProvider string

const (
	// ClassifierProviderClaude uses Anthropic Claude API
	ClassifierProviderClaude ClassifierProvider = "claude"
	// ClassifierProviderGemini uses Google Gemini API
	ClassifierProviderGemini ClassifierProvider = "gemini"
)

// ClassifierConfig contains configuration for the AI classification providers
type ClassifierConfig struct {
	Provider ClassifierProvider `toml:"provider"` // "claude" or "gemini" (default: "claude")
	Claude   ClaudeConfig       `toml:"claude"`
	Gemini   GeminiConfig       `toml:"gemini"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (ANTHROPIC_API_KEY or config)
	Model       string  `toml:"model"`       // Model for classification (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1024)
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for classification (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// DedupConfig contains configuration for the dedup engine
type DedupConfig struct {
	SynonymsFile string `toml:"synonyms_file"` // Optional YAML file with title synonym groups
	MarketsFile  string `toml:"markets_file"`  // Optional YAML file with market alias table
}

// CacheConfig contains configuration for the classification memory cache
type CacheConfig struct {
	TTL       time.Duration `toml:"ttl"`       // Validity window for cached classifications (default: 168h)
	Retention time.Duration `toml:"retention"` // Entries older than this are deleted by the cleanup sweep
}

// QueueConfig contains configuration for the classification work queue
type QueueConfig struct {
	Concurrency int    `toml:"concurrency"` // Number of concurrent classification workers
	MaxRetries  int    `toml:"max_retries"` // Max retry attempts per item for retriable failures
	Backoff     string `toml:"backoff"`     // Initial retry backoff as duration string
	MaxBackoff  string `toml:"max_backoff"` // Backoff cap as duration string
}

// SchedulerConfig contains cron schedules for background sweeps
type SchedulerConfig struct {
	PollSchedule    string `toml:"poll_schedule"`    // Cron schedule for the task poll sweep
	TimeoutSchedule string `toml:"timeout_schedule"` // Cron schedule for the task timeout sweep
	CleanupSchedule string `toml:"cleanup_schedule"` // Cron schedule for cache retention cleanup
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in venari.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Scraper: ScraperConfig{
			BaseURL:        "",
			RequestTimeout: 30 * time.Second,
			RateLimit:      1 * time.Second,
			TaskTimeout:    1 * time.Hour, // Provider-side stalls are failed after an hour
			DefaultLimit:   100,
		},
		Classifier: ClassifierConfig{
			Provider: ClassifierProviderClaude,
			Claude: ClaudeConfig{
				APIKey:      "",
				Model:       "claude-haiku-3-5-20241022",
				MaxTokens:   1024,
				Timeout:     "2m",
				Temperature: 0.2,
			},
			Gemini: GeminiConfig{
				APIKey:      "",
				Model:       "gemini-2.0-flash",
				Timeout:     "2m",
				Temperature: 0.2,
			},
		},
		Dedup: DedupConfig{},
		Cache: CacheConfig{
			TTL:       168 * time.Hour, // 7 days
			Retention: 720 * time.Hour, // 30 days
		},
		Queue: QueueConfig{
			Concurrency: 20,
			MaxRetries:  3,
			Backoff:     "2s",
			MaxBackoff:  "60s",
		},
		Scheduler: SchedulerConfig{
			PollSchedule:    "*/30 * * * * *", // Every 30 seconds (cron with seconds field)
			TimeoutSchedule: "0 */5 * * * *",  // Every 5 minutes
			CleanupSchedule: "0 0 3 * * *",    // Daily at 03:00
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files.
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VENARI_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("VENARI_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VENARI_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("VENARI_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Scraper configuration
	if baseURL := os.Getenv("VENARI_SCRAPER_BASE_URL"); baseURL != "" {
		config.Scraper.BaseURL = baseURL
	}
	if apiKey := os.Getenv("VENARI_SCRAPER_API_KEY"); apiKey != "" {
		config.Scraper.APIKey = apiKey
	}
	if webhookURL := os.Getenv("VENARI_SCRAPER_WEBHOOK_URL"); webhookURL != "" {
		config.Scraper.WebhookURL = webhookURL
	}
	if secret := os.Getenv("VENARI_SCRAPER_WEBHOOK_SECRET"); secret != "" {
		config.Scraper.WebhookSecret = secret
	}
	if taskTimeout := os.Getenv("VENARI_SCRAPER_TASK_TIMEOUT"); taskTimeout != "" {
		if d, err := time.ParseDuration(taskTimeout); err == nil {
			config.Scraper.TaskTimeout = d
		}
	}

	// Classifier configuration
	if provider := os.Getenv("VENARI_CLASSIFIER_PROVIDER"); provider != "" {
		config.Classifier.Provider = ClassifierProvider(provider)
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Classifier.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("VENARI_CLAUDE_API_KEY"); apiKey != "" {
		config.Classifier.Claude.APIKey = apiKey
	}
	if model := os.Getenv("VENARI_CLAUDE_MODEL"); model != "" {
		config.Classifier.Claude.Model = model
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Classifier.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("VENARI_GEMINI_API_KEY"); apiKey != "" {
		config.Classifier.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("VENARI_GEMINI_MODEL"); model != "" {
		config.Classifier.Gemini.Model = model
	}

	// Cache configuration
	if ttl := os.Getenv("VENARI_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Cache.TTL = d
		}
	}

	// Queue configuration
	if concurrency := os.Getenv("VENARI_QUEUE_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Queue.Concurrency = c
		}
	}

	// Logging configuration
	if level := os.Getenv("VENARI_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("VENARI_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("VENARI_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration for values that would prevent startup
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.Badger.Path == "" {
		return fmt.Errorf("storage.badger.path is required")
	}
	if c.Queue.Concurrency <= 0 {
		return fmt.Errorf("queue.concurrency must be positive, got %d", c.Queue.Concurrency)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	switch c.Classifier.Provider {
	case ClassifierProviderClaude, ClassifierProviderGemini:
	default:
		return fmt.Errorf("invalid classifier provider '%s': must be 'claude' or 'gemini'", c.Classifier.Provider)
	}
	return nil
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
