package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Queue       QueueConfig     `toml:"queue"`
	Storage     StorageConfig   `toml:"storage"`
	Crawler     CrawlerConfig   `toml:"crawler"`
	Claude      ClaudeConfig    `toml:"claude"`
	Search      SearchConfig    `toml:"search"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type QueueConfig struct {
	PollInterval      string `toml:"poll_interval"`      // e.g., "1s" - how often workers poll for messages
	Concurrency       int    `toml:"concurrency"`        // Number of concurrent workers
	VisibilityTimeout string `toml:"visibility_timeout"` // e.g., "5m" - message visibility timeout for redelivery
	MaxReceive        int    `toml:"max_receive"`        // Max times a message can be received before it is dropped
	QueueName         string `toml:"queue_name"`         // Queue name prefix in Badger
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// CrawlerConfig contains discovery and page-fetch configuration
type CrawlerConfig struct {
	BaseURL           string `toml:"base_url"`            // Listing root URL of the source site
	SourceName        string `toml:"source_name"`         // Cursor key for the source
	UserAgent         string `toml:"user_agent"`          // User agent for headless browser sessions
	DefaultPages      int    `toml:"default_pages"`       // Pages per discovery scan when not overridden
	NavigationTimeout string `toml:"navigation_timeout"`  // e.g., "60s" - page navigation timeout
	SelectorTimeout   string `toml:"selector_timeout"`    // e.g., "30s" - wait for content selector
	PolitenessDelay   string `toml:"politeness_delay"`    // e.g., "2s" - pause after each detail fetch
	Headless          bool   `toml:"headless"`            // Run Chrome headless
	DisableSandbox    bool   `toml:"disable_sandbox"`     // Pass --no-sandbox to Chrome (container environments)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (ANTHROPIC_API_KEY or config)
	Model       string  `toml:"model"`       // Model for extraction (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	Temperature float32 `toml:"temperature"` // Completion temperature, kept low for deterministic extraction
}

// SearchConfig contains Elasticsearch configuration
type SearchConfig struct {
	Addresses []string `toml:"addresses"` // Elasticsearch node addresses
	Username  string   `toml:"username"`
	Password  string   `toml:"password"`
	Index     string   `toml:"index"` // Index name for job advertisements
}

// SchedulerConfig controls the periodic discovery scan
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
	Pages    int    `toml:"pages"`    // Pages per scheduled scan
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Queue: QueueConfig{
			PollInterval:      "1s",
			Concurrency:       4,
			VisibilityTimeout: "5m",
			MaxReceive:        3,
			QueueName:         "laboro_tasks",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Crawler: CrawlerConfig{
			BaseURL:           "https://unjobs.org",
			SourceName:        "unjobs",
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			DefaultPages:      5,
			NavigationTimeout: "60s",
			SelectorTimeout:   "30s",
			PolitenessDelay:   "2s",
			Headless:          true,
			DisableSandbox:    false,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0.1,
		},
		Search: SearchConfig{
			Addresses: []string{"http://localhost:9200"},
			Index:     "job_advertisements",
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 0 */6 * * *", // Every 6 hours
			Pages:    5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
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
	if env := os.Getenv("LABORO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("LABORO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LABORO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if concurrency := os.Getenv("LABORO_QUEUE_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Queue.Concurrency = c
		}
	}

	if badgerPath := os.Getenv("LABORO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if baseURL := os.Getenv("LABORO_CRAWLER_BASE_URL"); baseURL != "" {
		config.Crawler.BaseURL = baseURL
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("LABORO_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}

	if addrs := os.Getenv("LABORO_SEARCH_ADDRESSES"); addrs != "" {
		config.Search.Addresses = strings.Split(addrs, ",")
	}

	if level := os.Getenv("LABORO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("LABORO_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.Split(output, ",")
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
