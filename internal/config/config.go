// Package config provides environment-driven configuration for codeforge
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// Global configuration instance
	globalConfig *Config
	configMutex  sync.RWMutex
)

// Get returns the global configuration instance
// If the configuration has not been initialized, it will return an error
func Get() (*Config, error) {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}

	return globalConfig, nil
}

// Set sets the global configuration instance
func Set(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()

	globalConfig = cfg
}

// Config represents the complete application configuration
type Config struct {
	DefaultLLMProvider string // Which provider to use by default (ollama or claude)
	Ollama             OllamaConfig
	Claude             ClaudeConfig
	Extractor          ExtractorConfig
	Recovery           RecoveryConfig
	Memory             MemoryConfig
	Output             OutputConfig
	Git                GitConfig
	GitHub             GitHubConfig
	Database           DatabaseConfig
	Logging            LoggingConfig
	configDir          string // Internal: Directory where config was loaded from
}

// ExtractorConfig tunes the LLM output file extractor.
//
// The content floors were calibrated against real model outputs: legitimate
// infra files are often tiny (a .env with one PORT line), so a single fixed
// minimum would reject them.
type ExtractorConfig struct {
	EnvFloor     int // Minimum content length for .env/.gitignore style files
	BuildFloor   int // Minimum content length for build files (Dockerfile, Makefile, requirements.txt)
	InfraFloor   int // Minimum content length for infra/config files (.tf, .yml, .yaml, .json)
	DefaultFloor int // Minimum content length for everything else

	EmergencyMinChunk int // Minimum size of a prose chunk considered during the emergency pass
	EmergencyMaxFiles int // Maximum number of files produced by the emergency pass
}

// RecoveryConfig tunes the error handling and recovery layer
type RecoveryConfig struct {
	CircuitBreakerWindow    time.Duration // Sliding window for the circuit breaker
	CircuitBreakerThreshold int           // Number of recent errors that opens the breaker
	HistorySize             int           // Bounded size of the in-memory error history
	EmergencyMinBlock       int           // Minimum fenced-block size kept by emergency content extraction
}

// MemoryConfig tunes the generation memory hub
type MemoryConfig struct {
	Enabled       bool    // Whether to store and retrieve generation memories
	NSimilar      int     // Number of similar past generations to retrieve
	MinSimilarity float64 // Minimum cosine similarity for retrieved memories (0.0-1.0)
	BatchSize     int     // Number of embeddings generated per batch
}

// OutputConfig controls where generated projects are written
type OutputConfig struct {
	Root     string // Root directory for generated projects
	AutoName bool   // Generate a memorable project name when none is given
}

// GitConfig controls version-control handling of generated projects
type GitConfig struct {
	AutoInit    bool   // Initialize a git repository in each generated project
	AuthorName  string // Commit author name
	AuthorEmail string // Commit author email
}

// GitHubConfig represents GitHub publishing configuration
type GitHubConfig struct {
	Token          string        // GitHub Personal Access Token
	APIURL         string        // GitHub API base URL
	RequestTimeout time.Duration // Request timeout for GitHub API
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Path            string        // Path to the SQLite database file
	JournalMode     string        // Journal mode (WAL recommended)
	SynchronousMode string        // Synchronous mode
	BusyTimeout     int           // Busy timeout in milliseconds
	CacheSize       int           // Cache size in KiB
	ForeignKeys     bool          // Whether to enforce foreign key constraints
	ConnMaxLife     time.Duration // Maximum connection lifetime
	QueryTimeout    time.Duration // Query timeout
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	Output     string // stdout, stderr, or file path
	AddSource  bool   // Include source code position in logs
	TimeFormat string // Time format for logs (empty uses RFC3339)
}

// OllamaConfig holds configuration specific to the Ollama client
type OllamaConfig struct {
	// Connection settings
	Endpoint            string        // Ollama API endpoint URL
	MaxIdleConns        int           // Maximum number of idle connections
	MaxIdleConnsPerHost int           // Maximum number of idle connections per host
	IdleConnTimeout     time.Duration // How long to keep idle connections alive

	// Model settings
	Model          string // Default model to use
	EmbeddingModel string // Default embedding model to use

	// Request settings
	Timeout    time.Duration // Request timeout
	MaxRetries int           // Maximum number of retries on failure

	// Generation parameters
	MaxTokens   int     // Max tokens to generate for responses
	Temperature float64 // Default temperature for generation

	// Rate limiting
	RequestsPerMinute int
	BurstLimit        int
}

// ClaudeConfig holds Claude API configuration
type ClaudeConfig struct {
	// Authentication and connection
	APIKey     string // Claude API key
	BaseURL    string // Claude API base URL
	APIVersion string // API version to use

	// Model settings
	Model string // Claude model to use

	// Request settings
	Timeout    time.Duration // Request timeout
	MaxRetries int           // Maximum number of retries on failure

	// Generation parameters
	MaxTokens   int     // Max tokens to generate for Claude responses
	Temperature float64 // Default temperature for Claude
	TopP        float64 // Top-p sampling parameter
	TopK        int     // Top-k sampling parameter

	// Rate limiting
	RequestsPerMinute int
	BurstLimit        int
}

// New returns a new empty Config
func New() *Config {
	return &Config{}
}

// ConfigDir returns the directory the configuration was loaded from
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return fmt.Errorf("LLM config: %w", err)
	}

	if err := c.validateOllama(); err != nil {
		return fmt.Errorf("Ollama config: %w", err)
	}

	if err := c.validateExtractor(); err != nil {
		return fmt.Errorf("extractor config: %w", err)
	}

	if err := c.validateRecovery(); err != nil {
		return fmt.Errorf("recovery config: %w", err)
	}

	if err := c.validateMemory(); err != nil {
		return fmt.Errorf("memory config: %w", err)
	}

	if err := c.validateDatabase(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// ParseLogLevel parses a log level string to a slog.Level
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none":
		// Set to a very high level that won't be triggered
		return slog.Level(9999)
	default:
		return slog.LevelInfo
	}
}

func (c *Config) validateLLM() error {
	if c.DefaultLLMProvider == "" {
		return fmt.Errorf("default provider cannot be empty")
	}
	if c.DefaultLLMProvider != "ollama" && c.DefaultLLMProvider != "claude" {
		return fmt.Errorf("unknown provider: %s", c.DefaultLLMProvider)
	}
	return nil
}

func (c *Config) validateOllama() error {
	if c.Ollama.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if c.Ollama.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.Ollama.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be positive")
	}

	if c.Ollama.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if c.Ollama.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}

	if c.Ollama.Temperature <= 0 {
		return fmt.Errorf("temperature must be positive")
	}

	return nil
}

func (c *Config) validateExtractor() error {
	floors := []struct {
		name  string
		value int
	}{
		{"env_floor", c.Extractor.EnvFloor},
		{"build_floor", c.Extractor.BuildFloor},
		{"infra_floor", c.Extractor.InfraFloor},
		{"default_floor", c.Extractor.DefaultFloor},
	}
	for _, f := range floors {
		if f.value <= 0 {
			return fmt.Errorf("%s must be positive", f.name)
		}
	}

	if c.Extractor.EmergencyMinChunk <= 0 {
		return fmt.Errorf("emergency_min_chunk must be positive")
	}

	if c.Extractor.EmergencyMaxFiles <= 0 {
		return fmt.Errorf("emergency_max_files must be positive")
	}

	return nil
}

func (c *Config) validateRecovery() error {
	if c.Recovery.CircuitBreakerWindow <= 0 {
		return fmt.Errorf("circuit_breaker_window must be positive")
	}

	if c.Recovery.CircuitBreakerThreshold <= 0 {
		return fmt.Errorf("circuit_breaker_threshold must be positive")
	}

	if c.Recovery.HistorySize <= 0 {
		return fmt.Errorf("history_size must be positive")
	}

	return nil
}

func (c *Config) validateMemory() error {
	if !c.Memory.Enabled {
		return nil
	}

	if c.Memory.NSimilar <= 0 {
		return fmt.Errorf("n_similar must be positive")
	}

	if c.Memory.MinSimilarity < 0 || c.Memory.MinSimilarity > 1 {
		return fmt.Errorf("min_similarity must be between 0 and 1")
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if c.Database.BusyTimeout <= 0 {
		return fmt.Errorf("busy_timeout must be positive")
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	switch level {
	case "debug", "info", "warn", "error", "none":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// getEnvString returns a string from the environment variable
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an int from the environment variable
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool returns a bool from the environment variable
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration returns a time.Duration from the environment variable
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvFloat returns a float64 from the environment variable
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
