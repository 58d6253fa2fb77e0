package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// LoadFromEnv loads configuration from environment variables
// Parameters:
// - configDir: Directory containing config files (or empty for default)
// - configFilePath: Path to .env file (or empty for default)
func LoadFromEnv(configDir string, configFilePath string) (*Config, error) {
	cfg := New()

	// If configDir is empty, use the default
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".codeforge")

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	cfg.configDir = configDir

	// Default database and log paths live in the config directory
	defaultDBPath := filepath.Join(configDir, "codeforge.db")
	defaultLogPath := filepath.Join(configDir, "codeforge.log")

	// Use provided config file path or default
	if configFilePath == "" {
		configFilePath = filepath.Join(configDir, ".env")
	}

	// Check if ENV_FILE_PATH is set to load from a custom .env file
	envFilePath := getEnvString("ENV_FILE_PATH", "")
	if envFilePath != "" {
		err := godotenv.Load(envFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load env file from %s: %w", envFilePath, err)
		}
	} else {
		// Try to load from config directory first
		err := godotenv.Load(configFilePath)
		if err != nil {
			// Then try current directory as fallback
			_ = godotenv.Load() // Ignore errors if file doesn't exist
		}
	}

	// LLM Configuration
	cfg.DefaultLLMProvider = getEnvString("CODEFORGE_LLM_DEFAULT_PROVIDER", "ollama")

	// Ollama Configuration
	cfg.Ollama = OllamaConfig{
		Endpoint:            getEnvString("CODEFORGE_OLLAMA_ENDPOINT", "http://localhost:11434"),
		Timeout:             getEnvDuration("CODEFORGE_OLLAMA_TIMEOUT", 600*time.Second),
		MaxRetries:          getEnvInt("CODEFORGE_OLLAMA_MAX_RETRIES", 3),
		Model:               getEnvString("CODEFORGE_OLLAMA_MODEL", "qwen2.5-coder"),
		EmbeddingModel:      getEnvString("CODEFORGE_OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		MaxTokens:           getEnvInt("CODEFORGE_OLLAMA_MAX_TOKENS", 8192),
		Temperature:         getEnvFloat("CODEFORGE_OLLAMA_TEMPERATURE", 0.2),
		MaxIdleConns:        getEnvInt("CODEFORGE_OLLAMA_MAX_IDLE_CONNS", 100),
		MaxIdleConnsPerHost: getEnvInt("CODEFORGE_OLLAMA_MAX_IDLE_CONNS_PER_HOST", 100),
		IdleConnTimeout:     getEnvDuration("CODEFORGE_OLLAMA_IDLE_CONN_TIMEOUT", 120*time.Second),
		RequestsPerMinute:   getEnvInt("CODEFORGE_OLLAMA_REQUESTS_PER_MINUTE", 0),
		BurstLimit:          getEnvInt("CODEFORGE_OLLAMA_BURST_LIMIT", 1),
	}

	// Claude Configuration
	cfg.Claude = ClaudeConfig{
		APIKey:            getEnvString("CODEFORGE_CLAUDE_API_KEY", ""),
		BaseURL:           getEnvString("CODEFORGE_CLAUDE_BASE_URL", "https://api.anthropic.com"),
		Model:             getEnvString("CODEFORGE_CLAUDE_MODEL", "claude-3-7-sonnet-20250219"),
		Timeout:           getEnvDuration("CODEFORGE_CLAUDE_TIMEOUT", 120*time.Second),
		MaxRetries:        getEnvInt("CODEFORGE_CLAUDE_MAX_RETRIES", 3),
		MaxTokens:         getEnvInt("CODEFORGE_CLAUDE_MAX_TOKENS", 8192),
		Temperature:       getEnvFloat("CODEFORGE_CLAUDE_TEMPERATURE", 0.1),
		TopP:              getEnvFloat("CODEFORGE_CLAUDE_TOP_P", 0.9),
		TopK:              getEnvInt("CODEFORGE_CLAUDE_TOP_K", 40),
		APIVersion:        getEnvString("CODEFORGE_CLAUDE_API_VERSION", "2023-06-01"),
		RequestsPerMinute: getEnvInt("CODEFORGE_CLAUDE_REQUESTS_PER_MINUTE", 50),
		BurstLimit:        getEnvInt("CODEFORGE_CLAUDE_BURST_LIMIT", 5),
	}

	// Extractor Configuration
	// Floor values were tuned against observed model outputs; change only
	// with new evidence.
	cfg.Extractor = ExtractorConfig{
		EnvFloor:          getEnvInt("CODEFORGE_EXTRACTOR_ENV_FLOOR", 1),
		BuildFloor:        getEnvInt("CODEFORGE_EXTRACTOR_BUILD_FLOOR", 3),
		InfraFloor:        getEnvInt("CODEFORGE_EXTRACTOR_INFRA_FLOOR", 5),
		DefaultFloor:      getEnvInt("CODEFORGE_EXTRACTOR_DEFAULT_FLOOR", 10),
		EmergencyMinChunk: getEnvInt("CODEFORGE_EXTRACTOR_EMERGENCY_MIN_CHUNK", 100),
		EmergencyMaxFiles: getEnvInt("CODEFORGE_EXTRACTOR_EMERGENCY_MAX_FILES", 5),
	}

	// Recovery Configuration
	cfg.Recovery = RecoveryConfig{
		CircuitBreakerWindow:    getEnvDuration("CODEFORGE_RECOVERY_CB_WINDOW", 300*time.Second),
		CircuitBreakerThreshold: getEnvInt("CODEFORGE_RECOVERY_CB_THRESHOLD", 3),
		HistorySize:             getEnvInt("CODEFORGE_RECOVERY_HISTORY_SIZE", 500),
		EmergencyMinBlock:       getEnvInt("CODEFORGE_RECOVERY_EMERGENCY_MIN_BLOCK", 50),
	}

	// Memory Configuration
	cfg.Memory = MemoryConfig{
		Enabled:       getEnvBool("CODEFORGE_MEMORY_ENABLED", true),
		NSimilar:      getEnvInt("CODEFORGE_MEMORY_N_SIMILAR", 3),
		MinSimilarity: getEnvFloat("CODEFORGE_MEMORY_MIN_SIMILARITY", 0.35),
		BatchSize:     getEnvInt("CODEFORGE_MEMORY_BATCH_SIZE", 10),
	}

	// Output Configuration
	cfg.Output = OutputConfig{
		Root:     getEnvString("CODEFORGE_OUTPUT_ROOT", filepath.Join(configDir, "projects")),
		AutoName: getEnvBool("CODEFORGE_OUTPUT_AUTO_NAME", true),
	}

	// Git Configuration
	cfg.Git = GitConfig{
		AutoInit:    getEnvBool("CODEFORGE_GIT_AUTO_INIT", true),
		AuthorName:  getEnvString("CODEFORGE_GIT_AUTHOR_NAME", "codeforge"),
		AuthorEmail: getEnvString("CODEFORGE_GIT_AUTHOR_EMAIL", "codeforge@localhost"),
	}

	// GitHub Configuration
	cfg.GitHub = GitHubConfig{
		Token:          getEnvString("CODEFORGE_GITHUB_TOKEN", ""),
		APIURL:         getEnvString("CODEFORGE_GITHUB_API_URL", "https://api.github.com"),
		RequestTimeout: getEnvDuration("CODEFORGE_GITHUB_REQUEST_TIMEOUT", 30*time.Second),
	}

	// Database Configuration
	cfg.Database = DatabaseConfig{
		Path:            getEnvString("CODEFORGE_DB_PATH", defaultDBPath),
		BusyTimeout:     getEnvInt("CODEFORGE_DB_BUSY_TIMEOUT", 5000),
		JournalMode:     getEnvString("CODEFORGE_DB_JOURNAL_MODE", "WAL"),
		SynchronousMode: getEnvString("CODEFORGE_DB_SYNCHRONOUS_MODE", "NORMAL"),
		CacheSize:       getEnvInt("CODEFORGE_DB_CACHE_SIZE", -64000), // ~64MB
		ForeignKeys:     getEnvBool("CODEFORGE_DB_FOREIGN_KEYS", true),
		ConnMaxLife:     getEnvDuration("CODEFORGE_DB_CONN_MAX_LIFE", 5*time.Minute),
		QueryTimeout:    getEnvDuration("CODEFORGE_DB_QUERY_TIMEOUT", 30*time.Second),
	}

	// Logging Configuration
	cfg.Logging = LoggingConfig{
		Level:      getEnvString("CODEFORGE_LOG_LEVEL", "info"),
		Format:     getEnvString("CODEFORGE_LOG_FORMAT", "text"),
		Output:     getEnvString("CODEFORGE_LOG_OUTPUT", defaultLogPath),
		AddSource:  getEnvBool("CODEFORGE_LOG_ADD_SOURCE", false),
		TimeFormat: getEnvString("CODEFORGE_LOG_TIME_FORMAT", time.RFC3339),
	}

	// Validate the configuration
	return cfg, cfg.Validate()
}
