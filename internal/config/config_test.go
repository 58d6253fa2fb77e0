package config

import (
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue float64
		expected     float64
	}{
		{
			name:         "env not set, return default",
			envValue:     "",
			defaultValue: 0.2,
			expected:     0.2,
		},
		{
			name:         "env set to 0.1, return 0.1",
			envValue:     "0.1",
			defaultValue: 0.2,
			expected:     0.1,
		},
		{
			name:         "env set to 0.7, return 0.7 (not 0.7000000000001)",
			envValue:     "0.7",
			defaultValue: 0.2,
			expected:     0.7,
		},
		{
			name:         "env set to invalid value, return default",
			envValue:     "invalid",
			defaultValue: 0.2,
			expected:     0.2,
		},
		{
			name:         "env set to precise value, maintain precision",
			envValue:     "0.123456789",
			defaultValue: 0.2,
			expected:     0.123456789,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup environment variable for the test
			key := "TEST_FLOAT_VALUE"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}

			// Call the function
			result := getEnvFloat(key, tt.defaultValue)

			// Verify the result
			assert.Equal(t, tt.expected, result, "getEnvFloat should return the expected value with correct precision")
		})
	}
}

func TestGetEnvString(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue string
		expected     string
	}{
		{
			name:         "env not set, return default",
			envValue:     "",
			defaultValue: "default",
			expected:     "default",
		},
		{
			name:         "env set, return env value",
			envValue:     "custom",
			defaultValue: "default",
			expected:     "custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_STRING_VALUE"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}

			result := getEnvString(key, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		expected     int
	}{
		{
			name:         "env not set, return default",
			envValue:     "",
			defaultValue: 100,
			expected:     100,
		},
		{
			name:         "env set to valid int, return int value",
			envValue:     "200",
			defaultValue: 100,
			expected:     200,
		},
		{
			name:         "env set to invalid int, return default",
			envValue:     "not_an_int",
			defaultValue: 100,
			expected:     100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_INT_VALUE"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}

			result := getEnvInt(key, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		expected     bool
	}{
		{
			name:         "env not set, return default",
			envValue:     "",
			defaultValue: true,
			expected:     true,
		},
		{
			name:         "env set to true, return true",
			envValue:     "true",
			defaultValue: false,
			expected:     true,
		},
		{
			name:         "env set to false, return false",
			envValue:     "false",
			defaultValue: true,
			expected:     false,
		},
		{
			name:         "env set to invalid bool, return default",
			envValue:     "not_a_bool",
			defaultValue: true,
			expected:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VALUE"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}

			result := getEnvBool(key, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		expected     time.Duration
	}{
		{
			name:         "env not set, return default",
			envValue:     "",
			defaultValue: 1 * time.Second,
			expected:     1 * time.Second,
		},
		{
			name:         "env set to valid duration, return duration value",
			envValue:     "5s",
			defaultValue: 1 * time.Second,
			expected:     5 * time.Second,
		},
		{
			name:         "env set to invalid duration, return default",
			envValue:     "not_a_duration",
			defaultValue: 1 * time.Second,
			expected:     1 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_DURATION_VALUE"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}

			result := getEnvDuration(key, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNew(t *testing.T) {
	// New should return a bare-bones config with all fields at zero values
	cfg := New()

	assert.Empty(t, cfg.Database.Path, "Database path should be empty")
	assert.Empty(t, cfg.DefaultLLMProvider)
	assert.Empty(t, cfg.Ollama.Endpoint)
	assert.Zero(t, cfg.Ollama.Timeout)
	assert.Zero(t, cfg.Claude.MaxTokens)
	assert.Empty(t, cfg.Logging.Level)
	assert.False(t, cfg.Memory.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	// Reset any environment variables that might affect the test
	vars := []string{
		"CODEFORGE_LLM_DEFAULT_PROVIDER",
		"CODEFORGE_OLLAMA_ENDPOINT", "CODEFORGE_OLLAMA_TIMEOUT", "CODEFORGE_OLLAMA_MAX_RETRIES",
		"CODEFORGE_OLLAMA_MODEL", "CODEFORGE_OLLAMA_TEMPERATURE",
		"CODEFORGE_EXTRACTOR_ENV_FLOOR", "CODEFORGE_RECOVERY_CB_THRESHOLD",
		"CODEFORGE_MEMORY_ENABLED", "CODEFORGE_LOG_LEVEL",
	}

	for _, v := range vars {
		os.Unsetenv(v)
	}

	// Load config with defaults into a throwaway config dir
	cfg, err := LoadFromEnv(t.TempDir(), "")
	assert.NoError(t, err)

	// Verify default values are set correctly
	assert.Equal(t, "ollama", cfg.DefaultLLMProvider)

	// Verify Ollama config
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.Endpoint)
	assert.Equal(t, 600*time.Second, cfg.Ollama.Timeout)
	assert.Equal(t, 3, cfg.Ollama.MaxRetries)
	assert.Equal(t, "qwen2.5-coder", cfg.Ollama.Model)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbeddingModel)
	assert.Equal(t, 0.2, cfg.Ollama.Temperature, "Temperature precision should be exactly 0.2")
	assert.Equal(t, 100, cfg.Ollama.MaxIdleConns)
	assert.Equal(t, 100, cfg.Ollama.MaxIdleConnsPerHost)
	assert.Equal(t, 120*time.Second, cfg.Ollama.IdleConnTimeout)

	// Verify Claude config
	assert.Equal(t, "claude-3-7-sonnet-20250219", cfg.Claude.Model)
	assert.Equal(t, 8192, cfg.Claude.MaxTokens)
	assert.Equal(t, 0.1, cfg.Claude.Temperature)

	// Verify extractor floors
	assert.Equal(t, 1, cfg.Extractor.EnvFloor)
	assert.Equal(t, 3, cfg.Extractor.BuildFloor)
	assert.Equal(t, 5, cfg.Extractor.InfraFloor)
	assert.Equal(t, 10, cfg.Extractor.DefaultFloor)

	// Verify recovery config
	assert.Equal(t, 300*time.Second, cfg.Recovery.CircuitBreakerWindow)
	assert.Equal(t, 3, cfg.Recovery.CircuitBreakerThreshold)
	assert.Equal(t, 500, cfg.Recovery.HistorySize)

	// Other config fields
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Memory.Enabled)
	assert.Equal(t, 3, cfg.Memory.NSimilar)
	assert.True(t, cfg.Git.AutoInit)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("CODEFORGE_LLM_DEFAULT_PROVIDER", "claude")
	t.Setenv("CODEFORGE_OLLAMA_MODEL", "codellama")
	t.Setenv("CODEFORGE_MEMORY_ENABLED", "false")
	t.Setenv("CODEFORGE_RECOVERY_CB_THRESHOLD", "7")

	cfg, err := LoadFromEnv(t.TempDir(), "")
	assert.NoError(t, err)

	assert.Equal(t, "claude", cfg.DefaultLLMProvider)
	assert.Equal(t, "codellama", cfg.Ollama.Model)
	assert.False(t, cfg.Memory.Enabled)
	assert.Equal(t, 7, cfg.Recovery.CircuitBreakerThreshold)
}

func TestSetGet(t *testing.T) {
	// Clear the global config first
	Set(nil)

	// Get should return error when not initialized
	_, err := Get()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")

	// Set a config
	testCfg := New()
	testCfg.Ollama.Temperature = 0.5 // Change a value
	Set(testCfg)

	// Get should work now
	cfg, err := Get()
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	// Verify the changed value
	assert.Equal(t, 0.5, cfg.Ollama.Temperature)
}

func TestValidate(t *testing.T) {
	// Valid config from LoadFromEnv should pass validation
	cfg, err := LoadFromEnv(t.TempDir(), "")
	assert.NoError(t, err)
	err = cfg.Validate()
	assert.NoError(t, err)

	// Invalid LLM config
	invalidLLM := New()
	invalidLLM.DefaultLLMProvider = "gpt4all"
	err = invalidLLM.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "LLM config")

	// Invalid Ollama config
	invalidOllama := validBase(t)
	invalidOllama.Ollama.MaxRetries = 0
	err = invalidOllama.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Ollama config")

	// Invalid extractor config
	invalidExtractor := validBase(t)
	invalidExtractor.Extractor.DefaultFloor = 0
	err = invalidExtractor.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "extractor config")

	// Invalid recovery config
	invalidRecovery := validBase(t)
	invalidRecovery.Recovery.CircuitBreakerThreshold = 0
	err = invalidRecovery.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "recovery config")

	// Invalid memory config
	invalidMemory := validBase(t)
	invalidMemory.Memory.MinSimilarity = 1.5
	err = invalidMemory.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "memory config")

	// Disabled memory skips memory validation
	disabledMemory := validBase(t)
	disabledMemory.Memory.Enabled = false
	disabledMemory.Memory.NSimilar = 0
	err = disabledMemory.Validate()
	assert.NoError(t, err)

	// Invalid logging config
	invalidLogging := validBase(t)
	invalidLogging.Logging.Level = "invalid"
	err = invalidLogging.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "logging config")
}

// validBase returns a config that passes Validate, ready for targeted breakage.
func validBase(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadFromEnv(t.TempDir(), "")
	if err != nil {
		t.Fatalf("loading base config: %v", err)
	}
	return cfg
}

func TestParseLoglevel(t *testing.T) {
	tests := []struct {
		level  string
		expect slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"none", slog.Level(9999)},
		{"invalid", slog.LevelInfo}, // Default to info for invalid levels
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level := ParseLogLevel(tt.level)
			assert.Equal(t, tt.expect, level)
		})
	}
}

func TestTemperaturePrecision(t *testing.T) {
	// Test multiple precision values to ensure they're preserved exactly
	temperatures := []float64{
		0.0,
		0.1,
		0.2,
		0.25,
		0.33,
		0.5,
		0.67,
		0.7,
		0.75,
		0.8,
		0.9,
		1.0,
	}

	for _, temp := range temperatures {
		t.Run(formatFloat(temp), func(t *testing.T) {
			// Set via environment
			os.Setenv("TEST_TEMP", formatFloat(temp))
			defer os.Unsetenv("TEST_TEMP")

			result := getEnvFloat("TEST_TEMP", 0.0)
			assert.Equal(t, temp, result, "Temperature should maintain exact precision")

			// Test in Config
			cfg := New()
			cfg.Ollama.Temperature = temp
			assert.Equal(t, temp, cfg.Ollama.Temperature, "Temperature in config should maintain exact precision")
		})
	}
}

// Helper function to format float without scientific notation
func formatFloat(f float64) string {
	return fmt.Sprintf("%.9f", f)
}
