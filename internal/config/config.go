package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix prefixes environment overrides, e.g. ANALYZER_SERVER_PORT
const EnvPrefix = "ANALYZER"

// Config holds all application configuration
type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	OpenAI      OpenAIConfig    `mapstructure:"openai"`
	Logger      LoggerConfig    `mapstructure:"logger"`
	Uploads     UploadsConfig   `mapstructure:"uploads"`
	Matching    MatchingConfig  `mapstructure:"matching"`
	Reconcile   ReconcileConfig `mapstructure:"reconcile"`
	Analysis    AnalysisConfig  `mapstructure:"analysis"`
	PromptsPath string          `mapstructure:"prompts_path"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB   int64         `mapstructure:"max_upload_mb"`
	MaxFileSizeMB int64         `mapstructure:"max_file_size_mb"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	VisionModel string        `mapstructure:"vision_model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	MaxPages    int           `mapstructure:"max_pages"`
}

// Enabled reports whether an API key is configured
func (c OpenAIConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// UploadsConfig controls where uploads are kept and how long stray ones survive
type UploadsConfig struct {
	Dir             string        `mapstructure:"dir"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// MatchingConfig tunes the product matcher
type MatchingConfig struct {
	Threshold       float64             `mapstructure:"threshold"`
	WordWeight      float64             `mapstructure:"word_weight"`
	SubstringBonus  float64             `mapstructure:"substring_bonus"`
	MinSubstringLen int                 `mapstructure:"min_substring_len"`
	Synonyms        map[string][]string `mapstructure:"synonyms"`
}

// ReconcileConfig tunes price reconciliation
type ReconcileConfig struct {
	MaxUnmatched int `mapstructure:"max_unmatched"`
	SampleRows   int `mapstructure:"sample_rows"`
}

// AnalysisConfig tunes invoice analysis
type AnalysisConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load loads configuration from an optional YAML file, a .env file in the
// working directory and environment variables, in increasing precedence
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads variables from path without overriding the environment. A missing file is ignored.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 300*time.Second)
	v.SetDefault("server.max_upload_mb", 100)
	v.SetDefault("server.max_file_size_mb", 25)

	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.vision_model", "gpt-4o")
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.max_tokens", 4096)
	v.SetDefault("openai.timeout", 120*time.Second)
	v.SetDefault("openai.max_retries", 3)
	v.SetDefault("openai.max_pages", 3)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.ttl", time.Hour)
	v.SetDefault("uploads.cleanup_interval", 10*time.Minute)

	v.SetDefault("matching.threshold", 30.0)
	v.SetDefault("matching.word_weight", 80.0)
	v.SetDefault("matching.substring_bonus", 15.0)
	v.SetDefault("matching.min_substring_len", 3)

	v.SetDefault("reconcile.max_unmatched", 50)
	v.SetDefault("reconcile.sample_rows", 5)

	v.SetDefault("analysis.concurrency", 4)
}

// bindEnvVars binds the conventional unprefixed variables
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"openai.api_key":  "OPENAI_API_KEY",
		"openai.base_url": "OPENAI_BASE_URL",
		"openai.model":    "OPENAI_MODEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate validates the configuration. An empty OpenAI key is allowed and disables extraction.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	if c.Server.MaxFileSizeMB <= 0 {
		return fmt.Errorf("server.max_file_size_mb must be positive")
	}

	if c.OpenAI.Enabled() && c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model is required when openai.api_key is set")
	}
	if c.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("openai.max_retries must not be negative")
	}

	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads.dir is required")
	}
	if c.Uploads.TTL <= 0 || c.Uploads.CleanupInterval <= 0 {
		return fmt.Errorf("uploads.ttl and uploads.cleanup_interval must be positive")
	}

	if err := c.MatcherConfig().Validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}

	if c.Reconcile.MaxUnmatched < 0 || c.Reconcile.SampleRows < 0 {
		return fmt.Errorf("reconcile.max_unmatched and reconcile.sample_rows must not be negative")
	}
	if c.Analysis.Concurrency < 0 {
		return fmt.Errorf("analysis.concurrency must not be negative")
	}

	return nil
}
