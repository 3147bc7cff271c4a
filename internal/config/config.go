package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the application configuration. The pipeline itself only
// consumes MaxImageSize and JPEGQuality; everything else configures the
// outer surfaces (backend selection, artifacts, logging).
type Config struct {
	Backend             string `json:"backend"`
	ServerURL           string `json:"server_url"`
	APIKey              string `json:"api_key,omitempty"`
	Model               string `json:"model"`
	MaxImageSize        int    `json:"max_image_size"`
	JPEGQuality         int    `json:"jpeg_quality"`
	StageTimeoutSeconds int    `json:"stage_timeout_seconds"`
	OutputDir           string `json:"output_dir"`
	LogLevel            string `json:"log_level"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Backend:             "ollama",
		ServerURL:           "",
		Model:               "qwen2.5vl",
		MaxImageSize:        1024,
		JPEGQuality:         85,
		StageTimeoutSeconds: 300,
		OutputDir:           "output",
		LogLevel:            "info",
	}
}

// LoadFromFile loads configuration from a JSON file over the defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from GRASPMIND_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GRASPMIND_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("GRASPMIND_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("GRASPMIND_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("GRASPMIND_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("GRASPMIND_MAX_IMAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxImageSize = n
		}
	}
	if v := os.Getenv("GRASPMIND_JPEG_QUALITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.JPEGQuality = n
		}
	}
	if v := os.Getenv("GRASPMIND_STAGE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.StageTimeoutSeconds = n
		}
	}
	if v := os.Getenv("GRASPMIND_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("GRASPMIND_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend {
	case "ollama", "openai":
	default:
		return fmt.Errorf("backend must be 'ollama' or 'openai', got %q", c.Backend)
	}
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.MaxImageSize < 1 {
		return fmt.Errorf("max_image_size must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100")
	}
	if c.StageTimeoutSeconds < 0 {
		return fmt.Errorf("stage_timeout_seconds must not be negative")
	}
	return nil
}

// SaveToFile saves configuration to a JSON file.
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
