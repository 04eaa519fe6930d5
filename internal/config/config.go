package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service. API keys are
// deliberately not part of it: they are read from the environment at call
// time so a key rotation does not require a restart.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Mail        MailConfig                `json:"mail"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

type MailConfig struct {
	BaseURL string `json:"base_url"`
	From    string `json:"from"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	UploadDir     string `json:"upload_dir"`
	MaxUploadMB   int64  `json:"max_upload_mb"`
	Store         string `json:"store"` // "memory" (default) or "sqlite"
	SQLitePath    string `json:"sqlite_path"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		BasicConfig: BasicConfig{
			ServerAddress: ":8090",
			UploadDir:     "./data/uploads",
			MaxUploadMB:   10,
			Store:         "memory",
		},
		Providers: map[string]ProviderConfig{
			"openai": {Model: "gpt-4o-mini"},
			"gemini": {Model: "gemini-2.0-flash"},
			"claude": {Model: "claude-3-5-haiku-latest"},
		},
		Mail: MailConfig{
			BaseURL: "https://api.resend.com",
			From:    "Meeting Recap <recap@localhost>",
		},
	}
}

// Load reads configuration from the provided path (defaults to config.json).
// A missing file is not an error; the service can run entirely on defaults
// plus environment keys.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	cfg := Default()
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.BasicConfig.Store == "sqlite" && cfg.BasicConfig.SQLitePath == "" {
		return nil, fmt.Errorf("sqlite_path must be configured when store is sqlite")
	}
	if cfg.BasicConfig.SQLitePath != "" && !filepath.IsAbs(cfg.BasicConfig.SQLitePath) {
		cfg.BasicConfig.SQLitePath = filepath.Join(filepath.Dir(absPath), cfg.BasicConfig.SQLitePath)
	}
	if cfg.BasicConfig.MaxUploadMB <= 0 {
		cfg.BasicConfig.MaxUploadMB = 10
	}

	return cfg, nil
}
