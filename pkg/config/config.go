package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the binary needs at startup. Values come from an
// optional YAML file overlaid with environment variables (a .env file is
// loaded first if present); the environment wins.
type Config struct {
	Addr      string `yaml:"addr"`
	DataDir   string `yaml:"data_dir"`
	SecretKey string `yaml:"secret_key"`
	LogLevel  string `yaml:"log_level"`
	Seed      bool   `yaml:"seed"`
}

func defaults() Config {
	return Config{
		Addr:     ":8080",
		DataDir:  "data",
		LogLevel: "info",
	}
}

// Load reads the config file at path (skipped when path is empty or the file
// does not exist) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("config: can't parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: can't read %s: %w", path, err)
		}
	}

	// .env is optional; real environment variables still apply without it.
	_ = godotenv.Load()

	if v := os.Getenv("FORUM_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("FORUM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if cfg.SecretKey == "" {
		return cfg, fmt.Errorf("config: SECRET_KEY is required")
	}
	return cfg, nil
}
