package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "FOODTRACKER"

var defaults = map[string]interface{}{
	"app.name":                   "foodtracker",
	"app.version":                "1.0",
	"app.build":                  "1",
	"server.address":             ":8080",
	"server.allowed_origins":     []string{"http://localhost:8081"},
	"server.request_timeout":     45000,
	"recipe_api.base_url":        "https://www.food2fork.com/api",
	"recipe_api.api_key":         "",
	"recipe_api.search_endpoint": "/search",
	"recipe_api.get_endpoint":    "/get",
	"recipe_api.timeout":         10000,
	"database.url":               "",
	"storage.photo_dir":          "images",
	"storage.photo_width":        800,
	"gemini.api_key":             "",
	"gemini.model":               "gemini-1.5-flash",
	"logging.level":              "info",
	"logging.format":             "json",
}

// Load reads config.yaml from ./configs or the working directory, then applies
// FOODTRACKER_* environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	loadEnvFile(".env")

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}
	return build(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile(".env")

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func build(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}

// overrideEmptyConfig falls back to the conventional unprefixed variable names.
func overrideEmptyConfig(cfg *Config) {
	if cfg.RecipeAPI.APIKey == "" {
		cfg.RecipeAPI.APIKey = os.Getenv("RECIPE_API_KEY")
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func validateConfig(cfg *Config) error {
	if cfg.RecipeAPI.BaseURL == "" {
		return fmt.Errorf("recipe_api.base_url is required")
	}
	if cfg.RecipeAPI.APIKey == "" {
		return fmt.Errorf("recipe_api.api_key is required")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if cfg.RecipeAPI.Timeout <= 0 {
		return fmt.Errorf("recipe_api.timeout must be positive")
	}
	if cfg.Storage.PhotoWidth == 0 {
		return fmt.Errorf("storage.photo_width must be positive")
	}
	return nil
}
