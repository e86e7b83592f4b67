// Package config loads the tuning knobs of the collection pipeline from
// the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything that shapes how the pipeline talks to the API.
// Business parameters (org, user, year, month) come from the CLI, not here.
type Config struct {
	// Concurrency caps the per-repository worker pool; the platform's
	// rate-limit ceiling makes more than 10 counterproductive.
	Concurrency int `split_words:"true" default:"5" validate:"gt=0,lte=10"`
	PageSize    int `split_words:"true" default:"100" validate:"gt=0,lte=100"`

	MaxRetries   int           `split_words:"true" default:"3" validate:"gt=0"`
	RetryBackoff time.Duration `split_words:"true" default:"500ms" validate:"gt=0"`

	RequestsPerMinute int `split_words:"true" default:"80" validate:"gt=0"`

	HTTPTimeout     time.Duration `split_words:"true" default:"30s" validate:"gt=0"`
	PipelineTimeout time.Duration `split_words:"true" default:"30m" validate:"gt=0"`

	RepoCacheSize int           `split_words:"true" default:"64" validate:"gt=0"`
	RepoCacheTTL  time.Duration `split_words:"true" default:"10m" validate:"gt=0"`
}

// Loader reads a Config from the environment under a prefix.
type Loader struct {
	Prefix   string
	Validate *validator.Validate
}

// NewLoader creates a Loader for the given env prefix.
func NewLoader(prefix string) *Loader {
	return &Loader{Prefix: prefix, Validate: validator.New()}
}

// Load overlays an optional .env file, processes the environment and
// validates the result.
func (l *Loader) Load() (Config, error) {
	var cfg Config

	if fileExists(".env") {
		if err := godotenv.Overload(".env"); err != nil {
			return cfg, fmt.Errorf("dotenv: %w", err)
		}
	}
	if err := envconfig.Process(l.Prefix, &cfg); err != nil {
		return cfg, fmt.Errorf("env load: %w", err)
	}
	if err := l.Validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
