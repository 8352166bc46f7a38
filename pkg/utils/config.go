package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lioia/pagerank/pkg/pagerank"
)

// APIConfig bounds what a single request may ask of the service.
type APIConfig struct {
	// MaxNodes caps the graph size; the transition matrix takes 8·n² bytes.
	MaxNodes int           `yaml:"maxNodes" validate:"gt=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	TopK     int           `yaml:"topK" validate:"gte=0"`
}

type Config struct {
	PageRank pagerank.Options `yaml:"pagerank"`
	API      APIConfig        `yaml:"api"`
}

// DefaultConfiguration is used for every value the config file leaves out.
func DefaultConfiguration() Config {
	return Config{
		PageRank: pagerank.DefaultOptions(),
		API: APIConfig{
			MaxNodes: 5000,
			Timeout:  30 * time.Second,
			TopK:     10,
		},
	}
}

// LoadConfiguration reads a YAML (or JSON) config file on top of the
// defaults. An empty path returns the defaults.
func LoadConfiguration(path string) (Config, error) {
	config := DefaultConfiguration()
	if path == "" {
		return config, nil
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("read: %w", err)
	}
	// Parse config file into Config struct
	if err = yaml.Unmarshal(bytes, &config); err != nil {
		return config, fmt.Errorf("parse: %w", err)
	}
	if err = config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate checks both sections.
func (c Config) Validate() error {
	if err := c.PageRank.Validate(); err != nil {
		return fmt.Errorf("pagerank: %w", err)
	}
	if err := validator.New().Struct(c.API); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
