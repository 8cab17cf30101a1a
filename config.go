package ceangal

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the declarative form of the container options, loadable from
// YAML so deployments can tune the container without a rebuild.
//
// Example:
//
//	eager_plans: true
//	cycle_detection: true
//	logging: development
type Config struct {
	// EagerPlans compiles construction plans at registration time.
	EagerPlans bool `yaml:"eager_plans"`

	// CycleDetection guards resolution against circular dependency
	// graphs. Defaults to true.
	CycleDetection *bool `yaml:"cycle_detection"`

	// Logging selects the logger: "off" (default), "production", or
	// "development".
	Logging string `yaml:"logging"`
}

// ParseConfig decodes a YAML container configuration.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing container config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads and decodes a YAML container configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading container config: %w", err)
	}
	return ParseConfig(data)
}

// WithConfig applies a declarative configuration to the container.
//
// Example:
//
//	cfg, err := ceangal.LoadConfig("ceangal.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	container := ceangal.New(ceangal.WithConfig(cfg))
func WithConfig(cfg Config) Option {
	return func(c *Container) error {
		c.eagerPlans = cfg.EagerPlans
		if cfg.CycleDetection != nil {
			c.detectCycles = *cfg.CycleDetection
		}

		switch cfg.Logging {
		case "", "off":
		case "production":
			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("building production logger: %w", err)
			}
			c.logger = logger
		case "development":
			logger, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("building development logger: %w", err)
			}
			c.logger = logger
		default:
			return fmt.Errorf("unknown logging mode %q", cfg.Logging)
		}
		return nil
	}
}
