// Package config is the examsbot configuration: the shared bot core plus catalog, stats and
// database sections.
package config

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/examsbot/core/config"
	coredatabase "github.com/m3rciful/examsbot/core/database"
)

const defaultCatalogRoot = "exams"

// Stats backends.
const (
	StatsNone     = "none"
	StatsMemory   = "memory"
	StatsPostgres = "postgres"
)

// LabelsConfig overrides the navigation button texts; empty values keep the defaults.
type LabelsConfig struct {
	OpenCatalog string `yaml:"open_catalog" envconfig:"LABEL_OPEN_CATALOG"`
	BackToMain  string `yaml:"back_to_main" envconfig:"LABEL_BACK_TO_MAIN"`
	BackToYears string `yaml:"back_to_years" envconfig:"LABEL_BACK_TO_YEARS"`
}

// CatalogConfig points at the exam file store.
type CatalogConfig struct {
	Root   string       `yaml:"root" envconfig:"EXAMS_PATH"`
	Labels LabelsConfig `yaml:"labels"`
}

// StatsConfig selects where delivered downloads are journaled.
type StatsConfig struct {
	// Backend is one of none, memory, postgres. Empty picks postgres when the database is
	// enabled and none otherwise.
	Backend string `yaml:"backend" envconfig:"STATS_BACKEND"`
}

// Config is the full process configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Catalog  CatalogConfig       `yaml:"catalog"`
	Stats    StatsConfig         `yaml:"stats"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads .env, the YAML file at path (optional) and the environment, then validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	c.Catalog.Root = strings.TrimSpace(c.Catalog.Root)
	if c.Catalog.Root == "" {
		c.Catalog.Root = defaultCatalogRoot
	}

	if err := c.Database.Normalize(); err != nil {
		return err
	}

	backend := strings.ToLower(strings.TrimSpace(c.Stats.Backend))
	if backend == "" {
		backend = StatsNone
		if c.Database.Enabled {
			backend = StatsPostgres
		}
	}
	switch backend {
	case StatsNone, StatsMemory:
	case StatsPostgres:
		if !c.Database.Enabled {
			return fmt.Errorf("stats.backend %q requires database.enabled", backend)
		}
	default:
		return fmt.Errorf("invalid stats.backend %q; allowed: none, memory, postgres", c.Stats.Backend)
	}
	c.Stats.Backend = backend
	return nil
}
