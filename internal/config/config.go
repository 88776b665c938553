// Package config loads process-startup configuration: which backend is
// active, how to reach it, and which collections (with their indexes) the
// application declares.
//
// Precedence, lowest to highest: defaults, YAML file, environment
// variables. A .env file, when present, is folded into the environment
// before overrides are read, matching how the upstream application is
// deployed.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hoopwithher/polystore/internal/backend"
)

// Config selects exactly one active backend and its connection
// parameters. The selection is a one-time startup decision; nothing
// re-reads configuration after initialization.
type Config struct {
	// Backend is one of "memory", "mongodb", "tableservice".
	Backend string `yaml:"backend"`

	MongoDB      MongoDBConfig      `yaml:"mongodb"`
	TableService TableServiceConfig `yaml:"tableservice"`

	// Collections declares the known collection names and their indexes.
	// The registry refuses names not declared here.
	Collections []CollectionSpec `yaml:"collections"`
}

// MongoDBConfig carries document-database connection parameters.
type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// TableServiceConfig carries table-service connection parameters.
type TableServiceConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// CollectionSpec declares one collection and its indexes.
type CollectionSpec struct {
	Name    string      `yaml:"name"`
	Indexes []IndexSpec `yaml:"indexes"`
}

// IndexSpec declares one index.
type IndexSpec struct {
	Field  string `yaml:"field"`
	Unique bool   `yaml:"unique"`
}

// Default returns the configuration used when no file and no environment
// are present: the in-memory backend with no declared collections.
func Default() Config {
	return Config{Backend: string(backend.KindMemory)}
}

// Load reads path (when non-empty), folds in a .env file if one exists
// beside the process, applies environment overrides, and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Missing .env is fine; only a malformed one is an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays the environment variables the upstream deployment
// already uses onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("POLYSTORE_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("MONGO_URL"); v != "" {
		cfg.MongoDB.URI = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.MongoDB.Database = v
	}
	if v := os.Getenv("TABLE_SERVICE_URL"); v != "" {
		cfg.TableService.URL = v
	}
	if v := os.Getenv("TABLE_SERVICE_KEY"); v != "" {
		cfg.TableService.APIKey = v
	}
}

// Validate checks the selected backend has what it needs to start.
func (c Config) Validate() error {
	switch backend.Kind(c.Backend) {
	case backend.KindMemory:
		// Nothing to configure.
	case backend.KindMongoDB:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("config: mongodb.uri is required for the mongodb backend")
		}
		if c.MongoDB.Database == "" {
			return fmt.Errorf("config: mongodb.database is required for the mongodb backend")
		}
	case backend.KindTableService:
		if c.TableService.URL == "" {
			return fmt.Errorf("config: tableservice.url is required for the tableservice backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q (want memory, mongodb, or tableservice)", c.Backend)
	}

	seen := make(map[string]bool, len(c.Collections))
	for _, col := range c.Collections {
		if col.Name == "" {
			return fmt.Errorf("config: collection with empty name")
		}
		if seen[col.Name] {
			return fmt.Errorf("config: collection %q declared twice", col.Name)
		}
		seen[col.Name] = true
		for _, idx := range col.Indexes {
			if idx.Field == "" {
				return fmt.Errorf("config: collection %q has an index with empty field", col.Name)
			}
		}
	}
	return nil
}

// CollectionNames returns the declared names in declaration order.
func (c Config) CollectionNames() []string {
	names := make([]string, len(c.Collections))
	for i, col := range c.Collections {
		names[i] = col.Name
	}
	return names
}
