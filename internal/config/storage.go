package config

import (
	"github.com/andrew-solarstorm/go-packages/common"
)

type StorageConfig struct {
	// DBPath is the path to the BoltDB file holding mint metadata.
	// Default: "./data/futarchy.db"
	DBPath string

	// PersistenceEnabled controls whether resolved mint decimals survive restarts.
	// Default: true
	PersistenceEnabled bool

	// MintCacheSize bounds the in-memory mint metadata cache.
	// Default: 4096
	MintCacheSize int
}

func (c *StorageConfig) Key() string {
	return STORAGE_CONFIG_KEY
}

func (c *StorageConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("STORAGE_DB_PATH", "./data/futarchy.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("STORAGE_PERSISTENCE_ENABLED", "true") == "true"
	c.MintCacheSize = common.GetEnvOrDefaultInt("STORAGE_MINT_CACHE_SIZE", 4096)
	return nil
}

func (c *StorageConfig) Validate() error {
	return nil
}
