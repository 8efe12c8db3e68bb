package config

import (
	"log/slog"
	"sync"

	"github.com/caarlos0/env/v11"
)

// StoreConfig selects the session snapshot store driver. Snapshots are
// ephemeral; the TTL bounds how long an abandoned session lingers.
type StoreConfig struct {
	Driver        string `env:"SESSION_STORE" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	SessionTTLMin int    `env:"SESSION_TTL_MIN" envDefault:"60"`
}

var (
	storeConfig *StoreConfig
	storeOnce   sync.Once
)

func LoadStoreConfig() *StoreConfig {
	storeOnce.Do(func() {
		storeConfig = &StoreConfig{}
		if err := env.Parse(storeConfig); err != nil {
			slog.Error("failed to parse store environment", "error", err)
		}
	})
	return storeConfig
}
