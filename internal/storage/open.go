package storage

import (
	"fmt"
	"strings"

	"tekai/internal/config"
)

// Open builds the store selected by cfg.StoreBackend.
func Open(cfg *config.Config) (Store, error) {
	switch config.StoreBackend(strings.ToLower(string(cfg.StoreBackend))) {
	case config.StoreFile, "":
		return NewFileStore(cfg.StoreFilePath)
	case config.StoreSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.StoreRedis:
		return NewRedisStore(RedisOptions{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}
