package main

import (
	"github.com/redis/go-redis/v9"

	config "github.com/NordCoder/Authgate/internal/config/auth-gateway"
)

// initRedis returns nil when the cache is disabled; the durable blacklist
// works on its own.
func initRedis(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enable {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
