package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ConnectRedis opens the optional Redis connection used for the
// available-rooms cache. Returns nil (caching disabled) when REDIS_URL is
// unset or the server cannot be reached at startup.
func ConnectRedis() *redis.Client {
	rawURL := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if rawURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		log.WithError(err).Warn("invalid REDIS_URL; caching disabled")
		return nil
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable; caching disabled")
		_ = client.Close()
		return nil
	}

	log.Info("Redis connected")
	return client
}
