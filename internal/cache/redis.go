// internal/cache/redis.go

// Package cache connects the Redis instance backing the trial counters.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Options selects the Redis server and logical database.
type Options struct {
	Addr string
	DB   int
}

// ConnectRedis returns a client for opts after a successful ping. The caller owns
// the client and must Close it.
func ConnectRedis(ctx context.Context, opts Options, logger *logrus.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	logger.WithFields(logrus.Fields{
		"addr": opts.Addr,
		"db":   opts.DB,
	}).Info("connected to redis")
	return rdb, nil
}
