package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/redis/go-redis/v9"
)

var (
	Client *redis.Client
	Ctx    = context.Background()
)

func InitRedis() {
	Client = redis.NewClient(&redis.Options{
		Addr:     config.App.RedisAddr,
		Password: config.App.RedisPassword,
		DB:       0,
	})

	// Test connection
	if _, err := Client.Ping(Ctx).Result(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to Redis")
	}
	logger.Log.WithField("addr", config.App.RedisAddr).Info("Connected to Redis")
}

func Enabled() bool {
	return Client != nil
}

// ClaimOnce atomically marks key as used for ttl. Only the first caller gets
// true; later callers get false until the key expires.
func ClaimOnce(ctx context.Context, namespace, value string, ttl time.Duration) (bool, error) {
	sum := sha256.Sum256([]byte(value))
	key := namespace + ":" + hex.EncodeToString(sum[:])
	return Client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
}

// Status reports connectivity for the health endpoint.
func Status(ctx context.Context) string {
	if Client == nil {
		return "disabled"
	}
	if err := Client.Ping(ctx).Err(); err != nil {
		return "error"
	}
	return "connected"
}
