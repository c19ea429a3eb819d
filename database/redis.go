package database

import (
	"context"
	"examly/config"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis is the global Redis client. It stays nil when Redis is unreachable;
// callers treat a nil client as "feature disabled".
var Redis *redis.Client

var redisCtx = context.Background()

// ConnectRedis establishes the Redis connection used for the JWT blacklist
// and the exam question cache.
func ConnectRedis() {
	opts, err := redis.ParseURL(config.AppConfig.RedisURL)
	if err != nil {
		log.Printf("Invalid REDIS_URL, token blacklist disabled: %v", err)
		return
	}

	client := redis.NewClient(opts)
	if err := client.Ping(redisCtx).Err(); err != nil {
		log.Printf("Redis unreachable, token blacklist disabled: %v", err)
		return
	}

	Redis = client
	log.Println("Connected to Redis.")
}

// BlacklistToken marks a token id as revoked until its expiry.
func BlacklistToken(jti string, expiresAt time.Time) error {
	if Redis == nil {
		return nil
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil // already expired, nothing to revoke
	}

	return Redis.SetEX(redisCtx, "jwt:blacklist:jti:"+jti, "blacklisted", ttl).Err()
}

// IsTokenBlacklisted reports whether a token id has been revoked. Redis
// errors are logged and treated as "not blacklisted" so an outage does not
// lock every user out.
func IsTokenBlacklisted(jti string) bool {
	if Redis == nil {
		return false
	}

	exists, err := Redis.Exists(redisCtx, "jwt:blacklist:jti:"+jti).Result()
	if err != nil {
		log.Printf("Redis error while checking blacklist: %v", err)
		return false
	}
	return exists == 1
}

// CacheSet stores a serialized value with a TTL. Used for the exam
// question cache on the start endpoint.
func CacheSet(key string, value []byte, ttl time.Duration) {
	if Redis == nil || ttl <= 0 {
		return
	}
	if err := Redis.SetEX(redisCtx, key, value, ttl).Err(); err != nil {
		log.Printf("Redis error while caching %s: %v", key, err)
	}
}

// CacheGet fetches a cached value. Returns nil on miss or error.
func CacheGet(key string) []byte {
	if Redis == nil {
		return nil
	}
	data, err := Redis.Get(redisCtx, key).Bytes()
	if err != nil {
		return nil
	}
	return data
}

// CacheDelete drops a cached value, e.g. after question mutations.
func CacheDelete(key string) {
	if Redis == nil {
		return
	}
	if err := Redis.Del(redisCtx, key).Err(); err != nil {
		log.Printf("Redis error while deleting %s: %v", key, err)
	}
}
