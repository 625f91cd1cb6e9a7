package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"supermarket/checkout"
)

func ConnectRedis(addr, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection error:", err)
	}
	return rdb
}

// RedisLocker is a SetNX single-flight guard keyed by scope and key, used to
// stop a duplicated checkout submission from creating a second order.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return l.rdb.SetNX(ctx, "lock:"+scope+":"+key, "1", l.ttl).Result()
}

func (l *RedisLocker) Unlock(ctx context.Context, scope, key string) error {
	return l.rdb.Del(ctx, "lock:"+scope+":"+key).Err()
}

var _ checkout.Locker = (*RedisLocker)(nil)
