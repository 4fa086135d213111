package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisHashKey = "caching-proxy:records"

// RedisCache keeps records in a single redis hash, so the whole cache
// can be cleared with one DEL.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(addr string) RedisCache {
	return RedisCache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (r RedisCache) Get(key string) ([]byte, bool, error) {
	record, err := r.rdb.HGet(context.Background(), redisHashKey, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func (r RedisCache) Put(key string, record []byte) error {
	return r.rdb.HSet(context.Background(), redisHashKey, key, record).Err()
}

func (r RedisCache) Has(key string) bool {
	ok, err := r.rdb.HExists(context.Background(), redisHashKey, key).Result()
	return err == nil && ok
}

func (r RedisCache) Clear() error {
	return r.rdb.Del(context.Background(), redisHashKey).Err()
}

func (r RedisCache) Keys(cb func(string)) {
	keys, err := r.rdb.HKeys(context.Background(), redisHashKey).Result()
	if err != nil {
		return
	}
	for _, key := range keys {
		cb(key)
	}
}
