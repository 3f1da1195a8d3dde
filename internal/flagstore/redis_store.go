package flagstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const (
	redisTrueValueConstant        = "1"
	redisFalseValueConstant       = "0"
	readRedisFlagTemplateConstant = "read flag %s from redis: %w"
	writeRedisFlagTemplate        = "write flag %s to redis: %w"
)

// RedisStore keeps flags as string keys in Redis. Keys never expire.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore constructs a RedisStore using client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Bool implements Store.
func (store *RedisStore) Bool(executionContext context.Context, key string) (bool, error) {
	if keyError := validateKey(key); keyError != nil {
		return false, keyError
	}
	storedValue, getError := store.client.Get(executionContext, key).Result()
	if errors.Is(getError, redis.Nil) {
		return false, nil
	}
	if getError != nil {
		return false, fmt.Errorf(readRedisFlagTemplateConstant, key, getError)
	}
	parsedValue, parseError := strconv.ParseBool(storedValue)
	if parseError != nil {
		return false, fmt.Errorf(readRedisFlagTemplateConstant, key, parseError)
	}
	return parsedValue, nil
}

// SetBool implements Store.
func (store *RedisStore) SetBool(executionContext context.Context, key string, value bool) error {
	if keyError := validateKey(key); keyError != nil {
		return keyError
	}
	storedValue := redisFalseValueConstant
	if value {
		storedValue = redisTrueValueConstant
	}
	if setError := store.client.Set(executionContext, key, storedValue, 0).Err(); setError != nil {
		return fmt.Errorf(writeRedisFlagTemplate, key, setError)
	}
	return nil
}

// Close releases the underlying client.
func (store *RedisStore) Close() error {
	return store.client.Close()
}
