package flagstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Supported backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

const (
	missingKeyMessageConstant          = "flag key is required"
	unsupportedBackendTemplateConstant = "unsupported flag store backend %q"
	missingFilePathMessageConstant     = "flag store file path is required"
	missingRedisAddressMessageConstant = "flag store redis address is required"
)

var (
	// ErrMissingKey indicates an empty flag key.
	ErrMissingKey = errors.New(missingKeyMessageConstant)
	// ErrMissingFilePath indicates the file backend was selected without a path.
	ErrMissingFilePath = errors.New(missingFilePathMessageConstant)
	// ErrMissingRedisAddress indicates the redis backend was selected without an address.
	ErrMissingRedisAddress = errors.New(missingRedisAddressMessageConstant)
)

// Store reads and writes durable boolean flags. Absent keys read as false.
type Store interface {
	Bool(executionContext context.Context, key string) (bool, error)
	SetBool(executionContext context.Context, key string, value bool) error
}

// UnsupportedBackendError reports an unknown backend name.
type UnsupportedBackendError struct {
	Backend string
}

// Error describes the unsupported backend.
func (backendError UnsupportedBackendError) Error() string {
	return fmt.Sprintf(unsupportedBackendTemplateConstant, backendError.Backend)
}

// Configuration selects and configures a Store backend.
type Configuration struct {
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	RedisAddress  string `mapstructure:"redis_address"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDatabase int    `mapstructure:"redis_db"`
}

// Open constructs the Store described by configuration. An empty backend selects memory.
func Open(configuration Configuration) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(configuration.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(configuration.Path)
	case BackendRedis:
		if len(strings.TrimSpace(configuration.RedisAddress)) == 0 {
			return nil, ErrMissingRedisAddress
		}
		client := redis.NewClient(&redis.Options{
			Addr:     configuration.RedisAddress,
			Password: configuration.RedisPassword,
			DB:       configuration.RedisDatabase,
		})
		return NewRedisStore(client), nil
	default:
		return nil, UnsupportedBackendError{Backend: configuration.Backend}
	}
}

func validateKey(key string) error {
	if len(strings.TrimSpace(key)) == 0 {
		return ErrMissingKey
	}
	return nil
}

// MemoryStore keeps flags in process memory.
type MemoryStore struct {
	mutex  sync.RWMutex
	values map[string]bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]bool{}}
}

// Bool implements Store.
func (store *MemoryStore) Bool(_ context.Context, key string) (bool, error) {
	if keyError := validateKey(key); keyError != nil {
		return false, keyError
	}
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.values[key], nil
}

// SetBool implements Store.
func (store *MemoryStore) SetBool(_ context.Context, key string, value bool) error {
	if keyError := validateKey(key); keyError != nil {
		return keyError
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.values[key] = value
	return nil
}
