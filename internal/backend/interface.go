package backend

import (
	"context"

	"github.com/adiawaskar/smart-upi-poc/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the record store and its cleanup function.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates record stores based on configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// SQLite
	SQLiteDBPath string

	// Redis key-value
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// MongoDB
	MongoURI      string
	MongoDatabase string
}

// BackendType names a record store implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
	MongoBackend  BackendType = "mongo"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, RedisBackend, MongoBackend:
		return true
	default:
		return false
	}
}
