package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adiawaskar/smart-upi-poc/internal/store/kv"
	"github.com/adiawaskar/smart-upi-poc/internal/store/memory"
	"github.com/adiawaskar/smart-upi-poc/internal/store/mongo"
	"github.com/adiawaskar/smart-upi-poc/internal/store/sqlite"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		st := memory.New()
		f.logger.Info("Initialized memory backend")
		return &Result{Store: st, Cleanup: st.Close}, nil

	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case RedisBackend:
		bucket := kv.NewRedisBucket(kv.RedisOptions{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
			Prefix:   config.RedisPrefix,
		})
		if err := bucket.Ping(ctx); err != nil {
			bucket.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", config.RedisAddr, err)
		}
		st := kv.New(bucket)
		f.logger.Info("Initialized redis backend", "addr", config.RedisAddr, "prefix", config.RedisPrefix)
		return &Result{Store: st, Cleanup: st.Close}, nil

	case MongoBackend:
		st, err := mongo.Connect(ctx, config.MongoURI, config.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mongo backend: %w", err)
		}
		f.logger.Info("Initialized mongo backend", "database", config.MongoDatabase)
		return &Result{Store: st, Cleanup: st.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
