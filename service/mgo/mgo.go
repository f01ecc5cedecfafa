package mgo

import (
	"IMProject/logger"
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Config struct {
	URI         string
	Database    string
	Username    string
	Password    string
	MaxPoolSize uint64
	MaxRetry    int
}

var (
	mu sync.RWMutex
	db *mongo.Database
)

// Init connects with bounded exponential backoff and keeps the database
// handle in a package-level slot, mirroring how the rest of the services
// reach their stores.
func Init(ctx context.Context, cfg *Config) error {
	if cfg.MaxRetry <= 0 {
		cfg.MaxRetry = 3
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password})
	}

	backoff := 200 * time.Millisecond
	var lastErr error
	for i := 0; i < cfg.MaxRetry; i++ {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		cli, err := mongo.Connect(cctx, opts)
		if err == nil {
			err = cli.Ping(cctx, nil)
		}
		cancel()
		if err == nil {
			mu.Lock()
			db = cli.Database(cfg.Database)
			mu.Unlock()
			logger.Infof("[mgo] connected uri=%s db=%s", cfg.URI, cfg.Database)
			return nil
		}
		lastErr = err
		logger.Warnf("[mgo] connect attempt %d failed: %v", i+1, err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}
	return fmt.Errorf("mongo connect failed after %d attempts: %w", cfg.MaxRetry, lastErr)
}

// GetDB returns the shared database handle, nil before Init succeeds.
func GetDB() *mongo.Database {
	mu.RLock()
	defer mu.RUnlock()
	return db
}
