package kvstore

import (
	"context"
	"fmt"

	"banking-client/internal/common/config"
)

// Open builds the store selected by cfg.Driver. A redis store is pinged first.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		s, err := NewRedis(cfg.Redis, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
