package identity

import (
	"fmt"

	"github.com/park285/cheese-board-client/internal/config"
)

// OpenBackend selects the backend named by cfg. The returned closer is never nil.
func OpenBackend(cfg *config.AppConfig) (Backend, func() error, error) {
	noop := func() error { return nil }
	switch cfg.IdentityBackend {
	case config.IdentityMemory:
		return NewMemoryBackend(), noop, nil
	case config.IdentityRedis:
		rdb, err := NewRedisClient(cfg.IdentityRedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("identity redis url: %w", err)
		}
		return NewRedisBackend(rdb, cfg.Profile), rdb.Close, nil
	default:
		return NewFileBackend(cfg.IdentityFile), noop, nil
	}
}
