package identity

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/cheese-board-client/internal/domain"
)

// KeyPlayerID is the only key the client persists.
const KeyPlayerID = "playerId"

// ErrNotFound is returned by a Backend when the key has no value.
var ErrNotFound = errors.New("identity: not found")

// Backend is a minimal string key/value store.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type Option func(*Store)

// WithGenerator overrides how new identities are minted.
func WithGenerator(gen func() domain.PlayerIdentity) Option {
	return func(s *Store) {
		if gen != nil {
			s.gen = gen
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store resolves the local player's identity. The first resolved value is
// cached, so every call in a process returns the same identity.
type Store struct {
	backend Backend
	gen     func() domain.PlayerIdentity
	logger  *zap.Logger

	mu     sync.Mutex
	cached domain.PlayerIdentity
}

func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, gen: Generate, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Generate mints "player_" followed by a number in [0, 10000).
func Generate() domain.PlayerIdentity {
	return domain.PlayerIdentity(fmt.Sprintf("player_%d", rand.IntN(10000)))
}

// GetOrCreate never fails. Backend errors degrade to an identity that lives
// only as long as the process.
func (s *Store) GetOrCreate(ctx context.Context) domain.PlayerIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != "" {
		return s.cached
	}
	s.cached = s.resolve(ctx)
	return s.cached
}

func (s *Store) resolve(ctx context.Context) domain.PlayerIdentity {
	if s.backend == nil {
		id := s.gen()
		s.logger.Warn("identity_ephemeral", zap.String("player_id", string(id)), zap.String("reason", "no backend"))
		return id
	}

	v, err := s.backend.Get(ctx, KeyPlayerID)
	switch {
	case err == nil && strings.TrimSpace(v) != "":
		id := domain.PlayerIdentity(strings.TrimSpace(v))
		s.logger.Debug("identity_loaded", zap.String("player_id", string(id)))
		return id
	case err != nil && !errors.Is(err, ErrNotFound):
		id := s.gen()
		s.logger.Warn("identity_ephemeral", zap.String("player_id", string(id)), zap.Error(err))
		return id
	}

	id := s.gen()
	if err := s.backend.Set(ctx, KeyPlayerID, string(id)); err != nil {
		s.logger.Warn("identity_persist_failed", zap.String("player_id", string(id)), zap.Error(err))
		return id
	}
	s.logger.Info("identity_created", zap.String("player_id", string(id)))
	return id
}
