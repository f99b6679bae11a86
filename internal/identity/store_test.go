package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-board-client/internal/config"
	"github.com/park285/cheese-board-client/internal/domain"
)

type failingBackend struct {
	getErr error
	setErr error
	sets   int
}

func (f *failingBackend) Get(context.Context, string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return "", ErrNotFound
}

func (f *failingBackend) Set(context.Context, string, string) error {
	f.sets++
	return f.setErr
}

func counter(ids ...string) func() domain.PlayerIdentity {
	i := 0
	return func() domain.PlayerIdentity {
		id := ids[i%len(ids)]
		i++
		return domain.PlayerIdentity(id)
	}
}

func TestGetOrCreateReturnsStoredValue(t *testing.T) {
	b := NewMemoryBackend()
	_ = b.Set(context.Background(), KeyPlayerID, "player_4821")
	s := NewStore(b, WithGenerator(counter("player_1")))
	if got := s.GetOrCreate(context.Background()); got != "player_4821" {
		t.Fatalf("got %q", got)
	}
}

func TestGetOrCreatePersistsGenerated(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	s := NewStore(b, WithGenerator(counter("player_77")))
	if got := s.GetOrCreate(ctx); got != "player_77" {
		t.Fatalf("got %q", got)
	}
	v, err := b.Get(ctx, KeyPlayerID)
	if err != nil || v != "player_77" {
		t.Fatalf("backend = %q, %v", v, err)
	}

	// a fresh store over the same backend sees the persisted value
	s2 := NewStore(b, WithGenerator(counter("player_99")))
	if got := s2.GetOrCreate(ctx); got != "player_77" {
		t.Fatalf("second store got %q", got)
	}
}

func TestGetOrCreateFailsOpenOnReadError(t *testing.T) {
	fb := &failingBackend{getErr: errors.New("disk on fire")}
	s := NewStore(fb, WithGenerator(counter("player_1", "player_2")))
	first := s.GetOrCreate(context.Background())
	second := s.GetOrCreate(context.Background())
	if first != "player_1" || second != first {
		t.Fatalf("expected stable ephemeral id, got %q then %q", first, second)
	}
	if fb.sets != 0 {
		t.Fatalf("should not write after a failed read")
	}
}

func TestGetOrCreateFailsOpenOnWriteError(t *testing.T) {
	fb := &failingBackend{setErr: errors.New("read-only")}
	s := NewStore(fb, WithGenerator(counter("player_5", "player_6")))
	if got := s.GetOrCreate(context.Background()); got != "player_5" {
		t.Fatalf("got %q", got)
	}
	if got := s.GetOrCreate(context.Background()); got != "player_5" {
		t.Fatalf("ephemeral id changed: %q", got)
	}
	if fb.sets != 1 {
		t.Fatalf("expected exactly one write attempt, got %d", fb.sets)
	}
}

func TestGenerateFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := string(Generate())
		var n int
		if _, err := fmt.Sscanf(id, "player_%d", &n); err != nil || n < 0 || n >= 10000 {
			t.Fatalf("bad id %q", id)
		}
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "identity.yaml")
	fb := NewFileBackend(path)

	if _, err := fb.Get(ctx, KeyPlayerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := fb.Set(ctx, KeyPlayerID, "player_12"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := NewFileBackend(path).Get(ctx, KeyPlayerID)
	if err != nil || v != "player_12" {
		t.Fatalf("get = %q, %v", v, err)
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v", st.Mode().Perm())
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileBackendCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	if err := os.WriteFile(path, []byte("playerId: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewStore(NewFileBackend(path), WithGenerator(counter("player_3")))
	if got := s.GetOrCreate(context.Background()); got != "player_3" {
		t.Fatalf("expected ephemeral fallback, got %q", got)
	}
}

func TestRedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	b := NewRedisBackend(rdb, "alice")
	if _, err := b.Get(ctx, KeyPlayerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	s := NewStore(b, WithGenerator(counter("player_4821")))
	if got := s.GetOrCreate(ctx); got != "player_4821" {
		t.Fatalf("got %q", got)
	}
	if v := mr.HGet("board:identity:alice", KeyPlayerID); v != "player_4821" {
		t.Fatalf("redis hash = %q", v)
	}
	if mr.TTL("board:identity:alice") != 0 {
		t.Fatalf("identity key should not expire")
	}
}

func TestRedisBackendUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	s := NewStore(NewRedisBackend(rdb, ""), WithGenerator(counter("player_8")))
	if got := s.GetOrCreate(context.Background()); got != "player_8" {
		t.Fatalf("got %q", got)
	}
}

func TestOpenBackend(t *testing.T) {
	b, closer, err := OpenBackend(&config.AppConfig{IdentityBackend: config.IdentityMemory})
	if err != nil || closer == nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := b.(*MemoryBackend); !ok {
		t.Fatalf("expected memory backend, got %T", b)
	}

	b, _, err = OpenBackend(&config.AppConfig{IdentityBackend: config.IdentityFile, IdentityFile: "x.yaml"})
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if fb, ok := b.(*FileBackend); !ok || fb.Path() != "x.yaml" {
		t.Fatalf("expected file backend, got %T", b)
	}

	if _, _, err := OpenBackend(&config.AppConfig{IdentityBackend: config.IdentityRedis, IdentityRedisURL: "::bad"}); err == nil {
		t.Fatalf("expected url error")
	}
}
