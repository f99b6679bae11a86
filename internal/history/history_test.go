package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestOutcome(t *testing.T) {
	cases := map[string]string{"white": "1-0", "Black": "0-1", "draw": "1/2-1/2", "": "*"}
	for winner, want := range cases {
		r := Record{Winner: winner}
		if got := r.Outcome(); got != want {
			t.Fatalf("Outcome(%q) = %q, want %q", winner, got, want)
		}
	}
}

func TestDurationNeverNegative(t *testing.T) {
	now := time.Now()
	r := Record{StartedAt: now, EndedAt: now.Add(-time.Second)}
	if r.Duration() != 0 {
		t.Fatalf("duration = %v", r.Duration())
	}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := repo.SaveResult(ctx, &Record{ID: id, PlayerID: "player_1", EndedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	got, err := repo.Recent(ctx, "player_1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if other, _ := repo.Recent(ctx, "player_2", 0); len(other) != 0 {
		t.Fatalf("expected no records for other player")
	}
}

func TestMemoryRepositoryUpsertsByID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.SaveResult(ctx, &Record{ID: "a", PlayerID: "player_1", Winner: "white", EndedAt: base}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveResult(ctx, &Record{ID: "a", PlayerID: "player_1", Winner: "black", EndedAt: base}); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, _ := repo.Recent(ctx, "player_1", 0)
	if len(got) != 1 || got[0].Winner != "black" {
		t.Fatalf("expected one replaced record, got %+v", got)
	}

	if err := repo.SaveResult(ctx, &Record{ID: "a", PlayerID: "player_2", Winner: "draw", EndedAt: base}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if old, _ := repo.Recent(ctx, "player_1", 0); len(old) != 0 {
		t.Fatalf("record still listed under previous player: %+v", old)
	}
	if moved, _ := repo.Recent(ctx, "player_2", 0); len(moved) != 1 {
		t.Fatalf("expected record under new player, got %+v", moved)
	}
}

func TestSummarize(t *testing.T) {
	recs := []*Record{{Winner: "white"}, nil, {Winner: "draw"}, {Winner: "black"}, {}}
	if got := Summarize(recs); got != "1-0 1/2-1/2 0-1 *" {
		t.Fatalf("Summarize = %q", got)
	}
	if got := Summarize(nil); got != "" {
		t.Fatalf("Summarize(nil) = %q", got)
	}
}

type failingRepo struct{ Repository }

func (failingRepo) SaveResult(context.Context, *Record) error { return errors.New("down") }

func TestRecorderAssignsIDAndSaves(t *testing.T) {
	repo := NewMemoryRepository()
	rec := NewRecorder(repo, nil)
	rec.Record(Record{SessionID: "s1", PlayerID: "player_9", Winner: "white"})
	rec.Wait()

	got, _ := repo.Recent(context.Background(), "player_9", 0)
	if len(got) != 1 {
		t.Fatalf("expected one record, got %d", len(got))
	}
	if _, err := uuid.Parse(got[0].ID); err != nil {
		t.Fatalf("expected uuid id, got %q", got[0].ID)
	}
}

func TestRecorderSwallowsErrors(t *testing.T) {
	rec := NewRecorder(failingRepo{}, nil)
	rec.Record(Record{ID: "x"})
	rec.Wait()

	var nilRec *Recorder
	nilRec.Record(Record{})
	nilRec.Wait()
}
