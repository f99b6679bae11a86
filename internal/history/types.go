package history

import (
	"context"
	"strings"
	"time"
)

// Record is the local player's view of one finished session.
type Record struct {
	ID            string
	SessionID     string
	PlayerID      string
	LocalColor    string
	Result        string
	Winner        string
	MovesProposed int
	FinalFEN      string
	StartedAt     time.Time
	EndedAt       time.Time
}

// Outcome maps the winner to a score string: "1-0", "0-1", "1/2-1/2" or "*".
func (r *Record) Outcome() string {
	switch strings.ToLower(strings.TrimSpace(r.Winner)) {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}

func (r *Record) Duration() time.Duration {
	d := r.EndedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Summarize joins the outcomes of recs in order, e.g. "1-0 1/2-1/2 0-1".
func Summarize(recs []*Record) string {
	parts := make([]string, 0, len(recs))
	for _, r := range recs {
		if r != nil {
			parts = append(parts, r.Outcome())
		}
	}
	return strings.Join(parts, " ")
}

// Repository stores finished sessions. SaveResult upserts by record ID and
// Recent returns a player's records, newest first.
type Repository interface {
	SaveResult(ctx context.Context, rec *Record) error
	Recent(ctx context.Context, playerID string, limit int) ([]*Record, error)
	Close() error
}
