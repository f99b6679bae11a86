package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/cheese-board-client/internal/config"
	"github.com/park285/cheese-board-client/pkg/sessiondto"
)

type fakeWS struct {
	WSClient
	frames [][]byte
	err    error
}

func (f *fakeWS) WriteText(_ context.Context, frame []byte) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

func TestDryRunSenderRecordsFrames(t *testing.T) {
	s := NewSender(config.SendDryRun, nil, nil)
	dry, ok := s.(*DryRunSender)
	if !ok {
		t.Fatalf("expected dry-run sender, got %T", s)
	}
	move := sessiondto.MoveRequest{
		From:         sessiondto.Coord{Row: 6, Col: 4},
		To:           sessiondto.Coord{Row: 4, Col: 4},
		ClaimedColor: "white",
	}
	if err := dry.Send(context.Background(), sessiondto.EventMakeMove, move); err != nil {
		t.Fatalf("send: %v", err)
	}
	frames := dry.Frames()
	want := `{"event":"make_move","data":{"from":{"row":6,"col":4},"to":{"row":4,"col":4},"claimedColor":"white"}}`
	if len(frames) != 1 || string(frames[0]) != want {
		t.Fatalf("frames = %q", frames)
	}
}

func TestWSSenderPropagatesErrors(t *testing.T) {
	ws := &fakeWS{err: ErrNotConnected}
	s := NewSender(config.SendWS, ws, nil)
	if err := s.Send(context.Background(), sessiondto.EventJoin, sessiondto.JoinRequest{PlayerID: "p"}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}

	ws.err = nil
	if err := s.Send(context.Background(), "", nil); err == nil {
		t.Fatalf("expected encode error for empty event")
	}
	if err := s.Send(context.Background(), sessiondto.EventJoin, sessiondto.JoinRequest{PlayerID: "p"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(ws.frames) != 1 {
		t.Fatalf("frames = %d", len(ws.frames))
	}
}
