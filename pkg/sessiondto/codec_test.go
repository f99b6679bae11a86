package sessiondto

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeMoveRequestShape(t *testing.T) {
	b, err := Encode(EventMakeMove, MoveRequest{From: Coord{Row: 6, Col: 4}, To: Coord{Row: 4, Col: 4}, ClaimedColor: "white"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"event":"make_move","data":{"from":{"row":6,"col":4},"to":{"row":4,"col":4},"claimedColor":"white"}}`
	if string(b) != want {
		t.Fatalf("unexpected frame:\n got %s\nwant %s", b, want)
	}
}

func TestEncodeRejectsEmpty(t *testing.T) {
	if _, err := Encode("", JoinRequest{PlayerID: "p"}); !errors.Is(err, ErrEmptyEvent) {
		t.Fatalf("expected ErrEmptyEvent, got %v", err)
	}
	if _, err := Encode(EventJoin, nil); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestDecodeBoardUpdateOptionalColor(t *testing.T) {
	row := `["","","","","","","",""]`
	grid := "[" + strings.TrimSuffix(strings.Repeat(row+",", 8), ",") + "]"

	env, err := DecodeEnvelope([]byte(`{"event":"update_board","data":{"board":` + grid + `,"currentPlayer":"black"}}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	u, err := DecodePayload[BoardUpdate](env)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if u.PlayerColor != nil {
		t.Fatalf("expected absent playerColor, got %q", *u.PlayerColor)
	}
	if u.CurrentPlayer != "black" || len(u.Board) != 8 {
		t.Fatalf("unexpected update: %+v", u)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := DecodeEnvelope(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("expected ErrEmptyFrame, got %v", err)
	}
	if _, err := DecodeEnvelope([]byte(`{"data":{}}`)); !errors.Is(err, ErrEmptyEvent) {
		t.Fatalf("expected ErrEmptyEvent, got %v", err)
	}
	if _, err := DecodeEnvelope([]byte(`not json`)); err == nil {
		t.Fatalf("expected json error")
	}
	env := Envelope{Event: EventGameOver}
	if _, err := DecodePayload[GameOver](env); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}
