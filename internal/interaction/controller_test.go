package interaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-board-client/internal/domain"
	"github.com/park285/cheese-board-client/internal/msgcat"
	"github.com/park285/cheese-board-client/internal/notify"
	"github.com/park285/cheese-board-client/internal/session"
	"github.com/park285/cheese-board-client/pkg/sessiondto"
)

type sent struct {
	event   string
	payload any
}

type fakeSender struct{ frames []sent }

func (s *fakeSender) Send(_ context.Context, event string, payload any) error {
	s.frames = append(s.frames, sent{event, payload})
	return nil
}

func (s *fakeSender) moves() []sessiondto.MoveRequest {
	var out []sessiondto.MoveRequest
	for _, f := range s.frames {
		if m, ok := f.payload.(sessiondto.MoveRequest); ok {
			out = append(out, m)
		}
	}
	return out
}

type fakeMarker struct {
	marked  []domain.Coord
	cleared int
}

func (m *fakeMarker) Mark(c domain.Coord) { m.marked = append(m.marked, c) }
func (m *fakeMarker) ClearMarks() { m.cleared++ }

type fakeNotifier struct{ messages []string }

func (n *fakeNotifier) Show(msg string, _ time.Duration, _ notify.Style) {
	n.messages = append(n.messages, msg)
}

type fakeInput struct{ handler func(domain.Coord) }

func (i *fakeInput) OnActivate(h func(domain.Coord)) { i.handler = h }

type fixture struct {
	sess   *session.Client
	ctrl   *Controller
	sender *fakeSender
	marker *fakeMarker
	notes  *fakeNotifier
}

func newFixture(t *testing.T, turn, local string) *fixture {
	t.Helper()
	f := &fixture{sender: &fakeSender{}, marker: &fakeMarker{}, notes: &fakeNotifier{}}
	cat := msgcat.MustDefault()
	f.sess = session.New(session.Options{Sender: f.sender, Notifier: f.notes, Catalog: cat})
	f.ctrl = New(f.sess, Options{Marker: f.marker, Notifier: f.notes, Catalog: cat})

	b := domain.StartingBoard()
	u := sessiondto.BoardUpdate{Board: b.Symbols(), CurrentPlayer: turn}
	if local != "" {
		u.PlayerColor = &local
	}
	require.NoError(t, f.sess.OnServerUpdate(u))
	f.notes.messages = nil
	return f
}

func sq(r, c int) domain.Coord { return domain.Coord{Row: r, Col: c} }

func TestOutOfTurnActivationIsRejected(t *testing.T) {
	f := newFixture(t, "black", "white")

	f.ctrl.Activate(sq(6, 4))

	_, active := f.ctrl.Selection()
	require.False(t, active)
	require.Empty(t, f.marker.marked)
	require.Equal(t, []string{"It's not your turn!"}, f.notes.messages)
	require.Empty(t, f.sender.frames)
}

func TestUnsetColorIsRejected(t *testing.T) {
	f := newFixture(t, "white", "")
	f.ctrl.Activate(sq(6, 4))
	_, active := f.ctrl.Selection()
	require.False(t, active)
	require.Equal(t, []string{"It's not your turn!"}, f.notes.messages)
}

func TestSelectOnlyOwnPieces(t *testing.T) {
	f := newFixture(t, "white", "white")

	f.ctrl.Activate(sq(4, 4)) // empty
	f.ctrl.Activate(sq(1, 4)) // black pawn
	_, active := f.ctrl.Selection()
	require.False(t, active)

	f.ctrl.Activate(sq(6, 4))
	at, active := f.ctrl.Selection()
	require.True(t, active)
	require.Equal(t, sq(6, 4), at)
	require.Equal(t, []domain.Coord{sq(6, 4)}, f.marker.marked)
	require.Empty(t, f.sender.frames)
}

func TestSecondClickAlwaysProposesAndClears(t *testing.T) {
	f := newFixture(t, "white", "white")

	targets := []domain.Coord{
		sq(4, 4), // empty
		sq(6, 4), // same square
		sq(6, 3), // own piece
		sq(1, 3), // opposing piece
	}
	for i, to := range targets {
		f.ctrl.Activate(sq(6, 4))
		f.ctrl.Activate(to)

		_, active := f.ctrl.Selection()
		require.False(t, active, "selection must clear after attempt %d", i)
		require.Equal(t, i+1, f.marker.cleared)
	}

	moves := f.sender.moves()
	require.Len(t, moves, len(targets))
	for i, to := range targets {
		require.Equal(t, sessiondto.Coord{Row: 6, Col: 4}, moves[i].From)
		require.Equal(t, sessiondto.Coord{Row: to.Row, Col: to.Col}, moves[i].To)
		require.Equal(t, "white", moves[i].ClaimedColor)
	}
}

func TestSelectionKeptWhenTurnPassesMidGesture(t *testing.T) {
	f := newFixture(t, "white", "white")
	f.ctrl.Activate(sq(6, 4))

	b := domain.StartingBoard()
	require.NoError(t, f.sess.OnServerUpdate(sessiondto.BoardUpdate{Board: b.Symbols(), CurrentPlayer: "black"}))
	f.ctrl.Activate(sq(4, 4))

	// gated before AttemptMove, selection kept
	_, active := f.ctrl.Selection()
	require.True(t, active)
	require.Empty(t, f.sender.moves())
}

func TestActivationBlockedAfterGameOver(t *testing.T) {
	f := newFixture(t, "white", "white")
	f.ctrl.Activate(sq(6, 4))
	require.NoError(t, f.sess.OnGameOver(sessiondto.GameOver{Result: "checkmate", Winner: "black"}))
	f.notes.messages = nil

	f.ctrl.Activate(sq(4, 4))
	f.ctrl.Activate(sq(6, 3))

	require.Empty(t, f.sender.moves())
	require.Equal(t, []string{"The game is over.", "The game is over."}, f.notes.messages)
}

func TestGameOverDropsHeldSelection(t *testing.T) {
	f := newFixture(t, "white", "white")
	f.ctrl.Activate(sq(6, 4))
	_, active := f.ctrl.Selection()
	require.True(t, active)
	require.NoError(t, f.sess.OnGameOver(sessiondto.GameOver{Result: "resignation", Winner: "black"}))

	f.ctrl.Activate(sq(4, 4))

	_, active = f.ctrl.Selection()
	require.False(t, active)
	require.Equal(t, 1, f.marker.cleared)
	require.Empty(t, f.sender.moves())

	f.ctrl.Activate(sq(4, 4))
	require.Equal(t, 1, f.marker.cleared)
}

func TestOutOfRangeIgnored(t *testing.T) {
	f := newFixture(t, "white", "white")
	f.ctrl.Activate(sq(-1, 0))
	f.ctrl.Activate(sq(0, 8))
	_, active := f.ctrl.Selection()
	require.False(t, active)
	require.Empty(t, f.notes.messages)
}

func TestRegisterWiresInput(t *testing.T) {
	f := newFixture(t, "white", "white")
	in := &fakeInput{}
	f.ctrl.Register(in)
	require.NotNil(t, in.handler)

	in.handler(sq(7, 6))
	in.handler(sq(5, 5))
	require.Len(t, f.sender.moves(), 1)
}
