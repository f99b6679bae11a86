// Package session keeps the client's copy of the authoritative game and turns
// local intents into protocol messages.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-board-client/internal/domain"
	"github.com/park285/cheese-board-client/internal/history"
	"github.com/park285/cheese-board-client/internal/msgcat"
	"github.com/park285/cheese-board-client/internal/notify"
	"github.com/park285/cheese-board-client/pkg/sessiondto"
)

var (
	ErrNotYourTurn       = errors.New("not your turn")
	ErrMalformedUpdate   = errors.New("malformed server message")
	ErrSessionTerminated = errors.New("session terminated")
	ErrUnknownEvent      = errors.New("unknown event")
)

const (
	turnNoticeDuration     = 2 * time.Second
	rejectNoticeDuration   = 2 * time.Second
	gameOverNoticeDuration = 6 * time.Second
	serverNoticeDuration   = 3 * time.Second
)

type Phase string

const (
	Joining    Phase = "joining"
	Active     Phase = "active"
	Terminated Phase = "terminated"
)

func (p Phase) String() string { return string(p) }

type IdentityProvider interface {
	GetOrCreate(ctx context.Context) domain.PlayerIdentity
}

// Sender delivers one outbound event. It does not wait for a reply.
type Sender interface {
	Send(ctx context.Context, event string, payload any) error
}

type Renderer interface {
	RenderState(domain.SessionState)
}

type Notifier interface {
	Show(message string, d time.Duration, style notify.Style)
}

type Recorder interface {
	Record(history.Record)
}

type Options struct {
	Identity IdentityProvider
	Sender   Sender
	Renderer Renderer
	Notifier Notifier
	Catalog  *msgcat.Catalog
	Recorder Recorder
	Logger   *zap.Logger
	Now      func() time.Time
}

// Client is not safe for concurrent use; drive it from one goroutine.
type Client struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	sessionID string
	playerID  domain.PlayerIdentity
	joined    bool
	phase     Phase
	state     domain.SessionState

	movesProposed int
	startedAt     time.Time
}

func New(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	id := uuid.NewString()
	return &Client{
		opts:      opts,
		logger:    opts.Logger.With(zap.String("session_id", id)),
		now:       opts.Now,
		sessionID: id,
		phase:     Joining,
	}
}

func (c *Client) SessionID() string { return c.sessionID }
func (c *Client) PlayerID() domain.PlayerIdentity { return c.playerID }
func (c *Client) Phase() Phase { return c.phase }
func (c *Client) State() domain.SessionState { return c.state }
func (c *Client) LocalColor() domain.Color { return c.state.LocalColor }
func (c *Client) TurnOwner() domain.Color { return c.state.TurnOwner }
func (c *Client) IsTerminated() bool { return c.phase == Terminated }
func (c *Client) MovesProposed() int { return c.movesProposed }

func (c *Client) PieceAt(at domain.Coord) (domain.Piece, bool) {
	b := c.state.Board
	return b.PieceAt(at)
}

// Join announces the local player. Only the first call sends anything.
func (c *Client) Join(ctx context.Context) error {
	if c.joined {
		c.logger.Debug("join_skipped")
		return nil
	}
	c.joined = true
	if c.opts.Identity != nil {
		c.playerID = c.opts.Identity.GetOrCreate(ctx)
	}
	c.startedAt = c.now()

	c.logger.Info("join", zap.String("player_id", string(c.playerID)))
	if err := c.send(ctx, sessiondto.EventJoin, sessiondto.JoinRequest{PlayerID: string(c.playerID)}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	return nil
}

// OnServerUpdate replaces the local state with the server's.
func (c *Client) OnServerUpdate(u sessiondto.BoardUpdate) error {
	if c.phase == Terminated {
		c.logger.Debug("update_ignored_after_game_over")
		return ErrSessionTerminated
	}

	board, err := domain.ParseBoard(u.Board)
	if err != nil {
		return c.malformed(sessiondto.EventUpdateBoard, err)
	}
	turn, ok := domain.ParseColor(u.CurrentPlayer)
	if !ok {
		return c.malformed(sessiondto.EventUpdateBoard, fmt.Errorf("currentPlayer %q", u.CurrentPlayer))
	}
	var assigned domain.Color
	if u.PlayerColor != nil {
		assigned, ok = domain.ParseColor(*u.PlayerColor)
		if !ok {
			return c.malformed(sessiondto.EventUpdateBoard, fmt.Errorf("playerColor %q", *u.PlayerColor))
		}
	}

	c.state.Board = board
	c.state.TurnOwner = turn
	if c.state.LocalColor == domain.NoColor && assigned != domain.NoColor {
		c.state.LocalColor = assigned
		c.logger.Info("assigned_color", zap.String("color", assigned.String()))
	} else if assigned != domain.NoColor && assigned != c.state.LocalColor {
		c.logger.Warn("color_reassignment_ignored",
			zap.String("local", c.state.LocalColor.String()),
			zap.String("received", assigned.String()))
	}
	if c.phase == Joining {
		c.phase = Active
		if c.startedAt.IsZero() {
			c.startedAt = c.now()
		}
	}

	c.logger.Debug("board_updated",
		zap.String("turn", turn.String()),
		zap.String("fen", board.FEN()))

	if c.opts.Renderer != nil {
		c.opts.Renderer.RenderState(c.state)
	}
	msg := c.text(msgcat.KeyTurnAnnounce, map[string]any{"Color": turn.Title()}, turn.Title()+"'s Turn")
	c.notify(msg, turnNoticeDuration, turnStyle(turn))
	return nil
}

// AttemptMove proposes a move. The local state is not touched; the next
// update from the server is the only source of truth.
func (c *Client) AttemptMove(from, to domain.Coord) error {
	if !c.state.MyTurn() {
		c.logger.Debug("move_rejected_turn",
			zap.String("local", c.state.LocalColor.String()),
			zap.String("turn", c.state.TurnOwner.String()))
		c.ShowTurnRejected()
		return ErrNotYourTurn
	}
	req := sessiondto.MoveRequest{
		From:         sessiondto.Coord{Row: from.Row, Col: from.Col},
		To:           sessiondto.Coord{Row: to.Row, Col: to.Col},
		ClaimedColor: c.state.LocalColor.String(),
	}
	if err := c.send(context.Background(), sessiondto.EventMakeMove, req); err != nil {
		return fmt.Errorf("send make_move: %w", err)
	}
	c.movesProposed++
	c.logger.Info("move_proposed", zap.Stringer("from", from), zap.Stringer("to", to))
	return nil
}

// ShowTurnRejected surfaces the out-of-turn notice.
func (c *Client) ShowTurnRejected() {
	c.notify(c.text(msgcat.KeyTurnRejected, nil, "It's not your turn!"), rejectNoticeDuration, notify.Error)
}

// OnGameOver ends the session. Later game_over messages are ignored.
func (c *Client) OnGameOver(g sessiondto.GameOver) error {
	if c.phase == Terminated {
		c.logger.Debug("duplicate_game_over")
		return ErrSessionTerminated
	}
	draw := strings.EqualFold(strings.TrimSpace(g.Winner), sessiondto.WinnerDraw)
	winner, ok := domain.ParseColor(g.Winner)
	if !draw && !ok {
		return c.malformed(sessiondto.EventGameOver, fmt.Errorf("winner %q", g.Winner))
	}
	canonical := sessiondto.WinnerDraw
	if !draw {
		canonical = winner.String()
	}
	if c.phase == Joining {
		c.logger.Info("game_over_before_first_update")
	}

	c.phase = Terminated
	c.logger.Info("game_over", zap.String("result", g.Result), zap.String("winner", canonical))

	var msg string
	if draw {
		msg = c.text(msgcat.KeyGameOverDraw, map[string]any{"Result": g.Result},
			"Game Over: "+g.Result+". Draw!")
	} else {
		msg = c.text(msgcat.KeyGameOverWin, map[string]any{"Result": g.Result, "Winner": winner.Title()},
			"Game Over: "+g.Result+". "+winner.Title()+" wins!")
	}
	c.notify(msg, gameOverNoticeDuration, notify.Neutral)
	c.record(g.Result, canonical)
	return nil
}

func (c *Client) OnServerError(e sessiondto.ServerError) error {
	c.logger.Warn("server_error", zap.String("message", e.Message))
	c.notify(c.text(msgcat.KeyServerError, map[string]any{"Message": e.Message}, "Server: "+e.Message),
		serverNoticeDuration, notify.Error)
	return nil
}

func (c *Client) OnPlayerJoined(p sessiondto.PlayerJoined) error {
	color := p.Color
	if parsed, ok := domain.ParseColor(p.Color); ok {
		color = parsed.Title()
	}
	c.logger.Info("player_joined", zap.String("player_id", p.PlayerID), zap.String("color", p.Color))
	c.notify(c.text(msgcat.KeyPlayerJoined, map[string]any{"PlayerID": p.PlayerID, "Color": color},
		p.PlayerID+" joined as "+color), serverNoticeDuration, notify.Info)
	return nil
}

func (c *Client) OnPlayerLeft(p sessiondto.PlayerLeft) error {
	c.logger.Info("player_left", zap.String("player_id", p.PlayerID))
	c.notify(c.text(msgcat.KeyPlayerLeft, map[string]any{"PlayerID": p.PlayerID},
		p.PlayerID+" left the game"), serverNoticeDuration, notify.Info)
	return nil
}

func (c *Client) send(ctx context.Context, event string, payload any) error {
	if c.opts.Sender == nil {
		return errors.New("no sender configured")
	}
	if err := c.opts.Sender.Send(ctx, event, payload); err != nil {
		c.logger.Warn("send_failed", zap.String("event", event), zap.Error(err))
		return err
	}
	return nil
}

func (c *Client) malformed(event string, cause error) error {
	c.logger.Warn("malformed_message", zap.String("event", event), zap.Error(cause))
	return fmt.Errorf("%w: %s: %v", ErrMalformedUpdate, event, cause)
}

func (c *Client) notify(msg string, d time.Duration, style notify.Style) {
	if c.opts.Notifier != nil {
		c.opts.Notifier.Show(msg, d, style)
	}
}

func (c *Client) text(key string, data any, fallback string) string {
	return c.opts.Catalog.RenderOr(key, data, fallback)
}

// record stores winner in canonical form ("white", "black" or "draw").
func (c *Client) record(result, winner string) {
	if c.opts.Recorder == nil {
		return
	}
	board := c.state.Board
	rec := history.Record{
		SessionID:     c.sessionID,
		PlayerID:      string(c.playerID),
		LocalColor:    c.state.LocalColor.String(),
		Result:        result,
		Winner:        winner,
		MovesProposed: c.movesProposed,
		StartedAt:     c.startedAt,
		EndedAt:       c.now(),
	}
	if !board.Empty() {
		rec.FinalFEN = board.FEN()
	}
	c.opts.Recorder.Record(rec)
}

func turnStyle(turn domain.Color) notify.Style {
	if turn == domain.Black {
		return notify.TurnBlack
	}
	return notify.TurnWhite
}
