// Package interaction turns square activations into move proposals.
package interaction

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-board-client/internal/domain"
	"github.com/park285/cheese-board-client/internal/msgcat"
	"github.com/park285/cheese-board-client/internal/notify"
	"github.com/park285/cheese-board-client/internal/session"
)

const endedNoticeDuration = 2 * time.Second

// Session is the subset of *session.Client the controller drives.
type Session interface {
	IsTerminated() bool
	LocalColor() domain.Color
	TurnOwner() domain.Color
	PieceAt(domain.Coord) (domain.Piece, bool)
	AttemptMove(from, to domain.Coord) error
	ShowTurnRejected()
}

// Marker highlights the selected square.
type Marker interface {
	Mark(domain.Coord)
	ClearMarks()
}

// Input is a source of square activations, e.g. mouse clicks.
type Input interface {
	OnActivate(func(domain.Coord))
}

type Options struct {
	Marker   Marker
	Notifier session.Notifier
	Catalog  *msgcat.Catalog
	Logger   *zap.Logger
}

type Controller struct {
	sess     Session
	marker   Marker
	notifier session.Notifier
	catalog  *msgcat.Catalog
	logger   *zap.Logger

	sel domain.Selection
}

func New(sess Session, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		sess:     sess,
		marker:   opts.Marker,
		notifier: opts.Notifier,
		catalog:  opts.Catalog,
		logger:   opts.Logger,
	}
}

// Register subscribes Activate to in.
func (c *Controller) Register(in Input) {
	in.OnActivate(c.Activate)
}

func (c *Controller) Selection() (domain.Coord, bool) {
	return c.sel.Coord, c.sel.Active
}

// Activate handles one click. The first click picks an own piece, the second
// proposes a move from it, whatever the target.
func (c *Controller) Activate(at domain.Coord) {
	if !at.Valid() {
		c.logger.Debug("activate_out_of_range", zap.Stringer("coord", at))
		return
	}
	if c.sess.IsTerminated() {
		c.clearSelection()
		c.notify(c.catalog.RenderOr(msgcat.KeyGameEnded, nil, "The game is over."), endedNoticeDuration, notify.Neutral)
		return
	}
	local := c.sess.LocalColor()
	if !local.Valid() || local != c.sess.TurnOwner() {
		c.sess.ShowTurnRejected()
		return
	}

	if !c.sel.Active {
		p, ok := c.sess.PieceAt(at)
		if !ok || p.Color != local {
			return
		}
		c.sel = domain.Selection{Coord: at, Active: true}
		if c.marker != nil {
			c.marker.Mark(at)
		}
		c.logger.Debug("selected", zap.Stringer("coord", at))
		return
	}

	from := c.sel.Coord
	err := c.sess.AttemptMove(from, at)
	c.clearSelection()
	if err != nil && !errors.Is(err, session.ErrNotYourTurn) {
		c.logger.Warn("move_attempt_failed", zap.Stringer("from", from), zap.Stringer("to", at), zap.Error(err))
	}
}

func (c *Controller) clearSelection() {
	if !c.sel.Active {
		return
	}
	c.sel = domain.Selection{}
	if c.marker != nil {
		c.marker.ClearMarks()
	}
}

func (c *Controller) notify(msg string, d time.Duration, style notify.Style) {
	if c.notifier != nil {
		c.notifier.Show(msg, d, style)
	}
}
