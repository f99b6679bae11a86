package notify

import (
	"time"

	"go.uber.org/zap"
)

// Style is a presentation hint for the display.
type Style string

const (
	Info      Style = "info"
	Neutral   Style = "neutral"
	Error     Style = "error"
	TurnWhite Style = "turn_white"
	TurnBlack Style = "turn_black"
)

// DefaultDuration applies when Show is given a non-positive duration.
const DefaultDuration = 3 * time.Second

type Notice struct {
	Message  string
	Style    Style
	Duration time.Duration
}

// Display is the single notification slot of a render target.
type Display interface {
	ShowNotice(Notice)
	ClearNotice()
}

type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. Implementations decide which goroutine f runs on;
// the notifier expects it to be the same one that calls Show.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Notifier keeps at most one visible notice. A new Show replaces the current
// one and cancels its dismiss timer.
type Notifier struct {
	display Display
	sched   Scheduler
	logger  *zap.Logger

	timer   Timer
	gen     uint64
	current Notice
	visible bool
}

func New(display Display, sched Scheduler, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sched == nil {
		sched = RealScheduler{}
	}
	return &Notifier{display: display, sched: sched, logger: logger}
}

func (n *Notifier) Show(message string, d time.Duration, style Style) {
	if d <= 0 {
		d = DefaultDuration
	}
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.gen++
	gen := n.gen
	n.current = Notice{Message: message, Style: style, Duration: d}
	n.visible = true
	if n.display != nil {
		n.display.ShowNotice(n.current)
	}
	n.logger.Debug("notice_show", zap.String("message", message), zap.String("style", string(style)), zap.Duration("duration", d))
	n.timer = n.sched.AfterFunc(d, func() { n.dismiss(gen) })
}

// Current returns the visible notice, if any.
func (n *Notifier) Current() (Notice, bool) {
	return n.current, n.visible
}

func (n *Notifier) dismiss(gen uint64) {
	// a timer that already fired before being superseded still lands here
	if gen != n.gen || !n.visible {
		return
	}
	n.visible = false
	n.timer = nil
	if n.display != nil {
		n.display.ClearNotice()
	}
}
