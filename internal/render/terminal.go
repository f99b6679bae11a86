// Package render draws session state to a terminal or a PNG image.
package render

import (
	"context"
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-board-client/internal/domain"
	"github.com/park285/cheese-board-client/internal/notify"
)

// Poster is satisfied by *eventloop.Loop.
type Poster interface {
	Post(fn func()) bool
}

// Layout maps board squares to terminal cells. Each square is CellW columns
// wide and one row high; row 0 of the board is drawn at the top.
type Layout struct {
	OriginX int
	OriginY int
	CellW   int
}

var DefaultLayout = Layout{OriginX: 3, OriginY: 2, CellW: 3}

// CoordAt resolves a terminal cell to a board square.
func (l Layout) CoordAt(x, y int) (domain.Coord, bool) {
	if x < l.OriginX || y < l.OriginY {
		return domain.Coord{}, false
	}
	c := domain.Coord{Row: y - l.OriginY, Col: (x - l.OriginX) / l.CellW}
	return c, c.Valid()
}

// CellOrigin is the leftmost terminal cell of square c.
func (l Layout) CellOrigin(c domain.Coord) (int, int) {
	return l.OriginX + c.Col*l.CellW, l.OriginY + c.Row
}

func (l Layout) noticeRow() int { return l.OriginY + domain.BoardSize + 2 }
func (l Layout) statusRow() int { return l.OriginY + domain.BoardSize + 4 }

var (
	lightStyle  = tcell.StyleDefault.Background(tcell.NewRGBColor(233, 207, 163)).Foreground(tcell.ColorBlack)
	darkStyle   = tcell.StyleDefault.Background(tcell.NewRGBColor(187, 136, 96)).Foreground(tcell.ColorBlack)
	markStyle   = tcell.StyleDefault.Background(tcell.NewRGBColor(255, 228, 120)).Foreground(tcell.ColorBlack).Bold(true)
	labelStyle  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	headerStyle = tcell.StyleDefault.Bold(true)
)

var noticeStyles = map[notify.Style]tcell.Style{
	notify.Info:      tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite),
	notify.Neutral:   tcell.StyleDefault.Background(tcell.ColorDimGray).Foreground(tcell.ColorWhite).Bold(true),
	notify.Error:     tcell.StyleDefault.Background(tcell.ColorDarkRed).Foreground(tcell.ColorWhite).Bold(true),
	notify.TurnWhite: tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack),
	notify.TurnBlack: tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite),
}

// Terminal is the interactive view. Every exported method except PollInput
// must run on the event loop goroutine.
type Terminal struct {
	screen tcell.Screen
	loop   Poster
	layout Layout
	logger *zap.Logger

	state    domain.SessionState
	marks    map[domain.Coord]struct{}
	notice   *notify.Notice
	status   string
	playerID string

	onActivate func(domain.Coord)
	onQuit     func()
	onSnapshot func()

	mouseDown bool
}

// NewTerminal takes ownership of screen, which must already be initialised.
func NewTerminal(screen tcell.Screen, loop Poster, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	screen.EnableMouse()
	screen.HideCursor()
	return &Terminal{
		screen: screen,
		loop:   loop,
		layout: DefaultLayout,
		logger: logger,
		marks:  make(map[domain.Coord]struct{}),
	}
}

// OpenScreen creates and initialises the real terminal screen.
func OpenScreen() (tcell.Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	return s, nil
}

func (t *Terminal) OnActivate(h func(domain.Coord)) { t.onActivate = h }

func (t *Terminal) OnQuit(h func()) { t.onQuit = h }

func (t *Terminal) OnSnapshot(h func()) { t.onSnapshot = h }

func (t *Terminal) SetPlayer(id domain.PlayerIdentity) {
	t.playerID = string(id)
	t.Draw()
}

func (t *Terminal) SetStatus(s string) {
	t.status = s
	t.Draw()
}

func (t *Terminal) RenderState(s domain.SessionState) {
	t.state = s
	t.Draw()
}

func (t *Terminal) ShowNotice(n notify.Notice) {
	t.notice = &n
	t.Draw()
}

func (t *Terminal) ClearNotice() {
	t.notice = nil
	t.Draw()
}

func (t *Terminal) Mark(c domain.Coord) {
	t.marks[c] = struct{}{}
	t.Draw()
}

// ClearMarks removes every highlighted square.
func (t *Terminal) ClearMarks() {
	clear(t.marks)
	t.Draw()
}

// Marks returns highlighted squares in row-major order.
func (t *Terminal) Marks() []domain.Coord {
	out := make([]domain.Coord, 0, len(t.marks))
	for c := range t.marks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

func (t *Terminal) State() domain.SessionState { return t.state }

// Draw repaints the whole screen.
func (t *Terminal) Draw() {
	s := t.screen
	s.Clear()

	board := t.state.Board
	if board.Empty() {
		board = domain.StartingBoard()
	}

	t.drawText(t.layout.OriginX, 0, headerStyle, t.header())

	for col := 0; col < domain.BoardSize; col++ {
		x, _ := t.layout.CellOrigin(domain.Coord{Col: col})
		s.SetContent(x+t.layout.CellW/2, t.layout.OriginY-1, rune('a'+col), nil, labelStyle)
		s.SetContent(x+t.layout.CellW/2, t.layout.OriginY+domain.BoardSize, rune('a'+col), nil, labelStyle)
	}
	for row := 0; row < domain.BoardSize; row++ {
		c := domain.Coord{Row: row}
		_, y := t.layout.CellOrigin(c)
		s.SetContent(t.layout.OriginX-2, y, rune('8'-row), nil, labelStyle)

		for col := 0; col < domain.BoardSize; col++ {
			c.Col = col
			style := lightStyle
			if (row+col)%2 == 1 {
				style = darkStyle
			}
			if _, ok := t.marks[c]; ok {
				style = markStyle
			}
			x, y := t.layout.CellOrigin(c)
			glyph := ' '
			if sq := board.At(c); sq.Occupied {
				glyph = []rune(sq.Piece.Symbol())[0]
			}
			for i := 0; i < t.layout.CellW; i++ {
				r := ' '
				if i == t.layout.CellW/2 {
					r = glyph
				}
				s.SetContent(x+i, y, r, nil, style)
			}
		}
	}

	if t.notice != nil {
		style, ok := noticeStyles[t.notice.Style]
		if !ok {
			style = noticeStyles[notify.Info]
		}
		t.drawText(t.layout.OriginX, t.layout.noticeRow(), style, " "+t.notice.Message+" ")
	}
	t.drawText(t.layout.OriginX, t.layout.statusRow(), labelStyle, t.footer())
	s.Show()
}

func (t *Terminal) header() string {
	you := "-"
	if t.state.LocalColor.Valid() {
		you = t.state.LocalColor.Title()
	}
	turn := "-"
	if t.state.TurnOwner.Valid() {
		turn = t.state.TurnOwner.Title()
	}
	return fmt.Sprintf("You: %s   Turn: %s", you, turn)
}

func (t *Terminal) footer() string {
	line := "q quit  s snapshot"
	if t.playerID != "" {
		line = t.playerID + "  " + line
	}
	if t.status != "" {
		line = t.status + "  " + line
	}
	return line
}

func (t *Terminal) drawText(x, y int, style tcell.Style, text string) {
	for _, r := range text {
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// PollInput reads terminal events until ctx ends or the screen is finalised.
// It only converts events and posts them to the loop.
func (t *Terminal) PollInput(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		t.handleEvent(ev)
	}
}

func (t *Terminal) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventMouse:
		pressed := ev.Buttons()&tcell.Button1 != 0
		if pressed && !t.mouseDown {
			x, y := ev.Position()
			if c, ok := t.layout.CoordAt(x, y); ok {
				t.post(func() {
					if t.onActivate != nil {
						t.onActivate(c)
					}
				})
			}
		}
		t.mouseDown = pressed
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC,
			ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			t.post(func() {
				if t.onQuit != nil {
					t.onQuit()
				}
			})
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 's' || ev.Rune() == 'S'):
			t.post(func() {
				if t.onSnapshot != nil {
					t.onSnapshot()
				}
			})
		}
	case *tcell.EventResize:
		t.post(func() {
			t.screen.Sync()
			t.Draw()
		})
	}
}

func (t *Terminal) post(fn func()) {
	if !t.loop.Post(fn) {
		t.logger.Debug("input_dropped_loop_stopped")
	}
}

// Close restores the terminal.
func (t *Terminal) Close() { t.screen.Fini() }
