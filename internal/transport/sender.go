package transport

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/cheese-board-client/internal/config"
	"github.com/park285/cheese-board-client/pkg/sessiondto"
)

// Sender encodes and delivers one event. There is no acknowledgement.
type Sender interface {
	Send(ctx context.Context, event string, payload any) error
}

// NewSender picks the websocket or dry-run sender for mode.
func NewSender(mode config.SendMode, ws WSClient, logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode == config.SendDryRun {
		return NewDryRunSender(logger)
	}
	return &wsSender{ws: ws, logger: logger}
}

type wsSender struct {
	ws     WSClient
	logger *zap.Logger
}

func (w *wsSender) Send(ctx context.Context, event string, payload any) error {
	if w == nil || w.ws == nil {
		return errors.New("ws sender not available")
	}
	frame, err := sessiondto.Encode(event, payload)
	if err != nil {
		return err
	}
	if err := w.ws.WriteText(ctx, frame); err != nil {
		return err
	}
	w.logger.Debug("ws_send", zap.String("event", event), zap.Int("bytes", len(frame)))
	return nil
}

// DryRunSender logs frames instead of writing them and keeps a copy.
type DryRunSender struct {
	logger *zap.Logger

	mu     sync.Mutex
	frames [][]byte
}

func NewDryRunSender(logger *zap.Logger) *DryRunSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRunSender{logger: logger}
}

func (d *DryRunSender) Send(_ context.Context, event string, payload any) error {
	frame, err := sessiondto.Encode(event, payload)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.frames = append(d.frames, frame)
	d.mu.Unlock()
	d.logger.Info("ws_send_dryrun", zap.String("event", event), zap.ByteString("frame", frame))
	return nil
}

func (d *DryRunSender) Frames() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.frames))
	copy(out, d.frames)
	return out
}
