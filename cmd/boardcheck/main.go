package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-board-client/internal/config"
	"github.com/park285/cheese-board-client/internal/obslog"
	"github.com/park285/cheese-board-client/internal/transport"
	"github.com/park285/cheese-board-client/pkg/sessiondto"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	opts := obslog.OptionsFromEnv()
	opts.Console = true
	opts.File = ""
	if err := obslog.Init(opts); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ServerHTTPURL != "" {
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		res, err := transport.NewProbe(cfg.ServerHTTPURL, transport.WithProbeTimeout(5*time.Second)).Check(pctx)
		cancel()
		if err != nil {
			logger.Warn("probe_failed", zap.Error(err))
		} else {
			logger.Info("probe_ok", zap.Int("status", res.Status), zap.String("body", res.Body), zap.Duration("latency", res.Latency))
		}
	} else {
		logger.Info("SERVER_HTTP_URL not set; skipping HTTP check")
	}

	ws := transport.NewWebSocket(cfg.ServerWSURL, 0, time.Second, transport.WithLogger(obslog.Named(logger, "ws")))
	ws.SetHeaderProvider(func() map[string]string { return map[string]string{"X-Client-Profile": cfg.Profile} })
	ws.OnStateChange(func(state transport.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})
	ws.OnMessage(func(frame []byte) {
		env, err := sessiondto.DecodeEnvelope(frame)
		if err != nil {
			logger.Warn("frame_undecodable", zap.Error(err), zap.ByteString("frame", frame))
			return
		}
		logger.Info("frame", zap.String("event", env.Event), zap.Int("bytes", len(frame)))
	})

	cctx, ccancel := context.WithTimeout(ctx, 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		logger.Error("ws_connect_failed", zap.Error(err))
		return
	}

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	select {
	case <-t.C:
	case <-ctx.Done():
		t.Stop()
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = ws.Close(closeCtx)
}
