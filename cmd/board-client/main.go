package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-board-client/internal/config"
	"github.com/park285/cheese-board-client/internal/domain"
	"github.com/park285/cheese-board-client/internal/eventloop"
	"github.com/park285/cheese-board-client/internal/history"
	"github.com/park285/cheese-board-client/internal/identity"
	"github.com/park285/cheese-board-client/internal/interaction"
	"github.com/park285/cheese-board-client/internal/msgcat"
	"github.com/park285/cheese-board-client/internal/notify"
	"github.com/park285/cheese-board-client/internal/obslog"
	"github.com/park285/cheese-board-client/internal/render"
	"github.com/park285/cheese-board-client/internal/session"
	"github.com/park285/cheese-board-client/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Warn("catalog_override_failed", zap.String("dir", cfg.MessagesDir), zap.Error(err))
		catalog = msgcat.MustDefault()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ServerHTTPURL != "" {
		res, err := transport.NewProbe(cfg.ServerHTTPURL).Check(ctx)
		if err != nil {
			logger.Warn("probe_failed", zap.String("url", cfg.ServerHTTPURL), zap.Error(err))
		} else {
			logger.Info("probe_ok", zap.Int("status", res.Status), zap.Int("attempts", res.Attempts), zap.Duration("latency", res.Latency))
		}
	}

	backend, closeBackend, err := identity.OpenBackend(cfg)
	if err != nil {
		logger.Warn("identity_backend_unavailable", zap.Error(err))
	}
	defer closeBackend()
	ids := identity.NewStore(backend, identity.WithLogger(obslog.Named(logger, "identity")))
	playerID := ids.GetOrCreate(ctx)

	repo := openHistory(ctx, cfg, logger)
	defer repo.Close()
	recorder := history.NewRecorder(repo, obslog.Named(logger, "history"))
	defer recorder.Wait()

	loop := eventloop.New(obslog.Named(logger, "loop"))

	screen, err := render.OpenScreen()
	if err != nil {
		log.Fatalf("terminal error: %v", err)
	}
	term := render.NewTerminal(screen, loop, obslog.Named(logger, "render"))
	defer term.Close()

	notifier := notify.New(term, notify.LoopScheduler{Loop: loop}, obslog.Named(logger, "notify"))

	ws := transport.NewWebSocket(cfg.ServerWSURL, cfg.ReconnectMax, cfg.ReconnectDelay,
		transport.WithLogger(obslog.Named(logger, "ws")),
		transport.WithWriteTimeout(cfg.WriteTimeout),
	)
	sender := transport.NewSender(cfg.SendMode, ws, obslog.Named(logger, "send"))

	sess := session.New(session.Options{
		Identity: ids,
		Sender:   sender,
		Renderer: term,
		Notifier: notifier,
		Catalog:  catalog,
		Recorder: recorder,
		Logger:   obslog.Named(logger, "session"),
	})
	ws.SetHeaderProvider(func() map[string]string {
		return map[string]string{
			"X-Client-Profile": cfg.Profile,
			"X-Session-Id":     sess.SessionID(),
		}
	})

	ctrl := interaction.New(sess, interaction.Options{
		Marker:   term,
		Notifier: notifier,
		Catalog:  catalog,
		Logger:   obslog.Named(logger, "interaction"),
	})
	ctrl.Register(term)

	snapshots := render.NewPNGRenderer(64)
	term.OnQuit(loop.Stop)
	term.OnSnapshot(func() {
		path, err := snapshots.WriteSnapshot(ctx, cfg.SnapshotDir, sess.State(), term.Marks(), time.Now())
		if err != nil {
			logger.Warn("snapshot_failed", zap.Error(err))
			notifier.Show(catalog.RenderOr(msgcat.KeySnapshotFailed, nil, "Snapshot failed"), 3*time.Second, notify.Error)
			return
		}
		logger.Info("snapshot_saved", zap.String("path", path))
		notifier.Show(catalog.RenderOr(msgcat.KeySnapshotSaved, map[string]any{"Path": path}, "Snapshot saved to "+path),
			3*time.Second, notify.Info)
	})

	// transport callbacks run on the websocket goroutines; hop onto the loop
	ws.OnMessage(func(frame []byte) {
		loop.Post(func() {
			if err := sess.HandleFrame(frame); err != nil {
				logger.Debug("frame_rejected", zap.Error(err))
			}
		})
	})
	ws.OnStateChange(func(state transport.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
		loop.Post(func() {
			term.SetStatus(catalog.RenderOr(msgcat.KeyConnectionState, map[string]any{"State": state.String()},
				"Connection: "+state.String()))
			if state == transport.WSStateConnected {
				if err := sess.Join(ctx); err != nil {
					logger.Warn("join_failed", zap.Error(err))
				}
			}
		})
	})

	loop.Post(func() { term.SetPlayer(playerID) })
	showRecentResults(ctx, repo, playerID, func(msg string) {
		loop.Post(func() { notifier.Show(msg, 4*time.Second, notify.Info) })
	}, catalog, logger)
	go term.PollInput(ctx)

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		logger.Error("ws_connect_failed", zap.String("url", cfg.ServerWSURL), zap.Error(err))
	}
	cancel()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, eventloop.ErrStopped) {
		logger.Error("loop_exit", zap.Error(err))
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := ws.Close(closeCtx); err != nil {
		logger.Warn("ws_close_failed", zap.Error(err))
	}
	logger.Info("shutdown", zap.String("session_id", sess.SessionID()), zap.String("phase", sess.Phase().String()))
}

func openHistory(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) history.Repository {
	if cfg.DatabaseURL == "" {
		return history.NewMemoryRepository()
	}
	pg, err := history.NewPostgresRepository(cfg.DatabaseURL)
	if err != nil {
		logger.Warn("history_db_unavailable", zap.Error(err))
		return history.NewMemoryRepository()
	}
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pg.EnsureSchema(sctx); err != nil {
		logger.Warn("history_schema_failed", zap.Error(err))
	}
	return pg
}

func showRecentResults(ctx context.Context, repo history.Repository, playerID domain.PlayerIdentity,
	show func(string), catalog *msgcat.Catalog, logger *zap.Logger) {
	qctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	recent, err := repo.Recent(qctx, string(playerID), 5)
	if err != nil {
		logger.Warn("history_recent_failed", zap.Error(err))
		return
	}
	if len(recent) == 0 {
		return
	}
	outcomes := history.Summarize(recent)
	logger.Info("history_recent", zap.Int("count", len(recent)), zap.String("outcomes", outcomes))
	show(catalog.RenderOr(msgcat.KeyHistoryRecent, map[string]any{"Count": len(recent), "Outcomes": outcomes},
		"Recent results: "+outcomes))
}
