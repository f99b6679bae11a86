package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder persists records off the caller's goroutine.
type Recorder struct {
	repo    Repository
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRecorder(repo Repository, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, logger: logger, timeout: 5 * time.Second}
}

// Record assigns an id when missing and saves asynchronously. Failures are
// logged only.
func (r *Recorder) Record(rec Record) {
	if r == nil || r.repo == nil {
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.repo.SaveResult(ctx, &rec); err != nil {
			r.logger.Warn("history_save_failed", zap.String("record_id", rec.ID), zap.Error(err))
			return
		}
		r.logger.Info("history_saved",
			zap.String("record_id", rec.ID),
			zap.String("session_id", rec.SessionID),
			zap.String("outcome", rec.Outcome()),
		)
	}()
}

// Wait blocks until pending saves finish.
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
