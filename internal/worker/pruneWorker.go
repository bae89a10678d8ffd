package worker

import (
	"context"
	"time"

	"github.com/ds124wfegd/eventwaitlist/internal/service"

	"github.com/sirupsen/logrus"
)

// Pruner is the slice of the waitlist service the worker needs.
type Pruner interface {
	PruneEmpty(ctx context.Context) (int, error)
}

var _ Pruner = (service.WaitlistService)(nil)

type WaitlistPruneWorker struct {
	pruner   Pruner
	interval time.Duration
}

func NewWaitlistPruneWorker(pruner Pruner, interval time.Duration) *WaitlistPruneWorker {
	return &WaitlistPruneWorker{
		pruner:   pruner,
		interval: interval,
	}
}

// Start blocks until ctx is cancelled.
func (w *WaitlistPruneWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval.String()).Info("Waitlist prune worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Waitlist prune worker stopped")
			return
		case <-ticker.C:
			w.pruneEmptyQueues(ctx)
		}
	}
}

// pruneEmptyQueues удаляет пустые очереди ожидания
func (w *WaitlistPruneWorker) pruneEmptyQueues(ctx context.Context) {
	start := time.Now()

	removed, err := w.pruner.PruneEmpty(ctx)
	if err != nil {
		logrus.Errorf("Failed to prune empty waitlists: %v", err)
		return
	}

	if removed == 0 {
		logrus.Debug("No empty waitlists found")
		return
	}

	logrus.WithFields(logrus.Fields{
		"removed":  removed,
		"duration": time.Since(start),
	}).Info("Empty waitlists pruned")
}
