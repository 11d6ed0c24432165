package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"go.uber.org/zap"
)

// DayRoller recomputes one day of analytics
type DayRoller interface {
	RollupDay(ctx context.Context, date time.Time) (int, error)
}

// Worker runs the rollup for yesterday and today on an interval
type Worker struct {
	roller   DayRoller
	interval time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a stopped worker
func NewWorker(roller DayRoller, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		roller:   roller,
		interval: interval,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the background loop. It runs once immediately.
func (w *Worker) Start() {
	logger.L().Info("Starting analytics rollup worker", zap.Duration("interval", w.interval))
	w.wg.Add(1)
	go w.run()
}

// Stop cancels the loop and waits for an in-flight run to finish
func (w *Worker) Stop() {
	logger.L().Info("Stopping analytics rollup worker")
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()
	w.tick()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.tick()
		case <-w.ctx.Done():
			return
		}
	}
}

// tick rolls up yesterday as well as today so late events before midnight
// are not lost.
func (w *Worker) tick() {
	today := startOfDay(w.now())
	for _, day := range []time.Time{today.AddDate(0, 0, -1), today} {
		if w.ctx.Err() != nil {
			return
		}
		if _, err := w.roller.RollupDay(w.ctx, day); err != nil {
			logger.L().Error("Analytics rollup failed",
				zap.String("date", day.Format(dateLayout)),
				zap.Error(err),
			)
		}
	}
}
