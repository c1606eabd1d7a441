// Package jobs holds the periodic maintenance work run by the worker.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const defaultBatch = 100

type Finalizer interface {
	FinalizeElapsed(ctx context.Context, grace time.Duration, batch int) (int, error)
}

// FinalizeJob moves confirmed reservations that ended more than grace ago
// to FINALIZED, one batch per run.
type FinalizeJob struct {
	svc   Finalizer
	grace time.Duration
	batch int
	log   *zap.Logger
}

func NewFinalizeJob(svc Finalizer, grace time.Duration, batch int, log *zap.Logger) *FinalizeJob {
	if batch <= 0 {
		batch = defaultBatch
	}
	return &FinalizeJob{svc: svc, grace: grace, batch: batch, log: log}
}

func (j *FinalizeJob) Run(ctx context.Context) {
	start := time.Now()
	n, err := j.svc.FinalizeElapsed(ctx, j.grace, j.batch)
	if err != nil {
		j.log.Error("finalize elapsed reservations", zap.Int("finalized", n), zap.Error(err))
		return
	}
	if n > 0 {
		j.log.Info("finalized elapsed reservations", zap.Int("finalized", n), zap.Duration("took", time.Since(start)))
	}
}

// Schedule registers the job to run every interval. A run that is still
// going when the next one is due makes the scheduler skip it.
func Schedule(ctx context.Context, s gocron.Scheduler, every time.Duration, job *FinalizeJob) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { job.Run(ctx) }),
		gocron.WithName("finalize-elapsed-reservations"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
