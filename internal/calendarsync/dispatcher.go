package calendarsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"venuebook/internal/domain"
	"venuebook/internal/modules/errclass"
)

// AsynqDispatcher hands sync work to the redis-backed queue; the worker
// process owns retry and backoff from there.
type AsynqDispatcher struct {
	client   *asynq.Client
	maxRetry int
}

func NewAsynqDispatcher(client *asynq.Client, maxRetry int) *AsynqDispatcher {
	return &AsynqDispatcher{client: client, maxRetry: maxRetry}
}

func (d *AsynqDispatcher) Enqueue(ctx context.Context, action domain.SyncAction, snapshot domain.Reservation) error {
	task, err := NewTask(NewPayload(action, snapshot), d.maxRetry)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeCalendarSync, err)
	}
	return nil
}

// InlineDispatcher runs sync work on a goroutine in the API process, with
// the guard's retry. Suitable for single-node deployments without redis.
type InlineDispatcher struct {
	proc    *Processor
	guard   *errclass.Guard
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewInlineDispatcher(proc *Processor, guard *errclass.Guard, log *zap.Logger) *InlineDispatcher {
	return &InlineDispatcher{proc: proc, guard: guard, log: log, timeout: 30 * time.Second}
}

func (d *InlineDispatcher) Enqueue(ctx context.Context, action domain.SyncAction, snapshot domain.Reservation) error {
	pl := NewPayload(action, snapshot)
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		err := d.guard.Do(runCtx, "calendar sync "+string(action), func(ctx context.Context) error {
			return d.proc.Apply(ctx, pl)
		})
		if err != nil {
			d.log.Warn("calendar sync failed",
				zap.Int64("reservation_id", pl.ReservationID),
				zap.String("action", string(action)),
				zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every dispatched sync has finished.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}

type Nop struct{}

func (Nop) Enqueue(context.Context, domain.SyncAction, domain.Reservation) error { return nil }
