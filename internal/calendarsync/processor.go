package calendarsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"venuebook/internal/domain"
	"venuebook/internal/modules/errclass"
)

// RefStore is the slice of the reservation store the sync worker needs.
type RefStore interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Reservation, error)
	SetExternalRef(ctx context.Context, tenantID, id int64, ref *string) error
}

// Processor applies one sync payload against the external calendar. Create
// and update read the current row so a late task never pushes stale times.
type Processor struct {
	syncer Syncer
	store  RefStore
	log    *zap.Logger
}

func NewProcessor(syncer Syncer, store RefStore, log *zap.Logger) *Processor {
	return &Processor{syncer: syncer, store: store, log: log}
}

func (p *Processor) Apply(ctx context.Context, pl Payload) error {
	switch pl.Action {
	case domain.SyncCreate, domain.SyncUpdate:
		return p.upsert(ctx, pl)
	case domain.SyncDelete:
		return p.delete(ctx, pl)
	}
	return fmt.Errorf("%w: unknown sync action %q", errclass.ErrValidation, pl.Action)
}

func (p *Processor) upsert(ctx context.Context, pl Payload) error {
	current, err := p.store.GetByID(ctx, pl.TenantID, pl.ReservationID)
	if errors.Is(err, errclass.ErrNotFound) {
		p.log.Info("calendar sync skipped, reservation gone",
			zap.Int64("reservation_id", pl.ReservationID), zap.String("action", string(pl.Action)))
		return nil
	}
	if err != nil {
		return err
	}
	if current.Status != domain.ReservationConfirmed {
		return nil
	}

	// An update can overtake the create that links the event; whichever
	// runs first creates it.
	if current.HasCalendarLink() {
		return p.syncer.UpdateEvent(ctx, *current.ExternalCalendarRef, current)
	}

	ref, err := p.syncer.CreateEvent(ctx, current)
	if err != nil {
		return err
	}
	err = p.store.SetExternalRef(ctx, pl.TenantID, pl.ReservationID, &ref)
	if errors.Is(err, errclass.ErrNotFound) {
		// Deleted while the event was being created.
		return p.syncer.DeleteEvent(ctx, ref)
	}
	if err != nil {
		return err
	}

	// A cancel or finalize that read the row before the link landed
	// dispatched no delete.
	after, err := p.store.GetByID(ctx, pl.TenantID, pl.ReservationID)
	switch {
	case errors.Is(err, errclass.ErrNotFound):
		return p.syncer.DeleteEvent(ctx, ref)
	case err != nil:
		return err
	case after.Status == domain.ReservationConfirmed:
		return nil
	}
	p.log.Info("calendar sync: reservation left confirmed during create, removing event",
		zap.Int64("reservation_id", pl.ReservationID), zap.String("status", string(after.Status)))
	if err := p.syncer.DeleteEvent(ctx, ref); err != nil {
		return err
	}
	if err := p.store.SetExternalRef(ctx, pl.TenantID, pl.ReservationID, nil); err != nil && !errors.Is(err, errclass.ErrNotFound) {
		return err
	}
	return nil
}

func (p *Processor) delete(ctx context.Context, pl Payload) error {
	ref := ""
	if pl.Snapshot.HasCalendarLink() {
		ref = *pl.Snapshot.ExternalCalendarRef
	}

	current, err := p.store.GetByID(ctx, pl.TenantID, pl.ReservationID)
	switch {
	case errors.Is(err, errclass.ErrNotFound):
		current = nil
	case err != nil:
		return err
	case current.HasCalendarLink():
		ref = *current.ExternalCalendarRef
	}

	if ref == "" {
		return nil
	}
	if err := p.syncer.DeleteEvent(ctx, ref); err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	if err := p.store.SetExternalRef(ctx, pl.TenantID, pl.ReservationID, nil); err != nil && !errors.Is(err, errclass.ErrNotFound) {
		return err
	}
	return nil
}

// HandleTask is the asynq entry point. Rejected requests skip asynq's retry.
func (p *Processor) HandleTask(ctx context.Context, t *asynq.Task) error {
	pl, err := ParseTask(t)
	if err != nil {
		p.log.Error("calendar sync: bad task", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = p.Apply(ctx, pl)
	if err == nil {
		return nil
	}

	fields := []zap.Field{
		zap.Int64("reservation_id", pl.ReservationID),
		zap.Int64("tenant_id", pl.TenantID),
		zap.String("action", string(pl.Action)),
		zap.Error(err),
	}
	if !errclass.Classify(err).Retryable() {
		p.log.Error("calendar sync failed permanently", fields...)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	p.log.Warn("calendar sync failed, will retry", fields...)
	return err
}
