package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"venuebook/internal/domain"
	"venuebook/internal/modules/errclass"
	"venuebook/internal/notification"
	"venuebook/internal/repository"
)

var transitions = map[domain.ReservationStatus][]domain.ReservationStatus{
	domain.ReservationPending:   {domain.ReservationConfirmed, domain.ReservationCancelled},
	domain.ReservationConfirmed: {domain.ReservationCancelled, domain.ReservationFinalized},
}

// CanTransition reports whether from -> to is a legal status change.
// Repeating the current status is handled separately as a no-op.
func CanTransition(from, to domain.ReservationStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s *Service) Confirm(ctx context.Context, actor Actor, id int64) (*Result, error) {
	return s.transition(ctx, actor, id, domain.ReservationConfirmed)
}

// Cancel is idempotent: cancelling a cancelled reservation changes nothing
// and fires no side effect.
func (s *Service) Cancel(ctx context.Context, actor Actor, id int64) (*Result, error) {
	return s.transition(ctx, actor, id, domain.ReservationCancelled)
}

func (s *Service) Finalize(ctx context.Context, actor Actor, id int64) (*Result, error) {
	return s.transition(ctx, actor, id, domain.ReservationFinalized)
}

func (s *Service) transition(ctx context.Context, actor Actor, id int64, to domain.ReservationStatus) (*Result, error) {
	if actor.TenantID <= 0 {
		return nil, errNoTenant
	}

	var before, after *domain.Reservation
	op := "set reservation " + strings.ToLower(string(to))
	err := s.guard.Do(ctx, op, func(ctx context.Context) error {
		before, after = nil, nil
		return s.withReservation(ctx, actor.TenantID, id, nil, func(ctx context.Context, tx repository.ReservationTx, r *domain.Reservation) error {
			before = r
			if r.Status == to {
				return nil
			}
			if !CanTransition(r.Status, to) {
				return invalidTransition(string(r.Status), string(to))
			}

			next := *r
			now := s.now().UTC()
			next.Status = to
			next.UpdatedAt = now
			switch to {
			case domain.ReservationCancelled:
				next.CancelledAt = &now
			case domain.ReservationFinalized:
				next.FinalizedAt = &now
			}
			if err := tx.Update(ctx, &next); err != nil {
				return err
			}
			after = &next
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if after == nil {
		return &Result{Reservation: before, Changed: false}, nil
	}

	res := &Result{Reservation: after, Changed: true}
	s.afterCommit(ctx, res, transitionSyncAction(before, after), transitionKind(to))
	return res, nil
}

func transitionSyncAction(before, after *domain.Reservation) domain.SyncAction {
	switch after.Status {
	case domain.ReservationConfirmed:
		return domain.SyncCreate
	case domain.ReservationCancelled, domain.ReservationFinalized:
		if before.HasCalendarLink() {
			return domain.SyncDelete
		}
	}
	return ""
}

func transitionKind(to domain.ReservationStatus) string {
	switch to {
	case domain.ReservationConfirmed:
		return notification.KindReservationConfirmed
	case domain.ReservationCancelled:
		return notification.KindReservationCancelled
	case domain.ReservationFinalized:
		return notification.KindReservationFinalized
	}
	return notification.KindReservationUpdated
}

// FinalizeElapsed finalizes up to batch confirmed reservations of any tenant
// that ended more than grace ago. Rows that changed state in the meantime
// are skipped.
func (s *Service) FinalizeElapsed(ctx context.Context, grace time.Duration, batch int) (int, error) {
	cutoff := s.now().Add(-grace)
	rows, err := errclass.Value(ctx, s.guard, "list elapsed reservations", func(ctx context.Context) ([]domain.Reservation, error) {
		return s.store.ListElapsed(ctx, cutoff, batch)
	})
	if err != nil {
		return 0, err
	}

	var (
		done int
		errs []error
	)
	for _, r := range rows {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		res, err := s.Finalize(ctx, Actor{TenantID: r.TenantID}, r.ID)
		switch {
		case err == nil:
			if res.Changed {
				done++
			}
		case errors.Is(err, errclass.ErrInvalidTransition), errors.Is(err, errclass.ErrNotFound):
			s.log.Debug("finalize skipped", zap.Int64("reservation_id", r.ID), zap.Error(err))
		default:
			errs = append(errs, err)
		}
	}
	return done, errors.Join(errs...)
}
