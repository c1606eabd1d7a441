package reservation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"venuebook/internal/domain"
	"venuebook/internal/modules/errclass"
	"venuebook/internal/modules/pricing"
	"venuebook/internal/notification"
	"venuebook/internal/repository"
)

const (
	defaultListLimit      = 100
	maxListLimit          = 500
	defaultMaxOccurrences = 52
	sideEffectTimeout     = 5 * time.Second
)

type Options struct {
	MaxOccurrences int
	Now            func() time.Time
}

type Service struct {
	store     Store
	resources ResourceRepository
	sync      CalendarSync
	notifier  Notifier
	guard     *errclass.Guard
	log       *zap.Logger

	maxOccurrences int
	now            func() time.Time
}

func NewService(
	store Store,
	resources ResourceRepository,
	sync CalendarSync,
	notifier Notifier,
	guard *errclass.Guard,
	log *zap.Logger,
	opts Options,
) *Service {
	if opts.MaxOccurrences <= 0 {
		opts.MaxOccurrences = defaultMaxOccurrences
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:          store,
		resources:      resources,
		sync:           sync,
		notifier:       notifier,
		guard:          guard,
		log:            log,
		maxOccurrences: opts.MaxOccurrences,
		now:            opts.Now,
	}
}

// Create books one interval. The overlap check and the insert run in one
// transaction under the resource lock; side effects fire only after commit.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateRequest) (*Result, error) {
	draft, err := buildDraft(actor, req)
	if err != nil {
		return nil, err
	}
	if err := validInterval(draft.StartTime, draft.EndTime); err != nil {
		return nil, err
	}
	if draft.StartTime.Before(s.now()) {
		return nil, ErrStartInPast
	}

	created, err := s.reserve(ctx, actor.TenantID, draft)
	if err != nil {
		return nil, err
	}

	res := &Result{Reservation: created, Changed: true}
	s.afterCommit(ctx, res, createSyncAction(created), notification.KindReservationCreated)
	return res, nil
}

func (s *Service) reserve(ctx context.Context, tenantID int64, draft domain.Reservation) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := s.guard.Do(ctx, "create reservation", func(ctx context.Context) error {
		return s.store.WithResourceLock(ctx, tenantID, []int64{draft.ResourceID}, func(ctx context.Context, tx repository.ReservationTx) error {
			res, err := tx.Resource(ctx, draft.ResourceID)
			if err != nil {
				return err
			}
			if !res.IsActive {
				return ErrResourceInactive
			}
			if err := checkOverlap(ctx, tx, res.ID, draft.StartTime, draft.EndTime, 0); err != nil {
				return err
			}
			subtotal, err := pricing.ResourceTotal(res, draft.StartTime, draft.EndTime)
			if err != nil {
				return err
			}

			r := draft
			r.TenantID = tenantID
			r.ResourceSubtotal = subtotal
			r.GrandTotal = subtotal
			now := s.now().UTC()
			r.CreatedAt, r.UpdatedAt = now, now
			if err := tx.Insert(ctx, &r); err != nil {
				return err
			}
			out = &r
			return nil
		})
	})
	return out, err
}

// Update patches a PENDING or CONFIRMED reservation. Moving it (new times or
// resource) re-runs the overlap check against everything but itself and
// reprices it; both source and target resource are locked.
func (s *Service) Update(ctx context.Context, actor Actor, id int64, req UpdateRequest) (*Result, error) {
	if actor.TenantID <= 0 {
		return nil, errNoTenant
	}
	if req.CustomerName != nil && strings.TrimSpace(*req.CustomerName) == "" {
		return nil, ErrMissingCustomer
	}
	if req.ResourceID != nil && *req.ResourceID <= 0 {
		return nil, ErrMissingResource
	}

	var (
		updated *domain.Reservation
		moved   bool
	)
	var extra []int64
	if req.ResourceID != nil {
		extra = append(extra, *req.ResourceID)
	}
	err := s.guard.Do(ctx, "update reservation", func(ctx context.Context) error {
		return s.withReservation(ctx, actor.TenantID, id, extra, func(ctx context.Context, tx repository.ReservationTx, r *domain.Reservation) error {
			if r.Status != domain.ReservationPending && r.Status != domain.ReservationConfirmed {
				return invalidTransition(string(r.Status), "update")
			}

			next := *r
			applyPatch(&next, req)
			moved = next.ResourceID != r.ResourceID ||
				!next.StartTime.Equal(r.StartTime) ||
				!next.EndTime.Equal(r.EndTime)

			if moved {
				if err := validInterval(next.StartTime, next.EndTime); err != nil {
					return err
				}
				// An in-progress booking keeps its start and may still be extended.
				now := s.now()
				if !next.StartTime.Equal(r.StartTime) && next.StartTime.Before(now) {
					return ErrStartInPast
				}
				if !next.EndTime.After(now) {
					return ErrEndInPast
				}
				res, err := tx.Resource(ctx, next.ResourceID)
				if err != nil {
					return err
				}
				if next.ResourceID != r.ResourceID && !res.IsActive {
					return ErrResourceInactive
				}
				if err := checkOverlap(ctx, tx, next.ResourceID, next.StartTime, next.EndTime, next.ID); err != nil {
					return err
				}
				subtotal, err := pricing.ResourceTotal(res, next.StartTime, next.EndTime)
				if err != nil {
					return err
				}
				next.ResourceSubtotal = subtotal
				next.GrandTotal = subtotal
			}

			next.UpdatedAt = s.now().UTC()
			if err := tx.Update(ctx, &next); err != nil {
				return err
			}
			updated = &next
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Reservation: updated, Changed: true}
	var action domain.SyncAction
	if moved && updated.Status == domain.ReservationConfirmed {
		action = domain.SyncUpdate
	}
	s.afterCommit(ctx, res, action, notification.KindReservationUpdated)
	return res, nil
}

// Delete removes the row. The calendar delete is dispatched after commit
// with a snapshot taken under the lock, so the worker never needs the row.
func (s *Service) Delete(ctx context.Context, actor Actor, id int64) (*Result, error) {
	if actor.TenantID <= 0 {
		return nil, errNoTenant
	}

	var snapshot *domain.Reservation
	err := s.guard.Do(ctx, "delete reservation", func(ctx context.Context) error {
		return s.withReservation(ctx, actor.TenantID, id, nil, func(ctx context.Context, tx repository.ReservationTx, r *domain.Reservation) error {
			if err := tx.Delete(ctx, r.ID); err != nil {
				return err
			}
			snapshot = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Reservation: snapshot, Changed: true}
	var action domain.SyncAction
	if snapshot.HasCalendarLink() {
		action = domain.SyncDelete
	}
	s.afterCommit(ctx, res, action, notification.KindReservationDeleted)
	return res, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id int64) (*domain.Reservation, error) {
	if actor.TenantID <= 0 {
		return nil, errNoTenant
	}
	return errclass.Value(ctx, s.guard, "get reservation", func(ctx context.Context) (*domain.Reservation, error) {
		return s.store.GetByID(ctx, actor.TenantID, id)
	})
}

// List is an unlocked read for calendar views.
func (s *Service) List(ctx context.Context, actor Actor, req ListRequest) ([]domain.Reservation, error) {
	if actor.TenantID <= 0 {
		return nil, errNoTenant
	}
	if req.From != nil && req.To != nil && !req.To.After(*req.From) {
		return nil, ErrInvalidInterval
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	f := repository.ReservationFilter{
		TenantID:         actor.TenantID,
		ResourceID:       req.ResourceID,
		From:             req.From,
		To:               req.To,
		IncludeCancelled: req.IncludeCancelled,
		Limit:            limit,
		Offset:           req.Offset,
	}
	return errclass.Value(ctx, s.guard, "list reservations", func(ctx context.Context) ([]domain.Reservation, error) {
		return s.store.List(ctx, f)
	})
}

// withReservation locks the resource a reservation lives on (plus any extra
// resources) and hands fn the row as seen under that lock.
func (s *Service) withReservation(
	ctx context.Context,
	tenantID, id int64,
	extra []int64,
	fn func(ctx context.Context, tx repository.ReservationTx, r *domain.Reservation) error,
) error {
	current, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	ids := append([]int64{current.ResourceID}, extra...)
	return s.store.WithResourceLock(ctx, tenantID, ids, func(ctx context.Context, tx repository.ReservationTx) error {
		r, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if r.ResourceID != current.ResourceID {
			// Moved between the unlocked read and the lock; retry.
			return fmt.Errorf("%w: reservation %d moved to another resource", errclass.ErrTransient, id)
		}
		return fn(ctx, tx, r)
	})
}

// afterCommit fires the side effects of a committed write. Failures are
// logged and reported as warnings, never returned.
func (s *Service) afterCommit(ctx context.Context, res *Result, action domain.SyncAction, kind string) {
	r := res.Reservation
	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if action != "" {
		if err := s.sync.Enqueue(sideCtx, action, *r); err != nil {
			s.log.Warn("calendar sync not dispatched",
				zap.Int64("reservation_id", r.ID),
				zap.Int64("tenant_id", r.TenantID),
				zap.String("action", string(action)),
				zap.Error(err))
			res.Warnings = append(res.Warnings, fmt.Sprintf("calendar sync (%s) could not be scheduled", action))
		}
	}

	if err := s.notifier.Publish(sideCtx, notification.NewEvent(kind, r, s.now())); err != nil {
		s.log.Warn("lifecycle notification not published",
			zap.Int64("reservation_id", r.ID),
			zap.String("kind", kind),
			zap.Error(err))
		res.Warnings = append(res.Warnings, "notification could not be published")
	}
}

var errNoTenant = fmt.Errorf("%w: no tenant in session", errclass.ErrAuth)

func buildDraft(actor Actor, req CreateRequest) (domain.Reservation, error) {
	if actor.TenantID <= 0 {
		return domain.Reservation{}, errNoTenant
	}
	if req.ResourceID <= 0 {
		return domain.Reservation{}, ErrMissingResource
	}
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return domain.Reservation{}, ErrMissingCustomer
	}

	status := req.Status
	if status == "" {
		status = domain.ReservationConfirmed
	}
	if status != domain.ReservationConfirmed && status != domain.ReservationPending {
		return domain.Reservation{}, errclass.Validationf("initial status must be PENDING or CONFIRMED, got %q", status)
	}
	kind := req.Kind
	if kind == "" {
		kind = domain.BookingSpace
	}
	if !kind.Valid() {
		return domain.Reservation{}, errclass.Validationf("unknown booking kind %q", kind)
	}

	return domain.Reservation{
		TenantID:       actor.TenantID,
		ResourceID:     req.ResourceID,
		ProfessionalID: req.ProfessionalID,
		CustomerName:   name,
		CustomerID:     req.CustomerID,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		Status:         status,
		Kind:           kind,
		Metadata:       req.Metadata,
		CreatedBy:      actor.UserID,
	}, nil
}

func applyPatch(r *domain.Reservation, req UpdateRequest) {
	if req.ResourceID != nil {
		r.ResourceID = *req.ResourceID
	}
	if req.StartTime != nil {
		r.StartTime = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		r.EndTime = req.EndTime.UTC()
	}
	switch {
	case req.ClearProfessional:
		r.ProfessionalID = nil
	case req.ProfessionalID != nil:
		r.ProfessionalID = req.ProfessionalID
	}
	if req.CustomerName != nil {
		r.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	switch {
	case req.ClearCustomer:
		r.CustomerID = nil
	case req.CustomerID != nil:
		r.CustomerID = req.CustomerID
	}
	if req.Metadata != nil {
		r.Metadata = req.Metadata
	}
}

func createSyncAction(r *domain.Reservation) domain.SyncAction {
	if r.Status == domain.ReservationConfirmed {
		return domain.SyncCreate
	}
	return ""
}
