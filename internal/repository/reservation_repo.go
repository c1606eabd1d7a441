package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"venuebook/internal/domain"
	"venuebook/internal/lock"
	"venuebook/internal/modules/errclass"
)

// ReservationTx is the view of the store a caller gets while holding the
// lock on one or more resources. Every read it offers observes the same
// snapshot as the write that follows it.
type ReservationTx interface {
	// Resource returns one of the locked resources.
	Resource(ctx context.Context, id int64) (*domain.Resource, error)
	// Overlapping returns the blocking reservations on resourceID that
	// intersect [start, end). excludeID skips one reservation (0 = none).
	Overlapping(ctx context.Context, resourceID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error)
	Get(ctx context.Context, id int64) (*domain.Reservation, error)
	Insert(ctx context.Context, r *domain.Reservation) error
	// Update writes every column except the calendar link, which only
	// SetExternalRef owns.
	Update(ctx context.Context, r *domain.Reservation) error
	Delete(ctx context.Context, id int64) error
}

type ReservationFilter struct {
	TenantID         int64
	ResourceID       int64
	From             *time.Time
	To               *time.Time
	Status           domain.ReservationStatus
	IncludeCancelled bool
	Limit            int
	Offset           int
}

type ReservationRepository struct {
	db     *gorm.DB
	locker lock.Locker
}

// NewReservationRepository wires the store with an optional keyed locker that
// runs ahead of the row lock. A nil locker relies on the row lock alone.
func NewReservationRepository(db *gorm.DB, locker lock.Locker) *ReservationRepository {
	if locker == nil {
		locker = lock.Noop{}
	}
	return &ReservationRepository{db: db, locker: locker}
}

// WithResourceLock runs fn inside one transaction that holds an exclusive
// row lock on every listed resource of the tenant. Locks are taken in
// ascending id order. The transaction is detached from ctx cancellation:
// once it starts it runs to commit or rollback even if the caller leaves.
func (r *ReservationRepository) WithResourceLock(
	ctx context.Context,
	tenantID int64,
	resourceIDs []int64,
	fn func(ctx context.Context, tx ReservationTx) error,
) error {
	ids := uniqueSorted(resourceIDs)
	if len(ids) == 0 {
		return errclass.Validationf("resource id is required")
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, lock.ResourceKey(id))
	}
	release, err := r.locker.Acquire(ctx, keys...)
	if err != nil {
		return fmt.Errorf("acquire resource lock: %w", err)
	}
	defer release()

	txCtx := context.WithoutCancel(ctx)
	return r.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		var rows []resourceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id IN ?", tenantID, ids).
			Order("id").
			Find(&rows).Error
		if err != nil {
			return err
		}
		locked := make(map[int64]*domain.Resource, len(rows))
		for _, m := range rows {
			locked[m.ID] = toDomainResource(m)
		}
		for _, id := range ids {
			if _, ok := locked[id]; !ok {
				return fmt.Errorf("resource %d: %w", id, errclass.ErrNotFound)
			}
		}
		return fn(txCtx, &reservationTx{db: tx, tenantID: tenantID, resources: locked})
	})
}

func (r *ReservationRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Reservation, error) {
	return getReservation(r.db.WithContext(ctx), tenantID, id)
}

// List is an unlocked read; callers tolerate a slightly stale view.
func (r *ReservationRepository) List(ctx context.Context, f ReservationFilter) ([]domain.Reservation, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", f.TenantID)
	if f.ResourceID > 0 {
		q = q.Where("resource_id = ?", f.ResourceID)
	}
	if f.From != nil {
		q = q.Where("end_time > ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("start_time < ?", f.To.UTC())
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	} else if !f.IncludeCancelled {
		q = q.Where("status <> ?", string(domain.ReservationCancelled))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var rows []reservationModel
	if err := q.Order("start_time, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainReservations(rows), nil
}

// ListElapsed returns confirmed reservations of any tenant that ended before
// the cutoff, oldest first.
func (r *ReservationRepository) ListElapsed(ctx context.Context, before time.Time, limit int) ([]domain.Reservation, error) {
	var rows []reservationModel
	q := r.db.WithContext(ctx).
		Where("status = ? AND end_time < ?", string(domain.ReservationConfirmed), before.UTC()).
		Order("end_time, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainReservations(rows), nil
}

// SetExternalRef stores (or clears, with nil) the external calendar event id.
func (r *ReservationRepository) SetExternalRef(ctx context.Context, tenantID, id int64, ref *string) error {
	tx := r.db.WithContext(ctx).
		Model(&reservationModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]any{
			"external_calendar_ref": ref,
			"updated_at":            time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("reservation %d: %w", id, errclass.ErrNotFound)
	}
	return nil
}

type reservationTx struct {
	db        *gorm.DB
	tenantID  int64
	resources map[int64]*domain.Resource
}

func (t *reservationTx) Resource(_ context.Context, id int64) (*domain.Resource, error) {
	res, ok := t.resources[id]
	if !ok {
		return nil, fmt.Errorf("resource %d is not locked by this transaction", id)
	}
	cp := *res
	return &cp, nil
}

func (t *reservationTx) Overlapping(ctx context.Context, resourceID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
	if _, ok := t.resources[resourceID]; !ok {
		return nil, fmt.Errorf("resource %d is not locked by this transaction", resourceID)
	}
	q := t.db.WithContext(ctx).
		Where("tenant_id = ? AND resource_id = ?", t.tenantID, resourceID).
		Where("status <> ?", string(domain.ReservationCancelled)).
		Where("start_time < ? AND end_time > ?", end.UTC(), start.UTC())
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var rows []reservationModel
	if err := q.Order("start_time").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainReservations(rows), nil
}

func (t *reservationTx) Get(ctx context.Context, id int64) (*domain.Reservation, error) {
	return getReservation(t.db.WithContext(ctx), t.tenantID, id)
}

func (t *reservationTx) Insert(ctx context.Context, r *domain.Reservation) error {
	r.TenantID = t.tenantID
	m := toReservationModel(r)
	if err := t.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*r = *toDomainReservation(m)
	return nil
}

func (t *reservationTx) Update(ctx context.Context, r *domain.Reservation) error {
	m := toReservationModel(r)
	res := t.db.WithContext(ctx).
		Model(&reservationModel{}).
		Where("tenant_id = ? AND id = ?", t.tenantID, r.ID).
		Select("*").
		Omit("id", "tenant_id", "created_at", "external_calendar_ref").
		Updates(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reservation %d: %w", r.ID, errclass.ErrNotFound)
	}
	return nil
}

func (t *reservationTx) Delete(ctx context.Context, id int64) error {
	res := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Delete(&reservationModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reservation %d: %w", id, errclass.ErrNotFound)
	}
	return nil
}

func getReservation(db *gorm.DB, tenantID, id int64) (*domain.Reservation, error) {
	var m reservationModel
	err := db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("reservation %d: %w", id, errclass.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toDomainReservation(m), nil
}

func uniqueSorted(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
