package reservation

import (
	"context"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/notification"
	"venuebook/internal/repository"
)

// Store is the reservation persistence boundary. Writes only happen inside
// WithResourceLock.
type Store interface {
	WithResourceLock(ctx context.Context, tenantID int64, resourceIDs []int64, fn func(ctx context.Context, tx repository.ReservationTx) error) error
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Reservation, error)
	List(ctx context.Context, f repository.ReservationFilter) ([]domain.Reservation, error)
	ListElapsed(ctx context.Context, before time.Time, limit int) ([]domain.Reservation, error)
}

type ResourceRepository interface {
	Create(ctx context.Context, res *domain.Resource) error
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Resource, error)
	ListByTenant(ctx context.Context, tenantID int64, activeOnly bool) ([]domain.Resource, error)
	SetActive(ctx context.Context, tenantID, id int64, active bool) error
}

// CalendarSync accepts fire-and-forget sync work. An error only means the
// work could not be handed off.
type CalendarSync interface {
	Enqueue(ctx context.Context, action domain.SyncAction, snapshot domain.Reservation) error
}

type Notifier interface {
	Publish(ctx context.Context, ev notification.Event) error
}
