package notification

import (
	"context"
	"time"

	"venuebook/internal/domain"
)

// Outcome kinds published for successful lifecycle operations.
const (
	KindReservationCreated   = "reservation_created"
	KindReservationUpdated   = "reservation_updated"
	KindReservationConfirmed = "reservation_confirmed"
	KindReservationCancelled = "reservation_cancelled"
	KindReservationFinalized = "reservation_finalized"
	KindReservationDeleted   = "reservation_deleted"
)

type Event struct {
	OK            bool      `json:"ok"`
	Kind          string    `json:"kind"`
	ReservationID int64     `json:"reservation_id"`
	TenantID      int64     `json:"tenant_id"`
	Status        string    `json:"status"`
	At            time.Time `json:"at"`
}

func NewEvent(kind string, r *domain.Reservation, at time.Time) Event {
	return Event{
		OK:            true,
		Kind:          kind,
		ReservationID: r.ID,
		TenantID:      r.TenantID,
		Status:        string(r.Status),
		At:            at.UTC(),
	}
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
