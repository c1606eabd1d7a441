package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationFinalized ReservationStatus = "FINALIZED"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationFinalized:
		return true
	}
	return false
}

// Terminal reports whether no further transition (other than an idempotent
// repeat of the same one) is allowed.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCancelled || s == ReservationFinalized
}

type BookingKind string

const (
	BookingSpace   BookingKind = "space"
	BookingService BookingKind = "service"
)

func (k BookingKind) Valid() bool {
	return k == BookingSpace || k == BookingService
}

// Reservation is one booked [StartTime, EndTime) interval on a resource.
// Optional references are pointers; nil means "not linked".
type Reservation struct {
	ID             int64             `json:"id"`
	TenantID       int64             `json:"tenant_id"`
	ResourceID     int64             `json:"resource_id"`
	ProfessionalID *int64            `json:"professional_id,omitempty"`
	CustomerName   string            `json:"customer_name"`
	CustomerID     *int64            `json:"customer_id,omitempty"`
	StartTime      time.Time         `json:"start_time"`
	EndTime        time.Time         `json:"end_time"`
	Status         ReservationStatus `json:"status"`
	Kind           BookingKind       `json:"kind"`

	ResourceSubtotal decimal.Decimal `json:"resource_subtotal"`
	GrandTotal       decimal.Decimal `json:"grand_total"`

	ExternalCalendarRef *string        `json:"external_calendar_ref,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`

	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

func (r *Reservation) HasCalendarLink() bool {
	return r.ExternalCalendarRef != nil && *r.ExternalCalendarRef != ""
}

// Blocks reports whether the reservation takes part in overlap checks.
func (r *Reservation) Blocks() bool {
	return r.Status != ReservationCancelled
}

type SyncAction string

const (
	SyncCreate SyncAction = "create"
	SyncUpdate SyncAction = "update"
	SyncDelete SyncAction = "delete"
)
