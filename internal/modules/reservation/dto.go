package reservation

import (
	"time"

	"venuebook/internal/domain"
)

// Actor is who performs an operation and in which tenant. Both come from
// the session, never from request bodies.
type Actor struct {
	UserID   int64
	TenantID int64
}

type CreateRequest struct {
	ResourceID     int64                    `json:"resource_id" binding:"required"`
	ProfessionalID *int64                   `json:"professional_id"`
	CustomerName   string                   `json:"customer_name" binding:"required"`
	CustomerID     *int64                   `json:"customer_id"`
	StartTime      time.Time                `json:"start_time" binding:"required"`
	EndTime        time.Time                `json:"end_time" binding:"required"`
	Status         domain.ReservationStatus `json:"status"`
	Kind           domain.BookingKind       `json:"kind"`
	Metadata       map[string]any           `json:"metadata"`
}

// UpdateRequest is a patch: nil fields are left unchanged.
type UpdateRequest struct {
	ResourceID        *int64         `json:"resource_id"`
	StartTime         *time.Time     `json:"start_time"`
	EndTime           *time.Time     `json:"end_time"`
	ProfessionalID    *int64         `json:"professional_id"`
	ClearProfessional bool           `json:"clear_professional"`
	CustomerName      *string        `json:"customer_name"`
	CustomerID        *int64         `json:"customer_id"`
	ClearCustomer     bool           `json:"clear_customer"`
	Metadata          map[string]any `json:"metadata"`
}

type ListRequest struct {
	ResourceID       int64
	From             *time.Time
	To               *time.Time
	IncludeCancelled bool
	Limit            int
	Offset           int
}

// Result is the outcome of a single-reservation operation. Warnings carry
// side-effect failures that did not affect the write.
type Result struct {
	Reservation *domain.Reservation `json:"reservation,omitempty"`
	Changed     bool                `json:"changed"`
	Warnings    []string            `json:"warnings,omitempty"`
}

type RecurrenceRule string

const (
	RuleWeekly  RecurrenceRule = "weekly"
	RuleMonthly RecurrenceRule = "monthly"
)

type RecurringRequest struct {
	ResourceID     int64                    `json:"resource_id" validate:"required,gt=0"`
	ProfessionalID *int64                   `json:"professional_id"`
	CustomerName   string                   `json:"customer_name" validate:"required"`
	CustomerID     *int64                   `json:"customer_id"`
	BaseDate       string                   `json:"base_date" validate:"required,datetime=2006-01-02"`
	StartTime      string                   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime        string                   `json:"end_time" validate:"required,datetime=15:04"`
	TimeZone       string                   `json:"time_zone"`
	Rule           RecurrenceRule           `json:"rule" validate:"required,oneof=weekly monthly"`
	Count          int                      `json:"count" validate:"required,min=1"`
	Status         domain.ReservationStatus `json:"status"`
	Kind           domain.BookingKind       `json:"kind"`
	Metadata       map[string]any           `json:"metadata"`
}

// Occurrence is one candidate interval of a series.
type Occurrence struct {
	Index int       `json:"index"`
	Date  string    `json:"date"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type OccurrenceResult struct {
	Occurrence
	Success       bool   `json:"success"`
	ReservationID *int64 `json:"reservation_id,omitempty"`
	Kind          string `json:"kind,omitempty"`
	Error         string `json:"error,omitempty"`
}

const (
	OutcomeSeriesCreated = "series_created"
	OutcomeSeriesPartial = "series_partial"
	OutcomeSeriesNone    = "series_none"
)

// SeriesReport has exactly one result per requested occurrence.
type SeriesReport struct {
	SeriesID     string             `json:"series_id"`
	Outcome      string             `json:"outcome"`
	SuccessCount int                `json:"success_count"`
	FailCount    int                `json:"fail_count"`
	FailedDates  []string           `json:"failed_dates,omitempty"`
	Results      []OccurrenceResult `json:"results"`
	Warnings     []string           `json:"warnings,omitempty"`
}
