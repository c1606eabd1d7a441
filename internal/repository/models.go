package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

type resourceModel struct {
	ID        int64           `gorm:"column:id;primaryKey"`
	TenantID  int64           `gorm:"column:tenant_id;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	Kind      string          `gorm:"column:kind;type:varchar(16);not null"`
	RateKind  string          `gorm:"column:rate_kind;type:varchar(16);not null"`
	Rate      decimal.Decimal `gorm:"column:rate;type:numeric(12,2);not null"`
	Currency  string          `gorm:"column:currency;type:varchar(3);not null"`
	IsActive  bool            `gorm:"column:is_active;not null"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (resourceModel) TableName() string { return "resources" }

type reservationModel struct {
	ID                  int64           `gorm:"column:id;primaryKey"`
	TenantID            int64           `gorm:"column:tenant_id;not null;index:idx_reservations_slot,priority:1"`
	ResourceID          int64           `gorm:"column:resource_id;not null;index:idx_reservations_slot,priority:2"`
	ProfessionalID      *int64          `gorm:"column:professional_id"`
	CustomerName        string          `gorm:"column:customer_name;not null"`
	CustomerID          *int64          `gorm:"column:customer_id"`
	StartTime           time.Time       `gorm:"column:start_time;not null;index:idx_reservations_slot,priority:3"`
	EndTime             time.Time       `gorm:"column:end_time;not null"`
	Status              string          `gorm:"column:status;type:varchar(16);not null;index"`
	Kind                string          `gorm:"column:kind;type:varchar(16);not null"`
	ResourceSubtotal    decimal.Decimal `gorm:"column:resource_subtotal;type:numeric(12,2);not null"`
	GrandTotal          decimal.Decimal `gorm:"column:grand_total;type:numeric(12,2);not null"`
	ExternalCalendarRef *string         `gorm:"column:external_calendar_ref"`
	Metadata            map[string]any  `gorm:"column:metadata;type:text;serializer:json"`
	CreatedBy           int64           `gorm:"column:created_by"`
	CreatedAt           time.Time       `gorm:"column:created_at"`
	UpdatedAt           time.Time       `gorm:"column:updated_at"`
	CancelledAt         *time.Time      `gorm:"column:cancelled_at"`
	FinalizedAt         *time.Time      `gorm:"column:finalized_at"`
}

func (reservationModel) TableName() string { return "reservations" }
