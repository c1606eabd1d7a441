package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ResourceKind string

const (
	ResourceSpace        ResourceKind = "space"
	ResourceProfessional ResourceKind = "professional"
)

type RateKind string

const (
	RateHourly RateKind = "hourly"
	RateFlat   RateKind = "flat"
)

// Resource is a bookable space or professional of one tenant. Resources are
// never hard-deleted once referenced; IsActive=false retires them.
type Resource struct {
	ID        int64           `json:"id"`
	TenantID  int64           `json:"tenant_id"`
	Name      string          `json:"name" validate:"required"`
	Kind      ResourceKind    `json:"kind" validate:"required,oneof=space professional"`
	RateKind  RateKind        `json:"rate_kind" validate:"required,oneof=hourly flat"`
	Rate      decimal.Decimal `json:"rate"`
	Currency  string          `json:"currency" validate:"required,len=3"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OrderItem is one line of a service order.
type OrderItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}
