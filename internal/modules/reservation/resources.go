package reservation

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"venuebook/internal/domain"
	"venuebook/internal/modules/errclass"
	"venuebook/internal/pkg/validator"
)

type CreateResourceRequest struct {
	Name     string          `json:"name" binding:"required"`
	Kind     string          `json:"kind" binding:"required"`
	RateKind string          `json:"rate_kind" binding:"required"`
	Rate     decimal.Decimal `json:"rate"`
	Currency string          `json:"currency" binding:"required"`
}

func (s *Service) CreateResource(ctx context.Context, actor Actor, req CreateResourceRequest) (*domain.Resource, error) {
	if actor.TenantID <= 0 {
		return nil, errNoTenant
	}
	res := &domain.Resource{
		TenantID: actor.TenantID,
		Name:     strings.TrimSpace(req.Name),
		Kind:     domain.ResourceKind(req.Kind),
		RateKind: domain.RateKind(req.RateKind),
		Rate:     req.Rate.Round(2),
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
		IsActive: true,
	}
	if fields := validator.Validate(res); fields != nil {
		return nil, fmt.Errorf("%w: %v", errclass.ErrValidation, fields)
	}
	if res.Rate.IsNegative() {
		return nil, errclass.Validationf("rate must not be negative")
	}

	err := s.guard.Do(ctx, "create resource", func(ctx context.Context) error {
		return s.resources.Create(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) ListResources(ctx context.Context, actor Actor, activeOnly bool) ([]domain.Resource, error) {
	if actor.TenantID <= 0 {
		return nil, errNoTenant
	}
	return errclass.Value(ctx, s.guard, "list resources", func(ctx context.Context) ([]domain.Resource, error) {
		return s.resources.ListByTenant(ctx, actor.TenantID, activeOnly)
	})
}

// SetResourceActive retires or revives a resource. Existing reservations
// are untouched; an inactive resource only refuses new ones.
func (s *Service) SetResourceActive(ctx context.Context, actor Actor, id int64, active bool) (*domain.Resource, error) {
	if actor.TenantID <= 0 {
		return nil, errNoTenant
	}
	return errclass.Value(ctx, s.guard, "set resource active", func(ctx context.Context) (*domain.Resource, error) {
		if err := s.resources.SetActive(ctx, actor.TenantID, id, active); err != nil {
			return nil, err
		}
		return s.resources.GetByID(ctx, actor.TenantID, id)
	})
}
