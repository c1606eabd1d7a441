package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"venuebook/internal/domain"
	"venuebook/internal/modules/errclass"
)

type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	m := toResourceModel(res)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*res = *toDomainResource(m)
	return nil
}

func (r *ResourceRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Resource, error) {
	var m resourceModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resource %d: %w", id, errclass.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toDomainResource(m), nil
}

func (r *ResourceRepository) ListByTenant(ctx context.Context, tenantID int64, activeOnly bool) ([]domain.Resource, error) {
	var rows []resourceModel
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Resource, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainResource(m))
	}
	return out, nil
}

// SetActive toggles bookability. Resources referenced by reservations are
// never deleted, only deactivated.
func (r *ResourceRepository) SetActive(ctx context.Context, tenantID, id int64, active bool) error {
	tx := r.db.WithContext(ctx).
		Table("resources").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("resource %d: %w", id, errclass.ErrNotFound)
	}
	return nil
}
