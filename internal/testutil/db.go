// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"venuebook/internal/database"
	"venuebook/internal/domain"
	"venuebook/internal/repository"
)

// NewSQLite opens a private in-memory database with the schema applied.
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_time_format=sqlite", uuid.NewString())
	db, err := database.Connect(dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedResource inserts an active hourly resource.
func SeedResource(t testing.TB, repo *repository.ResourceRepository, tenantID int64, name, rate string) *domain.Resource {
	t.Helper()
	res := &domain.Resource{
		TenantID: tenantID,
		Name:     name,
		Kind:     domain.ResourceSpace,
		RateKind: domain.RateHourly,
		Rate:     decimal.RequireFromString(rate),
		Currency: "USD",
		IsActive: true,
	}
	require.NoError(t, repo.Create(context.Background(), res))
	return res
}
