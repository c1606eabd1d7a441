package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuebook/internal/domain"
	"venuebook/internal/lock"
	"venuebook/internal/modules/errclass"
	"venuebook/internal/repository"
	"venuebook/internal/testutil"
)

func hour(day, h int) time.Time {
	return time.Date(2030, 3, day, h, 0, 0, 0, time.UTC)
}

type repos struct {
	reservations *repository.ReservationRepository
	resources    *repository.ResourceRepository
}

func setup(t *testing.T) repos {
	t.Helper()
	db := testutil.NewSQLite(t)
	return repos{
		reservations: repository.NewReservationRepository(db, lock.NewMutex()),
		resources:    repository.NewResourceRepository(db),
	}
}

func (r repos) insert(t *testing.T, tenantID, resourceID int64, start, end time.Time, status domain.ReservationStatus) *domain.Reservation {
	t.Helper()
	res := &domain.Reservation{
		ResourceID:       resourceID,
		CustomerName:     "Dana",
		StartTime:        start,
		EndTime:          end,
		Status:           status,
		Kind:             domain.BookingSpace,
		ResourceSubtotal: decimal.NewFromInt(10),
		GrandTotal:       decimal.NewFromInt(10),
		Metadata:         map[string]any{"source": "test"},
	}
	err := r.reservations.WithResourceLock(context.Background(), tenantID, []int64{resourceID}, func(ctx context.Context, tx repository.ReservationTx) error {
		return tx.Insert(ctx, res)
	})
	require.NoError(t, err)
	require.NotZero(t, res.ID)
	return res
}

func TestWithResourceLock_UnknownResource(t *testing.T) {
	r := setup(t)
	x := testutil.SeedResource(t, r.resources, 1, "X", "10")
	called := false

	err := r.reservations.WithResourceLock(context.Background(), 1, []int64{x.ID, x.ID + 100}, func(context.Context, repository.ReservationTx) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, errclass.ErrNotFound)
	assert.False(t, called)
}

func TestWithResourceLock_OtherTenantsResourceIsNotFound(t *testing.T) {
	r := setup(t)
	x := testutil.SeedResource(t, r.resources, 1, "X", "10")

	err := r.reservations.WithResourceLock(context.Background(), 2, []int64{x.ID}, func(context.Context, repository.ReservationTx) error {
		return nil
	})

	assert.ErrorIs(t, err, errclass.ErrNotFound)
}

func TestWithResourceLock_RejectsEmptyIDs(t *testing.T) {
	r := setup(t)

	err := r.reservations.WithResourceLock(context.Background(), 1, []int64{0, -1}, func(context.Context, repository.ReservationTx) error {
		return nil
	})

	assert.ErrorIs(t, err, errclass.ErrValidation)
}

func TestWithResourceLock_RollsBackOnError(t *testing.T) {
	r := setup(t)
	x := testutil.SeedResource(t, r.resources, 1, "X", "10")
	boom := errors.New("boom")
	var insertedID int64

	err := r.reservations.WithResourceLock(context.Background(), 1, []int64{x.ID}, func(ctx context.Context, tx repository.ReservationTx) error {
		res := &domain.Reservation{
			ResourceID: x.ID, CustomerName: "A", StartTime: hour(4, 10), EndTime: hour(4, 11),
			Status: domain.ReservationConfirmed, Kind: domain.BookingSpace,
		}
		if err := tx.Insert(ctx, res); err != nil {
			return err
		}
		insertedID = res.ID
		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, err = r.reservations.GetByID(context.Background(), 1, insertedID)
	assert.ErrorIs(t, err, errclass.ErrNotFound)
}

func TestWithResourceLock_SurvivesCallerCancellation(t *testing.T) {
	r := setup(t)
	x := testutil.SeedResource(t, r.resources, 1, "X", "10")
	ctx, cancel := context.WithCancel(context.Background())
	var id int64

	err := r.reservations.WithResourceLock(ctx, 1, []int64{x.ID}, func(txCtx context.Context, tx repository.ReservationTx) error {
		cancel()
		res := &domain.Reservation{
			ResourceID: x.ID, CustomerName: "A", StartTime: hour(4, 10), EndTime: hour(4, 11),
			Status: domain.ReservationConfirmed, Kind: domain.BookingSpace,
		}
		if err := tx.Insert(txCtx, res); err != nil {
			return err
		}
		id = res.ID
		return nil
	})

	require.NoError(t, err)
	got, err := r.reservations.GetByID(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Equal(t, "A", got.CustomerName)
}

func TestReservationTx_Overlapping(t *testing.T) {
	r := setup(t)
	x := testutil.SeedResource(t, r.resources, 1, "X", "10")
	y := testutil.SeedResource(t, r.resources, 1, "Y", "10")
	a := r.insert(t, 1, x.ID, hour(4, 10), hour(4, 12), domain.ReservationConfirmed)
	r.insert(t, 1, x.ID, hour(4, 12), hour(4, 13), domain.ReservationCancelled)
	c := r.insert(t, 1, x.ID, hour(4, 13), hour(4, 14), domain.ReservationPending)
	r.insert(t, 1, y.ID, hour(4, 10), hour(4, 14), domain.ReservationConfirmed)

	ids := func(rows []domain.Reservation) []int64 {
		var out []int64
		for _, row := range rows {
			out = append(out, row.ID)
		}
		return out
	}

	err := r.reservations.WithResourceLock(context.Background(), 1, []int64{x.ID}, func(ctx context.Context, tx repository.ReservationTx) error {
		rows, err := tx.Overlapping(ctx, x.ID, hour(4, 11), hour(4, 14), 0)
		require.NoError(t, err)
		assert.Equal(t, []int64{a.ID, c.ID}, ids(rows))

		rows, err = tx.Overlapping(ctx, x.ID, hour(4, 11), hour(4, 14), a.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{c.ID}, ids(rows))

		rows, err = tx.Overlapping(ctx, x.ID, hour(4, 12), hour(4, 13), 0)
		require.NoError(t, err)
		assert.Empty(t, rows, "touching and cancelled rows do not block")

		_, err = tx.Overlapping(ctx, y.ID, hour(4, 11), hour(4, 14), 0)
		assert.Error(t, err, "y is not locked")
		return nil
	})
	require.NoError(t, err)
}

func TestReservationTx_UpdateAndDelete(t *testing.T) {
	r := setup(t)
	x := testutil.SeedResource(t, r.resources, 1, "X", "10")
	res := r.insert(t, 1, x.ID, hour(4, 10), hour(4, 12), domain.ReservationConfirmed)
	ctx := context.Background()

	err := r.reservations.WithResourceLock(ctx, 1, []int64{x.ID}, func(ctx context.Context, tx repository.ReservationTx) error {
		got, err := tx.Get(ctx, res.ID)
		if err != nil {
			return err
		}
		got.EndTime = hour(4, 13)
		got.GrandTotal = decimal.RequireFromString("30.50")
		got.ProfessionalID = nil
		return tx.Update(ctx, got)
	})
	require.NoError(t, err)

	got, err := r.reservations.GetByID(ctx, 1, res.ID)
	require.NoError(t, err)
	assert.True(t, got.EndTime.Equal(hour(4, 13)))
	assert.Equal(t, "30.50", got.GrandTotal.StringFixed(2))
	assert.Equal(t, "test", got.Metadata["source"])
	assert.Equal(t, int64(1), got.TenantID)

	err = r.reservations.WithResourceLock(ctx, 1, []int64{x.ID}, func(ctx context.Context, tx repository.ReservationTx) error {
		return tx.Delete(ctx, res.ID)
	})
	require.NoError(t, err)

	err = r.reservations.WithResourceLock(ctx, 1, []int64{x.ID}, func(ctx context.Context, tx repository.ReservationTx) error {
		return tx.Delete(ctx, res.ID)
	})
	assert.ErrorIs(t, err, errclass.ErrNotFound)
}

func TestReservationRepository_List(t *testing.T) {
	r := setup(t)
	x := testutil.SeedResource(t, r.resources, 1, "X", "10")
	y := testutil.SeedResource(t, r.resources, 1, "Y", "10")
	z := testutil.SeedResource(t, r.resources, 2, "Z", "10")
	r.insert(t, 1, x.ID, hour(4, 10), hour(4, 11), domain.ReservationConfirmed)
	r.insert(t, 1, x.ID, hour(5, 10), hour(5, 11), domain.ReservationCancelled)
	r.insert(t, 1, x.ID, hour(6, 10), hour(6, 11), domain.ReservationPending)
	r.insert(t, 1, y.ID, hour(5, 10), hour(5, 11), domain.ReservationConfirmed)
	r.insert(t, 2, z.ID, hour(5, 10), hour(5, 11), domain.ReservationConfirmed)
	ctx := context.Background()

	rows, err := r.reservations.List(ctx, repository.ReservationFilter{TenantID: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = r.reservations.List(ctx, repository.ReservationFilter{TenantID: 1, IncludeCancelled: true})
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	rows, err = r.reservations.List(ctx, repository.ReservationFilter{TenantID: 1, ResourceID: x.ID, IncludeCancelled: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].StartTime.Before(rows[1].StartTime))

	from, to := hour(5, 0), hour(6, 0)
	rows, err = r.reservations.List(ctx, repository.ReservationFilter{TenantID: 1, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, y.ID, rows[0].ResourceID)

	rows, err = r.reservations.List(ctx, repository.ReservationFilter{TenantID: 1, Status: domain.ReservationPending})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ReservationPending, rows[0].Status)

	rows, err = r.reservations.List(ctx, repository.ReservationFilter{TenantID: 1, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].StartTime.Day())
}

func TestReservationRepository_ListElapsed(t *testing.T) {
	r := setup(t)
	x := testutil.SeedResource(t, r.resources, 1, "X", "10")
	z := testutil.SeedResource(t, r.resources, 2, "Z", "10")
	old := r.insert(t, 1, x.ID, hour(4, 8), hour(4, 9), domain.ReservationConfirmed)
	other := r.insert(t, 2, z.ID, hour(4, 9), hour(4, 10), domain.ReservationConfirmed)
	r.insert(t, 1, x.ID, hour(4, 9), hour(4, 10), domain.ReservationPending)
	r.insert(t, 1, x.ID, hour(4, 12), hour(4, 13), domain.ReservationConfirmed)

	rows, err := r.reservations.ListElapsed(context.Background(), hour(4, 11), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, old.ID, rows[0].ID)
	assert.Equal(t, other.ID, rows[1].ID)

	rows, err = r.reservations.ListElapsed(context.Background(), hour(4, 11), 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReservationRepository_SetExternalRef(t *testing.T) {
	r := setup(t)
	x := testutil.SeedResource(t, r.resources, 1, "X", "10")
	res := r.insert(t, 1, x.ID, hour(4, 10), hour(4, 11), domain.ReservationConfirmed)
	ctx := context.Background()
	ref := "evt-1"

	require.NoError(t, r.reservations.SetExternalRef(ctx, 1, res.ID, &ref))
	got, err := r.reservations.GetByID(ctx, 1, res.ID)
	require.NoError(t, err)
	require.True(t, got.HasCalendarLink())
	assert.Equal(t, ref, *got.ExternalCalendarRef)

	require.NoError(t, r.reservations.SetExternalRef(ctx, 1, res.ID, nil))
	got, err = r.reservations.GetByID(ctx, 1, res.ID)
	require.NoError(t, err)
	assert.False(t, got.HasCalendarLink())

	assert.ErrorIs(t, r.reservations.SetExternalRef(ctx, 2, res.ID, &ref), errclass.ErrNotFound)
}

func TestReservationTx_UpdateKeepsExternalRef(t *testing.T) {
	r := setup(t)
	x := testutil.SeedResource(t, r.resources, 1, "X", "10")
	res := r.insert(t, 1, x.ID, hour(4, 10), hour(4, 11), domain.ReservationConfirmed)
	ctx := context.Background()

	stale, err := r.reservations.GetByID(ctx, 1, res.ID)
	require.NoError(t, err)
	require.False(t, stale.HasCalendarLink())

	ref := "evt-1"
	require.NoError(t, r.reservations.SetExternalRef(ctx, 1, res.ID, &ref))

	err = r.reservations.WithResourceLock(ctx, 1, []int64{x.ID}, func(ctx context.Context, tx repository.ReservationTx) error {
		stale.CustomerName = "Dana Late"
		return tx.Update(ctx, stale)
	})
	require.NoError(t, err)

	got, err := r.reservations.GetByID(ctx, 1, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana Late", got.CustomerName)
	require.True(t, got.HasCalendarLink())
	assert.Equal(t, ref, *got.ExternalCalendarRef)
}

func TestResourceRepository(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	a := testutil.SeedResource(t, r.resources, 1, "B room", "12.5")
	b := testutil.SeedResource(t, r.resources, 1, "A room", "20")
	testutil.SeedResource(t, r.resources, 2, "Elsewhere", "5")

	got, err := r.resources.GetByID(ctx, 1, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.50", got.Rate.StringFixed(2))
	assert.Equal(t, domain.RateHourly, got.RateKind)

	_, err = r.resources.GetByID(ctx, 2, a.ID)
	assert.ErrorIs(t, err, errclass.ErrNotFound)

	require.NoError(t, r.resources.SetActive(ctx, 1, a.ID, false))
	all, err := r.resources.ListByTenant(ctx, 1, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "ordered by name")

	active, err := r.resources.ListByTenant(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)

	assert.ErrorIs(t, r.resources.SetActive(ctx, 2, a.ID, true), errclass.ErrNotFound)
}
