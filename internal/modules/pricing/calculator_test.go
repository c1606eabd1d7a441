package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuebook/internal/domain"
	"venuebook/internal/modules/errclass"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSpaceTotal_TwoHours(t *testing.T) {
	start := time.Date(2026, 12, 7, 10, 0, 0, 0, time.UTC)

	total, err := SpaceTotal(d("100"), start, start.Add(2*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, "200.00", total.StringFixed(2))
}

func TestSpaceTotal_FractionalHoursRounded(t *testing.T) {
	start := time.Date(2026, 12, 7, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		rate string
		dur  time.Duration
		want string
	}{
		{"100", 90 * time.Minute, "150.00"},
		{"100", 20 * time.Minute, "33.33"},
		{"45.50", 40 * time.Minute, "30.33"},
		{"15000", 2 * time.Hour, "30000.00"},
		{"0", time.Hour, "0.00"},
		{"100", 900 * time.Millisecond, "0.03"},
	}
	for _, tc := range cases {
		total, err := SpaceTotal(d(tc.rate), start, start.Add(tc.dur))
		require.NoError(t, err)
		assert.Equal(t, tc.want, total.StringFixed(2), "rate=%s dur=%s", tc.rate, tc.dur)
	}
}

func TestSpaceTotal_MatchesRateTimesHours(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for minutes := 15; minutes <= 600; minutes += 35 {
		for _, rate := range []string{"1", "12.34", "99.99", "250"} {
			end := start.Add(time.Duration(minutes) * time.Minute)
			got, err := SpaceTotal(d(rate), start, end)
			require.NoError(t, err)

			want := d(rate).Mul(decimal.NewFromInt(int64(minutes))).Div(decimal.NewFromInt(60)).Round(2)
			assert.True(t, want.Equal(got), "rate=%s minutes=%d want=%s got=%s", rate, minutes, want, got)
		}
	}
}

func TestSpaceTotal_RejectsEmptyInterval(t *testing.T) {
	start := time.Date(2026, 12, 7, 10, 0, 0, 0, time.UTC)

	_, err := SpaceTotal(d("100"), start, start)
	assert.ErrorIs(t, err, errclass.ErrValidation)

	_, err = SpaceTotal(d("100"), start, start.Add(-time.Hour))
	assert.ErrorIs(t, err, errclass.ErrValidation)
}

func TestResourceTotal_FlatRateIgnoresDuration(t *testing.T) {
	res := &domain.Resource{RateKind: domain.RateFlat, Rate: d("80")}
	start := time.Date(2026, 12, 7, 10, 0, 0, 0, time.UTC)

	total, err := ResourceTotal(res, start, start.Add(3*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, "80.00", total.StringFixed(2))
}

func TestComputeOrder_WithTax(t *testing.T) {
	totals := ComputeOrder(OrderInput{
		Items: []domain.OrderItem{
			{Description: "haircut", Quantity: d("1"), UnitPrice: d("40")},
			{Description: "wash", Quantity: d("2"), UnitPrice: d("5.25")},
		},
		Discount:    d("10"),
		TaxRate:     d("0.10"),
		TaxRequired: true,
	})

	assert.Equal(t, "50.50", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "5.05", totals.TaxAmount.StringFixed(2))
	assert.Equal(t, "45.55", totals.Total.StringFixed(2))
}

func TestComputeOrder_TaxNotRequired(t *testing.T) {
	totals := ComputeOrder(OrderInput{
		Items:   []domain.OrderItem{{Quantity: d("3"), UnitPrice: d("10")}},
		TaxRate: d("0.2"),
	})

	assert.True(t, totals.TaxAmount.IsZero())
	assert.Equal(t, "30.00", totals.Total.StringFixed(2))
}

func TestComputeOrder_DiscountExceedingSubtotalIsNegative(t *testing.T) {
	totals := ComputeOrder(OrderInput{
		Items:    []domain.OrderItem{{Quantity: d("1"), UnitPrice: d("50")}},
		Discount: d("100"),
	})

	assert.Equal(t, "-50.00", totals.Total.StringFixed(2))
}
