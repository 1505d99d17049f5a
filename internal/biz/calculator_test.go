package biz

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, day int) *time.Time {
	t := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.5", "1"},
		{"1.5", "2"},
		{"2.5", "3"},
		{"2.4999", "2"},
		{"56.25", "56"},
		{"88.4", "88"},
		{"-0.5", "-1"},
		{"100", "100"},
	}
	for _, c := range cases {
		got := RoundHalfUp(d(c.in))
		assert.True(t, got.Equal(d(c.want)), "RoundHalfUp(%s) = %s, want %s", c.in, got, c.want)
		assert.True(t, RoundHalfUp(got).Equal(got), "RoundHalfUp not idempotent for %s", c.in)
	}
}

func TestCalculateAmount(t *testing.T) {
	monthly := &ChargeItem{Price: d("200"), ChargeType: ChargeTypeFixed, Unit: "元/月"}
	daily := &ChargeItem{Price: d("10"), ChargeType: ChargeTypeFixed, Unit: "元/日"}
	area := &ChargeItem{Price: d("2"), ChargeType: ChargeTypeArea, Unit: "元/平方米"}
	manual := &ChargeItem{ChargeType: ChargeTypeManual}
	yearly := &ChargeItem{Price: d("1200"), ChargeType: ChargeTypeFixed, Unit: "元/年"}
	hourly := &ChargeItem{Price: d("5"), ChargeType: ChargeTypeFixed, Unit: "元/小时"}
	degree := &ChargeItem{Price: d("1.5"), ChargeType: ChargeTypeFixed, Unit: "元/度"}

	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(150 * time.Minute)

	tests := []struct {
		name   string
		item   *ChargeItem
		params BillingParams
		want   string
	}{
		{"fixed monthly", monthly, BillingParams{Months: 3}, "600"},
		{"daily inclusive range", daily, BillingParams{StartDate: date(2025, 12, 20), EndDate: date(2025, 12, 25)}, "60"},
		{"daily without range", daily, BillingParams{Months: 6}, "10"},
		{"daily inverted range", daily, BillingParams{StartDate: date(2025, 12, 25), EndDate: date(2025, 12, 20)}, "10"},
		{"area monthly", area, BillingParams{ResidentArea: d("60"), Months: 1}, "120"},
		{"area daily", &ChargeItem{Price: d("0.1"), ChargeType: ChargeTypeArea, Unit: "元/日"},
			BillingParams{ResidentArea: d("85.5"), StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 10)}, "86"},
		// "天" 不参与按日计费，按月数计
		{"tian label billed by months", &ChargeItem{Price: d("10"), ChargeType: ChargeTypeFixed, Unit: "元/天"},
			BillingParams{Months: 3, StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 10)}, "30"},
		{"manual passthrough", manual, BillingParams{ManualAmount: d("88.4")}, "88"},
		{"manual half up", manual, BillingParams{ManualAmount: d("88.5")}, "89"},
		{"year by dates", yearly, BillingParams{StartDate: date(2024, 1, 1), EndDate: date(2026, 1, 1)}, "2400"},
		{"year across new year", yearly, BillingParams{StartDate: date(2024, 12, 31), EndDate: date(2025, 1, 1)}, "1200"},
		{"year same year", yearly, BillingParams{StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31)}, "1200"},
		{"year by months", yearly, BillingParams{Months: 25}, "2400"},
		{"year few months", yearly, BillingParams{Months: 3}, "1200"},
		{"hour ceil", hourly, BillingParams{StartDate: &start, EndDate: &end}, "15"},
		{"hour without range", hourly, BillingParams{Months: 4}, "5"},
		{"degree usage", degree, BillingParams{Usage: decimalPtr(d("37.5"))}, "56"},
		{"degree fallback months", degree, BillingParams{Months: 2}, "3"},
		{"zero months clamped", monthly, BillingParams{Months: 0}, "200"},
		{"unknown type", &ChargeItem{Price: d("100"), ChargeType: "other", Unit: "元/月"}, BillingParams{Months: 2}, "0"},
		{"nil item", nil, BillingParams{Months: 2}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateAmount(tt.item, tt.params)
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseBillingUnit(t *testing.T) {
	assert.Equal(t, UnitDay, ParseBillingUnit("元/日"))
	assert.Equal(t, UnitMonth, ParseBillingUnit("元/天"))
	assert.Equal(t, UnitYear, ParseBillingUnit("元/年"))
	assert.Equal(t, UnitHour, ParseBillingUnit("元/小时"))
	assert.Equal(t, UnitHour, ParseBillingUnit("元/时"))
	assert.Equal(t, UnitDegree, ParseBillingUnit("元/度"))
	assert.Equal(t, UnitMonth, ParseBillingUnit("元/月"))
	assert.Equal(t, UnitMonth, ParseBillingUnit("元/平方米"))
	assert.Equal(t, UnitMonth, ParseBillingUnit(""))
	// 日优先于年
	assert.Equal(t, UnitDay, ParseBillingUnit("元/年日"))
	assert.True(t, UnitDegree.Fractional())
	assert.False(t, UnitHour.Fractional())
}

func TestBillingMonths(t *testing.T) {
	assert.Equal(t, 12, BillingMonths(date(2025, 1, 1), date(2025, 12, 31), 0))
	assert.Equal(t, 1, BillingMonths(date(2025, 1, 15), date(2025, 2, 14), 0))
	assert.Equal(t, 2, BillingMonths(date(2025, 1, 15), date(2025, 2, 15), 0))
	assert.Equal(t, 1, BillingMonths(date(2025, 1, 1), date(2025, 1, 1), 0))
	assert.Equal(t, 1, BillingMonths(date(2025, 5, 1), date(2025, 1, 1), 0))
	assert.Equal(t, 13, BillingMonths(date(2024, 12, 1), date(2025, 12, 1), 0))
	assert.Equal(t, 6, BillingMonths(nil, date(2025, 1, 1), 6))
	assert.Equal(t, 1, BillingMonths(nil, nil, 0))
	assert.Equal(t, 1, BillingMonths(nil, nil, -3))
}
