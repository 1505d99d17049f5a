package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	billingErrors "property-billing/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStatsRepo struct {
	period     *PeriodStats
	items      []*ItemStats
	start, end time.Time
}

func (s *stubStatsRepo) GetPeriodStats(_ context.Context, _ string) (*PeriodStats, error) {
	c := *s.period
	return &c, nil
}

func (s *stubStatsRepo) SumByChargeItem(_ context.Context, start, end time.Time) ([]*ItemStats, error) {
	s.start, s.end = start, end
	return s.items, nil
}

func TestPeriodStats(t *testing.T) {
	repo := &stubStatsRepo{period: &PeriodStats{TotalCount: 5, PaidCount: 2, TotalAmount: d("1000"), PaidAmount: d("300")}}
	uc := NewStatsUseCase(repo, log.DefaultLogger)

	stats, err := uc.PeriodStats(context.Background(), " 2025-01 ")
	require.NoError(t, err)
	assert.Equal(t, "2025-01", stats.Period)
	assert.Equal(t, int64(3), stats.UnpaidCount)
	assert.True(t, stats.UnpaidAmount.Equal(d("700")))

	_, err = uc.PeriodStats(context.Background(), "")
	assert.True(t, errors.Is(err, billingErrors.ErrInvalidArgument))
}

func TestYearStatsSortedByTotal(t *testing.T) {
	repo := &stubStatsRepo{items: []*ItemStats{
		{ChargeItemID: "water", Name: "水费", TotalAmount: d("300"), PaidAmount: d("100")},
		{ChargeItemID: "mgmt", Name: "物业费", TotalAmount: d("1200"), PaidAmount: d("1200")},
		{ChargeItemID: "gone", TotalAmount: d("50"), PaidAmount: d("0")},
	}}
	uc := NewStatsUseCase(repo, log.DefaultLogger)

	stats, err := uc.YearStats(context.Background(), 2025)
	require.NoError(t, err)
	assert.True(t, stats.TotalAmount.Equal(d("1550")))
	assert.True(t, stats.PaidAmount.Equal(d("1300")))
	assert.True(t, stats.UnpaidAmount.Equal(d("250")))
	require.Len(t, stats.ByItem, 3)
	assert.Equal(t, "mgmt", stats.ByItem[0].ChargeItemID)
	assert.Equal(t, "water", stats.ByItem[1].ChargeItemID)
	assert.Equal(t, "未知", stats.ByItem[2].Name)
	assert.True(t, stats.ByItem[1].UnpaidAmount.Equal(d("200")))
	assert.Equal(t, 2025, repo.start.Year())
	assert.Equal(t, 2026, repo.end.Year())

	_, err = uc.YearStats(context.Background(), 0)
	assert.True(t, errors.Is(err, billingErrors.ErrInvalidArgument))
}
