package biz

import (
	"context"
	"sort"
	"strings"
	"time"

	billingErrors "property-billing/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
)

// PeriodStats 周期统计（已缴以缴费标记为准）
type PeriodStats struct {
	Period       string          `json:"period"`
	TotalCount   int64           `json:"total_count"`
	PaidCount    int64           `json:"paid_count"`
	UnpaidCount  int64           `json:"unpaid_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	UnpaidAmount decimal.Decimal `json:"unpaid_amount"`
}

// ItemStats 按收费项目汇总
type ItemStats struct {
	ChargeItemID string
	Name         string
	TotalAmount  decimal.Decimal
	PaidAmount   decimal.Decimal
	UnpaidAmount decimal.Decimal
}

// YearStats 年度统计（按账单计费开始日期所在年份）
type YearStats struct {
	Year         int
	TotalAmount  decimal.Decimal
	PaidAmount   decimal.Decimal
	UnpaidAmount decimal.Decimal
	ByItem       []*ItemStats
}

// StatsRepo 统计数据层接口（定义在 biz 层）
type StatsRepo interface {
	// GetPeriodStats 返回总数、已缴数及金额汇总，未缴部分由 UseCase 计算
	GetPeriodStats(ctx context.Context, period string) (*PeriodStats, error)
	// SumByChargeItem 汇总计费开始日期落在 [start, end) 内的账单
	SumByChargeItem(ctx context.Context, start, end time.Time) ([]*ItemStats, error)
}

// StatsUseCase 统计业务逻辑
type StatsUseCase struct {
	repo StatsRepo
	log  *log.Helper
}

// NewStatsUseCase 创建统计 UseCase
func NewStatsUseCase(repo StatsRepo, logger log.Logger) *StatsUseCase {
	return &StatsUseCase{
		repo: repo,
		log:  log.NewHelper(logger),
	}
}

// PeriodStats 获取周期统计
func (uc *StatsUseCase) PeriodStats(ctx context.Context, period string) (*PeriodStats, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		return nil, billingErrors.WithMessage(billingErrors.ErrInvalidArgument, "缴费周期不能为空")
	}
	stats, err := uc.repo.GetPeriodStats(ctx, period)
	if err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	stats.Period = period
	stats.UnpaidCount = stats.TotalCount - stats.PaidCount
	stats.UnpaidAmount = stats.TotalAmount.Sub(stats.PaidAmount)
	return stats, nil
}

// YearStats 获取年度统计，按收费项目总额降序
func (uc *StatsUseCase) YearStats(ctx context.Context, year int) (*YearStats, error) {
	if year < 1 || year > 9999 {
		return nil, billingErrors.WithMessage(billingErrors.ErrInvalidArgument, "年份不合法")
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	items, err := uc.repo.SumByChargeItem(ctx, start, start.AddDate(1, 0, 0))
	if err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}

	stats := &YearStats{Year: year, ByItem: items}
	for _, item := range items {
		if item.Name == "" {
			item.Name = "未知"
		}
		item.UnpaidAmount = item.TotalAmount.Sub(item.PaidAmount)
		stats.TotalAmount = stats.TotalAmount.Add(item.TotalAmount)
		stats.PaidAmount = stats.PaidAmount.Add(item.PaidAmount)
	}
	stats.UnpaidAmount = stats.TotalAmount.Sub(stats.PaidAmount)
	sort.SliceStable(stats.ByItem, func(i, j int) bool {
		return stats.ByItem[i].TotalAmount.GreaterThan(stats.ByItem[j].TotalAmount)
	})
	return stats, nil
}
