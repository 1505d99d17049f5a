package data

import (
	"context"
	"encoding/json"
	"time"

	"property-billing/internal/biz"
	"property-billing/internal/conf"
	"property-billing/internal/constants"
	"property-billing/internal/data/model"
	"property-billing/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const defaultStatsCacheTTL = 5 * time.Minute

// statsRepo 统计相关数据访问
type statsRepo struct {
	data    *Data
	ttl     time.Duration
	log     *log.Helper
	metrics *metrics.PropertyBillingMetrics
}

// NewStatsRepo 创建统计 repo（返回 biz.StatsRepo 接口）
func NewStatsRepo(data *Data, c *conf.Bootstrap, logger log.Logger) biz.StatsRepo {
	ttl := defaultStatsCacheTTL
	if c.Billing != nil && c.Billing.StatsCacheTTL.AsDuration() > 0 {
		ttl = c.Billing.StatsCacheTTL.AsDuration()
	}
	return &statsRepo{
		data:    data,
		ttl:     ttl,
		log:     log.NewHelper(logger),
		metrics: metrics.GetMetrics(),
	}
}

type periodAggregate struct {
	TotalCount  int64
	PaidCount   int64
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
}

// GetPeriodStats 周期汇总，启用 Redis 时先查缓存
func (r *statsRepo) GetPeriodStats(ctx context.Context, period string) (*biz.PeriodStats, error) {
	cacheKey := constants.RedisKeyPeriodStats + period
	if r.data.cacheEnabled() {
		cached, err := r.data.rdb.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var stats biz.PeriodStats
			if err := json.Unmarshal(cached, &stats); err == nil {
				r.metrics.StatsCacheTotal.WithLabelValues(constants.ResultHit).Inc()
				return &stats, nil
			}
		} else if err != redis.Nil {
			r.log.WithContext(ctx).Warnf("Failed to read stats cache: key=%s, error=%v", cacheKey, err)
		}
		r.metrics.StatsCacheTotal.WithLabelValues(constants.ResultMiss).Inc()
	}

	// 已缴以缴费标记为准，金额按账单总额统计
	var agg periodAggregate
	if err := r.data.DB(ctx).Model(&model.Bill{}).
		Select("COUNT(*) AS total_count, "+
			"COALESCE(SUM(CASE WHEN paid THEN 1 ELSE 0 END), 0) AS paid_count, "+
			"COALESCE(SUM(amount), 0) AS total_amount, "+
			"COALESCE(SUM(CASE WHEN paid THEN amount ELSE 0 END), 0) AS paid_amount").
		Where("period = ?", period).
		Scan(&agg).Error; err != nil {
		return nil, err
	}
	stats := &biz.PeriodStats{
		Period:      period,
		TotalCount:  agg.TotalCount,
		PaidCount:   agg.PaidCount,
		TotalAmount: agg.TotalAmount,
		PaidAmount:  agg.PaidAmount,
	}

	if r.data.cacheEnabled() {
		if payload, err := json.Marshal(stats); err == nil {
			cacheCtx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
			defer cancel()
			if err := r.data.rdb.Set(cacheCtx, cacheKey, payload, r.ttl).Err(); err != nil {
				r.log.WithContext(ctx).Warnf("Failed to write stats cache: key=%s, error=%v", cacheKey, err)
			}
		}
	}
	return stats, nil
}

type itemAggregate struct {
	ChargeItemID string
	Name         string
	TotalAmount  decimal.Decimal
	PaidAmount   decimal.Decimal
}

// SumByChargeItem 按收费项目汇总计费开始日期落在 [start, end) 内的账单
func (r *statsRepo) SumByChargeItem(ctx context.Context, start, end time.Time) ([]*biz.ItemStats, error) {
	var rows []itemAggregate
	if err := r.data.DB(ctx).Table("bill").
		Select("bill.charge_item_id AS charge_item_id, "+
			"COALESCE(MAX(charge_item.name), '') AS name, "+
			"COALESCE(SUM(bill.amount), 0) AS total_amount, "+
			"COALESCE(SUM(bill.paid_amount), 0) AS paid_amount").
		Joins("LEFT JOIN charge_item ON charge_item.charge_item_id = bill.charge_item_id").
		Where("bill.billing_start_date >= ? AND bill.billing_start_date < ?", start, end).
		Group("bill.charge_item_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*biz.ItemStats, 0, len(rows))
	for _, row := range rows {
		result = append(result, &biz.ItemStats{
			ChargeItemID: row.ChargeItemID,
			Name:         row.Name,
			TotalAmount:  row.TotalAmount,
			PaidAmount:   row.PaidAmount,
		})
	}
	return result, nil
}
