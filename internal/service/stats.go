package service

import (
	"context"

	"property-billing/internal/biz"

	"github.com/shopspring/decimal"
)

// PeriodStatsRequest 周期统计
type PeriodStatsRequest struct {
	Period string `json:"period" validate:"required"`
}

// YearStatsRequest 年度统计
type YearStatsRequest struct {
	Year int `json:"year" validate:"required,gte=1,lte=9999"`
}

// ItemStats 按收费项目汇总
type ItemStats struct {
	ChargeItemID string          `json:"charge_item_id"`
	Name         string          `json:"name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	UnpaidAmount decimal.Decimal `json:"unpaid_amount"`
}

// YearStatsReply 年度统计
type YearStatsReply struct {
	Year         int             `json:"year"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	UnpaidAmount decimal.Decimal `json:"unpaid_amount"`
	ByItem       []*ItemStats    `json:"by_item"`
}

// PeriodStats 周期统计
func (s *PropertyService) PeriodStats(ctx context.Context, req *PeriodStatsRequest) (*biz.PeriodStats, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	return s.stats.PeriodStats(ctx, req.Period)
}

// YearStats 年度统计
func (s *PropertyService) YearStats(ctx context.Context, req *YearStatsRequest) (*YearStatsReply, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	stats, err := s.stats.YearStats(ctx, req.Year)
	if err != nil {
		return nil, err
	}
	reply := &YearStatsReply{
		Year:         stats.Year,
		TotalAmount:  stats.TotalAmount,
		PaidAmount:   stats.PaidAmount,
		UnpaidAmount: stats.UnpaidAmount,
		ByItem:       make([]*ItemStats, 0, len(stats.ByItem)),
	}
	for _, item := range stats.ByItem {
		reply.ByItem = append(reply.ByItem, &ItemStats{
			ChargeItemID: item.ChargeItemID,
			Name:         item.Name,
			TotalAmount:  item.TotalAmount,
			PaidAmount:   item.PaidAmount,
			UnpaidAmount: item.UnpaidAmount,
		})
	}
	return reply, nil
}
