package biz

import (
	"context"
	"time"

	billingErrors "property-billing/internal/errors"

	"github.com/shopspring/decimal"
)

// MeterReadingEvent 抄表消息，由 RocketMQ 投递，按度计的收费项目据此出账
type MeterReadingEvent struct {
	ReadingID    string          `json:"reading_id"`
	ResidentID   string          `json:"resident_id"`
	ChargeItemID string          `json:"charge_item_id"`
	Period       string          `json:"period"`
	StartDate    *time.Time      `json:"start_date,omitempty"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
	Usage        decimal.Decimal `json:"usage"`
	ReadTime     time.Time       `json:"read_time"`
}

// BillRequest 转换为账单请求
func (e *MeterReadingEvent) BillRequest() BillRequest {
	return BillRequest{
		ResidentID:   e.ResidentID,
		ChargeItemID: e.ChargeItemID,
		Period:       e.Period,
		StartDate:    e.StartDate,
		EndDate:      e.EndDate,
		Usage:        decimalPtr(e.Usage),
	}
}

// CreateBillsFromReadings 按抄表消息出账。同一住户、收费项目、周期已有账单的消息跳过，
// 消息重投时不会重复出账。
func (uc *BillUseCase) CreateBillsFromReadings(ctx context.Context, events []*MeterReadingEvent) (*BatchResult, error) {
	skipped := 0
	reqs := make([]BillRequest, 0, len(events))
	for _, e := range events {
		existing, err := uc.bills.FindBill(ctx, e.ResidentID, e.ChargeItemID, e.Period)
		if err != nil {
			return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
		}
		if existing != nil {
			skipped++
			uc.log.WithContext(ctx).Infof("METER_READING_DUPLICATE: reading_id=%s, bill_id=%s", e.ReadingID, existing.ID)
			continue
		}
		reqs = append(reqs, e.BillRequest())
	}
	result, err := uc.CreateBillsBatch(ctx, reqs)
	if result != nil {
		result.Skipped = skipped
	}
	return result, err
}
