package biz

import (
	"context"
	"time"

	"property-billing/internal/constants"
	billingErrors "property-billing/internal/errors"
	"property-billing/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
)

// BillRequest 生成账单请求
type BillRequest struct {
	ResidentID    string
	ChargeItemID  string
	Period        string
	StartDate     *time.Time
	EndDate       *time.Time
	BillingMonths int
	// Amount 为空时由计费器按收费项目和住户面积计算
	Amount       *decimal.Decimal
	ManualAmount decimal.Decimal
	Usage        *decimal.Decimal
}

// BillPatch 账单部分更新，nil 字段保持不变
type BillPatch struct {
	ResidentID    *string
	ChargeItemID  *string
	Period        *string
	StartDate     *time.Time
	EndDate       *time.Time
	BillingMonths *int
	Amount        *decimal.Decimal
	Usage         *decimal.Decimal
}

// BillUseCase 账单与缴费业务逻辑
type BillUseCase struct {
	bills     BillRepo
	items     ChargeItemRepo
	residents ResidentRepo
	txns      PaymentTransactionRepo
	tx        Transaction
	locker    Locker
	conf      *BillingConfig
	log       *log.Helper
	metrics   *metrics.PropertyBillingMetrics
	now       func() time.Time
}

// NewBillUseCase 创建账单 UseCase
func NewBillUseCase(
	bills BillRepo,
	items ChargeItemRepo,
	residents ResidentRepo,
	txns PaymentTransactionRepo,
	tx Transaction,
	locker Locker,
	conf *BillingConfig,
	logger log.Logger,
) *BillUseCase {
	return &BillUseCase{
		bills:     bills,
		items:     items,
		residents: residents,
		txns:      txns,
		tx:        tx,
		locker:    locker,
		conf:      conf,
		log:       log.NewHelper(logger),
		metrics:   metrics.GetMetrics(),
		now:       time.Now,
	}
}

func (uc *BillUseCase) getChargeItem(ctx context.Context, id string) (*ChargeItem, error) {
	item, err := uc.items.GetChargeItem(ctx, id)
	if err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	if item == nil {
		return nil, billingErrors.ErrChargeItemNotFound
	}
	return item, nil
}

func (uc *BillUseCase) getResident(ctx context.Context, id string) (*Resident, error) {
	r, err := uc.residents.GetResident(ctx, id)
	if err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	if r == nil {
		return nil, billingErrors.ErrResidentNotFound
	}
	return r, nil
}

// buildBill 校验请求并计算金额、计费月数与计费数量
func buildBill(req BillRequest, resident *Resident, item *ChargeItem) (*BillRecord, error) {
	period := req.Period
	if period == "" && req.StartDate != nil {
		period = req.StartDate.Format(constants.TimeFormatMonth)
	}
	if period == "" {
		return nil, billingErrors.WithMessage(billingErrors.ErrInvalidArgument, "缴费周期不能为空")
	}
	months := BillingMonths(req.StartDate, req.EndDate, req.BillingMonths)
	params := BillingParams{
		ResidentArea: resident.Area,
		Months:       months,
		ManualAmount: req.ManualAmount,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Usage:        req.Usage,
	}
	amount := CalculateAmount(item, params)
	if req.Amount != nil {
		amount = RoundHalfUp(*req.Amount)
	}
	if amount.IsNegative() {
		return nil, billingErrors.WithMessage(billingErrors.ErrInvalidArgument, "金额不能为负数")
	}
	return &BillRecord{
		ResidentID:       resident.ID,
		ChargeItemID:     item.ID,
		Period:           period,
		BillingStartDate: req.StartDate,
		BillingEndDate:   req.EndDate,
		BillingMonths:    months,
		BillingQuantity:  BillingQuantity(item.BillingUnit(), params),
		Usage:            req.Usage,
		Amount:           amount,
		PaidAmount:       decimal.Zero,
		PaidQuantity:     decimal.Zero,
	}, nil
}

// CreateBill 生成单个账单
func (uc *BillUseCase) CreateBill(ctx context.Context, req BillRequest) (*BillRecord, error) {
	bill, err := uc.createBill(ctx, req, nil)
	if err != nil {
		uc.metrics.BillCreateTotal.WithLabelValues(constants.ResultFailed).Inc()
		return nil, err
	}
	uc.metrics.BillCreateTotal.WithLabelValues(constants.ResultSuccess).Inc()
	return bill, nil
}

// createBill items 非空时作为收费项目缓存使用
func (uc *BillUseCase) createBill(ctx context.Context, req BillRequest, items map[string]*ChargeItem) (*BillRecord, error) {
	var item *ChargeItem
	if items != nil {
		item = items[req.ChargeItemID]
	}
	if item == nil {
		loaded, err := uc.getChargeItem(ctx, req.ChargeItemID)
		if err != nil {
			return nil, err
		}
		item = loaded
		if items != nil {
			items[req.ChargeItemID] = item
		}
	}
	resident, err := uc.getResident(ctx, req.ResidentID)
	if err != nil {
		return nil, err
	}
	bill, err := buildBill(req, resident, item)
	if err != nil {
		return nil, err
	}
	if err := uc.bills.CreateBill(ctx, bill); err != nil {
		uc.log.WithContext(ctx).Errorf("CREATE_BILL_FAILED: resident_id=%s, charge_item_id=%s, error=%v",
			req.ResidentID, req.ChargeItemID, err)
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	uc.log.WithContext(ctx).Infof("CREATE_BILL: id=%s, resident_id=%s, charge_item_id=%s, period=%s, months=%d, amount=%s",
		bill.ID, bill.ResidentID, bill.ChargeItemID, bill.Period, bill.BillingMonths, bill.Amount.String())
	return bill, nil
}

// UpdateBill 修改账单。显式给出计费月数时以其为准，否则按新的起止日期重新计算
func (uc *BillUseCase) UpdateBill(ctx context.Context, id string, patch BillPatch) (*BillRecord, error) {
	bill, err := uc.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.ResidentID != nil {
		if _, err := uc.getResident(ctx, *patch.ResidentID); err != nil {
			return nil, err
		}
		bill.ResidentID = *patch.ResidentID
	}
	if patch.ChargeItemID != nil {
		if _, err := uc.getChargeItem(ctx, *patch.ChargeItemID); err != nil {
			return nil, err
		}
		bill.ChargeItemID = *patch.ChargeItemID
	}
	if patch.Period != nil {
		bill.Period = *patch.Period
	}
	if patch.StartDate != nil {
		start := *patch.StartDate
		bill.BillingStartDate = &start
	}
	if patch.EndDate != nil {
		end := *patch.EndDate
		bill.BillingEndDate = &end
	}
	switch {
	case patch.BillingMonths != nil:
		bill.BillingMonths = *patch.BillingMonths
		if bill.BillingMonths < 1 {
			bill.BillingMonths = 1
		}
	case patch.StartDate != nil && patch.EndDate != nil:
		bill.BillingMonths = BillingMonths(patch.StartDate, patch.EndDate, bill.BillingMonths)
	}
	if patch.Amount != nil {
		if patch.Amount.IsNegative() {
			return nil, billingErrors.WithMessage(billingErrors.ErrInvalidArgument, "金额不能为负数")
		}
		bill.Amount = RoundHalfUp(*patch.Amount)
	}
	if patch.Usage != nil {
		usage := *patch.Usage
		bill.Usage = &usage
	}
	if err := uc.bills.UpdateBill(ctx, bill); err != nil {
		uc.log.WithContext(ctx).Errorf("UPDATE_BILL_FAILED: id=%s, error=%v", id, err)
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	uc.log.WithContext(ctx).Infof("UPDATE_BILL: id=%s", id)
	return bill, nil
}

// ApplyPayment 缴费：按单位或按月累加已缴金额并追加付款流水。
// 账单更新与流水写入在同一事务内；流水写入失败只记录日志，不影响缴费结果。
func (uc *BillUseCase) ApplyPayment(ctx context.Context, billID string, req PaymentRequest) (*BillRecord, error) {
	start := time.Now()
	mode := req.Mode()
	result := constants.ResultSuccess
	defer func() {
		uc.metrics.PaymentApplyTotal.WithLabelValues(mode, result).Inc()
		uc.metrics.PaymentApplyDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	unlock, err := uc.locker.Lock(ctx, constants.RedisKeySettleLock+billID)
	if err != nil {
		result = constants.ResultFailed
		return nil, err
	}
	defer unlock()

	bill, err := uc.GetBill(ctx, billID)
	if err != nil {
		result = constants.ResultFailed
		return nil, err
	}
	item, err := uc.items.GetChargeItem(ctx, bill.ChargeItemID)
	if err != nil {
		result = constants.ResultFailed
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}

	req.Operator = uc.conf.operatorOrDefault(req.Operator)
	settlement, err := ApplyPayment(bill, item, req, uc.now())
	if err != nil {
		result = constants.ResultFailed
		uc.log.WithContext(ctx).Warnf("PAYMENT_REJECTED: bill_id=%s, mode=%s, error=%v", billID, mode, err)
		return nil, err
	}

	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := uc.bills.UpdateBill(ctx, settlement.Bill); err != nil {
			return err
		}
		if err := uc.tx.InTx(ctx, func(ctx context.Context) error {
			return uc.txns.AppendTransaction(ctx, settlement.Transaction)
		}); err != nil {
			uc.metrics.AuditAppendFailed.Inc()
			uc.log.WithContext(ctx).Errorf("APPEND_TRANSACTION_FAILED: bill_id=%s, amount=%s, error=%v",
				billID, settlement.Increment.String(), err)
		}
		return nil
	})
	if err != nil {
		result = constants.ResultFailed
		uc.log.WithContext(ctx).Errorf("APPLY_PAYMENT_FAILED: bill_id=%s, error=%v", billID, err)
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}

	amount, _ := settlement.Increment.Float64()
	uc.metrics.PaymentAmount.WithLabelValues(mode).Add(amount)
	uc.log.WithContext(ctx).Infof("APPLY_PAYMENT: bill_id=%s, mode=%s, increment=%s, paid_amount=%s, paid_months=%d/%d, paid=%t, operator=%s",
		billID, mode, settlement.Increment.String(), settlement.Bill.PaidAmount.String(),
		settlement.Bill.PaidMonths, settlement.Bill.BillingMonths, settlement.Bill.Paid, req.Operator)
	return settlement.Bill, nil
}

// MarkUnpaid 取消缴费标记，已缴金额与流水保留
func (uc *BillUseCase) MarkUnpaid(ctx context.Context, billID string) (*BillRecord, error) {
	unlock, err := uc.locker.Lock(ctx, constants.RedisKeySettleLock+billID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	bill, err := uc.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	updated := MarkUnpaid(bill)
	if err := uc.bills.UpdateBill(ctx, updated); err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	uc.log.WithContext(ctx).Infof("MARK_UNPAID: bill_id=%s, paid_amount=%s", billID, updated.PaidAmount.String())
	return updated, nil
}

// GetBill 获取账单
func (uc *BillUseCase) GetBill(ctx context.Context, id string) (*BillRecord, error) {
	bill, err := uc.bills.GetBill(ctx, id)
	if err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	if bill == nil {
		return nil, billingErrors.ErrBillNotFound
	}
	return bill, nil
}

// ListBills 按条件分页查询账单
func (uc *BillUseCase) ListBills(ctx context.Context, filter BillFilter) ([]*BillRecord, int64, error) {
	filter.Normalize()
	list, total, err := uc.bills.ListBills(ctx, filter)
	if err != nil {
		return nil, 0, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	return list, total, nil
}

// ListTransactions 查询账单的付款流水（按时间正序）
func (uc *BillUseCase) ListTransactions(ctx context.Context, billID string) ([]*PaymentTransaction, error) {
	if _, err := uc.GetBill(ctx, billID); err != nil {
		return nil, err
	}
	list, err := uc.txns.ListByBill(ctx, billID)
	if err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	return list, nil
}

// deleteBill 先删流水再删账单，必须在事务内调用
func (uc *BillUseCase) deleteBill(ctx context.Context, id string) error {
	if err := uc.txns.DeleteByBillIDs(ctx, []string{id}); err != nil {
		return billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	found, err := uc.bills.DeleteBill(ctx, id)
	if err != nil {
		return billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	if !found {
		return billingErrors.ErrBillNotFound
	}
	return nil
}

// DeleteBill 删除账单及其付款流水
func (uc *BillUseCase) DeleteBill(ctx context.Context, id string) error {
	if err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		return uc.deleteBill(ctx, id)
	}); err != nil {
		uc.log.WithContext(ctx).Errorf("DELETE_BILL_FAILED: id=%s, error=%v", id, err)
		return err
	}
	uc.log.WithContext(ctx).Infof("DELETE_BILL: id=%s", id)
	return nil
}
