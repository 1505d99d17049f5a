package biz

import (
	"fmt"
	"time"

	"property-billing/internal/constants"
	billingErrors "property-billing/internal/errors"

	"github.com/shopspring/decimal"
)

// PaymentRequest 缴费请求
//   - PaidUnits 非空：按收费单位缴费（度/天/小时），优先于 PaidMonths
//   - PaidMonths 非空：按月缴费
//   - 均为空：缴清剩余全部月数
type PaymentRequest struct {
	PaidMonths *int
	PaidUnits  *decimal.Decimal
	Operator   string
}

// Mode 返回缴费模式（用于指标与日志）
func (r PaymentRequest) Mode() string {
	if r.PaidUnits != nil {
		return constants.PaymentModeUnits
	}
	return constants.PaymentModeMonths
}

// Settlement 一次缴费的结果：更新后的账单副本与新的付款流水
type Settlement struct {
	Bill        *BillRecord
	Transaction *PaymentTransaction
	Increment   decimal.Decimal
}

// ApplyPayment 将一次缴费应用到账单上。
// 不修改入参 bill，校验失败时原账单的已缴金额与月数保持不变。
func ApplyPayment(bill *BillRecord, item *ChargeItem, req PaymentRequest, now time.Time) (*Settlement, error) {
	if bill == nil {
		return nil, billingErrors.ErrBillNotFound
	}
	if bill.Paid {
		return nil, billingErrors.ErrBillAlreadyPaid
	}

	b := bill.clone()
	var increment decimal.Decimal
	if req.PaidUnits != nil {
		inc, err := applyUnits(b, item, *req.PaidUnits)
		if err != nil {
			return nil, err
		}
		increment = inc
	} else {
		inc, err := applyMonths(b, req.PaidMonths)
		if err != nil {
			return nil, err
		}
		increment = inc
	}

	paidAt := now
	b.PaidTime = &paidAt
	b.Operator = req.Operator

	return &Settlement{
		Bill: b,
		Transaction: &PaymentTransaction{
			BillID:   b.ID,
			Amount:   increment,
			PaidTime: paidAt,
			Operator: req.Operator,
		},
		Increment: increment,
	}, nil
}

// applyUnits 按单位缴费：小时/天向上取整，度支持小数，其余按整月数
func applyUnits(b *BillRecord, item *ChargeItem, paidUnits decimal.Decimal) (decimal.Decimal, error) {
	if !paidUnits.IsPositive() {
		return decimal.Zero, billingErrors.ErrUnitsNotPositive
	}
	unitPrice := decimal.Zero
	unit := UnitMonth
	if item != nil {
		unitPrice = item.Price
		unit = item.BillingUnit()
	}

	units := paidUnits
	if !unit.Fractional() {
		units = paidUnits.Ceil()
	}

	increment := RoundHalfUp(unitPrice.Mul(units))
	b.PaidAmount = b.PaidAmount.Add(increment)
	b.PaidQuantity = b.PaidQuantity.Add(units)
	if b.PaidAmount.GreaterThanOrEqual(b.Amount) {
		b.Paid = true
	}
	return increment, nil
}

// applyMonths 按月缴费：按月均摊总金额，结清的那一期补齐舍入差额
func applyMonths(b *BillRecord, paidMonths *int) (decimal.Decimal, error) {
	billingMonths := b.BillingMonths
	if billingMonths < 1 {
		billingMonths = 1
	}
	remaining := billingMonths - b.PaidMonths

	months := remaining
	if paidMonths != nil {
		months = *paidMonths
	}
	if months > remaining {
		return decimal.Zero, billingErrors.WithMessage(billingErrors.ErrMonthsExceedRemaining,
			fmt.Sprintf("缴费月数不能超过剩余未缴费月数（剩余%d月）", remaining))
	}
	if months <= 0 {
		return decimal.Zero, billingErrors.ErrMonthsNotPositive
	}

	monthly := b.Amount.Div(decimal.NewFromInt(int64(billingMonths)))
	increment := RoundHalfUp(monthly.Mul(decimal.NewFromInt(int64(months))))
	if months == remaining {
		// 结清时以总金额为准，避免逐月舍入后合计与账单金额不一致
		residue := RoundHalfUp(b.Amount).Sub(b.PaidAmount)
		if residue.IsNegative() {
			residue = decimal.Zero
		}
		increment = residue
	}

	b.PaidMonths += months
	b.PaidAmount = b.PaidAmount.Add(increment)
	if b.PaidMonths >= billingMonths {
		b.Paid = true
	}
	return increment, nil
}

// MarkUnpaid 取消已缴费标记。
// 只重置缴费状态、缴费时间与操作员，已缴金额、已缴月数与流水保持不变。
func MarkUnpaid(bill *BillRecord) *BillRecord {
	b := bill.clone()
	b.Paid = false
	b.PaidTime = nil
	b.Operator = ""
	return b
}
