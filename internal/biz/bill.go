package biz

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BillStatus 账单缴费状态
type BillStatus string

const (
	BillStatusUnpaid  BillStatus = "unpaid"
	BillStatusPartial BillStatus = "partial"
	BillStatusPaid    BillStatus = "paid"
)

// DisplayName 状态中文名称
func (s BillStatus) DisplayName() string {
	switch s {
	case BillStatusPaid:
		return "已缴费"
	case BillStatusPartial:
		return "部分缴费"
	default:
		return "未缴费"
	}
}

// BillRecord 缴费记录（账单）领域对象
type BillRecord struct {
	ID               string
	ResidentID       string
	ChargeItemID     string
	Period           string // 账单周期标签，如 2025-01
	BillingStartDate *time.Time
	BillingEndDate   *time.Time
	BillingMonths    int
	BillingQuantity  decimal.Decimal // 计费数量（天/年/小时/度/月），仅用于展示
	Usage            *decimal.Decimal
	Amount           decimal.Decimal
	PaidMonths       int
	PaidAmount       decimal.Decimal
	PaidQuantity     decimal.Decimal // 按单位缴费累计数量
	Paid             bool
	PaidTime         *time.Time
	Operator         string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// 以下为列表展示的关联信息，写入时忽略
	ResidentName   string
	RoomNo         string
	ChargeItemName string
}

// Status 账单状态：已缴标记优先，其次按已缴金额判断部分缴费
func (b *BillRecord) Status() BillStatus {
	switch {
	case b.Paid:
		return BillStatusPaid
	case b.PaidAmount.IsPositive():
		return BillStatusPartial
	default:
		return BillStatusUnpaid
	}
}

// RemainingMonths 剩余未缴月数
func (b *BillRecord) RemainingMonths() int {
	months := b.BillingMonths
	if months < 1 {
		months = 1
	}
	if remaining := months - b.PaidMonths; remaining > 0 {
		return remaining
	}
	return 0
}

// UnpaidAmount 未缴金额，不小于 0
func (b *BillRecord) UnpaidAmount() decimal.Decimal {
	unpaid := b.Amount.Sub(b.PaidAmount)
	if unpaid.IsNegative() {
		return decimal.Zero
	}
	return unpaid
}

func (b *BillRecord) clone() *BillRecord {
	c := *b
	if b.BillingStartDate != nil {
		t := *b.BillingStartDate
		c.BillingStartDate = &t
	}
	if b.BillingEndDate != nil {
		t := *b.BillingEndDate
		c.BillingEndDate = &t
	}
	if b.PaidTime != nil {
		t := *b.PaidTime
		c.PaidTime = &t
	}
	if b.Usage != nil {
		u := *b.Usage
		c.Usage = &u
	}
	return &c
}

// PaymentTransaction 付款流水，每次缴费追加一条，只增不改
type PaymentTransaction struct {
	ID        string
	BillID    string
	Amount    decimal.Decimal
	PaidTime  time.Time
	Operator  string
	CreatedAt time.Time
}

// RoomKeyword 关键字中解析出的房号片段
type RoomKeyword struct {
	Building string
	Unit     string
	Room     string
	// Pair 为两段数字时的前段，可能是单元也可能是楼栋
	Pair string
}

var digitGroups = regexp.MustCompile(`\d+`)

// ParseRoomKeyword 解析 "楼栋-单元-房号" 或 "单元-房号" 形式的关键字；
// 数字段不是 2 段或 3 段时返回 nil，按普通关键字模糊匹配。
func ParseRoomKeyword(keyword string) *RoomKeyword {
	parts := digitGroups.FindAllString(keyword, -1)
	switch len(parts) {
	case 3:
		return &RoomKeyword{Building: parts[0], Unit: parts[1], Room: parts[2]}
	case 2:
		return &RoomKeyword{Pair: parts[0], Room: parts[1]}
	default:
		return nil
	}
}

// BillFilter 账单查询条件
type BillFilter struct {
	Period       string
	ResidentID   string
	ChargeItemID string
	UnpaidOnly   bool
	Keyword      string
	Page         int
	PageSize     int
}

// Normalize 规范化查询条件
func (f *BillFilter) Normalize() {
	f.Keyword = strings.TrimSpace(f.Keyword)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 500 {
		f.PageSize = 500
	}
}

// BillRepo 账单数据层接口（定义在 biz 层）
type BillRepo interface {
	CreateBill(ctx context.Context, bill *BillRecord) error
	UpdateBill(ctx context.Context, bill *BillRecord) error
	GetBill(ctx context.Context, id string) (*BillRecord, error)
	ListBills(ctx context.Context, filter BillFilter) ([]*BillRecord, int64, error)
	// DeleteBill 删除单个账单，返回是否存在
	DeleteBill(ctx context.Context, id string) (bool, error)
	DeleteBills(ctx context.Context, ids []string) (int64, error)
	ListBillIDsByResident(ctx context.Context, residentID string) ([]string, error)
	CountBillsByChargeItem(ctx context.Context, chargeItemID string) (int64, error)
	FindBill(ctx context.Context, residentID, chargeItemID, period string) (*BillRecord, error)
}

// PaymentTransactionRepo 付款流水数据层接口
type PaymentTransactionRepo interface {
	AppendTransaction(ctx context.Context, txn *PaymentTransaction) error
	ListByBill(ctx context.Context, billID string) ([]*PaymentTransaction, error)
	DeleteByBillIDs(ctx context.Context, billIDs []string) error
}
