package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill 缴费记录表
type Bill struct {
	BillID           string     `gorm:"primaryKey;type:varchar(36)"`
	ResidentID       string     `gorm:"type:varchar(36);not null;index:idx_resident_item_period,priority:1"`
	ChargeItemID     string     `gorm:"type:varchar(36);not null;index:idx_resident_item_period,priority:2;index"`
	Period           string     `gorm:"type:varchar(20);not null;index:idx_resident_item_period,priority:3;index"` // 2025-01
	BillingStartDate *time.Time `gorm:"index"`
	BillingEndDate   *time.Time
	BillingMonths    int                 `gorm:"not null"`
	BillingQuantity  decimal.Decimal     `gorm:"type:decimal(12,3);not null"`
	Usage            decimal.NullDecimal `gorm:"column:usage_value;type:decimal(12,3)"`
	Amount           decimal.Decimal     `gorm:"type:decimal(10,2);not null"`
	PaidMonths       int                 `gorm:"not null"`
	PaidAmount       decimal.Decimal     `gorm:"type:decimal(10,2);not null"`
	PaidQuantity     decimal.Decimal     `gorm:"type:decimal(12,3);not null"`
	Paid             bool                `gorm:"not null;index"`
	PaidTime         *time.Time
	Operator         string    `gorm:"type:varchar(50)"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Bill) TableName() string {
	return "bill"
}
