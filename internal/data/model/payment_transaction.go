package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentTransaction 付款流水表（只追加）
type PaymentTransaction struct {
	TransactionID string          `gorm:"primaryKey;type:varchar(36)"`
	BillID        string          `gorm:"type:varchar(36);not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaidTime      time.Time       `gorm:"not null"`
	Operator      string          `gorm:"type:varchar(50)"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (PaymentTransaction) TableName() string {
	return "payment_transaction"
}
