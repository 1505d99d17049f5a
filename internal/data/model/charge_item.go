package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChargeItem 收费项目表
type ChargeItem struct {
	ChargeItemID string          `gorm:"primaryKey;type:varchar(36)"`
	Name         string          `gorm:"type:varchar(100);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ChargeType   string          `gorm:"type:varchar(16);not null"` // fixed/area/manual
	Unit         string          `gorm:"type:varchar(32);not null"` // 元/月、元/度 等
	Status       int             `gorm:"not null;index"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (ChargeItem) TableName() string {
	return "charge_item"
}
