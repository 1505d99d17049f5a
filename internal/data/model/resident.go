package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Resident 住户表
type Resident struct {
	ResidentID   string          `gorm:"primaryKey;type:varchar(36)"`
	Building     string          `gorm:"type:varchar(20);not null;uniqueIndex:uk_building_unit_room,priority:1"`
	Unit         string          `gorm:"type:varchar(20);not null;uniqueIndex:uk_building_unit_room,priority:2"`
	RoomNo       string          `gorm:"type:varchar(20);not null;uniqueIndex:uk_building_unit_room,priority:3"`
	Name         string          `gorm:"type:varchar(50);not null"`
	Phone        string          `gorm:"type:varchar(20)"`
	Area         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Identity     string          `gorm:"type:varchar(16)"`
	PropertyType string          `gorm:"type:varchar(16)"`
	MoveInDate   *time.Time
	Status       int       `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Resident) TableName() string {
	return "resident"
}
