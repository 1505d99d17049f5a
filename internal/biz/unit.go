package biz

import "strings"

// ChargeType 收费类型
type ChargeType string

const (
	// ChargeTypeFixed 固定单价，按时间/用量单位计
	ChargeTypeFixed ChargeType = "fixed"
	// ChargeTypeArea 单价 × 住户面积 × 时间单位
	ChargeTypeArea ChargeType = "area"
	// ChargeTypeManual 操作员手工录入金额
	ChargeTypeManual ChargeType = "manual"
)

// Valid 是否为合法收费类型
func (t ChargeType) Valid() bool {
	switch t {
	case ChargeTypeFixed, ChargeTypeArea, ChargeTypeManual:
		return true
	}
	return false
}

// DisplayName 收费类型中文名称
func (t ChargeType) DisplayName() string {
	switch t {
	case ChargeTypeFixed:
		return "固定"
	case ChargeTypeArea:
		return "按面积"
	case ChargeTypeManual:
		return "手动"
	}
	return string(t)
}

// BillingUnit 计费粒度，由收费项目的单位文本解析而来
type BillingUnit int

const (
	UnitMonth BillingUnit = iota
	UnitDay
	UnitYear
	UnitHour
	UnitDegree
)

// ParseBillingUnit 按子串优先级解析单位文本，如 "元/日"、"元/年"、"元/小时"、"元/度"；
// 未识别的单位（包括 "元/月"、"元/平方米"、"元/天"）均按月计。
func ParseBillingUnit(label string) BillingUnit {
	unit := strings.ToLower(label)
	switch {
	case strings.Contains(unit, "日"):
		return UnitDay
	case strings.Contains(unit, "年"):
		return UnitYear
	case strings.Contains(unit, "小时"), strings.Contains(unit, "时"):
		return UnitHour
	case strings.Contains(unit, "度"):
		return UnitDegree
	default:
		return UnitMonth
	}
}

// String 返回单位标识
func (u BillingUnit) String() string {
	switch u {
	case UnitDay:
		return "day"
	case UnitYear:
		return "year"
	case UnitHour:
		return "hour"
	case UnitDegree:
		return "degree"
	default:
		return "month"
	}
}

// Fractional 是否允许小数数量（仅按度计）
func (u BillingUnit) Fractional() bool {
	return u == UnitDegree
}
