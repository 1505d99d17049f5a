package biz

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// BillingParams 计费参数
type BillingParams struct {
	ResidentArea decimal.Decimal  // 住户面积，仅 area 类型使用
	Months       int              // 计费月数，无日期或按月计时使用
	ManualAmount decimal.Decimal  // 手动金额，仅 manual 类型使用
	StartDate    *time.Time       // 计费开始日期（含）
	EndDate      *time.Time       // 计费结束日期（含）
	Usage        *decimal.Decimal // 用量，仅按度计使用
}

func (p BillingParams) hasRange() bool {
	return p.StartDate != nil && p.EndDate != nil
}

func (p BillingParams) months() int {
	if p.Months < 1 {
		return 1
	}
	return p.Months
}

// CalculateAmount 计算费用金额（四舍五入到整数元）
// 无法识别的收费类型返回 0，不返回错误，保证展示路径可用。
func CalculateAmount(item *ChargeItem, p BillingParams) decimal.Decimal {
	if item == nil {
		return decimal.Zero
	}
	switch item.ChargeType {
	case ChargeTypeFixed:
		q := BillingQuantity(item.BillingUnit(), p)
		return RoundHalfUp(item.Price.Mul(q))
	case ChargeTypeArea:
		q := BillingQuantity(item.BillingUnit(), p)
		return RoundHalfUp(item.Price.Mul(p.ResidentArea).Mul(q))
	case ChargeTypeManual:
		return RoundHalfUp(p.ManualAmount)
	default:
		return decimal.Zero
	}
}

// BillingQuantity 计算计费数量：天数、年数、小时数、用量或月数
func BillingQuantity(unit BillingUnit, p BillingParams) decimal.Decimal {
	switch unit {
	case UnitDay:
		if p.hasRange() {
			return decimal.NewFromInt(int64(inclusiveDays(*p.StartDate, *p.EndDate)))
		}
		return decimal.NewFromInt(1)
	case UnitYear:
		if p.hasRange() {
			// 只比较年份，12-31 至次年 01-01 也计 1 年
			years := p.EndDate.Year() - p.StartDate.Year()
			if years <= 0 {
				years = 1
			}
			return decimal.NewFromInt(int64(years))
		}
		years := p.months() / 12
		if years < 1 {
			years = 1
		}
		return decimal.NewFromInt(int64(years))
	case UnitHour:
		if p.hasRange() {
			seconds := p.EndDate.Sub(*p.StartDate).Seconds()
			hours := int64(math.Ceil(seconds / 3600))
			if hours < 1 {
				hours = 1
			}
			return decimal.NewFromInt(hours)
		}
		return decimal.NewFromInt(1)
	case UnitDegree:
		if p.Usage != nil {
			return *p.Usage
		}
		return decimal.NewFromInt(int64(p.months()))
	default:
		return decimal.NewFromInt(int64(p.months()))
	}
}

// inclusiveDays 起止日期均计入的天数，倒置或同一天按 1 天
func inclusiveDays(start, end time.Time) int {
	days := int(math.Floor(end.Sub(start).Hours()/24)) + 1
	if days < 1 {
		return 1
	}
	return days
}

// BillingMonths 根据起止日期计算计费月数：
// 月份差 + 1（结束日 >= 开始日时），最少为 1；缺少日期时使用 fallback。
func BillingMonths(start, end *time.Time, fallback int) int {
	if start == nil || end == nil {
		if fallback > 0 {
			return fallback
		}
		return 1
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() >= start.Day() {
		months++
	}
	if months < 1 {
		return 1
	}
	return months
}
