package biz

import "github.com/shopspring/decimal"

// RoundHalfUp 四舍五入到整数元，0.5 远离零进位（非银行家舍入）
func RoundHalfUp(v decimal.Decimal) decimal.Decimal {
	return v.Round(0)
}

// decimalPtr 便于构造可选数量
func decimalPtr(v decimal.Decimal) *decimal.Decimal {
	return &v
}
