package model

// All 返回需要自动建表的模型
func All() []interface{} {
	return []interface{}{
		&ChargeItem{},
		&Resident{},
		&Bill{},
		&PaymentTransaction{},
	}
}
