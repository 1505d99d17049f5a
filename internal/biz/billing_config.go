package biz

import (
	"time"

	"property-billing/internal/conf"
)

// BillingConfig 计费配置
type BillingConfig struct {
	DefaultOperator string        // 未指定操作员时记录的名称
	StatsCacheTTL   time.Duration // 周期统计缓存时长
	AutoGenerate    bool          // 是否按月自动生成账单
	AutoGenerateAt  string        // 自动生成的 cron 表达式（含秒）
	ChargeItemIDs   []string      // 自动生成使用的收费项目
}

// NewBillingConfig 从配置创建 BillingConfig
func NewBillingConfig(c *conf.Bootstrap) *BillingConfig {
	config := &BillingConfig{
		DefaultOperator: "admin",         // 默认值
		StatsCacheTTL:   5 * time.Minute, // 默认值
		AutoGenerateAt:  "0 10 0 1 * *",  // 每月1日 00:10
	}
	if c.Billing != nil {
		if c.Billing.DefaultOperator != "" {
			config.DefaultOperator = c.Billing.DefaultOperator
		}
		if ttl := c.Billing.StatsCacheTTL.AsDuration(); ttl > 0 {
			config.StatsCacheTTL = ttl
		}
		if c.Billing.AutoGenerate != nil {
			config.AutoGenerate = c.Billing.AutoGenerate.Enabled
			if c.Billing.AutoGenerate.Cron != "" {
				config.AutoGenerateAt = c.Billing.AutoGenerate.Cron
			}
			config.ChargeItemIDs = append(config.ChargeItemIDs, c.Billing.AutoGenerate.ChargeItemIDs...)
		}
	}
	return config
}

// operatorOrDefault 返回操作员，为空时使用默认操作员
func (c *BillingConfig) operatorOrDefault(operator string) string {
	if operator != "" {
		return operator
	}
	if c == nil {
		return ""
	}
	return c.DefaultOperator
}
