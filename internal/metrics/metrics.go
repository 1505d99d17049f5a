package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PropertyBillingMetrics 物业计费指标
type PropertyBillingMetrics struct {
	// 账单相关指标
	BillCreateTotal *prometheus.CounterVec // 账单创建总数（按结果）
	BatchItemTotal  *prometheus.CounterVec // 批量操作条目数（按操作、结果）
	BatchDuration   *prometheus.HistogramVec

	// 缴费相关指标
	PaymentApplyTotal    *prometheus.CounterVec   // 缴费次数（按模式、结果）
	PaymentAmount        *prometheus.CounterVec   // 实收金额（按模式）
	PaymentApplyDuration *prometheus.HistogramVec // 缴费耗时
	AuditAppendFailed    prometheus.Counter       // 付款流水写入失败次数

	// 分布式锁相关指标
	LockAcquireTotal    *prometheus.CounterVec // 锁获取总数（按结果）
	LockAcquireDuration prometheus.Histogram   // 锁获取耗时

	// 统计缓存
	StatsCacheTotal *prometheus.CounterVec // 周期统计缓存命中（hit/miss）
}

// NewPropertyBillingMetrics 创建物业计费指标
func NewPropertyBillingMetrics() *PropertyBillingMetrics {
	return &PropertyBillingMetrics{
		BillCreateTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_billing_bill_create_total",
				Help: "Total number of bill creations",
			},
			[]string{"result"},
		),
		BatchItemTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_billing_batch_item_total",
				Help: "Total number of batch items processed",
			},
			[]string{"operation", "result"}, // operation: generate/delete
		),
		BatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "property_billing_batch_duration_seconds",
				Help:    "Duration of batch operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		PaymentApplyTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_billing_payment_apply_total",
				Help: "Total number of payment applications",
			},
			[]string{"mode", "result"}, // mode: units/months
		),
		PaymentAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_billing_payment_amount_total",
				Help: "Total amount received",
			},
			[]string{"mode"},
		),
		PaymentApplyDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "property_billing_payment_apply_duration_seconds",
				Help:    "Duration of payment applications",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		AuditAppendFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "property_billing_audit_append_failed_total",
				Help: "Total number of payment transactions that failed to persist",
			},
		),

		LockAcquireTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_billing_lock_acquire_total",
				Help: "Total number of lock acquisition attempts",
			},
			[]string{"result"},
		),
		LockAcquireDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "property_billing_lock_acquire_duration_seconds",
				Help:    "Duration of lock acquisition",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0}, // 毫秒级
			},
		),

		StatsCacheTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_billing_stats_cache_total",
				Help: "Period statistics cache lookups",
			},
			[]string{"result"}, // result: hit/miss
		),
	}
}

// 全局指标实例
var defaultMetrics *PropertyBillingMetrics

// InitMetrics 初始化全局指标
func InitMetrics() {
	defaultMetrics = NewPropertyBillingMetrics()
}

// GetMetrics 获取全局指标实例
func GetMetrics() *PropertyBillingMetrics {
	if defaultMetrics == nil {
		InitMetrics()
	}
	return defaultMetrics
}
