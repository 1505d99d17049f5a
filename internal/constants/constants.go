package constants

// 时间格式常量
const (
	// TimeFormatMonth 月份格式 (YYYY-MM)，同时作为账单周期标签
	TimeFormatMonth = "2006-01"
	// TimeFormatDate 日期格式
	TimeFormatDate = "2006-01-02"
	// TimeFormatDateTime 日期时间格式，按小时计费时使用
	TimeFormatDateTime = "2006-01-02 15:04:05"
)

// Redis Key 前缀常量
const (
	// RedisKeyPeriodStats 周期统计缓存 key 前缀
	RedisKeyPeriodStats = "stats:period:"
	// RedisKeySettleLock 缴费锁 key 前缀
	RedisKeySettleLock = "settle:lock:"
	// RedisKeyGenerateLock 批量生成账单锁 key 前缀
	RedisKeyGenerateLock = "generate:lock:"
)

// 收费项目默认值
const (
	// DefaultChargeUnit 默认单位
	DefaultChargeUnit = "元/月"
)

// 启用状态常量
const (
	// StatusEnabled 启用
	StatusEnabled = 1
	// StatusDisabled 停用
	StatusDisabled = 0
)

// 住户身份与房屋类型
const (
	IdentityOwner  = "owner"
	IdentityRenter = "renter"

	PropertyTypeResidential = "residential"
	PropertyTypeCommercial  = "commercial"
)

// 缴费模式常量（用于指标）
const (
	// PaymentModeUnits 按单位缴费（度/天/小时）
	PaymentModeUnits = "units"
	// PaymentModeMonths 按月缴费
	PaymentModeMonths = "months"
)

// 指标结果常量
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

// 批量操作类型常量（用于指标）
const (
	BatchOperationGenerate = "generate"
	BatchOperationDelete   = "delete"
)
