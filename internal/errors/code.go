package errors

import (
	"strconv"

	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// Property Billing 错误码定义
// 错误码格式：SSMMEE (6位数字)
//   SS: 服务标识，物业计费固定为 21
//   MM: 模块标识，按业务划分
//   EE: 模块内错误序号
//
// 模块划分：
//   00: 通用模块
//   01: 收费项目模块
//   02: 住户模块
//   03: 账单模块
//   04: 缴费模块
//   05: 数据访问模块

// MetadataBizCode 业务错误码在 kratos Error metadata 中的 key
const MetadataBizCode = "biz_code"

// 通用模块错误码 (210000-210099)
const (
	// ErrCodeInvalidArgument 参数错误
	ErrCodeInvalidArgument = 210001
	// ErrCodeLockFailed 获取锁失败
	ErrCodeLockFailed = 210002
)

// 收费项目模块错误码 (210100-210199)
const (
	// ErrCodeChargeItemNotFound 收费项目不存在
	ErrCodeChargeItemNotFound = 210101
	// ErrCodeInvalidChargeType 收费类型非法
	ErrCodeInvalidChargeType = 210102
	// ErrCodeInvalidPrice 单价非法
	ErrCodeInvalidPrice = 210103
	// ErrCodeChargeItemInUse 收费项目存在账单，无法删除
	ErrCodeChargeItemInUse = 210104
)

// 住户模块错误码 (210200-210299)
const (
	// ErrCodeResidentNotFound 住户不存在
	ErrCodeResidentNotFound = 210201
	// ErrCodeResidentExists 房号已存在
	ErrCodeResidentExists = 210202
)

// 账单模块错误码 (210300-210399)
const (
	// ErrCodeBillNotFound 缴费记录不存在
	ErrCodeBillNotFound = 210301
)

// 缴费模块错误码 (210400-210499)
const (
	// ErrCodeMonthsExceedRemaining 缴费月数超过剩余月数
	ErrCodeMonthsExceedRemaining = 210401
	// ErrCodeMonthsNotPositive 缴费月数必须大于0
	ErrCodeMonthsNotPositive = 210402
	// ErrCodeUnitsNotPositive 缴费数量必须大于0
	ErrCodeUnitsNotPositive = 210403
	// ErrCodeBillAlreadyPaid 账单已缴清
	ErrCodeBillAlreadyPaid = 210404
)

// 数据访问模块错误码 (210500-210599)
const (
	// ErrCodeStorage 数据库读写失败
	ErrCodeStorage = 210501
)

// 错误原因（kratos Error.Reason），errors.Is 按 HTTP code + reason 匹配
const (
	ReasonInvalidArgument       = "INVALID_ARGUMENT"
	ReasonLockFailed            = "LOCK_FAILED"
	ReasonChargeItemNotFound    = "CHARGE_ITEM_NOT_FOUND"
	ReasonInvalidChargeType     = "INVALID_CHARGE_TYPE"
	ReasonInvalidPrice          = "INVALID_PRICE"
	ReasonChargeItemInUse       = "CHARGE_ITEM_IN_USE"
	ReasonResidentNotFound      = "RESIDENT_NOT_FOUND"
	ReasonResidentExists        = "RESIDENT_EXISTS"
	ReasonBillNotFound          = "BILL_NOT_FOUND"
	ReasonMonthsExceedRemaining = "MONTHS_EXCEED_REMAINING"
	ReasonMonthsNotPositive     = "MONTHS_NOT_POSITIVE"
	ReasonUnitsNotPositive      = "UNITS_NOT_POSITIVE"
	ReasonBillAlreadyPaid       = "BILL_ALREADY_PAID"
	ReasonStorage               = "STORAGE_ERROR"
)

// 可被调用方 errors.Is 捕获的错误
var (
	ErrInvalidArgument       = newError(400, ReasonInvalidArgument, ErrCodeInvalidArgument, "参数错误")
	ErrLockFailed            = newError(409, ReasonLockFailed, ErrCodeLockFailed, "操作正在进行中，请稍后重试")
	ErrChargeItemNotFound    = newError(404, ReasonChargeItemNotFound, ErrCodeChargeItemNotFound, "收费项目不存在")
	ErrInvalidChargeType     = newError(400, ReasonInvalidChargeType, ErrCodeInvalidChargeType, "收费类型必须是 fixed、area 或 manual")
	ErrInvalidPrice          = newError(400, ReasonInvalidPrice, ErrCodeInvalidPrice, "单价不能为负数")
	ErrChargeItemInUse       = newError(409, ReasonChargeItemInUse, ErrCodeChargeItemInUse, "该收费项目有缴费记录，无法删除")
	ErrResidentNotFound      = newError(404, ReasonResidentNotFound, ErrCodeResidentNotFound, "住户不存在")
	ErrResidentExists        = newError(409, ReasonResidentExists, ErrCodeResidentExists, "房号已存在")
	ErrBillNotFound          = newError(404, ReasonBillNotFound, ErrCodeBillNotFound, "缴费记录不存在")
	ErrMonthsExceedRemaining = newError(400, ReasonMonthsExceedRemaining, ErrCodeMonthsExceedRemaining, "缴费月数不能超过剩余未缴费月数")
	ErrMonthsNotPositive     = newError(400, ReasonMonthsNotPositive, ErrCodeMonthsNotPositive, "缴费月数必须大于0")
	ErrUnitsNotPositive      = newError(400, ReasonUnitsNotPositive, ErrCodeUnitsNotPositive, "缴费数量必须大于0")
	ErrBillAlreadyPaid       = newError(400, ReasonBillAlreadyPaid, ErrCodeBillAlreadyPaid, "账单已缴清，不能重复缴费")
	ErrStorage               = newError(500, ReasonStorage, ErrCodeStorage, "数据读写失败")
)

func newError(code int, reason string, bizCode int, message string) *kerrors.Error {
	return kerrors.New(code, reason, message).WithMetadata(map[string]string{
		MetadataBizCode: strconv.Itoa(bizCode),
	})
}

// WithMessage 基于已有错误生成带详细信息的同类错误（仍可被 errors.Is 匹配）
func WithMessage(base *kerrors.Error, message string) *kerrors.Error {
	e := kerrors.Clone(base)
	e.Message = message
	return e
}

// Wrap 将底层错误包装为同类业务错误，保留 cause
func Wrap(base *kerrors.Error, cause error) error {
	if cause == nil {
		return nil
	}
	return kerrors.Clone(base).WithCause(cause)
}

// IsValidation 判断是否为调用方可修正的错误（参数、不存在、冲突）
func IsValidation(err error) bool {
	return kerrors.IsBadRequest(err) || kerrors.IsNotFound(err) || kerrors.IsConflict(err)
}
