package service

import (
	"fmt"
	"strings"
	"time"

	"property-billing/internal/biz"
	"property-billing/internal/constants"
	billingErrors "property-billing/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewPropertyService)

// PropertyService 物业计费对外服务，HTTP 路由与消息消费共用
type PropertyService struct {
	items     *biz.ChargeItemUseCase
	residents *biz.ResidentUseCase
	bills     *biz.BillUseCase
	stats     *biz.StatsUseCase
	validate  *validator.Validate
	log       *log.Helper
}

// NewPropertyService 创建 PropertyService
func NewPropertyService(
	items *biz.ChargeItemUseCase,
	residents *biz.ResidentUseCase,
	bills *biz.BillUseCase,
	stats *biz.StatsUseCase,
	logger log.Logger,
) *PropertyService {
	validate := validator.New()
	_ = validate.RegisterValidation("billdate", func(fl validator.FieldLevel) bool {
		_, err := parseDate(fl.Field().String())
		return err == nil
	})
	return &PropertyService{
		items:     items,
		residents: residents,
		bills:     bills,
		stats:     stats,
		validate:  validate,
		log:       log.NewHelper(logger),
	}
}

// check 校验请求，失败时返回参数错误并带上首个字段
func (s *PropertyService) check(req interface{}) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return billingErrors.WithMessage(billingErrors.ErrInvalidArgument,
			fmt.Sprintf("参数 %s 不合法（%s）", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return billingErrors.WithMessage(billingErrors.ErrInvalidArgument, err.Error())
}

var dateLayouts = []string{constants.TimeFormatDate, constants.TimeFormatDateTime, time.RFC3339}

// parseDate 解析 YYYY-MM-DD，可带时分秒（YYYY-MM-DD HH:MM:SS 或 RFC3339），结果统一为 UTC；空串返回 nil
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, billingErrors.WithMessage(billingErrors.ErrInvalidArgument, "日期格式应为 YYYY-MM-DD 或 YYYY-MM-DD HH:MM:SS："+value)
}

// formatDate 零点只输出日期，否则带上时分秒
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 {
		return u.Format(constants.TimeFormatDate)
	}
	return u.Format(constants.TimeFormatDateTime)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// BatchFailure 批量操作失败条目
type BatchFailure struct {
	Index   int    `json:"index"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

func toBatchFailures(failures []biz.BatchFailure) []*BatchFailure {
	list := make([]*BatchFailure, 0, len(failures))
	for _, f := range failures {
		list = append(list, &BatchFailure{Index: f.Index, ID: f.ID, Message: f.Message})
	}
	return list
}

// EmptyReply 无返回内容
type EmptyReply struct{}

// IDRequest 按 ID 操作的请求（路径参数）
type IDRequest struct {
	ID string `json:"id" validate:"required"`
}
