package biz

import (
	"context"
	"strings"
	"time"

	"property-billing/internal/constants"
	billingErrors "property-billing/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
)

// ChargeItem 收费项目领域对象
type ChargeItem struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	ChargeType ChargeType
	Unit       string // 单位文本，如 "元/月"、"元/度"
	Status     int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BillingUnit 解析后的计费粒度
func (c *ChargeItem) BillingUnit() BillingUnit {
	return ParseBillingUnit(c.Unit)
}

// ChargeItemPatch 收费项目部分更新，nil 字段保持不变
type ChargeItemPatch struct {
	Name       *string
	Price      *decimal.Decimal
	ChargeType *ChargeType
	Unit       *string
	Status     *int
}

// ChargeItemRepo 收费项目数据层接口（定义在 biz 层）
type ChargeItemRepo interface {
	CreateChargeItem(ctx context.Context, item *ChargeItem) error
	UpdateChargeItem(ctx context.Context, item *ChargeItem) error
	DeleteChargeItem(ctx context.Context, id string) error
	GetChargeItem(ctx context.Context, id string) (*ChargeItem, error)
	ListChargeItems(ctx context.Context, activeOnly bool) ([]*ChargeItem, error)
}

// QuoteRequest 报价请求：按住户档案或直接参数试算金额
type QuoteRequest struct {
	ChargeItemID string
	ResidentID   string // 可选，给出时使用住户面积
	Params       BillingParams
}

// Quote 试算结果
type Quote struct {
	Amount        decimal.Decimal
	Quantity      decimal.Decimal
	BillingMonths int
	Unit          BillingUnit
}

// ChargeItemUseCase 收费项目业务逻辑
type ChargeItemUseCase struct {
	repo      ChargeItemRepo
	bills     BillRepo
	residents ResidentRepo
	log       *log.Helper
}

// NewChargeItemUseCase 创建收费项目 UseCase
func NewChargeItemUseCase(repo ChargeItemRepo, bills BillRepo, residents ResidentRepo, logger log.Logger) *ChargeItemUseCase {
	return &ChargeItemUseCase{
		repo:      repo,
		bills:     bills,
		residents: residents,
		log:       log.NewHelper(logger),
	}
}

func validateChargeItem(item *ChargeItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return billingErrors.WithMessage(billingErrors.ErrInvalidArgument, "收费项目名称不能为空")
	}
	if !item.ChargeType.Valid() {
		return billingErrors.ErrInvalidChargeType
	}
	if item.Price.IsNegative() {
		return billingErrors.ErrInvalidPrice
	}
	return nil
}

// Create 创建收费项目
func (uc *ChargeItemUseCase) Create(ctx context.Context, item *ChargeItem) (*ChargeItem, error) {
	if item.Unit == "" {
		item.Unit = constants.DefaultChargeUnit
	}
	if item.Status == 0 {
		item.Status = constants.StatusEnabled
	}
	if err := validateChargeItem(item); err != nil {
		return nil, err
	}
	if err := uc.repo.CreateChargeItem(ctx, item); err != nil {
		uc.log.WithContext(ctx).Errorf("failed to create charge item: name=%s, error=%v", item.Name, err)
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	uc.log.WithContext(ctx).Infof("CREATE_CHARGE_ITEM: id=%s, name=%s, type=%s, price=%s",
		item.ID, item.Name, item.ChargeType, item.Price.String())
	return item, nil
}

// Update 更新收费项目
func (uc *ChargeItemUseCase) Update(ctx context.Context, id string, patch ChargeItemPatch) (*ChargeItem, error) {
	item, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	if patch.ChargeType != nil {
		item.ChargeType = *patch.ChargeType
	}
	if patch.Unit != nil {
		item.Unit = *patch.Unit
	}
	if patch.Status != nil {
		item.Status = *patch.Status
	}
	if err := validateChargeItem(item); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateChargeItem(ctx, item); err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	uc.log.WithContext(ctx).Infof("UPDATE_CHARGE_ITEM: id=%s", id)
	return item, nil
}

// Delete 删除收费项目，存在账单引用时拒绝
func (uc *ChargeItemUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.Get(ctx, id); err != nil {
		return err
	}
	count, err := uc.bills.CountBillsByChargeItem(ctx, id)
	if err != nil {
		return billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	if count > 0 {
		return billingErrors.ErrChargeItemInUse
	}
	if err := uc.repo.DeleteChargeItem(ctx, id); err != nil {
		return billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	uc.log.WithContext(ctx).Infof("DELETE_CHARGE_ITEM: id=%s", id)
	return nil
}

// Get 获取收费项目
func (uc *ChargeItemUseCase) Get(ctx context.Context, id string) (*ChargeItem, error) {
	item, err := uc.repo.GetChargeItem(ctx, id)
	if err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	if item == nil {
		return nil, billingErrors.ErrChargeItemNotFound
	}
	return item, nil
}

// List 列出收费项目
func (uc *ChargeItemUseCase) List(ctx context.Context, activeOnly bool) ([]*ChargeItem, error) {
	items, err := uc.repo.ListChargeItems(ctx, activeOnly)
	if err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	return items, nil
}

// Quote 按已存储的收费项目（和住户）试算金额，不落库
func (uc *ChargeItemUseCase) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	item, err := uc.Get(ctx, req.ChargeItemID)
	if err != nil {
		return nil, err
	}
	params := req.Params
	if req.ResidentID != "" {
		resident, err := uc.residents.GetResident(ctx, req.ResidentID)
		if err != nil {
			return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
		}
		if resident == nil {
			return nil, billingErrors.ErrResidentNotFound
		}
		params.ResidentArea = resident.Area
	}
	params.Months = BillingMonths(params.StartDate, params.EndDate, params.Months)
	return &Quote{
		Amount:        CalculateAmount(item, params),
		Quantity:      BillingQuantity(item.BillingUnit(), params),
		BillingMonths: params.Months,
		Unit:          item.BillingUnit(),
	}, nil
}
