package service

import (
	"context"

	"property-billing/internal/biz"

	"github.com/shopspring/decimal"
)

// ChargeItem 收费项目
type ChargeItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	ChargeType string          `json:"charge_type"`
	TypeName   string          `json:"type_name"`
	Unit       string          `json:"unit"`
	Status     int             `json:"status"`
}

func toChargeItemReply(item *biz.ChargeItem) *ChargeItem {
	return &ChargeItem{
		ID:         item.ID,
		Name:       item.Name,
		Price:      item.Price,
		ChargeType: string(item.ChargeType),
		TypeName:   item.ChargeType.DisplayName(),
		Unit:       item.Unit,
		Status:     item.Status,
	}
}

// CreateChargeItemRequest 创建收费项目，新建项目默认启用
type CreateChargeItemRequest struct {
	Name       string          `json:"name" validate:"required,max=64"`
	Price      decimal.Decimal `json:"price"`
	ChargeType string          `json:"charge_type" validate:"required"`
	Unit       string          `json:"unit" validate:"max=32"`
}

// UpdateChargeItemRequest 更新收费项目，未给出的字段保持不变
type UpdateChargeItemRequest struct {
	ID         string           `json:"id" validate:"required"`
	Name       *string          `json:"name" validate:"omitempty,min=1,max=64"`
	Price      *decimal.Decimal `json:"price"`
	ChargeType *string          `json:"charge_type"`
	Unit       *string          `json:"unit" validate:"omitempty,max=32"`
	Status     *int             `json:"status" validate:"omitempty,oneof=0 1"`
}

// ListChargeItemsRequest 查询收费项目
type ListChargeItemsRequest struct {
	ActiveOnly bool `json:"active_only"`
}

// ListChargeItemsReply 收费项目列表
type ListChargeItemsReply struct {
	Items []*ChargeItem `json:"items"`
}

// QuoteRequest 试算金额
type QuoteRequest struct {
	ChargeItemID string           `json:"id" validate:"required"`
	ResidentID   string           `json:"resident_id"`
	Area         decimal.Decimal  `json:"area"`
	Months       int              `json:"months" validate:"gte=0"`
	ManualAmount decimal.Decimal  `json:"manual_amount"`
	StartDate    string           `json:"start_date" validate:"omitempty,billdate"`
	EndDate      string           `json:"end_date" validate:"omitempty,billdate"`
	Usage        *decimal.Decimal `json:"usage"`
}

// QuoteReply 试算结果
type QuoteReply struct {
	Amount        decimal.Decimal `json:"amount"`
	Quantity      decimal.Decimal `json:"quantity"`
	BillingMonths int             `json:"billing_months"`
	Unit          string          `json:"unit"`
}

// CreateChargeItem 创建收费项目
func (s *PropertyService) CreateChargeItem(ctx context.Context, req *CreateChargeItemRequest) (*ChargeItem, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	item := &biz.ChargeItem{
		Name:       req.Name,
		Price:      req.Price,
		ChargeType: biz.ChargeType(req.ChargeType),
		Unit:       req.Unit,
	}
	created, err := s.items.Create(ctx, item)
	if err != nil {
		s.log.WithContext(ctx).Errorf("CreateChargeItem failed: %v", err)
		return nil, err
	}
	return toChargeItemReply(created), nil
}

// UpdateChargeItem 更新收费项目
func (s *PropertyService) UpdateChargeItem(ctx context.Context, req *UpdateChargeItemRequest) (*ChargeItem, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	patch := biz.ChargeItemPatch{
		Name:   req.Name,
		Price:  req.Price,
		Unit:   req.Unit,
		Status: req.Status,
	}
	if req.ChargeType != nil {
		t := biz.ChargeType(*req.ChargeType)
		patch.ChargeType = &t
	}
	updated, err := s.items.Update(ctx, req.ID, patch)
	if err != nil {
		s.log.WithContext(ctx).Errorf("UpdateChargeItem failed: %v", err)
		return nil, err
	}
	return toChargeItemReply(updated), nil
}

// DeleteChargeItem 删除收费项目
func (s *PropertyService) DeleteChargeItem(ctx context.Context, req *IDRequest) (*EmptyReply, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if err := s.items.Delete(ctx, req.ID); err != nil {
		return nil, err
	}
	return &EmptyReply{}, nil
}

// GetChargeItem 获取收费项目
func (s *PropertyService) GetChargeItem(ctx context.Context, req *IDRequest) (*ChargeItem, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	item, err := s.items.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return toChargeItemReply(item), nil
}

// ListChargeItems 收费项目列表
func (s *PropertyService) ListChargeItems(ctx context.Context, req *ListChargeItemsRequest) (*ListChargeItemsReply, error) {
	items, err := s.items.List(ctx, req.ActiveOnly)
	if err != nil {
		return nil, err
	}
	reply := &ListChargeItemsReply{Items: make([]*ChargeItem, 0, len(items))}
	for _, item := range items {
		reply.Items = append(reply.Items, toChargeItemReply(item))
	}
	return reply, nil
}

// Quote 按收费项目试算金额
func (s *PropertyService) Quote(ctx context.Context, req *QuoteRequest) (*QuoteReply, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	quote, err := s.items.Quote(ctx, biz.QuoteRequest{
		ChargeItemID: req.ChargeItemID,
		ResidentID:   req.ResidentID,
		Params: biz.BillingParams{
			ResidentArea: req.Area,
			Months:       req.Months,
			ManualAmount: req.ManualAmount,
			StartDate:    start,
			EndDate:      end,
			Usage:        req.Usage,
		},
	})
	if err != nil {
		return nil, err
	}
	return &QuoteReply{
		Amount:        quote.Amount,
		Quantity:      quote.Quantity,
		BillingMonths: quote.BillingMonths,
		Unit:          quote.Unit.String(),
	}, nil
}
