package data

import (
	"context"
	"errors"

	"property-billing/internal/biz"
	"property-billing/internal/constants"
	"property-billing/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// chargeItemRepo 收费项目相关数据访问
type chargeItemRepo struct {
	data *Data
	log  *log.Helper
}

// NewChargeItemRepo 创建收费项目 repo（返回 biz.ChargeItemRepo 接口）
func NewChargeItemRepo(data *Data, logger log.Logger) biz.ChargeItemRepo {
	return &chargeItemRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func toChargeItemModel(item *biz.ChargeItem) *model.ChargeItem {
	return &model.ChargeItem{
		ChargeItemID: item.ID,
		Name:         item.Name,
		Price:        item.Price,
		ChargeType:   string(item.ChargeType),
		Unit:         item.Unit,
		Status:       item.Status,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func toChargeItem(m *model.ChargeItem) *biz.ChargeItem {
	return &biz.ChargeItem{
		ID:         m.ChargeItemID,
		Name:       m.Name,
		Price:      m.Price,
		ChargeType: biz.ChargeType(m.ChargeType),
		Unit:       m.Unit,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// CreateChargeItem 创建收费项目
func (r *chargeItemRepo) CreateChargeItem(ctx context.Context, item *biz.ChargeItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	m := toChargeItemModel(item)
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	item.CreatedAt = m.CreatedAt
	item.UpdatedAt = m.UpdatedAt
	return nil
}

// UpdateChargeItem 更新收费项目
func (r *chargeItemRepo) UpdateChargeItem(ctx context.Context, item *biz.ChargeItem) error {
	return r.data.DB(ctx).Model(&model.ChargeItem{}).
		Where("charge_item_id = ?", item.ID).
		Updates(map[string]interface{}{
			"name":        item.Name,
			"price":       item.Price,
			"charge_type": string(item.ChargeType),
			"unit":        item.Unit,
			"status":      item.Status,
		}).Error
}

// DeleteChargeItem 删除收费项目
func (r *chargeItemRepo) DeleteChargeItem(ctx context.Context, id string) error {
	return r.data.DB(ctx).Where("charge_item_id = ?", id).Delete(&model.ChargeItem{}).Error
}

// GetChargeItem 获取收费项目，不存在返回 nil
func (r *chargeItemRepo) GetChargeItem(ctx context.Context, id string) (*biz.ChargeItem, error) {
	var m model.ChargeItem
	if err := r.data.DB(ctx).Where("charge_item_id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toChargeItem(&m), nil
}

// ListChargeItems 列出收费项目
func (r *chargeItemRepo) ListChargeItems(ctx context.Context, activeOnly bool) ([]*biz.ChargeItem, error) {
	query := r.data.DB(ctx).Model(&model.ChargeItem{})
	if activeOnly {
		query = query.Where("status = ?", constants.StatusEnabled)
	}
	var list []model.ChargeItem
	if err := query.Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	result := make([]*biz.ChargeItem, 0, len(list))
	for i := range list {
		result = append(result, toChargeItem(&list[i]))
	}
	return result, nil
}
