package data

import (
	"context"
	"errors"

	"property-billing/internal/biz"
	"property-billing/internal/constants"
	"property-billing/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// billRepo 账单相关数据访问
type billRepo struct {
	data *Data
	log  *log.Helper
}

// NewBillRepo 创建账单 repo（返回 biz.BillRepo 接口）
func NewBillRepo(data *Data, logger log.Logger) biz.BillRepo {
	return &billRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// billRow 账单及其住户、收费项目名称
type billRow struct {
	model.Bill
	ResidentName   string
	Building       string
	Unit           string
	RoomNo         string
	ChargeItemName string
}

func toBillModel(b *biz.BillRecord) *model.Bill {
	m := &model.Bill{
		BillID:           b.ID,
		ResidentID:       b.ResidentID,
		ChargeItemID:     b.ChargeItemID,
		Period:           b.Period,
		BillingStartDate: b.BillingStartDate,
		BillingEndDate:   b.BillingEndDate,
		BillingMonths:    b.BillingMonths,
		BillingQuantity:  b.BillingQuantity,
		Amount:           b.Amount,
		PaidMonths:       b.PaidMonths,
		PaidAmount:       b.PaidAmount,
		PaidQuantity:     b.PaidQuantity,
		Paid:             b.Paid,
		PaidTime:         b.PaidTime,
		Operator:         b.Operator,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if b.Usage != nil {
		m.Usage = decimal.NewNullDecimal(*b.Usage)
	}
	return m
}

func toBill(m *model.Bill) *biz.BillRecord {
	b := &biz.BillRecord{
		ID:               m.BillID,
		ResidentID:       m.ResidentID,
		ChargeItemID:     m.ChargeItemID,
		Period:           m.Period,
		BillingStartDate: m.BillingStartDate,
		BillingEndDate:   m.BillingEndDate,
		BillingMonths:    m.BillingMonths,
		BillingQuantity:  m.BillingQuantity,
		Amount:           m.Amount,
		PaidMonths:       m.PaidMonths,
		PaidAmount:       m.PaidAmount,
		PaidQuantity:     m.PaidQuantity,
		Paid:             m.Paid,
		PaidTime:         m.PaidTime,
		Operator:         m.Operator,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.Usage.Valid {
		usage := m.Usage.Decimal
		b.Usage = &usage
	}
	return b
}

func (row *billRow) toBill() *biz.BillRecord {
	b := toBill(&row.Bill)
	b.ResidentName = row.ResidentName
	b.RoomNo = (&biz.Resident{Building: row.Building, Unit: row.Unit, RoomNo: row.RoomNo}).FullRoomNo()
	b.ChargeItemName = row.ChargeItemName
	return b
}

// invalidateStats 删除周期统计缓存，事务中延后到提交之后
func (r *billRepo) invalidateStats(ctx context.Context, periods ...string) {
	if !r.data.cacheEnabled() || len(periods) == 0 {
		return
	}
	keys := make([]string, 0, len(periods))
	for _, p := range periods {
		keys = append(keys, constants.RedisKeyPeriodStats+p)
	}
	r.data.afterCommit(ctx, func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer cancel()
		if err := r.data.rdb.Del(cacheCtx, keys...).Err(); err != nil {
			r.log.WithContext(ctx).Warnf("Failed to invalidate stats cache: periods=%v, error=%v", periods, err)
		}
	})
}

// CreateBill 创建账单
func (r *billRepo) CreateBill(ctx context.Context, bill *biz.BillRecord) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	m := toBillModel(bill)
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	bill.CreatedAt = m.CreatedAt
	bill.UpdatedAt = m.UpdatedAt
	r.invalidateStats(ctx, bill.Period)
	return nil
}

// UpdateBill 保存账单全部可变字段
func (r *billRepo) UpdateBill(ctx context.Context, bill *biz.BillRecord) error {
	m := toBillModel(bill)
	var oldPeriods []string
	if err := r.data.DB(ctx).Model(&model.Bill{}).
		Where("bill_id = ?", bill.ID).
		Pluck("period", &oldPeriods).Error; err != nil {
		return err
	}
	if len(oldPeriods) == 0 {
		return gorm.ErrRecordNotFound
	}
	if err := r.data.DB(ctx).Model(&model.Bill{}).
		Where("bill_id = ?", bill.ID).
		Updates(map[string]interface{}{
			"resident_id":        m.ResidentID,
			"charge_item_id":     m.ChargeItemID,
			"period":             m.Period,
			"billing_start_date": m.BillingStartDate,
			"billing_end_date":   m.BillingEndDate,
			"billing_months":     m.BillingMonths,
			"billing_quantity":   m.BillingQuantity,
			"usage_value":        m.Usage,
			"amount":             m.Amount,
			"paid_months":        m.PaidMonths,
			"paid_amount":        m.PaidAmount,
			"paid_quantity":      m.PaidQuantity,
			"paid":               m.Paid,
			"paid_time":          m.PaidTime,
			"operator":           m.Operator,
		}).Error; err != nil {
		return err
	}
	r.invalidateStats(ctx, append(oldPeriods, bill.Period)...)
	return nil
}

const billColumns = "bill.*, " +
	"COALESCE(resident.name, '') AS resident_name, " +
	"COALESCE(resident.building, '') AS building, " +
	"COALESCE(resident.unit, '') AS unit, " +
	"COALESCE(resident.room_no, '') AS room_no, " +
	"COALESCE(charge_item.name, '') AS charge_item_name"

func (r *billRepo) joined(ctx context.Context) *gorm.DB {
	return r.data.DB(ctx).Table("bill").
		Joins("LEFT JOIN resident ON resident.resident_id = bill.resident_id").
		Joins("LEFT JOIN charge_item ON charge_item.charge_item_id = bill.charge_item_id")
}

func applyBillFilter(query *gorm.DB, filter biz.BillFilter) *gorm.DB {
	if filter.Period != "" {
		query = query.Where("bill.period = ?", filter.Period)
	}
	if filter.ResidentID != "" {
		query = query.Where("bill.resident_id = ?", filter.ResidentID)
	}
	if filter.ChargeItemID != "" {
		query = query.Where("bill.charge_item_id = ?", filter.ChargeItemID)
	}
	if filter.UnpaidOnly {
		query = query.Where("bill.paid = ?", false)
	}
	if filter.Keyword == "" {
		return query
	}
	if room := biz.ParseRoomKeyword(filter.Keyword); room != nil {
		roomLike := "%" + room.Room + "%"
		if room.Pair == "" {
			return query.Where("resident.building = ? AND resident.unit = ? AND resident.room_no LIKE ?",
				room.Building, room.Unit, roomLike)
		}
		return query.Where("(resident.unit = ? AND resident.room_no LIKE ?) OR (resident.building = ? AND resident.room_no LIKE ?)",
			room.Pair, roomLike, room.Pair, roomLike)
	}
	like := "%" + filter.Keyword + "%"
	return query.Where("resident.room_no LIKE ? OR resident.name LIKE ? OR resident.phone LIKE ? OR charge_item.name LIKE ?",
		like, like, like, like)
}

// GetBill 获取账单，不存在返回 nil
func (r *billRepo) GetBill(ctx context.Context, id string) (*biz.BillRecord, error) {
	var row billRow
	result := r.joined(ctx).
		Select(billColumns).
		Where("bill.bill_id = ?", id).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return row.toBill(), nil
}

// ListBills 分页查询账单，按周期倒序
func (r *billRepo) ListBills(ctx context.Context, filter biz.BillFilter) ([]*biz.BillRecord, int64, error) {
	var total int64
	if err := applyBillFilter(r.joined(ctx), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []billRow
	if err := applyBillFilter(r.joined(ctx), filter).
		Select(billColumns).
		Order("bill.period DESC, bill.created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	list := make([]*biz.BillRecord, 0, len(rows))
	for i := range rows {
		list = append(list, rows[i].toBill())
	}
	return list, total, nil
}

// DeleteBill 删除单个账单，返回是否存在
func (r *billRepo) DeleteBill(ctx context.Context, id string) (bool, error) {
	var periods []string
	if err := r.data.DB(ctx).Model(&model.Bill{}).Where("bill_id = ?", id).Pluck("period", &periods).Error; err != nil {
		return false, err
	}
	if len(periods) == 0 {
		return false, nil
	}
	if err := r.data.DB(ctx).Where("bill_id = ?", id).Delete(&model.Bill{}).Error; err != nil {
		return false, err
	}
	r.invalidateStats(ctx, periods...)
	return true, nil
}

// DeleteBills 批量删除账单
func (r *billRepo) DeleteBills(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var periods []string
	if err := r.data.DB(ctx).Model(&model.Bill{}).
		Where("bill_id IN ?", ids).
		Distinct("period").
		Pluck("period", &periods).Error; err != nil {
		return 0, err
	}
	result := r.data.DB(ctx).Where("bill_id IN ?", ids).Delete(&model.Bill{})
	if result.Error != nil {
		return 0, result.Error
	}
	r.invalidateStats(ctx, periods...)
	return result.RowsAffected, nil
}

// ListBillIDsByResident 获取住户的全部账单 ID
func (r *billRepo) ListBillIDsByResident(ctx context.Context, residentID string) ([]string, error) {
	var ids []string
	if err := r.data.DB(ctx).Model(&model.Bill{}).
		Where("resident_id = ?", residentID).
		Pluck("bill_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountBillsByChargeItem 统计引用收费项目的账单数
func (r *billRepo) CountBillsByChargeItem(ctx context.Context, chargeItemID string) (int64, error) {
	var count int64
	if err := r.data.DB(ctx).Model(&model.Bill{}).
		Where("charge_item_id = ?", chargeItemID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindBill 查找住户在某收费项目、周期下的账单
func (r *billRepo) FindBill(ctx context.Context, residentID, chargeItemID, period string) (*biz.BillRecord, error) {
	var m model.Bill
	if err := r.data.DB(ctx).
		Where("resident_id = ? AND charge_item_id = ? AND period = ?", residentID, chargeItemID, period).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBill(&m), nil
}
