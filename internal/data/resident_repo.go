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

// residentRepo 住户相关数据访问
type residentRepo struct {
	data *Data
	log  *log.Helper
}

// NewResidentRepo 创建住户 repo（返回 biz.ResidentRepo 接口）
func NewResidentRepo(data *Data, logger log.Logger) biz.ResidentRepo {
	return &residentRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func toResidentModel(r *biz.Resident) *model.Resident {
	return &model.Resident{
		ResidentID:   r.ID,
		Building:     r.Building,
		Unit:         r.Unit,
		RoomNo:       r.RoomNo,
		Name:         r.Name,
		Phone:        r.Phone,
		Area:         r.Area,
		Identity:     r.Identity,
		PropertyType: r.PropertyType,
		MoveInDate:   r.MoveInDate,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toResident(m *model.Resident) *biz.Resident {
	return &biz.Resident{
		ID:           m.ResidentID,
		Building:     m.Building,
		Unit:         m.Unit,
		RoomNo:       m.RoomNo,
		Name:         m.Name,
		Phone:        m.Phone,
		Area:         m.Area,
		Identity:     m.Identity,
		PropertyType: m.PropertyType,
		MoveInDate:   m.MoveInDate,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// CreateResident 创建住户
func (r *residentRepo) CreateResident(ctx context.Context, res *biz.Resident) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	m := toResidentModel(res)
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	res.CreatedAt = m.CreatedAt
	res.UpdatedAt = m.UpdatedAt
	return nil
}

// UpdateResident 更新住户
func (r *residentRepo) UpdateResident(ctx context.Context, res *biz.Resident) error {
	return r.data.DB(ctx).Model(&model.Resident{}).
		Where("resident_id = ?", res.ID).
		Updates(map[string]interface{}{
			"building":      res.Building,
			"unit":          res.Unit,
			"room_no":       res.RoomNo,
			"name":          res.Name,
			"phone":         res.Phone,
			"area":          res.Area,
			"identity":      res.Identity,
			"property_type": res.PropertyType,
			"move_in_date":  res.MoveInDate,
			"status":        res.Status,
		}).Error
}

// GetResident 获取住户，不存在返回 nil
func (r *residentRepo) GetResident(ctx context.Context, id string) (*biz.Resident, error) {
	var m model.Resident
	if err := r.data.DB(ctx).Where("resident_id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toResident(&m), nil
}

// FindResidentByRoom 按楼栋、单元、房号查找住户
func (r *residentRepo) FindResidentByRoom(ctx context.Context, building, unit, roomNo string) (*biz.Resident, error) {
	var m model.Resident
	if err := r.data.DB(ctx).
		Where("building = ? AND unit = ? AND room_no = ?", building, unit, roomNo).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toResident(&m), nil
}

// ListResidents 按房号、姓名、电话模糊搜索
func (r *residentRepo) ListResidents(ctx context.Context, keyword string, activeOnly bool) ([]*biz.Resident, error) {
	query := r.data.DB(ctx).Model(&model.Resident{})
	if activeOnly {
		query = query.Where("status = ?", constants.StatusEnabled)
	}
	if keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("room_no LIKE ? OR name LIKE ? OR phone LIKE ?", like, like, like)
	}
	var list []model.Resident
	if err := query.Order("building ASC, unit ASC, room_no ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	result := make([]*biz.Resident, 0, len(list))
	for i := range list {
		result = append(result, toResident(&list[i]))
	}
	return result, nil
}

// DeleteResident 删除住户
func (r *residentRepo) DeleteResident(ctx context.Context, id string) error {
	return r.data.DB(ctx).Where("resident_id = ?", id).Delete(&model.Resident{}).Error
}
