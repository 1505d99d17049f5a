package service

import (
	"context"

	"property-billing/internal/biz"

	"github.com/shopspring/decimal"
)

// Resident 住户
type Resident struct {
	ID           string          `json:"id"`
	Building     string          `json:"building"`
	Unit         string          `json:"unit"`
	RoomNo       string          `json:"room_no"`
	FullRoomNo   string          `json:"full_room_no"`
	Name         string          `json:"name"`
	Phone        string          `json:"phone"`
	Area         decimal.Decimal `json:"area"`
	Identity     string          `json:"identity"`
	PropertyType string          `json:"property_type"`
	MoveInDate   string          `json:"move_in_date,omitempty"`
	Status       int             `json:"status"`
}

func toResidentReply(r *biz.Resident) *Resident {
	return &Resident{
		ID:           r.ID,
		Building:     r.Building,
		Unit:         r.Unit,
		RoomNo:       r.RoomNo,
		FullRoomNo:   r.FullRoomNo(),
		Name:         r.Name,
		Phone:        r.Phone,
		Area:         r.Area,
		Identity:     r.Identity,
		PropertyType: r.PropertyType,
		MoveInDate:   formatDate(r.MoveInDate),
		Status:       r.Status,
	}
}

// CreateResidentRequest 登记住户
type CreateResidentRequest struct {
	Building     string          `json:"building" validate:"max=16"`
	Unit         string          `json:"unit" validate:"max=16"`
	RoomNo       string          `json:"room_no" validate:"required,max=16"`
	Name         string          `json:"name" validate:"required,max=32"`
	Phone        string          `json:"phone" validate:"omitempty,max=20,numeric"`
	Area         decimal.Decimal `json:"area"`
	Identity     string          `json:"identity" validate:"omitempty,oneof=owner renter"`
	PropertyType string          `json:"property_type" validate:"omitempty,oneof=residential commercial"`
	MoveInDate   string          `json:"move_in_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateResidentRequest 更新住户，未给出的字段保持不变
type UpdateResidentRequest struct {
	ID           string           `json:"id" validate:"required"`
	Building     *string          `json:"building" validate:"omitempty,max=16"`
	Unit         *string          `json:"unit" validate:"omitempty,max=16"`
	RoomNo       *string          `json:"room_no" validate:"omitempty,min=1,max=16"`
	Name         *string          `json:"name" validate:"omitempty,min=1,max=32"`
	Phone        *string          `json:"phone" validate:"omitempty,max=20"`
	Area         *decimal.Decimal `json:"area"`
	Identity     *string          `json:"identity" validate:"omitempty,oneof=owner renter"`
	PropertyType *string          `json:"property_type" validate:"omitempty,oneof=residential commercial"`
	MoveInDate   *string          `json:"move_in_date" validate:"omitempty,datetime=2006-01-02"`
	Status       *int             `json:"status" validate:"omitempty,oneof=0 1"`
}

// SearchResidentsRequest 搜索住户
type SearchResidentsRequest struct {
	Keyword    string `json:"keyword"`
	ActiveOnly bool   `json:"active_only"`
}

// SearchResidentsReply 住户列表
type SearchResidentsReply struct {
	Residents []*Resident `json:"residents"`
}

// CreateResident 登记住户
func (s *PropertyService) CreateResident(ctx context.Context, req *CreateResidentRequest) (*Resident, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	moveIn, err := parseDate(req.MoveInDate)
	if err != nil {
		return nil, err
	}
	created, err := s.residents.Create(ctx, &biz.Resident{
		Building:     req.Building,
		Unit:         req.Unit,
		RoomNo:       req.RoomNo,
		Name:         req.Name,
		Phone:        req.Phone,
		Area:         req.Area,
		Identity:     req.Identity,
		PropertyType: req.PropertyType,
		MoveInDate:   moveIn,
	})
	if err != nil {
		s.log.WithContext(ctx).Errorf("CreateResident failed: %v", err)
		return nil, err
	}
	return toResidentReply(created), nil
}

// UpdateResident 更新住户
func (s *PropertyService) UpdateResident(ctx context.Context, req *UpdateResidentRequest) (*Resident, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	patch := biz.ResidentPatch{
		Building:     req.Building,
		Unit:         req.Unit,
		RoomNo:       req.RoomNo,
		Name:         req.Name,
		Phone:        req.Phone,
		Area:         req.Area,
		Identity:     req.Identity,
		PropertyType: req.PropertyType,
		Status:       req.Status,
	}
	if req.MoveInDate != nil {
		moveIn, err := parseDate(*req.MoveInDate)
		if err != nil {
			return nil, err
		}
		patch.MoveInDate = moveIn
	}
	updated, err := s.residents.Update(ctx, req.ID, patch)
	if err != nil {
		s.log.WithContext(ctx).Errorf("UpdateResident failed: %v", err)
		return nil, err
	}
	return toResidentReply(updated), nil
}

// GetResident 获取住户
func (s *PropertyService) GetResident(ctx context.Context, req *IDRequest) (*Resident, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	r, err := s.residents.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return toResidentReply(r), nil
}

// SearchResidents 搜索住户
func (s *PropertyService) SearchResidents(ctx context.Context, req *SearchResidentsRequest) (*SearchResidentsReply, error) {
	list, err := s.residents.Search(ctx, req.Keyword, req.ActiveOnly)
	if err != nil {
		return nil, err
	}
	reply := &SearchResidentsReply{Residents: make([]*Resident, 0, len(list))}
	for _, r := range list {
		reply.Residents = append(reply.Residents, toResidentReply(r))
	}
	return reply, nil
}

// DeleteResident 删除住户及其账单、付款流水
func (s *PropertyService) DeleteResident(ctx context.Context, req *IDRequest) (*EmptyReply, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if err := s.residents.Delete(ctx, req.ID); err != nil {
		s.log.WithContext(ctx).Errorf("DeleteResident failed: %v", err)
		return nil, err
	}
	return &EmptyReply{}, nil
}
