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

// Resident 住户领域对象
type Resident struct {
	ID           string
	Building     string
	Unit         string
	RoomNo       string
	Name         string
	Phone        string
	Area         decimal.Decimal // 建筑面积（平方米）
	Identity     string          // owner / renter
	PropertyType string          // residential / commercial
	MoveInDate   *time.Time
	Status       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullRoomNo 完整房号，如 "1-2-301"，空的楼栋/单元省略
func (r *Resident) FullRoomNo() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Building, r.Unit, r.RoomNo} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-")
}

// ResidentPatch 住户部分更新
type ResidentPatch struct {
	Building     *string
	Unit         *string
	RoomNo       *string
	Name         *string
	Phone        *string
	Area         *decimal.Decimal
	Identity     *string
	PropertyType *string
	MoveInDate   *time.Time
	Status       *int
}

// ResidentRepo 住户数据层接口（定义在 biz 层）
type ResidentRepo interface {
	CreateResident(ctx context.Context, r *Resident) error
	UpdateResident(ctx context.Context, r *Resident) error
	GetResident(ctx context.Context, id string) (*Resident, error)
	FindResidentByRoom(ctx context.Context, building, unit, roomNo string) (*Resident, error)
	ListResidents(ctx context.Context, keyword string, activeOnly bool) ([]*Resident, error)
	// DeleteResident 删除住户本身，关联账单与流水由调用方在同一事务内先行删除
	DeleteResident(ctx context.Context, id string) error
}

// ResidentUseCase 住户业务逻辑
type ResidentUseCase struct {
	repo  ResidentRepo
	bills BillRepo
	txns  PaymentTransactionRepo
	tx    Transaction
	log   *log.Helper
}

// NewResidentUseCase 创建住户 UseCase
func NewResidentUseCase(repo ResidentRepo, bills BillRepo, txns PaymentTransactionRepo, tx Transaction, logger log.Logger) *ResidentUseCase {
	return &ResidentUseCase{
		repo:  repo,
		bills: bills,
		txns:  txns,
		tx:    tx,
		log:   log.NewHelper(logger),
	}
}

func validateResident(r *Resident) error {
	if strings.TrimSpace(r.RoomNo) == "" {
		return billingErrors.WithMessage(billingErrors.ErrInvalidArgument, "房号不能为空")
	}
	if strings.TrimSpace(r.Name) == "" {
		return billingErrors.WithMessage(billingErrors.ErrInvalidArgument, "住户姓名不能为空")
	}
	if r.Area.IsNegative() {
		return billingErrors.WithMessage(billingErrors.ErrInvalidArgument, "面积不能为负数")
	}
	return nil
}

// ensureRoomAvailable 同一楼栋、单元、房号只能有一个住户
func (uc *ResidentUseCase) ensureRoomAvailable(ctx context.Context, r *Resident) error {
	existing, err := uc.repo.FindResidentByRoom(ctx, r.Building, r.Unit, r.RoomNo)
	if err != nil {
		return billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	if existing != nil && existing.ID != r.ID {
		return billingErrors.ErrResidentExists
	}
	return nil
}

// Create 创建住户
func (uc *ResidentUseCase) Create(ctx context.Context, r *Resident) (*Resident, error) {
	if r.Identity == "" {
		r.Identity = constants.IdentityOwner
	}
	if r.PropertyType == "" {
		r.PropertyType = constants.PropertyTypeResidential
	}
	if r.Status == 0 {
		r.Status = constants.StatusEnabled
	}
	if err := validateResident(r); err != nil {
		return nil, err
	}
	if err := uc.ensureRoomAvailable(ctx, r); err != nil {
		return nil, err
	}
	if err := uc.repo.CreateResident(ctx, r); err != nil {
		uc.log.WithContext(ctx).Errorf("failed to create resident: room=%s, error=%v", r.FullRoomNo(), err)
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	uc.log.WithContext(ctx).Infof("CREATE_RESIDENT: id=%s, room=%s, name=%s", r.ID, r.FullRoomNo(), r.Name)
	return r, nil
}

// Update 更新住户信息
func (uc *ResidentUseCase) Update(ctx context.Context, id string, patch ResidentPatch) (*Resident, error) {
	r, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	roomChanged := false
	if patch.Building != nil {
		roomChanged = roomChanged || *patch.Building != r.Building
		r.Building = *patch.Building
	}
	if patch.Unit != nil {
		roomChanged = roomChanged || *patch.Unit != r.Unit
		r.Unit = *patch.Unit
	}
	if patch.RoomNo != nil {
		roomChanged = roomChanged || *patch.RoomNo != r.RoomNo
		r.RoomNo = *patch.RoomNo
	}
	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.Phone != nil {
		r.Phone = *patch.Phone
	}
	if patch.Area != nil {
		r.Area = *patch.Area
	}
	if patch.Identity != nil {
		r.Identity = *patch.Identity
	}
	if patch.PropertyType != nil {
		r.PropertyType = *patch.PropertyType
	}
	if patch.MoveInDate != nil {
		moveIn := *patch.MoveInDate
		r.MoveInDate = &moveIn
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if err := validateResident(r); err != nil {
		return nil, err
	}
	if roomChanged {
		if err := uc.ensureRoomAvailable(ctx, r); err != nil {
			return nil, err
		}
	}
	if err := uc.repo.UpdateResident(ctx, r); err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	uc.log.WithContext(ctx).Infof("UPDATE_RESIDENT: id=%s, room=%s", r.ID, r.FullRoomNo())
	return r, nil
}

// Get 获取住户
func (uc *ResidentUseCase) Get(ctx context.Context, id string) (*Resident, error) {
	r, err := uc.repo.GetResident(ctx, id)
	if err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	if r == nil {
		return nil, billingErrors.ErrResidentNotFound
	}
	return r, nil
}

// Search 按房号、姓名、电话模糊搜索住户
func (uc *ResidentUseCase) Search(ctx context.Context, keyword string, activeOnly bool) ([]*Resident, error) {
	list, err := uc.repo.ListResidents(ctx, strings.TrimSpace(keyword), activeOnly)
	if err != nil {
		return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	return list, nil
}

// Delete 删除住户，级联删除其付款流水与账单
func (uc *ResidentUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.Get(ctx, id); err != nil {
		return err
	}
	var billCount int64
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		billIDs, err := uc.bills.ListBillIDsByResident(ctx, id)
		if err != nil {
			return err
		}
		if len(billIDs) > 0 {
			if err := uc.txns.DeleteByBillIDs(ctx, billIDs); err != nil {
				return err
			}
			if _, err := uc.bills.DeleteBills(ctx, billIDs); err != nil {
				return err
			}
		}
		billCount = int64(len(billIDs))
		return uc.repo.DeleteResident(ctx, id)
	})
	if err != nil {
		uc.log.WithContext(ctx).Errorf("failed to delete resident: id=%s, error=%v", id, err)
		return billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	uc.log.WithContext(ctx).Infof("DELETE_RESIDENT: id=%s, bills=%d", id, billCount)
	return nil
}
