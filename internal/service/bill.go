package service

import (
	"context"

	"property-billing/internal/biz"

	"github.com/shopspring/decimal"
)

// Bill 账单（缴费记录）
type Bill struct {
	ID               string           `json:"id"`
	ResidentID       string           `json:"resident_id"`
	ResidentName     string           `json:"resident_name"`
	RoomNo           string           `json:"room_no"`
	ChargeItemID     string           `json:"charge_item_id"`
	ChargeItemName   string           `json:"charge_item_name"`
	Period           string           `json:"period"`
	BillingStartDate string           `json:"billing_start_date,omitempty"`
	BillingEndDate   string           `json:"billing_end_date,omitempty"`
	BillingMonths    int              `json:"billing_months"`
	BillingQuantity  decimal.Decimal  `json:"billing_quantity"`
	Usage            *decimal.Decimal `json:"usage,omitempty"`
	Amount           decimal.Decimal  `json:"amount"`
	PaidMonths       int              `json:"paid_months"`
	PaidAmount       decimal.Decimal  `json:"paid_amount"`
	PaidQuantity     decimal.Decimal  `json:"paid_quantity"`
	UnpaidAmount     decimal.Decimal  `json:"unpaid_amount"`
	RemainingMonths  int              `json:"remaining_months"`
	Status           string           `json:"status"`
	StatusName       string           `json:"status_name"`
	PaidTime         string           `json:"paid_time,omitempty"`
	Operator         string           `json:"operator,omitempty"`
}

func toBillReply(b *biz.BillRecord) *Bill {
	status := b.Status()
	return &Bill{
		ID:               b.ID,
		ResidentID:       b.ResidentID,
		ResidentName:     b.ResidentName,
		RoomNo:           b.RoomNo,
		ChargeItemID:     b.ChargeItemID,
		ChargeItemName:   b.ChargeItemName,
		Period:           b.Period,
		BillingStartDate: formatDate(b.BillingStartDate),
		BillingEndDate:   formatDate(b.BillingEndDate),
		BillingMonths:    b.BillingMonths,
		BillingQuantity:  b.BillingQuantity,
		Usage:            b.Usage,
		Amount:           b.Amount,
		PaidMonths:       b.PaidMonths,
		PaidAmount:       b.PaidAmount,
		PaidQuantity:     b.PaidQuantity,
		UnpaidAmount:     b.UnpaidAmount(),
		RemainingMonths:  b.RemainingMonths(),
		Status:           string(status),
		StatusName:       status.DisplayName(),
		PaidTime:         formatTime(b.PaidTime),
		Operator:         b.Operator,
	}
}

// CreateBillRequest 生成账单
type CreateBillRequest struct {
	ResidentID    string           `json:"resident_id" validate:"required"`
	ChargeItemID  string           `json:"charge_item_id" validate:"required"`
	Period        string           `json:"period" validate:"omitempty,datetime=2006-01"`
	StartDate     string           `json:"start_date" validate:"omitempty,billdate"`
	EndDate       string           `json:"end_date" validate:"omitempty,billdate"`
	BillingMonths int              `json:"billing_months" validate:"gte=0"`
	Amount        *decimal.Decimal `json:"amount"`
	ManualAmount  decimal.Decimal  `json:"manual_amount"`
	Usage         *decimal.Decimal `json:"usage"`
}

func (req *CreateBillRequest) toBiz() (biz.BillRequest, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return biz.BillRequest{}, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return biz.BillRequest{}, err
	}
	return biz.BillRequest{
		ResidentID:    req.ResidentID,
		ChargeItemID:  req.ChargeItemID,
		Period:        req.Period,
		StartDate:     start,
		EndDate:       end,
		BillingMonths: req.BillingMonths,
		Amount:        req.Amount,
		ManualAmount:  req.ManualAmount,
		Usage:         req.Usage,
	}, nil
}

// CreateBillsBatchRequest 批量生成账单
type CreateBillsBatchRequest struct {
	Bills []*CreateBillRequest `json:"bills" validate:"required,min=1,max=1000,dive,required"`
}

// BatchReply 批量生成结果
type BatchReply struct {
	Created  []*Bill         `json:"created"`
	Skipped  int             `json:"skipped"`
	Failures []*BatchFailure `json:"failures"`
}

func toBatchReply(result *biz.BatchResult) *BatchReply {
	reply := &BatchReply{
		Created:  make([]*Bill, 0, len(result.Created)),
		Skipped:  result.Skipped,
		Failures: toBatchFailures(result.Failures),
	}
	for _, b := range result.Created {
		reply.Created = append(reply.Created, toBillReply(b))
	}
	return reply
}

// GenerateBillsRequest 按收费项目为住户批量出账，resident_ids 为空时为全部在住住户
type GenerateBillsRequest struct {
	ChargeItemID  string                     `json:"charge_item_id" validate:"required"`
	ResidentIDs   []string                   `json:"resident_ids"`
	Period        string                     `json:"period" validate:"omitempty,datetime=2006-01"`
	StartDate     string                     `json:"start_date" validate:"omitempty,billdate"`
	EndDate       string                     `json:"end_date" validate:"omitempty,billdate"`
	BillingMonths int                        `json:"billing_months" validate:"gte=0"`
	Usage         map[string]decimal.Decimal `json:"usage"`
}

// UpdateBillRequest 修改账单
type UpdateBillRequest struct {
	ID            string           `json:"id" validate:"required"`
	ResidentID    *string          `json:"resident_id" validate:"omitempty,min=1"`
	ChargeItemID  *string          `json:"charge_item_id" validate:"omitempty,min=1"`
	Period        *string          `json:"period" validate:"omitempty,datetime=2006-01"`
	StartDate     *string          `json:"start_date" validate:"omitempty,billdate"`
	EndDate       *string          `json:"end_date" validate:"omitempty,billdate"`
	BillingMonths *int             `json:"billing_months" validate:"omitempty,gte=1"`
	Amount        *decimal.Decimal `json:"amount"`
	Usage         *decimal.Decimal `json:"usage"`
}

// ListBillsRequest 查询账单
type ListBillsRequest struct {
	Period       string `json:"period"`
	ResidentID   string `json:"resident_id"`
	ChargeItemID string `json:"charge_item_id"`
	UnpaidOnly   bool   `json:"unpaid_only"`
	Keyword      string `json:"keyword"`
	Page         int    `json:"page" validate:"gte=0"`
	PageSize     int    `json:"page_size" validate:"gte=0,lte=500"`
}

// ListBillsReply 账单分页列表
type ListBillsReply struct {
	Total int64   `json:"total"`
	Bills []*Bill `json:"bills"`
}

// DeleteBillsRequest 批量删除账单
type DeleteBillsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// DeleteBillsReply 批量删除结果
type DeleteBillsReply struct {
	Deleted  int             `json:"deleted"`
	Failures []*BatchFailure `json:"failures"`
}

// PayRequest 缴费：paid_units 优先，其次 paid_months，都不给时缴清剩余月数
type PayRequest struct {
	ID         string           `json:"id" validate:"required"`
	PaidMonths *int             `json:"paid_months"`
	PaidUnits  *decimal.Decimal `json:"paid_units"`
	Operator   string           `json:"operator" validate:"max=32"`
}

// PaymentTransaction 付款流水
type PaymentTransaction struct {
	ID       string          `json:"id"`
	BillID   string          `json:"bill_id"`
	Amount   decimal.Decimal `json:"amount"`
	PaidTime string          `json:"paid_time"`
	Operator string          `json:"operator"`
}

// ListTransactionsReply 付款流水列表
type ListTransactionsReply struct {
	Transactions []*PaymentTransaction `json:"transactions"`
}

// CreateBill 生成账单
func (s *PropertyService) CreateBill(ctx context.Context, req *CreateBillRequest) (*Bill, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	br, err := req.toBiz()
	if err != nil {
		return nil, err
	}
	bill, err := s.bills.CreateBill(ctx, br)
	if err != nil {
		s.log.WithContext(ctx).Errorf("CreateBill failed: %v", err)
		return nil, err
	}
	return toBillReply(bill), nil
}

// CreateBillsBatch 批量生成账单，单条失败不影响其他条目
func (s *PropertyService) CreateBillsBatch(ctx context.Context, req *CreateBillsBatchRequest) (*BatchReply, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	reqs := make([]biz.BillRequest, 0, len(req.Bills))
	for _, b := range req.Bills {
		br, err := b.toBiz()
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, br)
	}
	result, err := s.bills.CreateBillsBatch(ctx, reqs)
	if err != nil {
		s.log.WithContext(ctx).Errorf("CreateBillsBatch failed: %v", err)
		return nil, err
	}
	return toBatchReply(result), nil
}

// GenerateBills 按收费项目批量出账
func (s *PropertyService) GenerateBills(ctx context.Context, req *GenerateBillsRequest) (*BatchReply, error) {
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
	result, err := s.bills.GenerateBills(ctx, biz.GenerateRequest{
		ChargeItemID:  req.ChargeItemID,
		ResidentIDs:   req.ResidentIDs,
		Period:        req.Period,
		StartDate:     start,
		EndDate:       end,
		BillingMonths: req.BillingMonths,
		Usage:         req.Usage,
	})
	if err != nil {
		s.log.WithContext(ctx).Errorf("GenerateBills failed: %v", err)
		return nil, err
	}
	return toBatchReply(result), nil
}

// UpdateBill 修改账单
func (s *PropertyService) UpdateBill(ctx context.Context, req *UpdateBillRequest) (*Bill, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	patch := biz.BillPatch{
		ResidentID:    req.ResidentID,
		ChargeItemID:  req.ChargeItemID,
		Period:        req.Period,
		BillingMonths: req.BillingMonths,
		Amount:        req.Amount,
		Usage:         req.Usage,
	}
	var err error
	if req.StartDate != nil {
		if patch.StartDate, err = parseDate(*req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if patch.EndDate, err = parseDate(*req.EndDate); err != nil {
			return nil, err
		}
	}
	bill, err := s.bills.UpdateBill(ctx, req.ID, patch)
	if err != nil {
		s.log.WithContext(ctx).Errorf("UpdateBill failed: %v", err)
		return nil, err
	}
	return toBillReply(bill), nil
}

// GetBill 获取账单
func (s *PropertyService) GetBill(ctx context.Context, req *IDRequest) (*Bill, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	bill, err := s.bills.GetBill(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return toBillReply(bill), nil
}

// ListBills 分页查询账单
func (s *PropertyService) ListBills(ctx context.Context, req *ListBillsRequest) (*ListBillsReply, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	list, total, err := s.bills.ListBills(ctx, biz.BillFilter{
		Period:       req.Period,
		ResidentID:   req.ResidentID,
		ChargeItemID: req.ChargeItemID,
		UnpaidOnly:   req.UnpaidOnly,
		Keyword:      req.Keyword,
		Page:         req.Page,
		PageSize:     req.PageSize,
	})
	if err != nil {
		return nil, err
	}
	reply := &ListBillsReply{Total: total, Bills: make([]*Bill, 0, len(list))}
	for _, b := range list {
		reply.Bills = append(reply.Bills, toBillReply(b))
	}
	return reply, nil
}

// DeleteBill 删除账单及其付款流水
func (s *PropertyService) DeleteBill(ctx context.Context, req *IDRequest) (*EmptyReply, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if err := s.bills.DeleteBill(ctx, req.ID); err != nil {
		s.log.WithContext(ctx).Errorf("DeleteBill failed: %v", err)
		return nil, err
	}
	return &EmptyReply{}, nil
}

// DeleteBills 批量删除账单
func (s *PropertyService) DeleteBills(ctx context.Context, req *DeleteBillsRequest) (*DeleteBillsReply, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	deleted, failures, err := s.bills.DeleteBillsBatch(ctx, req.IDs)
	if err != nil {
		s.log.WithContext(ctx).Errorf("DeleteBills failed: %v", err)
		return nil, err
	}
	return &DeleteBillsReply{Deleted: deleted, Failures: toBatchFailures(failures)}, nil
}

// Pay 缴费
func (s *PropertyService) Pay(ctx context.Context, req *PayRequest) (*Bill, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	bill, err := s.bills.ApplyPayment(ctx, req.ID, biz.PaymentRequest{
		PaidMonths: req.PaidMonths,
		PaidUnits:  req.PaidUnits,
		Operator:   req.Operator,
	})
	if err != nil {
		s.log.WithContext(ctx).Warnf("Pay failed: bill_id=%s, error=%v", req.ID, err)
		return nil, err
	}
	return toBillReply(bill), nil
}

// Unpay 取消缴费标记
func (s *PropertyService) Unpay(ctx context.Context, req *IDRequest) (*Bill, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	bill, err := s.bills.MarkUnpaid(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return toBillReply(bill), nil
}

// ListTransactions 账单付款流水
func (s *PropertyService) ListTransactions(ctx context.Context, req *IDRequest) (*ListTransactionsReply, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	txns, err := s.bills.ListTransactions(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	reply := &ListTransactionsReply{Transactions: make([]*PaymentTransaction, 0, len(txns))}
	for _, txn := range txns {
		paidTime := txn.PaidTime
		reply.Transactions = append(reply.Transactions, &PaymentTransaction{
			ID:       txn.ID,
			BillID:   txn.BillID,
			Amount:   txn.Amount,
			PaidTime: formatTime(&paidTime),
			Operator: txn.Operator,
		})
	}
	return reply, nil
}
