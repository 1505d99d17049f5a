package data

import (
	"context"

	"property-billing/internal/biz"
	"property-billing/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// paymentTransactionRepo 付款流水数据访问
type paymentTransactionRepo struct {
	data *Data
	log  *log.Helper
}

// NewPaymentTransactionRepo 创建付款流水 repo（返回 biz.PaymentTransactionRepo 接口）
func NewPaymentTransactionRepo(data *Data, logger log.Logger) biz.PaymentTransactionRepo {
	return &paymentTransactionRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// AppendTransaction 追加一条付款流水
func (r *paymentTransactionRepo) AppendTransaction(ctx context.Context, txn *biz.PaymentTransaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	m := &model.PaymentTransaction{
		TransactionID: txn.ID,
		BillID:        txn.BillID,
		Amount:        txn.Amount,
		PaidTime:      txn.PaidTime,
		Operator:      txn.Operator,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	txn.CreatedAt = m.CreatedAt
	return nil
}

// ListByBill 按时间正序返回账单的付款流水
func (r *paymentTransactionRepo) ListByBill(ctx context.Context, billID string) ([]*biz.PaymentTransaction, error) {
	var list []model.PaymentTransaction
	if err := r.data.DB(ctx).
		Where("bill_id = ?", billID).
		Order("paid_time ASC, created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	result := make([]*biz.PaymentTransaction, 0, len(list))
	for _, m := range list {
		result = append(result, &biz.PaymentTransaction{
			ID:        m.TransactionID,
			BillID:    m.BillID,
			Amount:    m.Amount,
			PaidTime:  m.PaidTime,
			Operator:  m.Operator,
			CreatedAt: m.CreatedAt,
		})
	}
	return result, nil
}

// DeleteByBillIDs 删除账单的全部付款流水
func (r *paymentTransactionRepo) DeleteByBillIDs(ctx context.Context, billIDs []string) error {
	if len(billIDs) == 0 {
		return nil
	}
	return r.data.DB(ctx).Where("bill_id IN ?", billIDs).Delete(&model.PaymentTransaction{}).Error
}
