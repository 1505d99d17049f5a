package biz

import (
	"context"
	"errors"
	"time"

	"property-billing/internal/constants"
	billingErrors "property-billing/internal/errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/shopspring/decimal"
)

// BatchFailure 批量操作中失败的条目
type BatchFailure struct {
	Index   int    // 请求中的序号
	ID      string // 账单 ID 或住户 ID
	Message string
	Err     error
}

// BatchResult 批量生成结果
type BatchResult struct {
	Created  []*BillRecord
	Skipped  int // 已存在同周期账单而跳过的住户数
	Failures []BatchFailure
}

// GenerateRequest 按收费项目批量生成账单
type GenerateRequest struct {
	ChargeItemID  string
	ResidentIDs   []string // 为空时为全部在住住户
	Period        string
	StartDate     *time.Time
	EndDate       *time.Time
	BillingMonths int
	Usage         map[string]decimal.Decimal // 按住户给出的用量（按度计）
}

func failureMessage(err error) string {
	if e := kerrors.FromError(err); e != nil && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// CreateBillsBatch 逐条生成账单，每条单独提交，失败继续。
// ctx 取消时停止处理剩余条目，返回已完成部分和 ctx 错误。
func (uc *BillUseCase) CreateBillsBatch(ctx context.Context, reqs []BillRequest) (*BatchResult, error) {
	start := time.Now()
	defer func() {
		uc.metrics.BatchDuration.WithLabelValues(constants.BatchOperationGenerate).Observe(time.Since(start).Seconds())
	}()

	result := &BatchResult{}
	items := make(map[string]*ChargeItem)
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			uc.log.WithContext(ctx).Warnf("CREATE_BILLS_BATCH_CANCELLED: processed=%d, total=%d", i, len(reqs))
			return result, err
		}
		var bill *BillRecord
		err := uc.tx.InTx(ctx, func(ctx context.Context) error {
			created, err := uc.createBill(ctx, req, items)
			bill = created
			return err
		})
		if err != nil {
			result.Failures = append(result.Failures, BatchFailure{Index: i, ID: req.ResidentID, Message: failureMessage(err), Err: err})
			uc.metrics.BatchItemTotal.WithLabelValues(constants.BatchOperationGenerate, constants.ResultFailed).Inc()
			uc.metrics.BillCreateTotal.WithLabelValues(constants.ResultFailed).Inc()
			uc.log.WithContext(ctx).Warnf("CREATE_BILL_BATCH_ITEM_FAILED: index=%d, resident_id=%s, error=%v", i, req.ResidentID, err)
			continue
		}
		result.Created = append(result.Created, bill)
		uc.metrics.BatchItemTotal.WithLabelValues(constants.BatchOperationGenerate, constants.ResultSuccess).Inc()
		uc.metrics.BillCreateTotal.WithLabelValues(constants.ResultSuccess).Inc()
	}
	uc.log.WithContext(ctx).Infof("CREATE_BILLS_BATCH: created=%d, failed=%d", len(result.Created), len(result.Failures))
	return result, nil
}

// GenerateBills 为一批住户（或全部在住住户）按同一收费项目与周期生成账单，
// 已存在同周期账单的住户跳过，重复执行不会重复出账。
func (uc *BillUseCase) GenerateBills(ctx context.Context, req GenerateRequest) (*BatchResult, error) {
	item, err := uc.getChargeItem(ctx, req.ChargeItemID)
	if err != nil {
		return nil, err
	}
	period := req.Period
	if period == "" && req.StartDate != nil {
		period = req.StartDate.Format(constants.TimeFormatMonth)
	}
	if period == "" {
		return nil, billingErrors.WithMessage(billingErrors.ErrInvalidArgument, "缴费周期不能为空")
	}

	unlock, err := uc.locker.Lock(ctx, constants.RedisKeyGenerateLock+item.ID+":"+period)
	if err != nil {
		return nil, err
	}
	defer unlock()

	residentIDs := req.ResidentIDs
	if len(residentIDs) == 0 {
		residents, err := uc.residents.ListResidents(ctx, "", true)
		if err != nil {
			return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
		}
		for _, r := range residents {
			residentIDs = append(residentIDs, r.ID)
		}
	}

	skipped := 0
	reqs := make([]BillRequest, 0, len(residentIDs))
	for _, residentID := range residentIDs {
		existing, err := uc.bills.FindBill(ctx, residentID, item.ID, period)
		if err != nil {
			return nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
		}
		if existing != nil {
			skipped++
			continue
		}
		br := BillRequest{
			ResidentID:    residentID,
			ChargeItemID:  item.ID,
			Period:        period,
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
			BillingMonths: req.BillingMonths,
		}
		if usage, ok := req.Usage[residentID]; ok {
			br.Usage = decimalPtr(usage)
		}
		reqs = append(reqs, br)
	}

	result, err := uc.CreateBillsBatch(ctx, reqs)
	if result != nil {
		result.Skipped = skipped
	}
	uc.log.WithContext(ctx).Infof("GENERATE_BILLS: charge_item_id=%s, period=%s, residents=%d, skipped=%d",
		item.ID, period, len(residentIDs), skipped)
	return result, err
}

// DeleteBillsBatch 批量删除账单：单个事务内逐条删除，每条一个保存点，
// 返回删除数量与失败条目（ID 与原因）。
func (uc *BillUseCase) DeleteBillsBatch(ctx context.Context, ids []string) (int, []BatchFailure, error) {
	start := time.Now()
	defer func() {
		uc.metrics.BatchDuration.WithLabelValues(constants.BatchOperationDelete).Observe(time.Since(start).Seconds())
	}()

	deleted := 0
	var failures []BatchFailure
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		for i, id := range ids {
			err := uc.tx.InTx(ctx, func(ctx context.Context) error {
				return uc.deleteBill(ctx, id)
			})
			if err != nil {
				failures = append(failures, BatchFailure{Index: i, ID: id, Message: failureMessage(err), Err: err})
				uc.metrics.BatchItemTotal.WithLabelValues(constants.BatchOperationDelete, constants.ResultFailed).Inc()
				uc.log.WithContext(ctx).Warnf("DELETE_BILL_BATCH_ITEM_FAILED: id=%s, error=%v", id, err)
				continue
			}
			deleted++
			uc.metrics.BatchItemTotal.WithLabelValues(constants.BatchOperationDelete, constants.ResultSuccess).Inc()
			uc.log.WithContext(ctx).Infof("DELETE_BILL_BATCH_ITEM_SUCCESS: id=%s", id)
		}
		return nil
	})
	if err != nil {
		uc.log.WithContext(ctx).Errorf("DELETE_BILLS_BATCH_FAILED: error=%v", err)
		return 0, nil, billingErrors.Wrap(billingErrors.ErrStorage, err)
	}
	uc.log.WithContext(ctx).Infof("DELETE_BILLS_BATCH: deleted=%d, failed=%d", deleted, len(failures))
	return deleted, failures, nil
}

// GenerateMonthlyBills 为配置的收费项目生成 now 所在月份的账单，计费期为当月1日至月末。
// 单个收费项目失败不影响其他项目，错误合并返回。
func (uc *BillUseCase) GenerateMonthlyBills(ctx context.Context, now time.Time) (map[string]*BatchResult, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	period := start.Format(constants.TimeFormatMonth)

	results := make(map[string]*BatchResult, len(uc.conf.ChargeItemIDs))
	var errs []error
	for _, itemID := range uc.conf.ChargeItemIDs {
		result, err := uc.GenerateBills(ctx, GenerateRequest{
			ChargeItemID:  itemID,
			Period:        period,
			StartDate:     &start,
			EndDate:       &end,
			BillingMonths: 1,
		})
		if result != nil {
			results[itemID] = result
		}
		if err != nil {
			uc.log.WithContext(ctx).Errorf("GENERATE_MONTHLY_BILLS_FAILED: charge_item_id=%s, period=%s, error=%v", itemID, period, err)
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}
