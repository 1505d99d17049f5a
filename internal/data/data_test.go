package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"property-billing/internal/biz"
	"property-billing/internal/conf"
	"property-billing/internal/data/model"
	billingErrors "property-billing/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	data       *Data
	items      biz.ChargeItemRepo
	residents  biz.ResidentRepo
	bills      biz.BillRepo
	txns       biz.PaymentTransactionRepo
	stats      biz.StatsRepo
	billUC     *biz.BillUseCase
	residentUC *biz.ResidentUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	bc := &conf.Bootstrap{
		Data: &conf.Data{Database: &conf.Data_Database{Driver: "sqlite", Source: ":memory:", AutoMigrate: true}},
	}
	db, err := NewDB(bc)
	require.NoError(t, err)
	rdb, err := NewRedis(bc)
	require.NoError(t, err)
	require.Nil(t, rdb)

	d, cleanup, err := NewData(log.DefaultLogger, db, rdb)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	env := &testEnv{
		data:      d,
		items:     NewChargeItemRepo(d, log.DefaultLogger),
		residents: NewResidentRepo(d, log.DefaultLogger),
		bills:     NewBillRepo(d, log.DefaultLogger),
		txns:      NewPaymentTransactionRepo(d, log.DefaultLogger),
		stats:     NewStatsRepo(d, bc, log.DefaultLogger),
	}
	locker := NewLocker(NewRedsync(rdb), bc, log.DefaultLogger)
	tx := NewTransaction(d)
	env.billUC = biz.NewBillUseCase(env.bills, env.items, env.residents, env.txns, tx, locker,
		biz.NewBillingConfig(bc), log.DefaultLogger)
	env.residentUC = biz.NewResidentUseCase(env.residents, env.bills, env.txns, tx, log.DefaultLogger)
	return env
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func (e *testEnv) seedItem(t *testing.T, name, price string, chargeType biz.ChargeType, unit string) *biz.ChargeItem {
	t.Helper()
	item := &biz.ChargeItem{Name: name, Price: dec(price), ChargeType: chargeType, Unit: unit, Status: 1}
	require.NoError(t, e.items.CreateChargeItem(context.Background(), item))
	return item
}

func (e *testEnv) seedResident(t *testing.T, building, unit, room, name, area string) *biz.Resident {
	t.Helper()
	r := &biz.Resident{Building: building, Unit: unit, RoomNo: room, Name: name, Phone: "1390000" + room, Area: dec(area), Status: 1}
	require.NoError(t, e.residents.CreateResident(context.Background(), r))
	return r
}

func (e *testEnv) seedBill(t *testing.T, resident *biz.Resident, item *biz.ChargeItem, period string, start, end *time.Time) *biz.BillRecord {
	t.Helper()
	bill, err := e.billUC.CreateBill(context.Background(), biz.BillRequest{
		ResidentID: resident.ID, ChargeItemID: item.ID, Period: period, StartDate: start, EndDate: end, BillingMonths: 1,
	})
	require.NoError(t, err)
	return bill
}

func TestBillRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "电费", "1.5", biz.ChargeTypeFixed, "元/度")
	r := env.seedResident(t, "1", "2", "301", "张三", "89.5")

	usage := dec("100")
	bill, err := env.billUC.CreateBill(ctx, biz.BillRequest{
		ResidentID: r.ID, ChargeItemID: item.ID, Period: "2025-01", Usage: &usage,
		StartDate: day(2025, 1, 1), EndDate: day(2025, 1, 31),
	})
	require.NoError(t, err)
	assert.True(t, bill.Amount.Equal(dec("150")))

	stored, err := env.bills.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Amount.Equal(dec("150")))
	require.NotNil(t, stored.Usage)
	assert.True(t, stored.Usage.Equal(dec("100")))
	assert.Equal(t, 1, stored.BillingMonths)
	assert.Equal(t, "张三", stored.ResidentName)
	assert.Equal(t, "1-2-301", stored.RoomNo)
	assert.Equal(t, "电费", stored.ChargeItemName)
	assert.True(t, stored.BillingStartDate.Equal(*day(2025, 1, 1)))

	missing, err := env.bills.GetBill(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestApplyPaymentPersistsBillAndTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "物业费", "100", biz.ChargeTypeFixed, "元/月")
	r := env.seedResident(t, "1", "1", "101", "李四", "60")
	bill, err := env.billUC.CreateBill(ctx, biz.BillRequest{
		ResidentID: r.ID, ChargeItemID: item.ID, Period: "2025-01", StartDate: day(2025, 1, 1), EndDate: day(2025, 12, 31),
	})
	require.NoError(t, err)
	require.Equal(t, 12, bill.BillingMonths)

	months := 1
	for i := 0; i < 12; i++ {
		_, err := env.billUC.ApplyPayment(ctx, bill.ID, biz.PaymentRequest{PaidMonths: &months, Operator: "cashier"})
		require.NoError(t, err)
	}
	stored, err := env.bills.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.True(t, stored.Paid)
	assert.True(t, stored.PaidAmount.Equal(dec("1200")))
	assert.Equal(t, "cashier", stored.Operator)

	txns, err := env.txns.ListByBill(ctx, bill.ID)
	require.NoError(t, err)
	require.Len(t, txns, 12)
	sum := decimal.Zero
	for _, txn := range txns {
		sum = sum.Add(txn.Amount)
	}
	assert.True(t, sum.Equal(stored.PaidAmount))

	_, err = env.billUC.ApplyPayment(ctx, bill.ID, biz.PaymentRequest{PaidMonths: &months})
	assert.True(t, errors.Is(err, billingErrors.ErrBillAlreadyPaid))
}

func TestApplyPaymentSurvivesAuditFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "物业费", "100", biz.ChargeTypeFixed, "元/月")
	r := env.seedResident(t, "1", "1", "101", "李四", "60")
	bill := env.seedBill(t, r, item, "2025-01", nil, nil)

	// 流水表不可用时，保存点回滚，账单更新仍然提交
	require.NoError(t, env.data.db.Migrator().DropTable(&model.PaymentTransaction{}))

	updated, err := env.billUC.ApplyPayment(ctx, bill.ID, biz.PaymentRequest{})
	require.NoError(t, err)
	assert.True(t, updated.Paid)

	stored, err := env.bills.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.True(t, stored.Paid)
	assert.True(t, stored.PaidAmount.Equal(dec("100")))
}

func TestNestedTransactionRollsBackInnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.data.InTx(ctx, func(ctx context.Context) error {
		require.NoError(t, env.items.CreateChargeItem(ctx, &biz.ChargeItem{Name: "outer", ChargeType: biz.ChargeTypeFixed, Unit: "元/月", Status: 1}))
		innerErr := env.data.InTx(ctx, func(ctx context.Context) error {
			require.NoError(t, env.items.CreateChargeItem(ctx, &biz.ChargeItem{Name: "inner", ChargeType: biz.ChargeTypeFixed, Unit: "元/月", Status: 1}))
			return errors.New("inner failed")
		})
		assert.Error(t, innerErr)
		return nil
	})
	require.NoError(t, err)

	items, err := env.items.ListChargeItems(ctx, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "outer", items[0].Name)
}

func TestAfterCommitRunsOnceOuterCommits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var fired []string
	err := env.data.InTx(ctx, func(ctx context.Context) error {
		env.data.afterCommit(ctx, func() { fired = append(fired, "outer") })
		require.NoError(t, env.data.InTx(ctx, func(ctx context.Context) error {
			env.data.afterCommit(ctx, func() { fired = append(fired, "inner") })
			return nil
		}))
		assert.Empty(t, fired, "hooks must wait for the outer commit")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, fired)

	fired = nil
	err = env.data.InTx(ctx, func(ctx context.Context) error {
		env.data.afterCommit(ctx, func() { fired = append(fired, "rolled back") })
		return errors.New("abort")
	})
	assert.Error(t, err)
	assert.Empty(t, fired)

	env.data.afterCommit(ctx, func() { fired = append(fired, "no tx") })
	assert.Equal(t, []string{"no tx"}, fired)
}

func TestDeleteResidentCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "物业费", "100", biz.ChargeTypeFixed, "元/月")
	r := env.seedResident(t, "1", "1", "101", "王五", "60")
	other := env.seedResident(t, "1", "1", "102", "赵六", "60")

	var billIDs []string
	for _, period := range []string{"2025-01", "2025-02"} {
		bill := env.seedBill(t, r, item, period, nil, nil)
		_, err := env.billUC.ApplyPayment(ctx, bill.ID, biz.PaymentRequest{})
		require.NoError(t, err)
		billIDs = append(billIDs, bill.ID)
	}
	kept := env.seedBill(t, other, item, "2025-01", nil, nil)

	require.NoError(t, env.residentUC.Delete(ctx, r.ID))

	for _, id := range billIDs {
		bill, err := env.bills.GetBill(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, bill)
		txns, err := env.txns.ListByBill(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, txns)
	}
	var txnCount int64
	require.NoError(t, env.data.db.Model(&model.PaymentTransaction{}).Count(&txnCount).Error)
	assert.Zero(t, txnCount)

	stillThere, err := env.bills.GetBill(ctx, kept.ID)
	require.NoError(t, err)
	assert.NotNil(t, stillThere)
	gone, err := env.residents.GetResident(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDeleteBillsBatchContinuesOnError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "物业费", "100", biz.ChargeTypeFixed, "元/月")
	r := env.seedResident(t, "1", "1", "101", "王五", "60")
	a := env.seedBill(t, r, item, "2025-01", nil, nil)
	b := env.seedBill(t, r, item, "2025-02", nil, nil)
	_, err := env.billUC.ApplyPayment(ctx, a.ID, biz.PaymentRequest{})
	require.NoError(t, err)

	deleted, failures, err := env.billUC.DeleteBillsBatch(ctx, []string{a.ID, "missing", b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	require.Len(t, failures, 1)
	assert.Equal(t, "missing", failures[0].ID)

	list, total, err := env.billUC.ListBills(ctx, biz.BillFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
	txns, err := env.txns.ListByBill(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestListBillsKeyword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "物业费", "100", biz.ChargeTypeFixed, "元/月")
	water := env.seedItem(t, "水费", "3", biz.ChargeTypeFixed, "元/度")
	r1 := env.seedResident(t, "1", "2", "301", "张三", "60")
	r2 := env.seedResident(t, "3", "1", "301", "李四", "60")
	env.seedBill(t, r1, item, "2025-01", nil, nil)
	env.seedBill(t, r2, item, "2025-01", nil, nil)
	env.seedBill(t, r2, water, "2025-02", nil, nil)

	cases := []struct {
		keyword string
		want    int64
	}{
		{"1-2-301", 1},
		{"2-301", 1}, // 单元 2 或楼栋 2
		{"1-301", 3}, // r1 楼栋 1，r2 单元 1
		{"李四", 2},
		{"水费", 1},
		{"13900", 3},
		{"不存在", 0},
	}
	for _, c := range cases {
		_, total, err := env.billUC.ListBills(ctx, biz.BillFilter{Keyword: c.keyword})
		require.NoError(t, err)
		assert.Equal(t, c.want, total, "keyword %q", c.keyword)
	}

	list, total, err := env.billUC.ListBills(ctx, biz.BillFilter{Period: "2025-01", UnpaidOnly: true, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 1)
}

func TestStatsRepo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "物业费", "100", biz.ChargeTypeFixed, "元/月")
	water := env.seedItem(t, "水费", "30", biz.ChargeTypeFixed, "元/月")
	r1 := env.seedResident(t, "1", "1", "101", "甲", "60")
	r2 := env.seedResident(t, "1", "1", "102", "乙", "60")

	paid := env.seedBill(t, r1, item, "2025-03", day(2025, 3, 1), day(2025, 3, 31))
	env.seedBill(t, r2, item, "2025-03", day(2025, 3, 1), day(2025, 3, 31))
	env.seedBill(t, r1, water, "2025-04", day(2025, 4, 1), day(2025, 4, 30))
	env.seedBill(t, r1, water, "2024-12", day(2024, 12, 1), day(2024, 12, 31))
	_, err := env.billUC.ApplyPayment(ctx, paid.ID, biz.PaymentRequest{})
	require.NoError(t, err)

	statsUC := biz.NewStatsUseCase(env.stats, log.DefaultLogger)
	period, err := statsUC.PeriodStats(ctx, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, int64(2), period.TotalCount)
	assert.Equal(t, int64(1), period.PaidCount)
	assert.True(t, period.TotalAmount.Equal(dec("200")))
	assert.True(t, period.PaidAmount.Equal(dec("100")))
	assert.True(t, period.UnpaidAmount.Equal(dec("100")))

	empty, err := statsUC.PeriodStats(ctx, "1999-01")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalCount)
	assert.True(t, empty.TotalAmount.IsZero())

	year, err := statsUC.YearStats(ctx, 2025)
	require.NoError(t, err)
	assert.True(t, year.TotalAmount.Equal(dec("230")))
	assert.True(t, year.PaidAmount.Equal(dec("100")))
	require.Len(t, year.ByItem, 2)
	assert.Equal(t, "物业费", year.ByItem[0].Name)
	assert.True(t, year.ByItem[1].UnpaidAmount.Equal(dec("30")))
}

func TestChargeItemInUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.seedItem(t, "物业费", "100", biz.ChargeTypeFixed, "元/月")
	r := env.seedResident(t, "1", "1", "101", "甲", "60")
	env.seedBill(t, r, item, "2025-03", nil, nil)

	uc := biz.NewChargeItemUseCase(env.items, env.bills, env.residents, log.DefaultLogger)
	assert.True(t, errors.Is(uc.Delete(ctx, item.ID), billingErrors.ErrChargeItemInUse))

	price := dec("120")
	updated, err := uc.Update(ctx, item.ID, biz.ChargeItemPatch{Price: &price})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	stored, err := env.items.GetChargeItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(price))
}

func TestResidentUniqueRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedResident(t, "1", "1", "101", "甲", "60")

	found, err := env.residents.FindResidentByRoom(ctx, "1", "1", "101")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "甲", found.Name)

	// 数据库唯一索引兜底
	err = env.residents.CreateResident(ctx, &biz.Resident{Building: "1", Unit: "1", RoomNo: "101", Name: "乙", Area: dec("10"), Status: 1})
	assert.Error(t, err)

	list, err := env.residents.ListResidents(ctx, "甲", true)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
