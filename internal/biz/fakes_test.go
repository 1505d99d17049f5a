package biz

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

type memChargeItemRepo struct {
	items map[string]*ChargeItem
}

func (r *memChargeItemRepo) CreateChargeItem(_ context.Context, item *ChargeItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	c := *item
	r.items[item.ID] = &c
	return nil
}

func (r *memChargeItemRepo) UpdateChargeItem(_ context.Context, item *ChargeItem) error {
	c := *item
	r.items[item.ID] = &c
	return nil
}

func (r *memChargeItemRepo) DeleteChargeItem(_ context.Context, id string) error {
	delete(r.items, id)
	return nil
}

func (r *memChargeItemRepo) GetChargeItem(_ context.Context, id string) (*ChargeItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	c := *item
	return &c, nil
}

func (r *memChargeItemRepo) ListChargeItems(_ context.Context, _ bool) ([]*ChargeItem, error) {
	var list []*ChargeItem
	for _, item := range r.items {
		c := *item
		list = append(list, &c)
	}
	return list, nil
}

type memResidentRepo struct {
	residents map[string]*Resident
}

func (r *memResidentRepo) CreateResident(_ context.Context, res *Resident) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	c := *res
	r.residents[res.ID] = &c
	return nil
}

func (r *memResidentRepo) UpdateResident(_ context.Context, res *Resident) error {
	c := *res
	r.residents[res.ID] = &c
	return nil
}

func (r *memResidentRepo) GetResident(_ context.Context, id string) (*Resident, error) {
	res, ok := r.residents[id]
	if !ok {
		return nil, nil
	}
	c := *res
	return &c, nil
}

func (r *memResidentRepo) FindResidentByRoom(_ context.Context, building, unit, roomNo string) (*Resident, error) {
	for _, res := range r.residents {
		if res.Building == building && res.Unit == unit && res.RoomNo == roomNo {
			c := *res
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memResidentRepo) ListResidents(_ context.Context, _ string, activeOnly bool) ([]*Resident, error) {
	var list []*Resident
	for _, res := range r.residents {
		if activeOnly && res.Status != 1 {
			continue
		}
		c := *res
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].RoomNo < list[j].RoomNo })
	return list, nil
}

func (r *memResidentRepo) DeleteResident(_ context.Context, id string) error {
	delete(r.residents, id)
	return nil
}

type memBillRepo struct {
	bills map[string]*BillRecord
	order []string
}

func (r *memBillRepo) CreateBill(_ context.Context, bill *BillRecord) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	r.bills[bill.ID] = bill.clone()
	r.order = append(r.order, bill.ID)
	return nil
}

func (r *memBillRepo) UpdateBill(_ context.Context, bill *BillRecord) error {
	if _, ok := r.bills[bill.ID]; !ok {
		return errors.New("bill missing")
	}
	r.bills[bill.ID] = bill.clone()
	return nil
}

func (r *memBillRepo) GetBill(_ context.Context, id string) (*BillRecord, error) {
	bill, ok := r.bills[id]
	if !ok {
		return nil, nil
	}
	return bill.clone(), nil
}

func (r *memBillRepo) ListBills(_ context.Context, filter BillFilter) ([]*BillRecord, int64, error) {
	var list []*BillRecord
	for _, id := range r.order {
		bill, ok := r.bills[id]
		if !ok {
			continue
		}
		if filter.Period != "" && bill.Period != filter.Period {
			continue
		}
		if filter.ResidentID != "" && bill.ResidentID != filter.ResidentID {
			continue
		}
		if filter.UnpaidOnly && bill.Paid {
			continue
		}
		list = append(list, bill.clone())
	}
	return list, int64(len(list)), nil
}

func (r *memBillRepo) DeleteBill(_ context.Context, id string) (bool, error) {
	if _, ok := r.bills[id]; !ok {
		return false, nil
	}
	delete(r.bills, id)
	return true, nil
}

func (r *memBillRepo) DeleteBills(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := r.bills[id]; ok {
			delete(r.bills, id)
			n++
		}
	}
	return n, nil
}

func (r *memBillRepo) ListBillIDsByResident(_ context.Context, residentID string) ([]string, error) {
	var ids []string
	for _, id := range r.order {
		if bill, ok := r.bills[id]; ok && bill.ResidentID == residentID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memBillRepo) CountBillsByChargeItem(_ context.Context, chargeItemID string) (int64, error) {
	var n int64
	for _, bill := range r.bills {
		if bill.ChargeItemID == chargeItemID {
			n++
		}
	}
	return n, nil
}

func (r *memBillRepo) FindBill(_ context.Context, residentID, chargeItemID, period string) (*BillRecord, error) {
	for _, bill := range r.bills {
		if bill.ResidentID == residentID && bill.ChargeItemID == chargeItemID && bill.Period == period {
			return bill.clone(), nil
		}
	}
	return nil, nil
}

type memTxnRepo struct {
	txns       []*PaymentTransaction
	failAppend bool
}

func (r *memTxnRepo) AppendTransaction(_ context.Context, txn *PaymentTransaction) error {
	if r.failAppend {
		return errors.New("audit table unavailable")
	}
	txn.ID = uuid.New().String()
	c := *txn
	r.txns = append(r.txns, &c)
	return nil
}

func (r *memTxnRepo) ListByBill(_ context.Context, billID string) ([]*PaymentTransaction, error) {
	var list []*PaymentTransaction
	for _, txn := range r.txns {
		if txn.BillID == billID {
			list = append(list, txn)
		}
	}
	return list, nil
}

func (r *memTxnRepo) DeleteByBillIDs(_ context.Context, billIDs []string) error {
	drop := make(map[string]bool, len(billIDs))
	for _, id := range billIDs {
		drop[id] = true
	}
	kept := r.txns[:0]
	for _, txn := range r.txns {
		if !drop[txn.BillID] {
			kept = append(kept, txn)
		}
	}
	r.txns = kept
	return nil
}

// passTx 直接执行 fn，不提供回滚
type passTx struct {
	calls int
}

func (t *passTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type memLocker struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (l *memLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func() {}, nil
}

type fixture struct {
	items      *memChargeItemRepo
	residents  *memResidentRepo
	bills      *memBillRepo
	txns       *memTxnRepo
	tx         *passTx
	locker     *memLocker
	billUC     *BillUseCase
	residentUC *ResidentUseCase
	itemUC     *ChargeItemUseCase
}

func newFixture() *fixture {
	f := &fixture{
		items:     &memChargeItemRepo{items: map[string]*ChargeItem{}},
		residents: &memResidentRepo{residents: map[string]*Resident{}},
		bills:     &memBillRepo{bills: map[string]*BillRecord{}},
		txns:      &memTxnRepo{},
		tx:        &passTx{},
		locker:    &memLocker{},
	}
	conf := &BillingConfig{DefaultOperator: "admin"}
	f.billUC = NewBillUseCase(f.bills, f.items, f.residents, f.txns, f.tx, f.locker, conf, log.DefaultLogger)
	f.billUC.now = func() time.Time { return paidAt }
	f.residentUC = NewResidentUseCase(f.residents, f.bills, f.txns, f.tx, log.DefaultLogger)
	f.itemUC = NewChargeItemUseCase(f.items, f.bills, f.residents, log.DefaultLogger)
	return f
}

func (f *fixture) addItem(id, price string, chargeType ChargeType, unit string) *ChargeItem {
	item := &ChargeItem{ID: id, Name: id, Price: d(price), ChargeType: chargeType, Unit: unit, Status: 1}
	f.items.items[id] = item
	return item
}

func (f *fixture) addResident(id, room, area string) *Resident {
	r := &Resident{ID: id, Building: "1", Unit: "1", RoomNo: room, Name: "住户" + room, Area: d(area), Status: 1}
	f.residents.residents[id] = r
	return r
}
