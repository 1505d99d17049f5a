package biz

import (
	"context"
	"errors"
	"testing"

	billingErrors "property-billing/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChargeItemValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	item, err := f.itemUC.Create(ctx, &ChargeItem{Name: "物业费", Price: d("2.5"), ChargeType: ChargeTypeArea})
	require.NoError(t, err)
	assert.Equal(t, "元/月", item.Unit)
	assert.Equal(t, UnitMonth, item.BillingUnit())

	_, err = f.itemUC.Create(ctx, &ChargeItem{Name: "水费", Price: d("3"), ChargeType: "metered"})
	assert.True(t, errors.Is(err, billingErrors.ErrInvalidChargeType))

	_, err = f.itemUC.Create(ctx, &ChargeItem{Name: "水费", Price: d("-1"), ChargeType: ChargeTypeFixed})
	assert.True(t, errors.Is(err, billingErrors.ErrInvalidPrice))

	bad := ChargeType("bogus")
	_, err = f.itemUC.Update(ctx, item.ID, ChargeItemPatch{ChargeType: &bad})
	assert.True(t, errors.Is(err, billingErrors.ErrInvalidChargeType))
	stored, err := f.itemUC.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, ChargeTypeArea, stored.ChargeType)
}

func TestDeleteChargeItemInUse(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addItem("mgmt", "100", ChargeTypeFixed, "元/月")
	f.addItem("unused", "1", ChargeTypeFixed, "元/月")
	f.addResident("r1", "101", "50")
	_, err := f.billUC.CreateBill(ctx, BillRequest{ResidentID: "r1", ChargeItemID: "mgmt", Period: "2025-01"})
	require.NoError(t, err)

	assert.True(t, errors.Is(f.itemUC.Delete(ctx, "mgmt"), billingErrors.ErrChargeItemInUse))
	require.NoError(t, f.itemUC.Delete(ctx, "unused"))
	assert.True(t, errors.Is(f.itemUC.Delete(ctx, "unused"), billingErrors.ErrChargeItemNotFound))
}

func TestQuoteUsesResidentArea(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addItem("mgmt", "2", ChargeTypeArea, "元/平方米")
	f.addResident("r1", "101", "60")

	q, err := f.itemUC.Quote(ctx, QuoteRequest{ChargeItemID: "mgmt", ResidentID: "r1", Params: BillingParams{Months: 1}})
	require.NoError(t, err)
	assert.True(t, q.Amount.Equal(d("120")))
	assert.Equal(t, 1, q.BillingMonths)

	q, err = f.itemUC.Quote(ctx, QuoteRequest{ChargeItemID: "mgmt", ResidentID: "r1",
		Params: BillingParams{StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31)}})
	require.NoError(t, err)
	assert.True(t, q.Amount.Equal(d("1440")))
	assert.Equal(t, 12, q.BillingMonths)

	_, err = f.itemUC.Quote(ctx, QuoteRequest{ChargeItemID: "mgmt", ResidentID: "nobody"})
	assert.True(t, errors.Is(err, billingErrors.ErrResidentNotFound))
}
