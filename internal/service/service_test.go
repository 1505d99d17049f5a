package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"property-billing/internal/biz"
	billingErrors "property-billing/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *PropertyService {
	return NewPropertyService(nil, nil, nil, nil, log.DefaultLogger)
}

func TestCheckRejectsInvalidRequests(t *testing.T) {
	s := newTestService()

	tests := []struct {
		name string
		req  interface{}
	}{
		{"missing resident", &CreateBillRequest{ChargeItemID: "c1"}},
		{"bad start date", &CreateBillRequest{ResidentID: "r1", ChargeItemID: "c1", StartDate: "2025/01/01"}},
		{"bad period", &CreateBillRequest{ResidentID: "r1", ChargeItemID: "c1", Period: "2025-1-1"}},
		{"empty batch", &CreateBillsBatchRequest{}},
		{"page size too large", &ListBillsRequest{PageSize: 501}},
		{"bad identity", &CreateResidentRequest{RoomNo: "101", Name: "甲", Identity: "guest"}},
		{"year out of range", &YearStatsRequest{Year: 10000}},
		{"empty delete ids", &DeleteBillsRequest{IDs: []string{""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.check(tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, billingErrors.ErrInvalidArgument))
		})
	}

	assert.NoError(t, s.check(&CreateBillRequest{ResidentID: "r1", ChargeItemID: "c1", Period: "2025-01", StartDate: "2025-01-01"}))
	assert.NoError(t, s.check(&CreateBillRequest{ResidentID: "r1", ChargeItemID: "c1", StartDate: "2025-03-01 08:00:00", EndDate: "2025-03-01T10:30:00Z"}))
	startAt := "2025-03-01 08:00"
	assert.Error(t, s.check(&UpdateBillRequest{ID: "b1", StartDate: &startAt}))
}

func TestServiceValidatesBeforeUseCase(t *testing.T) {
	s := newTestService()
	_, err := s.Pay(context.Background(), &PayRequest{})
	assert.True(t, errors.Is(err, billingErrors.ErrInvalidArgument))
	_, err = s.CreateResident(context.Background(), &CreateResidentRequest{RoomNo: "101"})
	assert.True(t, errors.Is(err, billingErrors.ErrInvalidArgument))
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), *got)

	got, err = parseDate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseDate("2025-02-30")
	assert.True(t, errors.Is(err, billingErrors.ErrInvalidArgument))

	got, err = parseDate("2025-03-01 08:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), *got)
	assert.Equal(t, "2025-03-01 08:00:00", formatDate(got))

	got, err = parseDate("2025-03-01T10:30:00+08:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 2, 30, 0, 0, time.UTC), *got)

	_, err = parseDate("2025-03-01 25:00:00")
	assert.True(t, errors.Is(err, billingErrors.ErrInvalidArgument))
}

func TestToBillReply(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bill := &biz.BillRecord{
		ID:               "b1",
		Period:           "2025-01",
		BillingStartDate: &start,
		BillingMonths:    12,
		Amount:           decimal.NewFromInt(1200),
		PaidMonths:       3,
		PaidAmount:       decimal.NewFromInt(300),
	}
	reply := toBillReply(bill)
	assert.Equal(t, "2025-01-01", reply.BillingStartDate)
	assert.Empty(t, reply.BillingEndDate)
	assert.Equal(t, 9, reply.RemainingMonths)
	assert.True(t, reply.UnpaidAmount.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, string(biz.BillStatusPartial), reply.Status)
	assert.Equal(t, "部分缴费", reply.StatusName)
	assert.Empty(t, reply.PaidTime)
}
