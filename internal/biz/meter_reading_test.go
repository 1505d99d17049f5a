package biz

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeterReadingEventDecode(t *testing.T) {
	body := []byte(`{"reading_id":"m1","resident_id":"r1","charge_item_id":"power","period":"2025-03","usage":"12.5"}`)
	var e MeterReadingEvent
	require.NoError(t, json.Unmarshal(body, &e))

	req := e.BillRequest()
	assert.Equal(t, "r1", req.ResidentID)
	assert.Equal(t, "power", req.ChargeItemID)
	require.NotNil(t, req.Usage)
	assert.True(t, req.Usage.Equal(d("12.5")))
}

func TestCreateBillsFromReadingsSkipsRedelivery(t *testing.T) {
	f := newFixture()
	f.addItem("power", "0.6", ChargeTypeFixed, "元/度")
	f.addResident("r1", "101", "60")
	f.addResident("r2", "102", "60")

	events := []*MeterReadingEvent{
		{ReadingID: "m1", ResidentID: "r1", ChargeItemID: "power", Period: "2025-03", Usage: d("100")},
		{ReadingID: "m2", ResidentID: "r2", ChargeItemID: "power", Period: "2025-03", Usage: d("15")},
	}
	result, err := f.billUC.CreateBillsFromReadings(context.Background(), events)
	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	assert.True(t, result.Created[0].Amount.Equal(d("60")))
	assert.True(t, result.Created[1].Amount.Equal(d("9")))

	again, err := f.billUC.CreateBillsFromReadings(context.Background(), events)
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Equal(t, 2, again.Skipped)
	assert.Len(t, f.bills.bills, 2)
}
