package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordIsNull(t *testing.T) {
	rec := Record{
		TradeID:  Ptr("T1"),
		Quantity: Ptr(int64(100)),
	}

	tests := []struct {
		field string
		want  bool
	}{
		{"trade_id", false},
		{"quantity", false},
		{"order_id", true},
		{"price", true},
		{"notional", true},
		{"no_such_field", true},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, rec.IsNull(tt.field))
		})
	}
}

func TestRecordKeys(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"both ids", Record{TradeID: Ptr("T1"), OrderID: Ptr("O1")}, "trade_id=T1|order_id=O1"},
		{"missing order", Record{TradeID: Ptr("T1")}, "trade_id=T1|order_id=NA"},
		{"missing both", Record{}, "trade_id=NA|order_id=NA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Keys())
		})
	}
}

func TestBatchHasColumn(t *testing.T) {
	complete := Batch{}
	assert.True(t, complete.HasColumn("price"))

	partial := Batch{Columns: map[string]bool{"trade_id": true}}
	assert.True(t, partial.HasColumn("trade_id"))
	assert.False(t, partial.HasColumn("price"))
}

func TestCanonicalOrderCoversMandatory(t *testing.T) {
	inOrder := map[string]bool{}
	for _, f := range CanonicalOrder {
		inOrder[f] = true
	}
	for _, f := range MandatoryFields {
		assert.True(t, inOrder[f], "mandatory field %s missing from canonical order", f)
	}
}
