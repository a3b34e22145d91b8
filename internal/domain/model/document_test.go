package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
)

func TestSaleKeyFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		doc  model.FiscalDocument
		want string
	}{
		{"eic wins", model.FiscalDocument{EIC: "EIC-1", DocNumber: "S-1", InternalID: "7"}, "EIC-1"},
		{"number when no eic", model.FiscalDocument{DocNumber: "S-1", InternalID: "7"}, "S-1"},
		{"internal id last", model.FiscalDocument{InternalID: "7"}, "7"},
		{"nothing usable", model.FiscalDocument{}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.doc.SaleKey())
		})
	}
}

func TestPurchaseKeyRequiresBothHalves(t *testing.T) {
	key, ok := model.FiscalDocument{DocNumber: "INV-1", SellerTaxID: "K11715005L"}.PurchaseKey()
	assert.True(t, ok)
	assert.Equal(t, model.DocKey{Number: "INV-1", TaxID: "K11715005L"}, key)

	_, ok = model.FiscalDocument{DocNumber: "INV-1"}.PurchaseKey()
	assert.False(t, ok)

	_, ok = model.FiscalDocument{SellerTaxID: "K11715005L"}.PurchaseKey()
	assert.False(t, ok)
}

func TestDocKeyString(t *testing.T) {
	key := model.DocKey{Number: "INV-1", TaxID: "A"}
	assert.Equal(t, "INV-1|A", key.String())
}

func TestIsCashLike(t *testing.T) {
	tests := []struct {
		name string
		doc  model.FiscalDocument
		want bool
	}{
		{
			"simplified invoice with no payments",
			model.FiscalDocument{IsSimplifiedInvoice: true},
			true,
		},
		{
			"cash payment",
			model.FiscalDocument{Payments: []model.Payment{{MethodType: model.PaymentMethodCash, Amount: 10}}},
			true,
		},
		{
			"card payment",
			model.FiscalDocument{Payments: []model.Payment{{MethodType: model.PaymentMethodCard, Amount: 10}}},
			true,
		},
		{
			"bank transfer only",
			model.FiscalDocument{Payments: []model.Payment{{MethodType: 2, Amount: 10}}},
			false,
		},
		{
			"mixed cash and transfer",
			model.FiscalDocument{Payments: []model.Payment{
				{MethodType: 2, Amount: 90},
				{MethodType: model.PaymentMethodCash, Amount: 10},
			}},
			true,
		},
		{
			"no payments, not simplified",
			model.FiscalDocument{},
			false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.doc.IsCashLike())
		})
	}
}
