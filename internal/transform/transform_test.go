package transform_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/transform"
)

func TestInvoice(t *testing.T) {
	doc := model.FiscalDocument{
		EIC:         "EIC-1",
		DocNumber:   "S-1",
		TotalAmount: 120.5,
		IssuedAt:    time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Raw:         map[string]any{"CustomerRef": "12"},
	}

	payload, err := transform.Invoice(doc)

	require.NoError(t, err)
	assert.Equal(t, "S-1", payload["DocNumber"])
	assert.Equal(t, 120.5, payload["TotalAmt"])
	assert.Equal(t, "EIC: EIC-1", payload["PrivateNote"])
	assert.Equal(t, "2026-03-14", payload["TxnDate"])
	assert.Equal(t, map[string]any{"value": "12"}, payload["CustomerRef"])
}

func TestInvoiceWithoutCustomerOmitsRef(t *testing.T) {
	payload, err := transform.Invoice(model.FiscalDocument{DocNumber: "S-1", TotalAmount: 10})

	require.NoError(t, err)
	assert.NotContains(t, payload, "CustomerRef")
	assert.NotContains(t, payload, "TxnDate")
	assert.Equal(t, "Imported from e-invoicing platform", payload["PrivateNote"])
}

func TestBillRequiresVendorRef(t *testing.T) {
	doc := model.FiscalDocument{DocNumber: "INV-1", TotalAmount: 50, Raw: map[string]any{"VendorRef": "55"}}

	payload, err := transform.Bill(doc)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"value": "55"}, payload["VendorRef"])

	_, err = transform.Bill(model.FiscalDocument{DocNumber: "INV-1", Raw: map[string]any{}})
	require.Error(t, err)
}

func TestReceiptPaymentMethod(t *testing.T) {
	cash := model.FiscalDocument{
		DocNumber: "S-1",
		Payments:  []model.Payment{{MethodType: model.PaymentMethodCash, Amount: 30}},
		Raw:       map[string]any{},
	}
	payload, err := transform.Receipt(cash)
	require.NoError(t, err)
	assert.Equal(t, "Cash", payload["PaymentMethod"])

	card := model.FiscalDocument{
		DocNumber: "S-2",
		Payments:  []model.Payment{{MethodType: model.PaymentMethodCard, Amount: 30}},
		Raw:       map[string]any{},
	}
	payload, err = transform.Receipt(card)
	require.NoError(t, err)
	assert.Equal(t, "Card", payload["PaymentMethod"])
}
