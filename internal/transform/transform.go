// Package transform provides the default payload transforms wired by the
// composition root. Each transform is a pure function from a source
// document (with resolver-injected refs already set) to a ledger payload;
// deployments with custom field mappings swap these out without touching
// the sync engine.
package transform

import (
	"fmt"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// Compile-time signature checks.
var (
	_ driven.Transform = Invoice
	_ driven.Transform = Bill
	_ driven.Transform = Receipt
)

// Invoice builds an invoice payload from a sales document.
func Invoice(doc model.FiscalDocument) (map[string]any, error) {
	payload := base(doc)
	if ref, ok := doc.Raw["CustomerRef"].(string); ok && ref != "" {
		payload["CustomerRef"] = map[string]any{"value": ref}
	}
	return payload, nil
}

// Bill builds a bill payload from a purchase document. The vendor ref must
// have been injected by the resolver.
func Bill(doc model.FiscalDocument) (map[string]any, error) {
	ref, _ := doc.Raw["VendorRef"].(string)
	if ref == "" {
		return nil, fmt.Errorf("bill transform: document %q has no resolved vendor ref", doc.DocNumber)
	}
	payload := base(doc)
	payload["VendorRef"] = map[string]any{"value": ref}
	return payload, nil
}

// Receipt builds a sales receipt payload from a cash-like sales document.
func Receipt(doc model.FiscalDocument) (map[string]any, error) {
	payload := base(doc)
	if ref, ok := doc.Raw["CustomerRef"].(string); ok && ref != "" {
		payload["CustomerRef"] = map[string]any{"value": ref}
	}
	payload["PaymentMethod"] = paymentMethod(doc)
	return payload, nil
}

func base(doc model.FiscalDocument) map[string]any {
	payload := map[string]any{
		"DocNumber":   doc.DocNumber,
		"TotalAmt":    doc.TotalAmount,
		"PrivateNote": privateNote(doc),
	}
	if !doc.IssuedAt.IsZero() {
		payload["TxnDate"] = doc.IssuedAt.Format("2006-01-02")
	}
	return payload
}

// privateNote carries the fiscal code so a ledger record can always be
// traced back to its source document.
func privateNote(doc model.FiscalDocument) string {
	if doc.EIC != "" {
		return "EIC: " + doc.EIC
	}
	return "Imported from e-invoicing platform"
}

func paymentMethod(doc model.FiscalDocument) string {
	for _, p := range doc.Payments {
		if p.MethodType == model.PaymentMethodCard {
			return "Card"
		}
	}
	return "Cash"
}
