package devpos

import (
	"time"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
)

// docFromRaw extracts the typed fields the sync engine needs from an
// upstream record, keeping the full record in Raw for the payload
// transforms. Field absence degrades to zero values; classification and
// dedup logic downstream decide what that means.
func docFromRaw(raw map[string]any) model.FiscalDocument {
	doc := model.FiscalDocument{
		EIC:                 str(raw, "eic"),
		DocNumber:           str(raw, "documentNumber"),
		InternalID:          str(raw, "id"),
		SellerTaxID:         str(raw, "sellerTaxId"),
		SellerName:          str(raw, "sellerName"),
		BuyerTaxID:          str(raw, "buyerTaxId"),
		BuyerName:           str(raw, "buyerName"),
		TotalAmount:         num(raw, "totalAmount"),
		IsSimplifiedInvoice: boolean(raw, "isSimplifiedInvoice"),
		PDFBase64:           str(raw, "pdfFile"),
		Raw:                 raw,
	}

	if issued := str(raw, "issueDate"); issued != "" {
		if t, err := time.Parse(time.RFC3339, issued); err == nil {
			doc.IssuedAt = t
		}
	}

	if payments, ok := raw["payments"].([]any); ok {
		for _, p := range payments {
			pm, ok := p.(map[string]any)
			if !ok {
				continue
			}
			doc.Payments = append(doc.Payments, model.Payment{
				MethodType: int(num(pm, "paymentMethodTypeId")),
				Amount:     num(pm, "amount"),
			})
		}
	}

	return doc
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
