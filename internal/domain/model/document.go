package model

import "time"

// Payment is one entry in a fiscal document's payment list.
type Payment struct {
	MethodType int
	Amount     float64
}

// FiscalDocument is a document pulled from the e-invoicing platform:
// a sales invoice, a purchase invoice, or a cash sale. The typed fields
// cover what the sync engine itself needs to classify, deduplicate, and
// resolve counter-parties; Raw carries the full upstream record for the
// payload transforms.
type FiscalDocument struct {
	EIC                 string // unique fiscal invoice code, may be empty
	DocNumber           string
	InternalID          string
	SellerTaxID         string
	SellerName          string
	BuyerTaxID          string
	BuyerName           string
	TotalAmount         float64
	IssuedAt            time.Time
	IsSimplifiedInvoice bool
	Payments            []Payment
	PDFBase64           string // inline PDF payload when the platform includes one

	Raw map[string]any
}

// SaleKey returns the dedup key for the sales and cash streams: the EIC when
// present, else the document number, else the internal id. An empty string
// means the document has no usable key and must be skipped.
func (d FiscalDocument) SaleKey() string {
	switch {
	case d.EIC != "":
		return d.EIC
	case d.DocNumber != "":
		return d.DocNumber
	default:
		return d.InternalID
	}
}

// PurchaseKey returns the composite dedup key for the purchase stream.
// Purchase document numbers are assigned by the vendor and are only unique
// per vendor, so the key pairs the number with the seller's tax id.
// ok is false when either half is missing.
func (d FiscalDocument) PurchaseKey() (key DocKey, ok bool) {
	if d.DocNumber == "" || d.SellerTaxID == "" {
		return DocKey{}, false
	}
	return DocKey{Number: d.DocNumber, TaxID: d.SellerTaxID}, true
}

// IsCashLike reports whether the document belongs in the cash stream:
// flagged as a simplified invoice, or paid by cash or card.
func (d FiscalDocument) IsCashLike() bool {
	if d.IsSimplifiedInvoice {
		return true
	}
	for _, p := range d.Payments {
		if p.MethodType == PaymentMethodCash || p.MethodType == PaymentMethodCard {
			return true
		}
	}
	return false
}

// DocKey is the structured purchase dedup key. The pipe-joined form is a
// serialization concern of the unique-constraint column only; everything
// in-process passes the struct.
type DocKey struct {
	Number string
	TaxID  string
}

// String serializes the key for the mapping table's unique column.
func (k DocKey) String() string {
	return k.Number + "|" + k.TaxID
}
