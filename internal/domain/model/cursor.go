package model

import "time"

// Stream names for sync cursors.
const (
	StreamSales     = "sales_einvoice"
	StreamPurchases = "purchases_einvoice"
	StreamCashSales = "cash_sales"
)

// SyncCursor marks the upper bound of the last fully processed window for
// one stream. It is advisory bookkeeping only: the authoritative de-dup
// mechanism is the DocumentMapping table, because runs may deliberately
// re-scan overlapping windows.
type SyncCursor struct {
	Stream   string
	LastSeen time.Time
}
