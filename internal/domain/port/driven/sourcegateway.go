package driven

import (
	"context"
	"time"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
)

// SourceGateway is the capability contract for pulling fiscal documents
// from the e-invoicing platform. Implementations own authentication
// transparently; callers never see tokens.
type SourceGateway interface {
	// FetchSalesDocuments returns all sales documents issued in [from, to].
	FetchSalesDocuments(ctx context.Context, from, to time.Time) ([]model.FiscalDocument, error)

	// FetchPurchaseDocuments returns all purchase documents received in [from, to].
	FetchPurchaseDocuments(ctx context.Context, from, to time.Time) ([]model.FiscalDocument, error)

	// FetchCashLikeSales returns the subset of sales in [from, to] that
	// classify as cash-like (simplified invoice, or cash/card payment).
	FetchCashLikeSales(ctx context.Context, from, to time.Time) ([]model.FiscalDocument, error)

	// FetchDocumentDetail fetches the full detail record for one document by
	// its natural identifier. A failure means "no additional detail
	// available" — callers must not treat it as fatal.
	FetchDocumentDetail(ctx context.Context, naturalID string) (*model.FiscalDocument, error)
}
