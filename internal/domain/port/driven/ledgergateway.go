package driven

import (
	"context"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
)

// CreateResult is the parsed outcome of a ledger create call.
type CreateResult struct {
	EntityID  string
	DocNumber string
}

// LedgerRecord is a ledger-side record returned by a document-number probe.
type LedgerRecord struct {
	EntityID  string
	VendorID  string
	DocNumber string
}

// LedgerGateway is the capability contract for creating records on the
// accounting platform. Create calls fail with *ValidationError when the
// ledger rejects the payload and *TransportError otherwise.
type LedgerGateway interface {
	CreateInvoice(ctx context.Context, payload map[string]any) (CreateResult, error)
	CreateBill(ctx context.Context, payload map[string]any) (CreateResult, error)
	CreateReceipt(ctx context.Context, payload map[string]any) (CreateResult, error)
	CreateVendor(ctx context.Context, payload map[string]any) (CreateResult, error)
	CreateCustomer(ctx context.Context, payload map[string]any) (CreateResult, error)

	// UploadAttachment links a binary file to an existing ledger entity.
	UploadAttachment(ctx context.Context, entityType model.LedgerEntityType, entityID, filename string, data []byte) error

	// QueryByDocumentNumber probes the ledger for existing records carrying
	// the given document number, regardless of how they were created.
	QueryByDocumentNumber(ctx context.Context, entityType model.LedgerEntityType, docNumber string) ([]LedgerRecord, error)
}
