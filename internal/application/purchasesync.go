package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// maxRenameAttempts caps document-number collision probing. Nine suffixed
// candidates on top of the original number is far beyond anything observed
// in real data; exhausting them means something is wrong with the window.
const maxRenameAttempts = 9

// PurchaseSync reconciles the purchase/bills stream for one window.
// Purchases dedup on the composite (document number, seller tax id) key and
// defensively probe the ledger for document-number collisions before every
// post, since manual entries and prior partial runs live outside the
// mapping store's knowledge.
type PurchaseSync struct {
	source   driven.SourceGateway
	ledger   driven.LedgerGateway
	mappings driven.DocumentMappingStore
	cursors  driven.CursorStore
	resolver *Resolver
	sampler  driven.Sampler

	billTransform driven.Transform
	sourceSystem  string
}

// NewPurchaseSync creates a PurchaseSync.
func NewPurchaseSync(
	source driven.SourceGateway,
	ledger driven.LedgerGateway,
	mappings driven.DocumentMappingStore,
	cursors driven.CursorStore,
	resolver *Resolver,
	sampler driven.Sampler,
	billTransform driven.Transform,
	sourceSystem string,
) *PurchaseSync {
	return &PurchaseSync{
		source:        source,
		ledger:        ledger,
		mappings:      mappings,
		cursors:       cursors,
		resolver:      resolver,
		sampler:       sampler,
		billTransform: billTransform,
		sourceSystem:  sourceSystem,
	}
}

// Run pulls purchase documents for [from, to] and posts them as bills.
// Benign ledger rejections downgrade to per-document skips; any other post
// failure aborts the run. The cursor advance sits on the success path only:
// an aborted run leaves the cursor behind so the caller knows the window
// was not fully processed and the next run re-scans it.
func (p *PurchaseSync) Run(ctx context.Context, from, to time.Time) (Report, error) {
	var report Report

	docs, err := p.source.FetchPurchaseDocuments(ctx, from, to)
	if err != nil {
		return report, fmt.Errorf("fetch purchase documents: %w", err)
	}

	for _, doc := range docs {
		report.Pulled++

		if err := p.processOne(ctx, doc, &report); err != nil {
			report.Failed++
			return report, err
		}
	}

	if err := p.cursors.Advance(ctx, model.StreamPurchases, to); err != nil {
		return report, fmt.Errorf("advance purchases cursor: %w", err)
	}

	slog.Info("purchase sync complete",
		"from", from, "to", to,
		"pulled", report.Pulled,
		"created", report.Created,
		"skipped", report.Skipped,
	)
	return report, nil
}

func (p *PurchaseSync) processOne(ctx context.Context, doc model.FiscalDocument, report *Report) error {
	key, ok := doc.PurchaseKey()
	if !ok {
		p.sampler.Sample("purchase_missing_key", "doc_number", doc.DocNumber)
		report.Skipped++
		return nil
	}

	// Non-positive totals are credit notes or returns, out of posting scope.
	if doc.TotalAmount <= 0 {
		report.Skipped++
		return nil
	}

	mapped, err := p.mappings.Exists(ctx, p.sourceSystem, model.DocTypePurchase, key.String())
	if err != nil {
		return fmt.Errorf("check mapping for %q: %w", key, err)
	}
	if mapped {
		report.Skipped++
		return nil
	}

	vendorID, err := p.resolver.ResolveVendor(ctx, doc.SellerTaxID, doc.SellerName)
	if err != nil {
		return fmt.Errorf("resolve vendor for %q: %w", key, err)
	}
	if doc.Raw == nil {
		doc.Raw = make(map[string]any)
	}
	doc.Raw["VendorRef"] = vendorID

	docNumber, dup, err := p.resolveDocNumber(ctx, doc.DocNumber, vendorID)
	if err != nil {
		return err
	}
	if dup {
		// The ledger already holds this number under the same vendor: a
		// manual entry or a prior partial run. True duplicate, no post.
		report.Skipped++
		return nil
	}

	// A rename exists only ledger-side; the platform still knows the
	// document by its original number, so the attach path keeps the
	// pre-rename copy for its detail lookup.
	sourceDoc := doc
	if docNumber != doc.DocNumber {
		p.sampler.Sample("purchase_number_renamed", "from", doc.DocNumber, "to", docNumber)
		doc.DocNumber = docNumber
		doc.Raw["DocNumber"] = docNumber
	}

	payload, err := p.billTransform(doc)
	if err != nil {
		return fmt.Errorf("transform %q: %w", key, err)
	}

	res, err := p.ledger.CreateBill(ctx, payload)
	if err != nil {
		if driven.IsBenignLedgerRejection(err) {
			slog.Warn("bill post skipped on benign ledger rejection", "key", key.String(), "error", err)
			report.Skipped++
			return nil
		}
		return fmt.Errorf("post bill %q: %w", key, err)
	}
	if res.EntityID == "" {
		p.sampler.Sample("post_without_entity_id", "doc_type", model.DocTypePurchase, "key", key.String())
		report.Skipped++
		return nil
	}

	attachPDF(ctx, p.source, p.ledger, sourceDoc, model.EntityBill, res.EntityID, p.sampler)

	err = p.mappings.Record(ctx, model.DocumentMapping{
		SourceSystem:     p.sourceSystem,
		DocType:          model.DocTypePurchase,
		SourceKey:        key.String(),
		LedgerEntityType: model.EntityBill,
		LedgerEntityID:   res.EntityID,
	})
	if errors.Is(err, driven.ErrDuplicateMapping) {
		slog.Warn("mapping already recorded by another run", "key", key.String())
		report.Skipped++
		return nil
	}
	if err != nil {
		return err
	}

	report.Created++
	return nil
}

// resolveDocNumber probes the ledger for an existing bill under docNumber.
// No record: post under the original number. A record under the same
// vendor: true duplicate (dup=true). A record under a different vendor: the
// number collision is a data artifact, so suffixed candidates -1..-9 are
// probed until one is unused; exhaustion fails the document.
func (p *PurchaseSync) resolveDocNumber(ctx context.Context, docNumber, vendorID string) (string, bool, error) {
	records, err := p.ledger.QueryByDocumentNumber(ctx, model.EntityBill, docNumber)
	if err != nil {
		return "", false, fmt.Errorf("probe doc number %q: %w", docNumber, err)
	}
	if len(records) == 0 {
		return docNumber, false, nil
	}
	for _, rec := range records {
		if rec.VendorID == vendorID {
			return "", true, nil
		}
	}

	for i := 1; i <= maxRenameAttempts; i++ {
		candidate := fmt.Sprintf("%s-%d", docNumber, i)
		records, err := p.ledger.QueryByDocumentNumber(ctx, model.EntityBill, candidate)
		if err != nil {
			return "", false, fmt.Errorf("probe doc number %q: %w", candidate, err)
		}
		if len(records) == 0 {
			return candidate, false, nil
		}
		for _, rec := range records {
			if rec.VendorID == vendorID {
				return "", true, nil
			}
		}
	}
	return "", false, fmt.Errorf("doc number %q: no unused candidate after %d rename attempts", docNumber, maxRenameAttempts)
}
