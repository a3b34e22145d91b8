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

// SalesSync reconciles the sales document streams for one window: the
// standard invoice stream and the cash-like receipt stream. The two streams
// use separate dedup namespaces, so the same underlying document may
// legitimately produce both an invoice mapping and a receipt mapping.
type SalesSync struct {
	source   driven.SourceGateway
	ledger   driven.LedgerGateway
	mappings driven.DocumentMappingStore
	cursors  driven.CursorStore
	resolver *Resolver
	sampler  driven.Sampler

	invoiceTransform driven.Transform
	receiptTransform driven.Transform

	sourceSystem string

	// Strict controls the post-failure policy. When true (the default), any
	// non-benign invoice rejection aborts the run; when false, benign ledger
	// rejections downgrade to per-document skips like the purchase stream.
	Strict bool
}

// NewSalesSync creates a SalesSync. sourceSystem tags mapping rows with the
// originating platform.
func NewSalesSync(
	source driven.SourceGateway,
	ledger driven.LedgerGateway,
	mappings driven.DocumentMappingStore,
	cursors driven.CursorStore,
	resolver *Resolver,
	sampler driven.Sampler,
	invoiceTransform driven.Transform,
	receiptTransform driven.Transform,
	sourceSystem string,
) *SalesSync {
	return &SalesSync{
		source:           source,
		ledger:           ledger,
		mappings:         mappings,
		cursors:          cursors,
		resolver:         resolver,
		sampler:          sampler,
		invoiceTransform: invoiceTransform,
		receiptTransform: receiptTransform,
		sourceSystem:     sourceSystem,
		Strict:           true,
	}
}

// Run pulls sales documents for [from, to], posts the standard invoice
// stream and then the cash-like receipt stream, and advances both cursors.
// The cursors move only when both passes complete; an abort leaves them
// untouched so the next run re-scans the window (idempotent via mappings).
func (s *SalesSync) Run(ctx context.Context, from, to time.Time) (Report, error) {
	var report Report

	docs, err := s.source.FetchSalesDocuments(ctx, from, to)
	if err != nil {
		return report, fmt.Errorf("fetch sales documents: %w", err)
	}
	if err := s.runPass(ctx, docs, model.DocTypeSale, &report); err != nil {
		return report, err
	}

	cashDocs, err := s.source.FetchCashLikeSales(ctx, from, to)
	if err != nil {
		return report, fmt.Errorf("fetch cash-like sales: %w", err)
	}
	if err := s.runPass(ctx, cashDocs, model.DocTypeCash, &report); err != nil {
		return report, err
	}

	if err := s.cursors.Advance(ctx, model.StreamSales, to); err != nil {
		return report, fmt.Errorf("advance sales cursor: %w", err)
	}
	if err := s.cursors.Advance(ctx, model.StreamCashSales, to); err != nil {
		return report, fmt.Errorf("advance cash cursor: %w", err)
	}

	slog.Info("sales sync complete",
		"from", from, "to", to,
		"pulled", report.Pulled,
		"created", report.Created,
		"skipped", report.Skipped,
	)
	return report, nil
}

func (s *SalesSync) runPass(ctx context.Context, docs []model.FiscalDocument, docType model.DocType, report *Report) error {
	for _, doc := range docs {
		report.Pulled++

		if err := s.processOne(ctx, doc, docType, report); err != nil {
			report.Failed++
			return err
		}
	}
	return nil
}

func (s *SalesSync) processOne(ctx context.Context, doc model.FiscalDocument, docType model.DocType, report *Report) error {
	key := doc.SaleKey()
	if key == "" {
		s.sampler.Sample("sales_missing_key", "doc_type", docType)
		report.Skipped++
		return nil
	}

	mapped, err := s.mappings.Exists(ctx, s.sourceSystem, docType, key)
	if err != nil {
		return fmt.Errorf("check mapping for %q: %w", key, err)
	}
	if mapped {
		report.Skipped++
		return nil
	}

	// Resolve the buyer when the document names one; retail sales without a
	// buyer tax id post without a customer reference.
	if doc.BuyerTaxID != "" {
		customerID, err := s.resolver.ResolveCustomer(ctx, doc.BuyerTaxID, doc.BuyerName)
		if err != nil {
			return s.classifyPostError(fmt.Errorf("resolve customer for %q: %w", key, err), report)
		}
		if doc.Raw == nil {
			doc.Raw = make(map[string]any)
		}
		doc.Raw["CustomerRef"] = customerID
	}

	transform := s.invoiceTransform
	entityType := model.EntityInvoice
	post := s.ledger.CreateInvoice
	if docType == model.DocTypeCash {
		transform = s.receiptTransform
		entityType = model.EntityReceipt
		post = s.ledger.CreateReceipt
	}

	payload, err := transform(doc)
	if err != nil {
		return fmt.Errorf("transform %q: %w", key, err)
	}

	res, err := post(ctx, payload)
	if err != nil {
		return s.classifyPostError(fmt.Errorf("post %s %q: %w", entityType, key, err), report)
	}
	if res.EntityID == "" {
		// Non-fatal anomaly: the ledger accepted the payload but the
		// response carried no entity id, so there is nothing to map.
		s.sampler.Sample("post_without_entity_id", "doc_type", docType, "key", key)
		report.Skipped++
		return nil
	}

	attachPDF(ctx, s.source, s.ledger, doc, entityType, res.EntityID, s.sampler)

	err = s.mappings.Record(ctx, model.DocumentMapping{
		SourceSystem:     s.sourceSystem,
		DocType:          docType,
		SourceKey:        key,
		LedgerEntityType: entityType,
		LedgerEntityID:   res.EntityID,
	})
	if errors.Is(err, driven.ErrDuplicateMapping) {
		// A concurrent run recorded the key between our check and insert.
		slog.Warn("mapping already recorded by another run", "doc_type", docType, "key", key)
		report.Skipped++
		return nil
	}
	if err != nil {
		return err
	}

	report.Created++
	return nil
}

// classifyPostError applies the configured failure policy: strict runs
// propagate every post failure, lenient runs downgrade benign ledger
// rejections to per-document skips.
func (s *SalesSync) classifyPostError(err error, report *Report) error {
	if !s.Strict && driven.IsBenignLedgerRejection(err) {
		slog.Warn("sales post skipped on benign ledger rejection", "error", err)
		report.Skipped++
		return nil
	}
	return err
}
