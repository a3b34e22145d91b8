package application

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// attachPDF uploads the document's PDF to the newly created ledger entity.
// The whole path is best-effort: a missing detail record, an undecodable or
// empty payload, or a failed upload is sampled or logged and swallowed —
// attachment must never fail the posting of the primary document.
func attachPDF(
	ctx context.Context,
	source driven.SourceGateway,
	ledger driven.LedgerGateway,
	doc model.FiscalDocument,
	entityType model.LedgerEntityType,
	entityID string,
	sampler driven.Sampler,
) {
	payload := doc.PDFBase64
	if payload == "" {
		detail, err := source.FetchDocumentDetail(ctx, doc.SaleKey())
		if err != nil || detail == nil {
			return
		}
		payload = detail.PDFBase64
	}
	if payload == "" {
		return
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		sampler.Sample("pdf_decode_failed", "doc_number", doc.DocNumber)
		return
	}

	filename := "document.pdf"
	if doc.DocNumber != "" {
		filename = doc.DocNumber + ".pdf"
	}

	if err := ledger.UploadAttachment(ctx, entityType, entityID, filename, data); err != nil {
		slog.Warn("pdf attachment upload failed",
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
	}
}
