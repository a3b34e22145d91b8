package driven

import "github.com/fiscalsync/fiscalsync/internal/domain/model"

// Transform builds a ledger payload from a source document. It is a pure
// function supplied per entity family (invoice, bill, receipt); the sync
// engine injects resolved master-data ids into the document before calling
// it and never inspects the payload it returns.
type Transform func(doc model.FiscalDocument) (map[string]any, error)
