package model

import "time"

// DocumentMapping records that one source document has been posted to the
// ledger. (SourceSystem, DocType, SourceKey) is unique and is the
// idempotency key that prevents double-posting; rows are written exactly
// once per successful post and never updated.
type DocumentMapping struct {
	SourceSystem     string
	DocType          DocType
	SourceKey        string
	LedgerEntityType LedgerEntityType
	LedgerEntityID   string
	CreatedAt        time.Time
}

// MasterDataMapping links a counter-party tax id to the ledger entity that
// represents it. Unlike document mappings these are upsertable, so a bad
// link can be corrected by re-mapping.
type MasterDataMapping struct {
	Kind           MasterKind
	SourceKey      string // tax id / NUIS
	LedgerEntityID string
}
