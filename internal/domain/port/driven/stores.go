package driven

import (
	"context"
	"time"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
)

// DocumentMappingStore is the durable idempotency ledger. Record must be an
// insert-or-fail against a database-level unique constraint, never a
// check-then-insert, so two racing processes cannot both record the same key.
type DocumentMappingStore interface {
	Record(ctx context.Context, m model.DocumentMapping) error
	Exists(ctx context.Context, system string, docType model.DocType, key string) (bool, error)
	GetByKey(ctx context.Context, system string, docType model.DocType, key string) (*model.DocumentMapping, error)
}

// MasterDataStore persists counter-party mappings. Upsert semantics are
// explicit so a future concurrent deployment can wrap lookup+create in a
// transaction without changing callers.
type MasterDataStore interface {
	Upsert(ctx context.Context, m model.MasterDataMapping) error
	Get(ctx context.Context, kind model.MasterKind, sourceKey string) (*model.MasterDataMapping, error)
}

// TokenStore persists bearer tokens so concurrent processes sharing the
// database can reuse each other's tokens. Upsert is last-write-wins on
// (platform, tenant).
type TokenStore interface {
	Upsert(ctx context.Context, platform model.Platform, tenant string, token model.Token) error
	Get(ctx context.Context, platform model.Platform, tenant string) (*model.Token, error)
	Delete(ctx context.Context, platform model.Platform, tenant string) error
}

// CursorStore persists per-stream progress cursors. Advance is monotonic:
// an older timestamp never rolls an existing cursor back.
type CursorStore interface {
	Get(ctx context.Context, stream string) (*model.SyncCursor, error)
	Advance(ctx context.Context, stream string, to time.Time) error
}

// CredentialStore persists tenant credentials encrypted at rest. Get
// returns the decrypted credential; ErrCredentialNotFound when no row
// exists, ErrEncryptionKeyNotSet when the store has no key.
type CredentialStore interface {
	Set(ctx context.Context, cred model.Credential) error
	Get(ctx context.Context, tenant string) (model.Credential, error)
	Delete(ctx context.Context, tenant string) error
}
