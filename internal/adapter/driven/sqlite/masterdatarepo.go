package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MasterDataStore = (*MasterDataRepo)(nil)

// MasterDataRepo is the SQLite implementation of the MasterDataStore port.
type MasterDataRepo struct {
	db *DB
}

// NewMasterDataRepo creates a new MasterDataRepo backed by the given DB.
func NewMasterDataRepo(db *DB) *MasterDataRepo {
	return &MasterDataRepo{db: db}
}

// Upsert inserts or replaces the ledger entity id for a counter-party key.
// Unlike document mappings, re-mapping is allowed so manual fixes stick.
func (r *MasterDataRepo) Upsert(ctx context.Context, m model.MasterDataMapping) error {
	const query = `
		INSERT INTO master_data_mappings (kind, source_key, ledger_entity_id, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(kind, source_key) DO UPDATE SET
			ledger_entity_id = excluded.ledger_entity_id,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.Writer.ExecContext(ctx, query, string(m.Kind), m.SourceKey, m.LedgerEntityID)
	if err != nil {
		return fmt.Errorf("upsert %s mapping %q: %w", m.Kind, m.SourceKey, err)
	}
	return nil
}

// Get retrieves the mapping for a counter-party key. Returns nil, nil when
// no mapping exists.
func (r *MasterDataRepo) Get(ctx context.Context, kind model.MasterKind, sourceKey string) (*model.MasterDataMapping, error) {
	const query = `
		SELECT kind, source_key, ledger_entity_id FROM master_data_mappings
		WHERE kind = ? AND source_key = ?
	`
	var m model.MasterDataMapping
	var kindStr string
	err := r.db.Reader.QueryRowContext(ctx, query, string(kind), sourceKey).
		Scan(&kindStr, &m.SourceKey, &m.LedgerEntityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s mapping %q: %w", kind, sourceKey, err)
	}
	m.Kind = model.MasterKind(kindStr)
	return &m, nil
}
