// Package sqlite implements the driven store ports on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DocumentMappingStore = (*MappingRepo)(nil)

// MappingRepo is the SQLite implementation of the DocumentMappingStore port.
type MappingRepo struct {
	db *DB
}

// NewMappingRepo creates a new MappingRepo backed by the given DB.
func NewMappingRepo(db *DB) *MappingRepo {
	return &MappingRepo{db: db}
}

// Record inserts a document mapping. It is deliberately a plain INSERT so
// the unique (source_system, doc_type, source_key) constraint, not an
// application check, decides whether the key was already posted. A
// constraint rejection surfaces as driven.ErrDuplicateMapping.
func (r *MappingRepo) Record(ctx context.Context, m model.DocumentMapping) error {
	const query = `
		INSERT INTO document_mappings (source_system, doc_type, source_key, ledger_entity_type, ledger_entity_id)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.Writer.ExecContext(ctx, query,
		m.SourceSystem, string(m.DocType), m.SourceKey, string(m.LedgerEntityType), m.LedgerEntityID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("record mapping %s/%s/%s: %w", m.SourceSystem, m.DocType, m.SourceKey, driven.ErrDuplicateMapping)
		}
		return fmt.Errorf("record mapping %s/%s/%s: %w", m.SourceSystem, m.DocType, m.SourceKey, err)
	}
	return nil
}

// Exists reports whether a mapping is already recorded for the given key.
func (r *MappingRepo) Exists(ctx context.Context, system string, docType model.DocType, key string) (bool, error) {
	const query = `
		SELECT 1 FROM document_mappings
		WHERE source_system = ? AND doc_type = ? AND source_key = ?
	`
	var one int
	err := r.db.Reader.QueryRowContext(ctx, query, system, string(docType), key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check mapping %s/%s/%s: %w", system, docType, key, err)
	}
	return true, nil
}

// GetByKey retrieves a mapping by its idempotency key. Returns nil, nil when
// no mapping exists.
func (r *MappingRepo) GetByKey(ctx context.Context, system string, docType model.DocType, key string) (*model.DocumentMapping, error) {
	const query = `
		SELECT source_system, doc_type, source_key, ledger_entity_type, ledger_entity_id, created_at
		FROM document_mappings
		WHERE source_system = ? AND doc_type = ? AND source_key = ?
	`
	var m model.DocumentMapping
	var docTypeStr, entityTypeStr, createdAt string
	err := r.db.Reader.QueryRowContext(ctx, query, system, string(docType), key).
		Scan(&m.SourceSystem, &docTypeStr, &m.SourceKey, &entityTypeStr, &m.LedgerEntityID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping %s/%s/%s: %w", system, docType, key, err)
	}

	m.DocType = model.DocType(docTypeStr)
	m.LedgerEntityType = model.LedgerEntityType(entityTypeStr)
	m.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for mapping %s: %w", key, err)
	}
	return &m, nil
}
