package application

import (
	"context"
	"fmt"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// Resolver maps counter-party tax ids to ledger entity ids, creating the
// ledger entity on first sight and caching the mapping. A per-run memo
// keeps repeat tax ids in one window from touching the store or the ledger
// twice. The store Upsert leaves room for a pre-check-then-create
// transaction if concurrent runs are ever introduced; today the small race
// window on an uncached tax id is accepted (single-writer batch runs).
type Resolver struct {
	master driven.MasterDataStore
	ledger driven.LedgerGateway

	memo map[memoKey]string
}

type memoKey struct {
	kind model.MasterKind
	key  string
}

// NewResolver creates a Resolver over the master-data store and ledger gateway.
func NewResolver(master driven.MasterDataStore, ledger driven.LedgerGateway) *Resolver {
	return &Resolver{
		master: master,
		ledger: ledger,
		memo:   make(map[memoKey]string),
	}
}

// ResolveVendor returns the ledger vendor id for a tax id, creating the
// vendor with the given display name when no mapping exists yet.
func (r *Resolver) ResolveVendor(ctx context.Context, taxID, displayName string) (string, error) {
	return r.resolve(ctx, model.MasterVendor, taxID, displayName, r.ledger.CreateVendor)
}

// ResolveCustomer returns the ledger customer id for a tax id, creating the
// customer with the given display name when no mapping exists yet.
func (r *Resolver) ResolveCustomer(ctx context.Context, taxID, displayName string) (string, error) {
	return r.resolve(ctx, model.MasterCustomer, taxID, displayName, r.ledger.CreateCustomer)
}

func (r *Resolver) resolve(
	ctx context.Context,
	kind model.MasterKind,
	taxID, displayName string,
	create func(context.Context, map[string]any) (driven.CreateResult, error),
) (string, error) {
	if taxID == "" {
		return "", fmt.Errorf("resolve %s: empty tax id", kind)
	}

	mk := memoKey{kind: kind, key: taxID}
	if id, ok := r.memo[mk]; ok {
		return id, nil
	}

	mapping, err := r.master.Get(ctx, kind, taxID)
	if err != nil {
		return "", err
	}
	if mapping != nil {
		r.memo[mk] = mapping.LedgerEntityID
		return mapping.LedgerEntityID, nil
	}

	if displayName == "" {
		displayName = taxID
	}
	res, err := create(ctx, map[string]any{
		"DisplayName":   displayName,
		"TaxIdentifier": taxID,
	})
	if err != nil {
		return "", fmt.Errorf("create %s for %q: %w", kind, taxID, err)
	}
	if res.EntityID == "" {
		return "", fmt.Errorf("create %s for %q: ledger returned no entity id", kind, taxID)
	}

	if err := r.master.Upsert(ctx, model.MasterDataMapping{
		Kind:           kind,
		SourceKey:      taxID,
		LedgerEntityID: res.EntityID,
	}); err != nil {
		return "", fmt.Errorf("store %s mapping for %q: %w", kind, taxID, err)
	}

	r.memo[mk] = res.EntityID
	return res.EntityID, nil
}
