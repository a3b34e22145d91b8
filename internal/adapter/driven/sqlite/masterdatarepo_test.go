package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
)

func TestMasterDataRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMasterDataRepo(db)

	got, err := repo.Get(context.Background(), model.MasterVendor, "K11715005L")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMasterDataRepo_UpsertReplacesMapping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMasterDataRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.MasterDataMapping{
		Kind: model.MasterVendor, SourceKey: "K11715005L", LedgerEntityID: "55",
	}))
	// Re-mapping corrects the ledger id (e.g. after a manual fix).
	require.NoError(t, repo.Upsert(ctx, model.MasterDataMapping{
		Kind: model.MasterVendor, SourceKey: "K11715005L", LedgerEntityID: "56",
	}))

	got, err := repo.Get(ctx, model.MasterVendor, "K11715005L")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "56", got.LedgerEntityID)
}

func TestMasterDataRepo_KindsAreIndependent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMasterDataRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.MasterDataMapping{
		Kind: model.MasterVendor, SourceKey: "J91812011N", LedgerEntityID: "1",
	}))
	require.NoError(t, repo.Upsert(ctx, model.MasterDataMapping{
		Kind: model.MasterCustomer, SourceKey: "J91812011N", LedgerEntityID: "2",
	}))

	vendor, err := repo.Get(ctx, model.MasterVendor, "J91812011N")
	require.NoError(t, err)
	require.NotNil(t, vendor)
	assert.Equal(t, "1", vendor.LedgerEntityID)

	customer, err := repo.Get(ctx, model.MasterCustomer, "J91812011N")
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "2", customer.LedgerEntityID)
}
