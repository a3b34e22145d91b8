package sqlite

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestCredentialRepo_SetGetRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	cred := model.Credential{Tenant: "acme", Username: "operator@acme", Password: "s3cret"}
	require.NoError(t, repo.Set(ctx, cred))

	got, err := repo.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, cred, got)
}

func TestCredentialRepo_PasswordEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.Credential{Tenant: "acme", Username: "u", Password: "hunter2"}))

	var stored string
	err := db.Reader.QueryRowContext(ctx, `SELECT password_enc FROM credentials WHERE tenant = ?`, "acme").Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "hunter2")
}

func TestCredentialRepo_GetMissingTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())

	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
}

func TestCredentialRepo_NoKeyConfigured(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, nil)
	ctx := context.Background()

	err := repo.Set(ctx, model.Credential{Tenant: "acme", Username: "u", Password: "p"})
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.Get(ctx, "acme")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestCredentialRepo_WrongKeyFailsDecryption(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	writer := NewCredentialRepo(db, testKey())
	require.NoError(t, writer.Set(ctx, model.Credential{Tenant: "acme", Username: "u", Password: "p"}))

	reader := NewCredentialRepo(db, bytes.Repeat([]byte{0x24}, 32))
	_, err := reader.Get(ctx, "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt credential")
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.Credential{Tenant: "acme", Username: "u", Password: "p"}))
	require.NoError(t, repo.Delete(ctx, "acme"))

	_, err := repo.Get(ctx, "acme")
	assert.ErrorIs(t, err, driven.ErrCredentialNotFound)
}
