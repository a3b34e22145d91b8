package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// Passwords are encrypted with AES-256-GCM before write and decrypted after
// read; usernames are stored in the clear.
type CredentialRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewCredentialRepo creates a new CredentialRepo. key must be 32 bytes for
// AES-256-GCM, or nil to disable credential storage (all operations will
// return driven.ErrEncryptionKeyNotSet).
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, key: key}
}

// Set stores or replaces the credential for the credential's tenant.
func (r *CredentialRepo) Set(ctx context.Context, cred model.Credential) error {
	encrypted, err := r.encrypt(cred.Password)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO credentials (tenant, username, password_enc, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(tenant) DO UPDATE SET
			username = excluded.username,
			password_enc = excluded.password_enc,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err = r.db.Writer.ExecContext(ctx, query, cred.Tenant, cred.Username, encrypted)
	if err != nil {
		return fmt.Errorf("set credential for %q: %w", cred.Tenant, err)
	}
	return nil
}

// Get retrieves the decrypted credential for a tenant. Returns
// driven.ErrCredentialNotFound when no row exists. The plaintext password is
// held in the return value only; it is never logged here or by callers.
func (r *CredentialRepo) Get(ctx context.Context, tenant string) (model.Credential, error) {
	if r.key == nil {
		return model.Credential{}, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT username, password_enc FROM credentials WHERE tenant = ?`
	var username, encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, tenant).Scan(&username, &encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Credential{}, fmt.Errorf("credential for %q: %w", tenant, driven.ErrCredentialNotFound)
	}
	if err != nil {
		return model.Credential{}, fmt.Errorf("get credential for %q: %w", tenant, err)
	}

	plaintext, err := r.decrypt(encrypted)
	if err != nil {
		return model.Credential{}, fmt.Errorf("decrypt credential for %q: %w", tenant, err)
	}

	return model.Credential{Tenant: tenant, Username: username, Password: plaintext}, nil
}

// Delete removes the credential for a tenant.
func (r *CredentialRepo) Delete(ctx context.Context, tenant string) error {
	const query = `DELETE FROM credentials WHERE tenant = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, tenant); err != nil {
		return fmt.Errorf("delete credential for %q: %w", tenant, err)
	}
	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded
// string containing the nonce (12 bytes) prepended to the ciphertext.
func (r *CredentialRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *CredentialRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}
