// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// Vault resolves per-tenant platform credentials from the encrypted store.
// It is stateless besides the backing store; plaintext passwords exist only
// in the returned value, for the duration of a token fetch.
type Vault struct {
	creds driven.CredentialStore
}

// NewVault creates a Vault over the given credential store.
func NewVault(creds driven.CredentialStore) *Vault {
	return &Vault{creds: creds}
}

// Resolve returns the decrypted credential for a tenant.
// driven.ErrEncryptionKeyNotSet and driven.ErrCredentialNotFound pass
// through untouched; a decryption failure (wrong key, corrupt ciphertext)
// is reported as an *driven.AuthError.
func (v *Vault) Resolve(ctx context.Context, tenant string) (model.Credential, error) {
	cred, err := v.creds.Get(ctx, tenant)
	if err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) || errors.Is(err, driven.ErrCredentialNotFound) {
			return model.Credential{}, err
		}
		return model.Credential{}, &driven.AuthError{Platform: model.PlatformSource, Err: err}
	}
	return cred, nil
}
