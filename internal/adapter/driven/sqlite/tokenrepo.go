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
var _ driven.TokenStore = (*TokenRepo)(nil)

// TokenRepo is the SQLite implementation of the TokenStore port.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo creates a new TokenRepo backed by the given DB.
func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// Upsert stores a token with last-write-wins semantics on (platform, tenant).
// A newer fetch always supersedes whatever another process wrote.
func (r *TokenRepo) Upsert(ctx context.Context, platform model.Platform, tenant string, token model.Token) error {
	const query = `
		INSERT INTO tokens (platform, tenant, access_token, token_type, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(platform, tenant) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.Writer.ExecContext(ctx, query,
		string(platform), tenant, token.AccessToken, token.TokenType, formatTime(token.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("upsert token %s/%s: %w", platform, tenant, err)
	}
	return nil
}

// Get retrieves the stored token for a platform and tenant. Returns nil, nil
// when no token has been persisted.
func (r *TokenRepo) Get(ctx context.Context, platform model.Platform, tenant string) (*model.Token, error) {
	const query = `
		SELECT access_token, token_type, expires_at FROM tokens
		WHERE platform = ? AND tenant = ?
	`
	var t model.Token
	var expiresAt string
	err := r.db.Reader.QueryRowContext(ctx, query, string(platform), tenant).
		Scan(&t.AccessToken, &t.TokenType, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token %s/%s: %w", platform, tenant, err)
	}

	t.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at for token %s/%s: %w", platform, tenant, err)
	}
	return &t, nil
}

// Delete removes the stored token. Used only for administrative resets.
func (r *TokenRepo) Delete(ctx context.Context, platform model.Platform, tenant string) error {
	const query = `DELETE FROM tokens WHERE platform = ? AND tenant = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, string(platform), tenant); err != nil {
		return fmt.Errorf("delete token %s/%s: %w", platform, tenant, err)
	}
	return nil
}
