package devpos

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fiscalsync/fiscalsync/internal/adapter/driven/httpx"
	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// credentialResolver is the slice of the vault the authenticator needs.
type credentialResolver interface {
	Resolve(ctx context.Context, tenant string) (model.Credential, error)
}

// Compile-time interface satisfaction check.
var _ driven.TokenFetcher = (*Authenticator)(nil)

// Authenticator performs the password-grant token fetch against the
// platform's login endpoint. It is registered with the token cache, which
// calls it only when neither cache tier holds a valid token.
type Authenticator struct {
	baseURL string
	vault   credentialResolver
	http    *http.Client
}

// NewAuthenticator creates an Authenticator resolving credentials through
// the given vault.
func NewAuthenticator(baseURL string, vault credentialResolver) *Authenticator {
	return &Authenticator{baseURL: baseURL, vault: vault, http: httpx.NewClient(nil)}
}

// NewAuthenticatorWithHTTPClient is the test constructor.
func NewAuthenticatorWithHTTPClient(httpClient *http.Client, baseURL string, vault credentialResolver) *Authenticator {
	return &Authenticator{baseURL: baseURL, vault: vault, http: httpClient}
}

// FetchToken resolves the tenant's credential and exchanges it for a bearer
// token. The plaintext password lives only inside this call.
func (a *Authenticator) FetchToken(ctx context.Context, tenant string) (model.Token, error) {
	cred, err := a.vault.Resolve(ctx, tenant)
	if err != nil {
		return model.Token{}, err
	}

	const op = "devpos: login"
	resp, err := httpx.Do(ctx, a.http, op, func(ctx context.Context) (*http.Request, error) {
		body, err := httpx.EncodeJSON(map[string]string{
			"userName": cred.Username,
			"password": cred.Password,
		})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/v3/auth/login", body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return model.Token{}, &driven.AuthError{Platform: model.PlatformSource, Err: err}
	}

	var parsed struct {
		AccessToken string `json:"accessToken"`
		TokenType   string `json:"tokenType"`
		ExpiresIn   int    `json:"expiresIn"`
	}
	if err := httpx.DecodeJSON(resp, op, &parsed); err != nil {
		return model.Token{}, &driven.AuthError{Platform: model.PlatformSource, Err: err}
	}
	if parsed.AccessToken == "" {
		return model.Token{}, &driven.AuthError{Platform: model.PlatformSource, Err: fmt.Errorf("login response lacked an access token")}
	}

	tokenType := parsed.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return model.Token{
		AccessToken: parsed.AccessToken,
		TokenType:   tokenType,
		ExpiresAt:   time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second),
	}, nil
}
