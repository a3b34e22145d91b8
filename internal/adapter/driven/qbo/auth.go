package qbo

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fiscalsync/fiscalsync/internal/adapter/driven/httpx"
	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenFetcher = (*Authenticator)(nil)

// Authenticator exchanges the long-lived refresh token for a fresh access
// token at the platform's OAuth token endpoint.
type Authenticator struct {
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	http         *http.Client
}

// NewAuthenticator creates an Authenticator with the app's client
// credentials and the company's refresh token.
func NewAuthenticator(tokenURL, clientID, clientSecret, refreshToken string) *Authenticator {
	return &Authenticator{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		http:         httpx.NewClient(nil),
	}
}

// NewAuthenticatorWithHTTPClient is the test constructor.
func NewAuthenticatorWithHTTPClient(httpClient *http.Client, tokenURL, clientID, clientSecret, refreshToken string) *Authenticator {
	return &Authenticator{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		http:         httpClient,
	}
}

// FetchToken performs the refresh-token grant. The tenant is implicit in
// the refresh token, which is already scoped to one company.
func (a *Authenticator) FetchToken(ctx context.Context, _ string) (model.Token, error) {
	const op = "qbo: refresh token"

	resp, err := httpx.Do(ctx, a.http, op, func(ctx context.Context) (*http.Request, error) {
		form := url.Values{}
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", a.refreshToken)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		basic := base64.StdEncoding.EncodeToString([]byte(a.clientID + ":" + a.clientSecret))
		req.Header.Set("Authorization", "Basic "+basic)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return model.Token{}, &driven.AuthError{Platform: model.PlatformLedger, Err: err}
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := httpx.DecodeJSON(resp, op, &parsed); err != nil {
		return model.Token{}, &driven.AuthError{Platform: model.PlatformLedger, Err: err}
	}
	if parsed.AccessToken == "" {
		return model.Token{}, &driven.AuthError{Platform: model.PlatformLedger, Err: fmt.Errorf("token response lacked an access token")}
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
