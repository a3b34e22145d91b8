package driven

import (
	"context"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
)

// TokenSource hands out a currently valid bearer token for a platform and
// tenant, refreshing transparently when needed. Gateways call this before
// every request.
type TokenSource interface {
	Token(ctx context.Context, platform model.Platform, tenant string) (model.Token, error)
}

// TokenFetcher performs one fresh token fetch against a platform's auth
// endpoint. Implemented by the gateway adapters; called by the token cache
// only when neither cache tier holds a valid token.
type TokenFetcher interface {
	FetchToken(ctx context.Context, tenant string) (model.Token, error)
}
