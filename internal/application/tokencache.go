package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// DefaultTokenSkew is the margin before expiry at which a token is treated
// as already expired, covering clock drift and in-flight request latency.
const DefaultTokenSkew = 60 * time.Second

// Compile-time interface satisfaction check.
var _ driven.TokenSource = (*TokenCache)(nil)

type tokenKey struct {
	platform model.Platform
	tenant   string
}

// TokenCache hands out valid bearer tokens, consulting three tiers in
// order on every call: the in-memory cache, the durable token store (a
// still-valid token written by a concurrent process), and finally a fresh
// fetch against the platform's auth endpoint. The fetch is serialized per
// (platform, tenant) pair, so concurrent gateway calls within one run
// trigger at most one auth-endpoint round trip without one platform's
// refresh stalling the other's.
type TokenCache struct {
	store    driven.TokenStore
	fetchers map[model.Platform]driven.TokenFetcher
	skew     time.Duration
	now      func() time.Time

	mu    sync.Mutex // guards mem and locks, never held across a fetch
	mem   map[tokenKey]model.Token
	locks map[tokenKey]*sync.Mutex
}

// NewTokenCache creates a TokenCache over the durable store with the
// default skew margin. Fetchers are registered per platform afterwards.
func NewTokenCache(store driven.TokenStore) *TokenCache {
	return &TokenCache{
		store:    store,
		fetchers: make(map[model.Platform]driven.TokenFetcher),
		skew:     DefaultTokenSkew,
		now:      time.Now,
		mem:      make(map[tokenKey]model.Token),
		locks:    make(map[tokenKey]*sync.Mutex),
	}
}

// RegisterFetcher installs the auth-endpoint fetcher for a platform.
// Registration happens at wiring time, before any Token call.
func (c *TokenCache) RegisterFetcher(platform model.Platform, f driven.TokenFetcher) {
	c.fetchers[platform] = f
}

// Token returns a token valid for at least the skew margin. All three
// lookup tiers are attempted in order on every call — never straight to
// fetch — to minimize redundant auth calls across processes sharing the
// durable store.
func (c *TokenCache) Token(ctx context.Context, platform model.Platform, tenant string) (model.Token, error) {
	key := tokenKey{platform: platform, tenant: tenant}

	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	now := c.now()
	c.mu.Lock()
	tok, ok := c.mem[key]
	c.mu.Unlock()
	if ok && tok.Valid(now, c.skew) {
		return tok, nil
	}

	if stored, err := c.store.Get(ctx, platform, tenant); err != nil {
		slog.Warn("token store read failed, falling back to fetch", "platform", platform, "error", err)
	} else if stored != nil && stored.Valid(now, c.skew) {
		c.mu.Lock()
		c.mem[key] = *stored
		c.mu.Unlock()
		return *stored, nil
	}

	fetcher, ok := c.fetchers[platform]
	if !ok {
		return model.Token{}, &driven.AuthError{Platform: platform, Err: fmt.Errorf("no token fetcher registered")}
	}

	fetched, err := fetcher.FetchToken(ctx, tenant)
	if err != nil {
		return model.Token{}, wrapAuthError(platform, err)
	}
	if fetched.AccessToken == "" {
		return model.Token{}, &driven.AuthError{Platform: platform, Err: fmt.Errorf("auth response lacked an access token")}
	}

	// A persist failure degrades cross-process reuse but must not fail a
	// run that already holds a usable token.
	if err := c.store.Upsert(ctx, platform, tenant, fetched); err != nil {
		slog.Warn("token persist failed", "platform", platform, "error", err)
	}

	c.mu.Lock()
	c.mem[key] = fetched
	c.mu.Unlock()
	return fetched, nil
}

// Invalidate drops the cached and persisted token for a pair. This is the
// administrative reset path; tokens are otherwise only superseded, never
// deleted.
func (c *TokenCache) Invalidate(ctx context.Context, platform model.Platform, tenant string) error {
	key := tokenKey{platform: platform, tenant: tenant}

	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	delete(c.mem, key)
	c.mu.Unlock()
	return c.store.Delete(ctx, platform, tenant)
}

// keyLock returns the mutex serializing lookups and fetches for one
// (platform, tenant) pair.
func (c *TokenCache) keyLock(key tokenKey) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}
	return lock
}

func wrapAuthError(platform model.Platform, err error) error {
	var aerr *driven.AuthError
	if errors.As(err, &aerr) {
		return err
	}
	return &driven.AuthError{Platform: platform, Err: err}
}
