package model

import "time"

// Token is a bearer token for one (platform, tenant) pair. A newer fetch
// always supersedes the stored token (last-write-wins upsert); tokens are
// never deleted outside an administrative reset.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Valid reports whether the token is still usable at the given instant.
// skew guards against clock drift and in-flight request latency: a token
// within skew of its expiry is treated as already expired.
func (t Token) Valid(now time.Time, skew time.Duration) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-skew))
}
