// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath    string
	SecretKey []byte // 32-byte AES key for credential storage; nil when unset.
	Tenant    string

	SourceBaseURL string
	// SourceUsername/SourcePassword, when both set, are written to the
	// encrypted credential store at startup. They live in memory only;
	// the store is the durable copy.
	SourceUsername string
	SourcePassword string

	LedgerBaseURL      string
	LedgerTokenURL     string
	LedgerClientID     string
	LedgerClientSecret string
	LedgerRefreshToken string
	LedgerRealm        string

	// Lookback bounds the first window when a stream has no cursor yet.
	Lookback time.Duration
	// Interval between runs; 0 means run once and exit.
	Interval time.Duration
	// StrictSales aborts the sales run on any post failure. When false,
	// benign ledger rejections downgrade to skips like the purchase stream.
	StrictSales bool
}

// Load reads configuration from environment variables and returns a
// validated Config. FISCALSYNC_TENANT and the three remote URLs are
// required. FISCALSYNC_SECRET_KEY is optional at load time; credential
// operations fail without it. Optional variables with defaults:
// FISCALSYNC_DB_PATH (fiscalsync.db), FISCALSYNC_LOOKBACK (24h),
// FISCALSYNC_INTERVAL (0, one-shot), FISCALSYNC_STRICT_SALES (true).
// FISCALSYNC_SOURCE_USERNAME/FISCALSYNC_SOURCE_PASSWORD seed the encrypted
// credential store at startup when both are present.
func Load() (*Config, error) {
	tenant := os.Getenv("FISCALSYNC_TENANT")
	if tenant == "" {
		return nil, fmt.Errorf("FISCALSYNC_TENANT is required")
	}

	sourceBaseURL := os.Getenv("FISCALSYNC_SOURCE_BASE_URL")
	if sourceBaseURL == "" {
		return nil, fmt.Errorf("FISCALSYNC_SOURCE_BASE_URL is required")
	}
	ledgerBaseURL := os.Getenv("FISCALSYNC_LEDGER_BASE_URL")
	if ledgerBaseURL == "" {
		return nil, fmt.Errorf("FISCALSYNC_LEDGER_BASE_URL is required")
	}
	ledgerTokenURL := os.Getenv("FISCALSYNC_LEDGER_TOKEN_URL")
	if ledgerTokenURL == "" {
		return nil, fmt.Errorf("FISCALSYNC_LEDGER_TOKEN_URL is required")
	}

	var secretKey []byte
	if v := os.Getenv("FISCALSYNC_SECRET_KEY"); v != "" {
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("FISCALSYNC_SECRET_KEY is not valid base64: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("FISCALSYNC_SECRET_KEY must decode to 32 bytes, got %d", len(decoded))
		}
		secretKey = decoded
	}

	dbPath := "fiscalsync.db"
	if v, ok := os.LookupEnv("FISCALSYNC_DB_PATH"); ok {
		dbPath = v
	}

	lookback := 24 * time.Hour
	if v, ok := os.LookupEnv("FISCALSYNC_LOOKBACK"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("FISCALSYNC_LOOKBACK has invalid duration %q: %w", v, err)
		}
		lookback = parsed
	}

	var interval time.Duration
	if v, ok := os.LookupEnv("FISCALSYNC_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("FISCALSYNC_INTERVAL has invalid duration %q: %w", v, err)
		}
		interval = parsed
	}

	strictSales := true
	if v, ok := os.LookupEnv("FISCALSYNC_STRICT_SALES"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("FISCALSYNC_STRICT_SALES has invalid bool %q: %w", v, err)
		}
		strictSales = parsed
	}

	return &Config{
		DBPath:             dbPath,
		SecretKey:          secretKey,
		Tenant:             tenant,
		SourceBaseURL:      sourceBaseURL,
		SourceUsername:     os.Getenv("FISCALSYNC_SOURCE_USERNAME"),
		SourcePassword:     os.Getenv("FISCALSYNC_SOURCE_PASSWORD"),
		LedgerBaseURL:      ledgerBaseURL,
		LedgerTokenURL:     ledgerTokenURL,
		LedgerClientID:     os.Getenv("FISCALSYNC_LEDGER_CLIENT_ID"),
		LedgerClientSecret: os.Getenv("FISCALSYNC_LEDGER_CLIENT_SECRET"),
		LedgerRefreshToken: os.Getenv("FISCALSYNC_LEDGER_REFRESH_TOKEN"),
		LedgerRealm:        os.Getenv("FISCALSYNC_LEDGER_REALM"),
		Lookback:           lookback,
		Interval:           interval,
		StrictSales:        strictSales,
	}, nil
}
