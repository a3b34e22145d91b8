package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	devposadapter "github.com/fiscalsync/fiscalsync/internal/adapter/driven/devpos"
	qboadapter "github.com/fiscalsync/fiscalsync/internal/adapter/driven/qbo"
	sqliteadapter "github.com/fiscalsync/fiscalsync/internal/adapter/driven/sqlite"
	"github.com/fiscalsync/fiscalsync/internal/application"
	"github.com/fiscalsync/fiscalsync/internal/config"
	"github.com/fiscalsync/fiscalsync/internal/domain/model"
	"github.com/fiscalsync/fiscalsync/internal/transform"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"tenant", cfg.Tenant,
		"db_path", cfg.DBPath,
		"interval", cfg.Interval,
		"strict_sales", cfg.StrictSales,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire store adapters.
	mappingStore := sqliteadapter.NewMappingRepo(db)
	masterDataStore := sqliteadapter.NewMasterDataRepo(db)
	tokenStore := sqliteadapter.NewTokenRepo(db)
	cursorStore := sqliteadapter.NewCursorRepo(db)
	credentialStore := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)

	// 6. Seed the source credential when provided by env, then wire the
	// token lifecycle: vault feeds the source login, the refresh grant feeds
	// the ledger; both sit behind the shared cache.
	if cfg.SourceUsername != "" && cfg.SourcePassword != "" {
		err := credentialStore.Set(ctx, model.Credential{
			Tenant:   cfg.Tenant,
			Username: cfg.SourceUsername,
			Password: cfg.SourcePassword,
		})
		if err != nil {
			return err
		}
		slog.Info("source credential stored", "tenant", cfg.Tenant)
	}
	vault := application.NewVault(credentialStore)
	tokenCache := application.NewTokenCache(tokenStore)
	tokenCache.RegisterFetcher(model.PlatformSource, devposadapter.NewAuthenticator(cfg.SourceBaseURL, vault))
	tokenCache.RegisterFetcher(model.PlatformLedger, qboadapter.NewAuthenticator(
		cfg.LedgerTokenURL, cfg.LedgerClientID, cfg.LedgerClientSecret, cfg.LedgerRefreshToken,
	))

	// 7. Wire gateways and sync services.
	source := devposadapter.NewClient(cfg.SourceBaseURL, cfg.Tenant, tokenCache)
	ledger := qboadapter.NewClient(cfg.LedgerBaseURL, cfg.LedgerRealm, cfg.Tenant, tokenCache)

	runOnce := func(ctx context.Context) error {
		runID := uuid.NewString()
		sampler := application.NewLogSampler()
		resolver := application.NewResolver(masterDataStore, ledger)
		log := slog.With("run_id", runID)

		salesSync := application.NewSalesSync(
			source, ledger, mappingStore, cursorStore, resolver, sampler,
			transform.Invoice, transform.Receipt, devposadapter.SystemName,
		)
		salesSync.Strict = cfg.StrictSales
		purchaseSync := application.NewPurchaseSync(
			source, ledger, mappingStore, cursorStore, resolver, sampler,
			transform.Bill, devposadapter.SystemName,
		)

		now := time.Now().UTC()

		from, err := windowStart(ctx, cursorStore, model.StreamSales, now, cfg.Lookback)
		if err != nil {
			return err
		}
		salesReport, err := salesSync.Run(ctx, from, now)
		if err != nil {
			return err
		}
		log.Info("sales stream done", "created", salesReport.Created, "skipped", salesReport.Skipped)

		from, err = windowStart(ctx, cursorStore, model.StreamPurchases, now, cfg.Lookback)
		if err != nil {
			return err
		}
		purchaseReport, err := purchaseSync.Run(ctx, from, now)
		if err != nil {
			return err
		}
		log.Info("purchase stream done", "created", purchaseReport.Created, "skipped", purchaseReport.Skipped)

		return nil
	}

	// 8. One-shot or interval loop.
	if cfg.Interval == 0 {
		return runOnce(ctx)
	}

	if err := runOnce(ctx); err != nil {
		slog.Error("initial sync failed", "error", err)
	}
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			return nil
		case <-ticker.C:
			if err := runOnce(ctx); err != nil {
				slog.Error("sync run failed", "error", err)
			}
		}
	}
}

// windowStart computes the lower window bound: the stream's cursor when one
// exists, else now minus the configured lookback. Overlap with previous
// windows is harmless — the mapping store, not the cursor, is the de-dup
// authority.
func windowStart(ctx context.Context, cursors *sqliteadapter.CursorRepo, stream string, now time.Time, lookback time.Duration) (time.Time, error) {
	cursor, err := cursors.Get(ctx, stream)
	if err != nil {
		return time.Time{}, err
	}
	if cursor != nil {
		return cursor.LastSeen, nil
	}
	return now.Add(-lookback), nil
}
