package seed

import (
	"context"
	"errors"

	"github.com/wallet-resolver/internal/logging"
	"github.com/wallet-resolver/internal/retry"
	"github.com/wallet-resolver/internal/storage"
	"github.com/wallet-resolver/internal/types"
)

var errWriteRejected = errors.New("wallet store rejected the write")

// Seeder populates the wallet store with the static seed set so the
// resolver's early layers have data to find on a freshly provisioned
// store. Seeding is idempotent and safe to run on every process start.
type Seeder struct {
	store    *storage.WalletStore
	seeds    *Set
	retryCfg *retry.Config
}

// NewSeeder creates a new seeder
func NewSeeder(store *storage.WalletStore, seeds *Set) *Seeder {
	return &Seeder{
		store:    store,
		seeds:    seeds,
		retryCfg: retry.DefaultConfig(),
	}
}

// InitializeKnownWallets writes every seed entry through the wallet store.
// A failure on a single entry is logged and skipped; the loop always runs
// to completion. Returns false when any entry could not be written.
func (s *Seeder) InitializeKnownWallets(ctx context.Context) bool {
	seeded := 0
	skipped := 0
	failed := 0

	for founderID, wallet := range s.seeds.FounderWallets {
		if !types.IsWalletAddress(wallet) {
			logging.WithFields(map[string]interface{}{
				"founderId": founderID,
				"wallet":    wallet,
			}).Warn("Skipping seed entry with malformed wallet address")
			skipped++
			continue
		}

		// Seed wallets were provided by founders at signup and must
		// survive session-reset sweeps.
		err := retry.Do(ctx, s.retryCfg, func(ctx context.Context, attempt int) error {
			if !s.store.PutWallet(ctx, founderID, wallet, true, types.SourceSeed) {
				return errWriteRejected
			}
			return nil
		})
		if err != nil {
			logging.WithError(err).WithField("founderId", founderID).Warn("Failed to seed founder wallet")
			failed++
			continue
		}
		seeded++
	}

	for startupID, founderID := range s.seeds.StartupFounders {
		// The founder's wallet may be unknown; the record then carries
		// only the association and the resolver derives the wallet later.
		wallet, _ := s.seeds.FounderWallet(founderID)

		fid := founderID
		sid := startupID
		err := retry.Do(ctx, s.retryCfg, func(ctx context.Context, attempt int) error {
			if !s.store.PutStartupWallet(ctx, sid, fid, wallet, types.SourceSeed) {
				return errWriteRejected
			}
			return nil
		})
		if err != nil {
			logging.WithError(err).WithField("startupId", startupID).Warn("Failed to seed startup association")
			failed++
			continue
		}
		seeded++
	}

	logging.WithFields(map[string]interface{}{
		"seeded":      seeded,
		"skipped":     skipped,
		"failed":      failed,
		"walletCount": s.store.CountWallets(ctx),
	}).Info("Seed initialization complete")

	return failed == 0
}
