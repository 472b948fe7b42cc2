// Package resolver implements the layered wallet-address resolution chain.
//
// Given a startup identifier it produces a best-effort wallet address by
// consulting, in fixed order: the dedicated startup wallet record, the
// founder's wallet, the static startup-founder association table, the
// static seed wallet table, and finally a configured default address. Later
// layers are never consulted once an earlier layer produced a result, and
// startup resolution never fails: the default guarantees a payable address.
package resolver

import (
	"context"
	"time"

	"github.com/wallet-resolver/internal/logging"
	"github.com/wallet-resolver/internal/models"
	"github.com/wallet-resolver/internal/seed"
	"github.com/wallet-resolver/internal/storage"
	"github.com/wallet-resolver/internal/types"
)

// Resolution is the outcome of a wallet lookup.
type Resolution struct {
	WalletAddress string             `json:"walletAddress"`
	Source        types.WalletSource `json:"source"`
}

// Resolver resolves wallet addresses for startups and users.
type Resolver struct {
	store            *storage.WalletStore
	seeds            *seed.Set
	events           *storage.ResolutionEventRepository
	defaultWallet    string
	writeBackTimeout time.Duration
}

// New creates a resolver. defaultWallet is served when every layer fails;
// serving it is always logged.
func New(store *storage.WalletStore, seeds *seed.Set, defaultWallet string, writeBackTimeout time.Duration) *Resolver {
	return &Resolver{
		store:            store,
		seeds:            seeds,
		defaultWallet:    types.NormalizeAddress(defaultWallet),
		writeBackTimeout: writeBackTimeout,
	}
}

// SetEventLog attaches the optional resolution audit log. Recording is
// best-effort and never affects resolution.
func (r *Resolver) SetEventLog(events *storage.ResolutionEventRepository) {
	r.events = events
}

// ResolveStartupWallet returns the wallet address a startup should receive
// funds at. It never fails: when no mapping exists anywhere the configured
// default wallet is returned with SourceDefault.
func (r *Resolver) ResolveStartupWallet(ctx context.Context, startupID string) Resolution {
	record := r.store.StartupWallet(ctx, startupID)

	// Layer 1: direct record with a wallet. Cheapest and most
	// authoritative once populated.
	if record != nil && record.WalletAddress != "" {
		return r.resolved(startupID, Resolution{record.WalletAddress, types.SourceDirect})
	}

	// Layer 2: record exists but lacks a wallet; derive it from the
	// founder, the true source of truth for any startup they created.
	if record != nil && record.FounderID != "" {
		if user := r.ResolveUserWallet(ctx, record.FounderID); user != nil {
			r.writeBackStartup(startupID, record.FounderID, user.WalletAddress, types.SourceFounder)
			return r.resolved(startupID, Resolution{user.WalletAddress, types.SourceFounder})
		}
	}

	// Layer 3: no dynamic record at all; fall back to the seed-time
	// startup-founder association table.
	if record == nil {
		if founderID, ok := r.seeds.FounderFor(startupID); ok {
			if user := r.ResolveUserWallet(ctx, founderID); user != nil {
				r.writeBackStartup(startupID, founderID, user.WalletAddress, types.SourceAssociation)
				return r.resolved(startupID, Resolution{user.WalletAddress, types.SourceAssociation})
			}
		}
	}

	// Layer 4: some legacy records used the startup ID directly as a
	// wallet-lookup key.
	if wallet, ok := r.seeds.StartupWallet(startupID); ok {
		r.writeBackStartup(startupID, "", wallet, types.SourceSeed)
		return r.resolved(startupID, Resolution{wallet, types.SourceSeed})
	}

	// Layer 5: nothing found anywhere. Serve the default so the payment
	// UI always renders a payable address, and say so loudly.
	logging.WithFields(map[string]interface{}{
		"startupId": startupID,
		"wallet":    r.defaultWallet,
	}).Warn("No wallet mapping found for startup; serving default wallet")

	res := Resolution{r.defaultWallet, types.SourceDefault}
	r.recordEvent("startup", startupID, res, true)
	return res
}

// ResolveUserWallet returns the wallet for a user, or nil when none is
// known. Unlike the startup path there is no default; callers must handle
// nil explicitly.
func (r *Resolver) ResolveUserWallet(ctx context.Context, subjectID string) *Resolution {
	if record := r.store.WalletBySubject(ctx, subjectID); record != nil && record.WalletAddress != "" {
		res := Resolution{record.WalletAddress, types.SourceDirect}
		r.recordEvent("user", subjectID, res, false)
		return &res
	}

	// Records written before the dedicated wallet collection existed keep
	// the wallet embedded in the profile. Recover it and persist a copy
	// into the dedicated collection for the next lookup.
	if address := r.store.ProfileWallet(ctx, subjectID); address != "" {
		r.writeBackUser(subjectID, address)
		res := Resolution{address, types.SourceProfile}
		r.recordEvent("user", subjectID, res, false)
		return &res
	}

	return nil
}

// resolved records the audit event for a successful startup resolution.
func (r *Resolver) resolved(startupID string, res Resolution) Resolution {
	r.recordEvent("startup", startupID, res, false)
	return res
}

// writeBackStartup opportunistically persists a resolved startup wallet so
// future lookups hit the fast path. Fire-and-forget: issued, not awaited,
// with its own bounded context.
func (r *Resolver) writeBackStartup(startupID, founderID, walletAddress string, source types.WalletSource) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeBackTimeout)
		defer cancel()

		if !r.store.PutStartupWallet(ctx, startupID, founderID, walletAddress, source) {
			logging.WithField("startupId", startupID).Warn("Startup wallet write-back failed")
		}
	}()
}

// writeBackUser opportunistically persists a profile-embedded wallet into
// the dedicated collection. Profile wallets were provided at signup, so
// the copy is marked permanent.
func (r *Resolver) writeBackUser(subjectID, walletAddress string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeBackTimeout)
		defer cancel()

		if !r.store.PutWallet(ctx, subjectID, walletAddress, true, types.SourceProfile) {
			logging.WithField("subjectId", subjectID).Warn("User wallet write-back failed")
		}
	}()
}

// recordEvent writes to the audit log when one is attached. Best-effort.
func (r *Resolver) recordEvent(kind, subjectID string, res Resolution, defaulted bool) {
	if r.events == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeBackTimeout)
		defer cancel()

		event := &models.ResolutionEvent{
			SubjectKind:   kind,
			SubjectID:     subjectID,
			WalletAddress: res.WalletAddress,
			Source:        res.Source,
			Defaulted:     defaulted,
		}
		if err := r.events.Record(ctx, event); err != nil {
			logging.WithError(err).Debugf("Failed to record resolution event for %s %s", kind, subjectID)
		}
	}()
}
