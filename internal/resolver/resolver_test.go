package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-resolver/internal/seed"
	"github.com/wallet-resolver/internal/storage"
	"github.com/wallet-resolver/internal/types"
)

const (
	testDefaultWallet = "0x9a3f1bd8d2a573aef45da6eb832040e2e1483adc"
	founderWallet     = "0x05fe7ddde4b5951b39a7c8bd0e867e54a5c1e782"
)

func setupResolver(t *testing.T, seeds *seed.Set) (*Resolver, *storage.WalletStore, *storage.RedisDocumentStore) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	docs := storage.NewRedisDocumentStore(storage.NewRedisStoreFromClient(client))
	store := storage.NewWalletStore(docs)

	if seeds == nil {
		seeds = &seed.Set{
			FounderWallets:  map[string]string{},
			StartupFounders: map[string]string{},
			StartupWallets:  map[string]string{},
		}
	}

	return New(store, seeds, testDefaultWallet, 2*time.Second), store, docs
}

func TestResolveStartupWallet_DirectFastPath(t *testing.T) {
	r, store, _ := setupResolver(t, nil)
	ctx := context.Background()

	require.True(t, store.PutStartupWallet(ctx, "startup-1", "founder-1", founderWallet, types.SourceUserUpdate))

	res := r.ResolveStartupWallet(ctx, "startup-1")
	assert.Equal(t, founderWallet, res.WalletAddress)
	assert.Equal(t, types.SourceDirect, res.Source)
}

func TestResolveStartupWallet_FounderDerived(t *testing.T) {
	r, store, _ := setupResolver(t, nil)
	ctx := context.Background()

	// Record exists but carries no wallet; the founder's wallet is known
	require.True(t, store.PutWallet(ctx, "founder-1", founderWallet, true, types.SourceUserUpdate))
	require.True(t, store.PutStartupWallet(ctx, "startup-1", "founder-1", "", types.SourceSeed))

	res := r.ResolveStartupWallet(ctx, "startup-1")
	assert.Equal(t, founderWallet, res.WalletAddress)
	assert.Equal(t, types.SourceFounder, res.Source)

	// The write-back eventually lands and upgrades future lookups to the
	// fast path
	assert.Eventually(t, func() bool {
		record := store.StartupWallet(ctx, "startup-1")
		return record != nil && record.WalletAddress == founderWallet
	}, 2*time.Second, 10*time.Millisecond)

	res = r.ResolveStartupWallet(ctx, "startup-1")
	assert.Equal(t, founderWallet, res.WalletAddress)
	assert.Equal(t, types.SourceDirect, res.Source)
}

func TestResolveStartupWallet_StaticAssociation(t *testing.T) {
	seeds := &seed.Set{
		FounderWallets:  map[string]string{},
		StartupFounders: map[string]string{"startup-1": "founder-1"},
		StartupWallets:  map[string]string{},
	}
	r, store, _ := setupResolver(t, seeds)
	ctx := context.Background()

	// No dynamic startup record at all; only the founder's wallet exists
	require.True(t, store.PutWallet(ctx, "founder-1", founderWallet, true, types.SourceUserUpdate))

	res := r.ResolveStartupWallet(ctx, "startup-1")
	assert.Equal(t, founderWallet, res.WalletAddress)
	assert.Equal(t, types.SourceAssociation, res.Source)
}

func TestResolveStartupWallet_StaticSeedWallet(t *testing.T) {
	seeds := &seed.Set{
		FounderWallets:  map[string]string{},
		StartupFounders: map[string]string{},
		StartupWallets:  map[string]string{"legacy-7f3d": "0x2D5B4F06D39EFABC56E4BCE7E2F4FF6F9AFC1D20"},
	}
	r, store, _ := setupResolver(t, seeds)
	ctx := context.Background()

	res := r.ResolveStartupWallet(ctx, "legacy-7f3d")
	assert.Equal(t, "0x2d5b4f06d39efabc56e4bce7e2f4ff6f9afc1d20", res.WalletAddress)
	assert.Equal(t, types.SourceSeed, res.Source)

	// Persisted for future fast-path hits
	assert.Eventually(t, func() bool {
		record := store.StartupWallet(ctx, "legacy-7f3d")
		return record != nil && record.WalletAddress == "0x2d5b4f06d39efabc56e4bce7e2f4ff6f9afc1d20"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestResolveStartupWallet_DefaultFallback(t *testing.T) {
	r, _, _ := setupResolver(t, nil)
	ctx := context.Background()

	res := r.ResolveStartupWallet(ctx, "unknown-startup")
	assert.Equal(t, testDefaultWallet, res.WalletAddress)
	assert.Equal(t, types.SourceDefault, res.Source)
	assert.NotEmpty(t, res.WalletAddress)
}

func TestResolveStartupWallet_Idempotent(t *testing.T) {
	r, store, _ := setupResolver(t, nil)
	ctx := context.Background()

	require.True(t, store.PutStartupWallet(ctx, "startup-1", "founder-1", founderWallet, types.SourceUserUpdate))

	first := r.ResolveStartupWallet(ctx, "startup-1")
	second := r.ResolveStartupWallet(ctx, "startup-1")

	assert.Equal(t, first.WalletAddress, second.WalletAddress)
	assert.Equal(t, types.SourceDirect, second.Source)
}

func TestResolveStartupWallet_SeededScenario(t *testing.T) {
	// Startup S1 is associated to founder F1 and F1's wallet is seeded.
	// On a freshly initialized, otherwise-empty store the resolver finds it.
	seeds := &seed.Set{
		FounderWallets:  map[string]string{"F1": founderWallet},
		StartupFounders: map[string]string{"S1": "F1"},
		StartupWallets:  map[string]string{},
	}
	r, store, _ := setupResolver(t, seeds)
	ctx := context.Background()

	seeder := seed.NewSeeder(store, seeds)
	require.True(t, seeder.InitializeKnownWallets(ctx))

	res := r.ResolveStartupWallet(ctx, "S1")
	assert.Equal(t, founderWallet, res.WalletAddress)
}

func TestResolveUserWallet_Direct(t *testing.T) {
	r, store, _ := setupResolver(t, nil)
	ctx := context.Background()

	require.True(t, store.PutWallet(ctx, "user-1", founderWallet, false, types.SourceUserUpdate))

	res := r.ResolveUserWallet(ctx, "user-1")
	require.NotNil(t, res)
	assert.Equal(t, founderWallet, res.WalletAddress)
	assert.Equal(t, types.SourceDirect, res.Source)
}

func TestResolveUserWallet_NoWalletReturnsNil(t *testing.T) {
	r, _, _ := setupResolver(t, nil)

	// No default for users; absence is explicit
	assert.Nil(t, r.ResolveUserWallet(context.Background(), "unknown-user"))
}

func TestResolveUserWallet_RecoversFromProfile(t *testing.T) {
	r, store, docs := setupResolver(t, nil)
	ctx := context.Background()

	// A record written before the dedicated wallet collection existed:
	// the wallet only lives embedded in the profile.
	require.NoError(t, docs.Upsert(ctx, "profiles", storage.ByID("user-1"), storage.Document{
		"subjectId":     "user-1",
		"walletAddress": founderWallet,
	}))

	res := r.ResolveUserWallet(ctx, "user-1")
	require.NotNil(t, res)
	assert.Equal(t, founderWallet, res.WalletAddress)
	assert.Equal(t, types.SourceProfile, res.Source)

	// The opportunistic copy lands in the dedicated collection
	assert.Eventually(t, func() bool {
		record := store.WalletBySubject(ctx, "user-1")
		return record != nil && record.WalletAddress == founderWallet && record.Permanent
	}, 2*time.Second, 10*time.Millisecond)
}
