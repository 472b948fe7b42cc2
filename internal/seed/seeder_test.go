package seed

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-resolver/internal/storage"
	"github.com/wallet-resolver/internal/types"
)

func setupSeederStore(t *testing.T) *storage.WalletStore {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return storage.NewWalletStore(storage.NewRedisDocumentStore(storage.NewRedisStoreFromClient(client)))
}

func TestSeeder_InitializeKnownWallets(t *testing.T) {
	store := setupSeederStore(t)
	ctx := context.Background()

	seeds := &Set{
		FounderWallets: map[string]string{
			"F1": "0x05FE7DDDE4B5951B39A7C8BD0E867E54A5C1E782",
		},
		StartupFounders: map[string]string{
			"S1": "F1",
		},
	}

	seeder := NewSeeder(store, seeds)
	require.True(t, seeder.InitializeKnownWallets(ctx))

	// Founder wallet is seeded, normalized, and permanent
	record := store.WalletBySubject(ctx, "F1")
	require.NotNil(t, record)
	assert.Equal(t, "0x05fe7ddde4b5951b39a7c8bd0e867e54a5c1e782", record.WalletAddress)
	assert.True(t, record.Permanent)
	assert.Equal(t, types.SourceSeed, record.Source)

	// The startup association carries the founder's wallet
	startup := store.StartupWallet(ctx, "S1")
	require.NotNil(t, startup)
	assert.Equal(t, "F1", startup.FounderID)
	assert.Equal(t, "0x05fe7ddde4b5951b39a7c8bd0e867e54a5c1e782", startup.WalletAddress)
}

func TestSeeder_SkipsMalformedEntriesAndContinues(t *testing.T) {
	store := setupSeederStore(t)
	ctx := context.Background()

	seeds := &Set{
		FounderWallets: map[string]string{
			"bad":  "not-a-wallet",
			"good": "0x8f4be9e1b5b3cbd2e1b53e3a7d34b66ef3c19c55",
		},
		StartupFounders: map[string]string{},
	}

	seeder := NewSeeder(store, seeds)

	// Malformed entries are skipped, not failures
	assert.True(t, seeder.InitializeKnownWallets(ctx))

	assert.Nil(t, store.WalletBySubject(ctx, "bad"))
	assert.NotNil(t, store.WalletBySubject(ctx, "good"))
}

func TestSeeder_IsIdempotent(t *testing.T) {
	store := setupSeederStore(t)
	ctx := context.Background()

	seeds := Default()
	seeder := NewSeeder(store, seeds)

	require.True(t, seeder.InitializeKnownWallets(ctx))
	require.True(t, seeder.InitializeKnownWallets(ctx))

	count := store.CountWallets(ctx)
	assert.Equal(t, int64(len(seeds.FounderWallets)), count)
}

func TestSeeder_AssociationWithoutWalletStillSeeds(t *testing.T) {
	store := setupSeederStore(t)
	ctx := context.Background()

	// Founder wallet unknown: the association record is written anyway so
	// the resolver can derive the wallet later.
	seeds := &Set{
		FounderWallets: map[string]string{},
		StartupFounders: map[string]string{
			"S9": "F9",
		},
	}

	seeder := NewSeeder(store, seeds)
	require.True(t, seeder.InitializeKnownWallets(ctx))

	record := store.StartupWallet(ctx, "S9")
	require.NotNil(t, record)
	assert.Equal(t, "F9", record.FounderID)
	assert.Equal(t, "", record.WalletAddress)
}
