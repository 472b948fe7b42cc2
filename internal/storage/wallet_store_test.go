package storage

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-resolver/internal/types"
)

func setupWalletStore(t *testing.T) (*WalletStore, *RedisDocumentStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	docs := NewRedisDocumentStore(NewRedisStoreFromClient(client))
	return NewWalletStore(docs), docs, mr
}

func TestWalletStore_PutAndGetWallet(t *testing.T) {
	store, _, _ := setupWalletStore(t)
	ctx := testContext(t)

	ok := store.PutWallet(ctx, "user-1", "0xABCDEF0123456789abcdef0123456789ABCDEF01", false, types.SourceUserUpdate)
	require.True(t, ok)

	record := store.WalletBySubject(ctx, "user-1")
	require.NotNil(t, record)

	// Address is stored lowercase regardless of input case
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", record.WalletAddress)
	assert.Equal(t, "user-1", record.SubjectID)
	assert.Equal(t, types.SourceUserUpdate, record.Source)
	assert.False(t, record.Permanent)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestWalletStore_PutWalletUpserts(t *testing.T) {
	store, _, _ := setupWalletStore(t)
	ctx := testContext(t)

	require.True(t, store.PutWallet(ctx, "user-1", "0xaaa0000000000000000000000000000000000001", true, types.SourceSeed))
	require.True(t, store.PutWallet(ctx, "user-1", "0xbbb0000000000000000000000000000000000002", true, types.SourceUserUpdate))

	// Last write wins; still a single record
	record := store.WalletBySubject(ctx, "user-1")
	require.NotNil(t, record)
	assert.Equal(t, "0xbbb0000000000000000000000000000000000002", record.WalletAddress)
	assert.Equal(t, types.SourceUserUpdate, record.Source)
}

func TestWalletStore_RemoveWalletDeletesRecord(t *testing.T) {
	store, _, _ := setupWalletStore(t)
	ctx := testContext(t)

	require.True(t, store.PutWallet(ctx, "user-1", "0xaaa0000000000000000000000000000000000001", false, types.SourceUserUpdate))
	require.NotNil(t, store.WalletBySubject(ctx, "user-1"))

	require.True(t, store.RemoveWallet(ctx, "user-1"))

	// Removed entirely, not merely blanked
	assert.Nil(t, store.WalletBySubject(ctx, "user-1"))
	assert.Equal(t, "", store.SubjectByWallet(ctx, "0xaaa0000000000000000000000000000000000001"))
	assert.Equal(t, "", store.ProfileWallet(ctx, "user-1"))
}

func TestWalletStore_ReverseLookupIsCaseInsensitive(t *testing.T) {
	store, _, _ := setupWalletStore(t)
	ctx := testContext(t)

	require.True(t, store.PutWallet(ctx, "user-1", "0xAbCd000000000000000000000000000000000003", false, types.SourceUserUpdate))

	upper := store.SubjectByWallet(ctx, "0XABCD000000000000000000000000000000000003")
	lower := store.SubjectByWallet(ctx, "0xabcd000000000000000000000000000000000003")

	assert.Equal(t, "user-1", upper)
	assert.Equal(t, upper, lower)
}

func TestWalletStore_ExternalIDDuplicatesIntoIdentityCollection(t *testing.T) {
	store, docs, _ := setupWalletStore(t)
	ctx := testContext(t)

	externalID := "google-oauth2|104613573500582396817"
	require.True(t, types.IsExternalID(externalID))

	require.True(t, store.PutWallet(ctx, externalID, "0xaaa0000000000000000000000000000000000001", true, types.SourceSeed))

	doc, err := docs.FindOne(ctx, "identity_wallets", ByID(externalID))
	require.NoError(t, err)
	assert.Equal(t, "0xaaa0000000000000000000000000000000000001", doc["walletAddress"])

	// Short sequence IDs are not duplicated
	require.True(t, store.PutWallet(ctx, "42", "0xbbb0000000000000000000000000000000000002", true, types.SourceSeed))
	_, err = docs.FindOne(ctx, "identity_wallets", ByID("42"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWalletStore_PutWalletDenormalizesOntoProfile(t *testing.T) {
	store, _, _ := setupWalletStore(t)
	ctx := testContext(t)

	require.True(t, store.PutWallet(ctx, "user-1", "0xAAA0000000000000000000000000000000000001", false, types.SourceUserUpdate))

	assert.Equal(t, "0xaaa0000000000000000000000000000000000001", store.ProfileWallet(ctx, "user-1"))
}

func TestWalletStore_PutStartupWalletWritesLegacyAliases(t *testing.T) {
	store, docs, _ := setupWalletStore(t)
	ctx := testContext(t)

	require.True(t, store.PutStartupWallet(ctx, "startup-1", "founder-1", "0xCCC0000000000000000000000000000000000009", types.SourceFounder))

	record := store.StartupWallet(ctx, "startup-1")
	require.NotNil(t, record)
	assert.Equal(t, "0xccc0000000000000000000000000000000000009", record.WalletAddress)
	assert.Equal(t, "founder-1", record.FounderID)

	// Historical callers read the startup profile record under two
	// different field names.
	doc, err := docs.FindOne(ctx, "startups", ByID("startup-1"))
	require.NoError(t, err)
	assert.Equal(t, "0xccc0000000000000000000000000000000000009", doc["walletAddress"])
	assert.Equal(t, "0xccc0000000000000000000000000000000000009", doc["founderWallet"])
}

func TestWalletStore_PrecedenceAcrossStores(t *testing.T) {
	mr1, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr1.Close)
	mr2, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr2.Close)

	client1 := redis.NewClient(&redis.Options{Addr: mr1.Addr()})
	client2 := redis.NewClient(&redis.Options{Addr: mr2.Addr()})
	t.Cleanup(func() { client1.Close() })
	t.Cleanup(func() { client2.Close() })

	primary := NewRedisDocumentStore(NewRedisStoreFromClient(client1))
	secondary := NewRedisDocumentStore(NewRedisStoreFromClient(client2))

	ctx := testContext(t)

	// A record living only in the secondary store is still found
	secondaryOnly := NewWalletStore(secondary)
	require.True(t, secondaryOnly.PutWallet(ctx, "user-1", "0xddd0000000000000000000000000000000000004", false, types.SourceSeed))

	store := NewWalletStore(primary, secondary)
	record := store.WalletBySubject(ctx, "user-1")
	require.NotNil(t, record)
	assert.Equal(t, "0xddd0000000000000000000000000000000000004", record.WalletAddress)

	// Writes fan out to both stores
	require.True(t, store.PutWallet(ctx, "user-2", "0xeee0000000000000000000000000000000000005", false, types.SourceUserUpdate))
	for _, docs := range []*RedisDocumentStore{primary, secondary} {
		doc, err := docs.FindOne(ctx, "wallets", ByID("user-2"))
		require.NoError(t, err)
		assert.Equal(t, "0xeee0000000000000000000000000000000000005", doc["walletAddress"])
	}
}

func TestWalletStore_DegradesWhenStoreUnreachable(t *testing.T) {
	store, _, mr := setupWalletStore(t)
	ctx := testContext(t)

	require.True(t, store.PutWallet(ctx, "user-1", "0xaaa0000000000000000000000000000000000001", false, types.SourceUserUpdate))

	mr.Close()

	// Reads degrade to nil, writes to false; nothing panics or errors
	assert.Nil(t, store.WalletBySubject(ctx, "user-1"))
	assert.Nil(t, store.StartupWallet(ctx, "startup-1"))
	assert.Equal(t, "", store.SubjectByWallet(ctx, "0xaaa0000000000000000000000000000000000001"))
	assert.Equal(t, "", store.ProfileWallet(ctx, "user-1"))
	assert.False(t, store.PutWallet(ctx, "user-2", "0xbbb0000000000000000000000000000000000002", false, types.SourceUserUpdate))
	assert.False(t, store.PutStartupWallet(ctx, "startup-1", "founder-1", "0xbbb0000000000000000000000000000000000002", types.SourceFounder))
	assert.False(t, store.RemoveWallet(ctx, "user-1"))
}
