package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wallet-resolver/internal/logging"
	"github.com/wallet-resolver/internal/models"
	"github.com/wallet-resolver/internal/types"
)

// Collections used by the wallet store. The profile collections carry
// denormalized wallet copies because historical lookup paths read them
// without joining against the dedicated wallet collections.
const (
	collWallets         = "wallets"
	collIdentityWallets = "identity_wallets"
	collProfiles        = "profiles"
	collStartupWallets  = "startup_wallets"
	collStartups        = "startups"
	collWalletIndex     = "wallet_index"
)

// WalletStore provides durable access to wallet records across one or more
// backing stores in precedence order. Reads fall through the stores and the
// first hit wins; writes fan out to every store.
//
// Infrastructure failures never surface as errors: reads degrade to nil and
// writes to false, so business logic above only ever sees "nothing found".
type WalletStore struct {
	stores []DocumentStore
}

// NewWalletStore creates a wallet store over the given backing stores,
// ordered by precedence (primary first).
func NewWalletStore(stores ...DocumentStore) *WalletStore {
	return &WalletStore{stores: stores}
}

// WalletBySubject returns the wallet record for a subject, or nil when
// absent or the stores are unreachable.
func (s *WalletStore) WalletBySubject(ctx context.Context, subjectID string) *models.WalletRecord {
	doc := s.findFirst(ctx, collWallets, ByID(subjectID))
	if doc == nil {
		return nil
	}

	var record models.WalletRecord
	if !decodeDocument(doc, &record) {
		return nil
	}
	return &record
}

// PutWallet upserts the wallet record for a subject. The address is
// normalized to lowercase before writing. The wallet is also denormalized
// onto the subject's profile record, indexed for reverse lookup, and - when
// the subject ID looks externally issued - duplicated into the
// identity-keyed collection so the legacy lookup path can find it.
func (s *WalletStore) PutWallet(ctx context.Context, subjectID, walletAddress string, permanent bool, source types.WalletSource) bool {
	address := types.NormalizeAddress(walletAddress)
	now := time.Now().UTC()

	fields := Document{
		"subjectId":     subjectID,
		"walletAddress": address,
		"permanent":     permanent,
		"source":        string(source),
		"updatedAt":     now,
	}
	if s.findFirst(ctx, collWallets, ByID(subjectID)) == nil {
		fields["createdAt"] = now
	}

	ok := s.writeAll(ctx, collWallets, ByID(subjectID), fields)

	// Denormalized copies are best-effort; the dedicated record above is
	// what success means.
	s.writeAll(ctx, collProfiles, ByID(subjectID), Document{
		"subjectId":     subjectID,
		"walletAddress": address,
		"updatedAt":     now,
	})
	if address != "" {
		s.writeAll(ctx, collWalletIndex, ByID(address), Document{
			"walletAddress": address,
			"subjectId":     subjectID,
			"updatedAt":     now,
		})
	}
	if types.IsExternalID(subjectID) {
		s.writeAll(ctx, collIdentityWallets, ByID(subjectID), fields)
	}

	return ok
}

// RemoveWallet deletes the wallet record for a subject entirely, along with
// its identity-keyed duplicate and reverse-index entry. The denormalized
// profile copy is blanked so a disconnected wallet cannot resurface through
// the profile fallback. Returns false only on infrastructure failure.
func (s *WalletStore) RemoveWallet(ctx context.Context, subjectID string) bool {
	record := s.WalletBySubject(ctx, subjectID)

	ok := s.deleteAll(ctx, collWallets, ByID(subjectID))
	if types.IsExternalID(subjectID) {
		s.deleteAll(ctx, collIdentityWallets, ByID(subjectID))
	}
	if record != nil && record.WalletAddress != "" {
		s.deleteAll(ctx, collWalletIndex, ByID(record.WalletAddress))
	}
	s.writeAll(ctx, collProfiles, ByID(subjectID), Document{
		"subjectId":     subjectID,
		"walletAddress": "",
		"updatedAt":     time.Now().UTC(),
	})

	return ok
}

// StartupWallet returns the resolved wallet record for a startup, or nil.
func (s *WalletStore) StartupWallet(ctx context.Context, startupID string) *models.StartupWalletRecord {
	doc := s.findFirst(ctx, collStartupWallets, ByID(startupID))
	if doc == nil {
		return nil
	}

	var record models.StartupWalletRecord
	if !decodeDocument(doc, &record) {
		return nil
	}
	return &record
}

// PutStartupWallet upserts the resolved wallet for a startup and
// denormalizes it onto the startup's profile record under both legacy field
// aliases, because historical callers read different field names.
func (s *WalletStore) PutStartupWallet(ctx context.Context, startupID, founderID, walletAddress string, source types.WalletSource) bool {
	address := types.NormalizeAddress(walletAddress)
	now := time.Now().UTC()

	fields := Document{
		"startupId":     startupID,
		"founderId":     founderID,
		"walletAddress": address,
		"source":        string(source),
		"updatedAt":     now,
	}
	if s.findFirst(ctx, collStartupWallets, ByID(startupID)) == nil {
		fields["createdAt"] = now
	}

	ok := s.writeAll(ctx, collStartupWallets, ByID(startupID), fields)

	s.writeAll(ctx, collStartups, ByID(startupID), Document{
		"startupId":     startupID,
		"walletAddress": address,
		"founderWallet": address,
		"updatedAt":     now,
	})

	return ok
}

// SubjectByWallet reverse-looks-up the subject owning a wallet address.
// The input is normalized to lowercase first. Returns "" when unknown.
func (s *WalletStore) SubjectByWallet(ctx context.Context, walletAddress string) string {
	address := types.NormalizeAddress(walletAddress)
	if address == "" {
		return ""
	}

	doc := s.findFirst(ctx, collWalletIndex, ByID(address))
	if doc == nil {
		return ""
	}

	subjectID, _ := doc["subjectId"].(string)
	return subjectID
}

// ProfileWallet returns the wallet address embedded in a subject's profile
// record. This covers records written before the dedicated wallet
// collection existed. Returns "" when absent.
func (s *WalletStore) ProfileWallet(ctx context.Context, subjectID string) string {
	doc := s.findFirst(ctx, collProfiles, ByID(subjectID))
	if doc == nil {
		return ""
	}

	address, _ := doc["walletAddress"].(string)
	return types.NormalizeAddress(address)
}

// CountWallets returns the number of wallet records in the primary store.
// Used by the seeder for startup diagnostics.
func (s *WalletStore) CountWallets(ctx context.Context) int64 {
	if len(s.stores) == 0 {
		return 0
	}
	count, err := s.stores[0].Count(ctx, collWallets)
	if err != nil {
		logging.WithError(err).WithField("store", s.stores[0].Name()).Warn("Failed to count wallet records")
		return 0
	}
	return count
}

// findFirst queries the stores in precedence order and returns the first
// hit. Infrastructure errors are logged and treated as a miss.
func (s *WalletStore) findFirst(ctx context.Context, collection string, filter Filter) Document {
	for _, store := range s.stores {
		doc, err := store.FindOne(ctx, collection, filter)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				logging.WithError(err).WithFields(map[string]interface{}{
					"store":      store.Name(),
					"collection": collection,
				}).Warn("Document store read failed")
			}
			continue
		}
		return doc
	}
	return nil
}

// writeAll fans a write out to every store. Success means at least one
// store accepted the write; individual failures are logged.
func (s *WalletStore) writeAll(ctx context.Context, collection string, filter Filter, fields Document) bool {
	ok := false
	for _, store := range s.stores {
		if err := store.Upsert(ctx, collection, filter, fields); err != nil {
			logging.WithError(err).WithFields(map[string]interface{}{
				"store":      store.Name(),
				"collection": collection,
			}).Warn("Document store write failed")
			continue
		}
		ok = true
	}
	return ok
}

// deleteAll fans a delete out to every store. A store reporting ErrNotFound
// still counts as success; the record is gone either way.
func (s *WalletStore) deleteAll(ctx context.Context, collection string, filter Filter) bool {
	ok := false
	for _, store := range s.stores {
		err := store.DeleteOne(ctx, collection, filter)
		if err != nil && !errors.Is(err, ErrNotFound) {
			logging.WithError(err).WithFields(map[string]interface{}{
				"store":      store.Name(),
				"collection": collection,
			}).Warn("Document store delete failed")
			continue
		}
		ok = true
	}
	return ok
}

// decodeDocument maps a schemaless document onto a typed record via JSON.
func decodeDocument(doc Document, dest interface{}) bool {
	data, err := json.Marshal(doc)
	if err != nil {
		logging.WithError(err).Warn("Failed to marshal document")
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logging.WithError(err).Warn("Failed to decode document")
		return false
	}
	return true
}
