// Package seed provides the static bootstrap dataset of known founder
// wallets and startup-founder associations, and the idempotent seeder that
// loads it into the wallet store at process start.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/wallet-resolver/internal/types"
)

//go:embed default_seed.json
var defaultSeedJSON []byte

// Set is the static seed dataset. It exists purely as bootstrap and
// disaster-recovery data for historical records that predate the dynamic
// store; it is never mutated at runtime.
type Set struct {
	// FounderWallets maps founder IDs to their wallet addresses.
	FounderWallets map[string]string `json:"founderWallets"`
	// StartupFounders maps startup IDs to the founder that created them.
	StartupFounders map[string]string `json:"startupFounders"`
	// StartupWallets maps startup IDs used directly as wallet-lookup keys
	// by some legacy records.
	StartupWallets map[string]string `json:"startupWallets"`
}

// Load reads a seed set from a JSON file. An empty path loads the embedded
// default set.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	set, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return set, nil
}

// Default returns the embedded seed set.
func Default() *Set {
	set, err := parse(defaultSeedJSON)
	if err != nil {
		// The embedded set is validated by tests; a parse failure here is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded seed set is invalid: %v", err))
	}
	return set
}

func parse(data []byte) (*Set, error) {
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, err
	}

	if set.FounderWallets == nil {
		set.FounderWallets = map[string]string{}
	}
	if set.StartupFounders == nil {
		set.StartupFounders = map[string]string{}
	}
	if set.StartupWallets == nil {
		set.StartupWallets = map[string]string{}
	}
	return &set, nil
}

// FounderWallet returns the seeded wallet for a founder, normalized.
func (s *Set) FounderWallet(founderID string) (string, bool) {
	wallet, ok := s.FounderWallets[founderID]
	if !ok || wallet == "" {
		return "", false
	}
	return types.NormalizeAddress(wallet), true
}

// FounderFor returns the seeded founder for a startup.
func (s *Set) FounderFor(startupID string) (string, bool) {
	founderID, ok := s.StartupFounders[startupID]
	if !ok || founderID == "" {
		return "", false
	}
	return founderID, true
}

// StartupWallet returns the seeded wallet keyed directly by a startup ID,
// normalized.
func (s *Set) StartupWallet(startupID string) (string, bool) {
	wallet, ok := s.StartupWallets[startupID]
	if !ok || wallet == "" {
		return "", false
	}
	return types.NormalizeAddress(wallet), true
}
