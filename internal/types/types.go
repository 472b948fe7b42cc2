// Package types provides common type definitions for the wallet resolver service.
package types

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// WalletSource records where a wallet association came from. It is carried
// for diagnostics only and never consulted by resolution logic.
type WalletSource string

const (
	// SourceSeed marks records written by the startup seeder
	SourceSeed WalletSource = "seed"
	// SourceUserUpdate marks records written by an explicit connect action
	SourceUserUpdate WalletSource = "user-update"
	// SourceDirect marks a resolution served from the dedicated startup wallet record
	SourceDirect WalletSource = "direct"
	// SourceFounder marks a resolution derived from the founder's wallet
	SourceFounder WalletSource = "derived-from-founder"
	// SourceAssociation marks a resolution derived via the static startup-founder association table
	SourceAssociation WalletSource = "seed-association"
	// SourceProfile marks a user wallet recovered from an embedded profile field
	SourceProfile WalletSource = "profile"
	// SourceDefault marks a resolution that fell through to the configured default wallet
	SourceDefault WalletSource = "default"
)

// NormalizeAddress lowercases and trims a wallet address. Addresses are
// always stored and compared in this form.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsWalletAddress reports whether s has the shape of a hex Ethereum address.
func IsWalletAddress(s string) bool {
	return common.IsHexAddress(s)
}

// ExternalIDLength is the length above which a subject identifier is treated
// as an externally issued identity rather than a numeric sequence ID.
const ExternalIDLength = 20

// IsExternalID reports whether a subject identifier looks externally issued.
// The heuristic mirrors the historical data: sequence IDs are short, identity
// provider IDs are longer than 20 characters.
func IsExternalID(subjectID string) bool {
	return len(subjectID) > ExternalIDLength
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
