// Package models provides data models for the wallet resolver service.
package models

import (
	"time"

	"github.com/wallet-resolver/internal/types"
)

// WalletRecord is a known association between a subject (user or founder)
// and an Ethereum wallet address. At most one record exists per subject;
// writes upsert with last-write-wins semantics.
type WalletRecord struct {
	SubjectID     string             `json:"subjectId"`
	WalletAddress string             `json:"walletAddress"`
	Permanent     bool               `json:"permanent"`
	Source        types.WalletSource `json:"source,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// StartupWalletRecord is the resolved wallet a startup receives funds at.
// WalletAddress is a denormalized snapshot of the founder's wallet taken at
// the last successful resolution and may go stale if the founder later
// changes wallets.
type StartupWalletRecord struct {
	StartupID     string             `json:"startupId"`
	FounderID     string             `json:"founderId,omitempty"`
	WalletAddress string             `json:"walletAddress"`
	Source        types.WalletSource `json:"source,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// ResolutionEvent is an audit row recording which layer served a resolution.
type ResolutionEvent struct {
	ID            string             `json:"id"`
	SubjectKind   string             `json:"subjectKind"` // "startup" or "user"
	SubjectID     string             `json:"subjectId"`
	WalletAddress string             `json:"walletAddress"`
	Source        types.WalletSource `json:"source"`
	Defaulted     bool               `json:"defaulted"`
	ResolvedAt    time.Time          `json:"resolvedAt"`
}
