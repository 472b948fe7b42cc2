package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wallet-resolver/internal/types"
)

// handleStartupWallet handles GET /api/startups/{id}/wallet.
// Always returns an address: the resolver's default fallback guarantees it.
func (s *Server) handleStartupWallet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	startupID := vars["id"]

	if startupID == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Startup ID required", nil)
		return
	}

	resolution := s.resolver.ResolveStartupWallet(r.Context(), startupID)
	respondJSON(w, http.StatusOK, resolution)
}

// handleUserWallet handles GET /api/users/{id}/wallet.
// Unlike the startup path there is no default: unknown users get 404.
func (s *Server) handleUserWallet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["id"]

	if userID == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "User ID required", nil)
		return
	}

	resolution := s.resolver.ResolveUserWallet(r.Context(), userID)
	if resolution == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "No wallet found for user", nil)
		return
	}

	respondJSON(w, http.StatusOK, resolution)
}

// connectWalletRequest is the body of POST /api/wallets/connect
type connectWalletRequest struct {
	UserID        string `json:"userId,omitempty"`
	StartupID     string `json:"startupId,omitempty"`
	FounderID     string `json:"founderId,omitempty"`
	WalletAddress string `json:"walletAddress"`
	Permanent     bool   `json:"permanent,omitempty"`
}

// connectWalletResponse echoes the stored association back to the caller
type connectWalletResponse struct {
	Success       bool   `json:"success"`
	UserID        string `json:"userId,omitempty"`
	StartupID     string `json:"startupId,omitempty"`
	FounderID     string `json:"founderId,omitempty"`
	WalletAddress string `json:"walletAddress"`
}

// handleConnectWallet handles POST /api/wallets/connect.
//
// This is the one write path where a store failure must reach the caller:
// the user explicitly connected a wallet, so correctness beats continuity
// here and a failed write surfaces as success=false.
func (s *Server) handleConnectWallet(w http.ResponseWriter, r *http.Request) {
	var req connectWalletRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.UserID == "" && req.StartupID == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Either userId or startupId is required", nil)
		return
	}
	if !types.IsWalletAddress(req.WalletAddress) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid wallet address", map[string]interface{}{
			"walletAddress": req.WalletAddress,
		})
		return
	}

	address := types.NormalizeAddress(req.WalletAddress)

	var ok bool
	if req.StartupID != "" {
		ok = s.walletStore.PutStartupWallet(r.Context(), req.StartupID, req.FounderID, address, types.SourceUserUpdate)
	} else {
		ok = s.walletStore.PutWallet(r.Context(), req.UserID, address, req.Permanent, types.SourceUserUpdate)
	}

	if !ok {
		respondError(w, http.StatusBadGateway, ErrCodeStoreUnavailable, "Failed to store wallet connection", nil)
		return
	}

	respondJSON(w, http.StatusOK, connectWalletResponse{
		Success:       true,
		UserID:        req.UserID,
		StartupID:     req.StartupID,
		FounderID:     req.FounderID,
		WalletAddress: address,
	})
}

// handleDisconnectWallet handles DELETE /api/wallets/{subjectId}.
// The record is removed entirely, not blanked.
func (s *Server) handleDisconnectWallet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	subjectID := vars["subjectId"]

	if subjectID == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Subject ID required", nil)
		return
	}

	if !s.walletStore.RemoveWallet(r.Context(), subjectID) {
		respondError(w, http.StatusBadGateway, ErrCodeStoreUnavailable, "Failed to disconnect wallet", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"subjectId": subjectID,
	})
}
