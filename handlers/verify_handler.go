package handlers

import (
	"net/http"

	"github.com/nftbrawl/arena-bot/services"
)

// VerifyHandler is the web callback of the wallet-link flow.
type VerifyHandler struct {
	wallets *services.WalletService
}

func NewVerifyHandler(wallets *services.WalletService) *VerifyHandler {
	return &VerifyHandler{wallets: wallets}
}

// Redeem consumes a link token and records the wallet address it proves.
func (h *VerifyHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token         string `json:"token"`
		WalletAddress string `json:"wallet_address"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, jsonResponse{"error": err.Error()})
		return
	}
	if input.Token == "" || input.WalletAddress == "" {
		writeJSON(w, http.StatusBadRequest, jsonResponse{"error": "token and wallet_address are required"})
		return
	}

	userID, err := h.wallets.RedeemLinkToken(r.Context(), input.Token, input.WalletAddress)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"user_id": userID, "wallet_address": input.WalletAddress})
}
