package handlers

import (
	"net/http"

	"airdrop-backend/internal/dto"
	"airdrop-backend/internal/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// VaultHandler handles admin vault custody operations and balance queries
type VaultHandler struct {
	vault *services.VaultService
}

// NewVaultHandler creates a new VaultHandler instance
func NewVaultHandler(vault *services.VaultService) *VaultHandler {
	return &VaultHandler{vault: vault}
}

// FundHandler credits the vault (fungible) or deposits a holding (non-fungible)
// POST /api/v1/admin/vault/fund
func (h *VaultHandler) FundHandler(c *gin.Context) {
	var req dto.VaultFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if !common.IsHexAddress(req.AssetContract) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed asset contract address"})
		return
	}
	contract := common.HexToAddress(req.AssetContract)

	if req.AssetID != "" && req.AssetID != "0" {
		id, err := parseUint256Field("asset_id", req.AssetID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := h.vault.DepositHolding(c.Request.Context(), contract, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "deposit failed", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deposited", "asset_contract": contract.Hex(), "asset_id": id.String()})
		return
	}

	amount, err := parseUint256Field("amount", req.Amount)
	if err != nil || amount.Sign() == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive decimal integer"})
		return
	}
	if err := h.vault.Fund(c.Request.Context(), contract, amount); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "funding failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "funded", "asset_contract": contract.Hex(), "amount": amount.String()})
}

// BalanceHandler answers a holder's balance of one token
// GET /api/v1/vault/balances/:token/:holder
func (h *VaultHandler) BalanceHandler(c *gin.Context) {
	if !common.IsHexAddress(c.Param("token")) || !common.IsHexAddress(c.Param("holder")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed address"})
		return
	}
	token := common.HexToAddress(c.Param("token"))
	holder := common.HexToAddress(c.Param("holder"))

	balance, err := h.vault.BalanceOf(c.Request.Context(), token, holder)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "balance query failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.VaultBalanceResponse{
		Token:   token.Hex(),
		Holder:  holder.Hex(),
		Balance: balance.String(),
	})
}
