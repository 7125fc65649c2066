package handlers

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"airdrop-backend/internal/claimstate"
	"airdrop-backend/internal/distributor"
	"airdrop-backend/internal/dto"
	"airdrop-backend/internal/services"
	"airdrop-backend/internal/types"
	"airdrop-backend/internal/voucher"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// ClaimHandler handles the public claim mutation and query surface
type ClaimHandler struct {
	svc           *services.ClaimService
	separator     common.Hash
	maxProofDepth int
}

// NewClaimHandler creates a new ClaimHandler instance
func NewClaimHandler(svc *services.ClaimService, separator common.Hash, maxProofDepth int) *ClaimHandler {
	return &ClaimHandler{
		svc:           svc,
		separator:     separator,
		maxProofDepth: maxProofDepth,
	}
}

// MerkleClaimHandler submits a proof-based claim
// POST /api/v1/claims/merkle
func (h *ClaimHandler) MerkleClaimHandler(c *gin.Context) {
	var req dto.MerkleClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	rec, err := parseRecord(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proof, err := parseProof(req.Proof)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.svc.ClaimByProof(c.Request.Context(), rec, proof)
	if err != nil {
		status, payload := claimErrorResponse(err)
		c.JSON(status, payload)
		return
	}
	c.JSON(http.StatusOK, claimResponse(event))
}

// VoucherClaimHandler submits a voucher-based claim
// POST /api/v1/claims/voucher
func (h *ClaimHandler) VoucherClaimHandler(c *gin.Context) {
	var req dto.VoucherClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	v, sig, err := parseVoucher(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.svc.ClaimByVoucher(c.Request.Context(), v, sig)
	if err != nil {
		status, payload := claimErrorResponse(err)
		c.JSON(status, payload)
		return
	}
	c.JSON(http.StatusOK, claimResponse(event))
}

// IsClaimedHandler answers the claimed-state query for one index
// GET /api/v1/claims/:index
func (h *ClaimHandler) IsClaimedHandler(c *gin.Context) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid allocation index"})
		return
	}
	c.JSON(http.StatusOK, dto.ClaimedStatusResponse{
		Index:   index,
		Claimed: h.svc.IsClaimed(index),
	})
}

// NonceHandler answers the current-nonce query for one identity
// GET /api/v1/nonces/:address
func (h *ClaimHandler) NonceHandler(c *gin.Context) {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}
	addr := common.HexToAddress(raw)
	c.JSON(http.StatusOK, dto.NonceResponse{
		Identity: addr.Hex(),
		Nonce:    h.svc.CurrentNonce(addr),
	})
}

// DistributionInfoHandler echoes the deployment's fixed parameters
// GET /api/v1/distribution
func (h *ClaimHandler) DistributionInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.DistributionInfoResponse{
		Root:            h.svc.Root().Hex(),
		DomainSeparator: h.separator.Hex(),
		MaxProofDepth:   h.maxProofDepth,
	})
}

func parseRecord(req dto.MerkleClaimRequest) (types.AllocationRecord, error) {
	var rec types.AllocationRecord
	if !common.IsHexAddress(req.Claimant) {
		return rec, fmt.Errorf("malformed claimant address %q", req.Claimant)
	}
	if !common.IsHexAddress(req.AssetContract) {
		return rec, fmt.Errorf("malformed asset contract address %q", req.AssetContract)
	}
	assetID, err := parseUint256Field("asset_id", req.AssetID)
	if err != nil {
		return rec, err
	}
	amount, err := parseUint256Field("amount", req.Amount)
	if err != nil {
		return rec, err
	}
	rec.Index = req.Index
	rec.Claimant = common.HexToAddress(req.Claimant)
	rec.AssetContract = common.HexToAddress(req.AssetContract)
	rec.AssetID = assetID
	rec.Amount = amount
	return rec, nil
}

func parseVoucher(req dto.VoucherClaimRequest) (types.Voucher, []byte, error) {
	var v types.Voucher
	if !common.IsHexAddress(req.Claimant) {
		return v, nil, fmt.Errorf("malformed claimant address %q", req.Claimant)
	}
	if !common.IsHexAddress(req.AssetContract) {
		return v, nil, fmt.Errorf("malformed asset contract address %q", req.AssetContract)
	}
	assetID, err := parseUint256Field("asset_id", req.AssetID)
	if err != nil {
		return v, nil, err
	}
	amount, err := parseUint256Field("amount", req.Amount)
	if err != nil {
		return v, nil, err
	}
	sig := common.FromHex(req.Signature)
	if len(sig) != 65 {
		return v, nil, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	v.Claimant = common.HexToAddress(req.Claimant)
	v.AssetContract = common.HexToAddress(req.AssetContract)
	v.AssetID = assetID
	v.Amount = amount
	v.Nonce = req.Nonce
	return v, sig, nil
}

func parseProof(raw []string) ([]common.Hash, error) {
	proof := make([]common.Hash, len(raw))
	for i, s := range raw {
		b := common.FromHex(s)
		if len(b) != 32 {
			return nil, fmt.Errorf("proof element %d is not a 32-byte digest", i)
		}
		proof[i] = common.BytesToHash(b)
	}
	return proof, nil
}

func parseUint256Field(name, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 256 {
		return nil, fmt.Errorf("%s must be a non-negative decimal uint256, got %q", name, s)
	}
	return v, nil
}

func claimResponse(event *types.ClaimEvent) dto.ClaimResponse {
	return dto.ClaimResponse{
		Module:        event.Module,
		ClaimIndex:    event.ClaimIndex,
		Claimant:      event.Claimant.Hex(),
		AssetContract: event.AssetContract.Hex(),
		AssetID:       event.AssetID.String(),
		Amount:        event.Amount.String(),
	}
}

// claimErrorResponse maps the claim error taxonomy onto HTTP statuses.
// Replay rejections are conflicts, validation failures are bad requests,
// and dispatch failures are upstream errors.
func claimErrorResponse(err error) (int, gin.H) {
	var (
		alreadyClaimed *claimstate.AlreadyClaimedError
		invalidNonce   *claimstate.InvalidNonceError
		proofTooLong   *distributor.ProofTooLongError
		notClaimant    *distributor.NotClaimantError
		transferFailed *distributor.TransferFailedError
		invalidSig     *voucher.InvalidSignatureError
	)
	switch {
	case errors.As(err, &alreadyClaimed):
		return http.StatusConflict, gin.H{"error": "already_claimed", "index": alreadyClaimed.Index}
	case errors.As(err, &invalidNonce):
		return http.StatusConflict, gin.H{
			"error":    "invalid_nonce",
			"expected": invalidNonce.Expected,
			"provided": invalidNonce.Provided,
		}
	case errors.As(err, &proofTooLong):
		return http.StatusBadRequest, gin.H{
			"error":  "proof_too_long",
			"length": proofTooLong.Length,
			"max":    proofTooLong.Max,
		}
	case errors.As(err, &notClaimant):
		return http.StatusForbidden, gin.H{
			"error":    "not_claimant",
			"expected": notClaimant.Expected.Hex(),
			"actual":   notClaimant.Actual.Hex(),
		}
	case errors.As(err, &invalidSig):
		return http.StatusForbidden, gin.H{
			"error":     "invalid_signature",
			"expected":  invalidSig.Expected.Hex(),
			"recovered": invalidSig.Recovered.Hex(),
		}
	case errors.As(err, &transferFailed):
		return http.StatusBadGateway, gin.H{"error": "transfer_failed", "details": transferFailed.Err.Error()}
	case errors.Is(err, distributor.ErrInvalidProof):
		return http.StatusBadRequest, gin.H{"error": "invalid_proof"}
	case errors.Is(err, distributor.ErrInvalidAllocation):
		return http.StatusBadRequest, gin.H{"error": "invalid_allocation"}
	case errors.Is(err, voucher.ErrMalformedSignature):
		return http.StatusBadRequest, gin.H{"error": "malformed_signature"}
	case errors.Is(err, distributor.ErrNoSender):
		return http.StatusUnauthorized, gin.H{"error": "no_effective_sender"}
	case errors.Is(err, distributor.ErrReentrantCall):
		return http.StatusConflict, gin.H{"error": "reentrant_call"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "claim_failed", "details": err.Error()}
	}
}
