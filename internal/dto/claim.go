package dto

// ==================== Claim DTOs ====================

// MerkleClaimRequest submits one allocation record with its inclusion proof.
// AssetID and Amount are decimal uint256 strings; Proof entries are
// 0x-prefixed 32-byte hex digests.
type MerkleClaimRequest struct {
	Index         uint64   `json:"index"`
	Claimant      string   `json:"claimant" binding:"required"`
	AssetContract string   `json:"asset_contract" binding:"required"`
	AssetID       string   `json:"asset_id" binding:"required"`
	Amount        string   `json:"amount" binding:"required"`
	Proof         []string `json:"proof"`
}

// VoucherClaimRequest submits one signed voucher.
type VoucherClaimRequest struct {
	Claimant      string `json:"claimant" binding:"required"`
	AssetContract string `json:"asset_contract" binding:"required"`
	AssetID       string `json:"asset_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Nonce         uint64 `json:"nonce"`
	Signature     string `json:"signature" binding:"required"` // 65-byte hex
}

// ClaimResponse is returned for a settled claim on either path.
type ClaimResponse struct {
	Module        string `json:"module"`
	ClaimIndex    uint64 `json:"claim_index"`
	Claimant      string `json:"claimant"`
	AssetContract string `json:"asset_contract"`
	AssetID       string `json:"asset_id"`
	Amount        string `json:"amount"`
}

// ClaimedStatusResponse answers the isClaimed query.
type ClaimedStatusResponse struct {
	Index   uint64 `json:"index"`
	Claimed bool   `json:"claimed"`
}

// NonceResponse answers the currentNonce query.
type NonceResponse struct {
	Identity string `json:"identity"`
	Nonce    uint64 `json:"nonce"`
}

// DistributionInfoResponse echoes the deployment's fixed parameters.
type DistributionInfoResponse struct {
	Root            string `json:"root"`
	DomainSeparator string `json:"domain_separator"`
	MaxProofDepth   int    `json:"max_proof_depth"`
}

// ==================== Vault DTOs ====================

// VaultFundRequest credits the vault with fungible units or deposits a
// non-fungible asset (asset_id != 0) into custody.
type VaultFundRequest struct {
	AssetContract string `json:"asset_contract" binding:"required"`
	AssetID       string `json:"asset_id"`
	Amount        string `json:"amount"`
}

// VaultBalanceResponse answers a balance query.
type VaultBalanceResponse struct {
	Token   string `json:"token"`
	Holder  string `json:"holder"`
	Balance string `json:"balance"`
}
