package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Claim module tags carried on emitted claim events.
const (
	ModuleMerkle    = "Merkle"
	ModuleSignature = "Signature"
)

// AllocationRecord is one recipient's entitlement inside a distribution.
// Index is assigned by the offline generator in input order, zero-based.
// AssetID == 0 designates a fungible allocation denominated by Amount;
// any nonzero AssetID designates a single non-fungible asset and Amount
// is ignored.
type AllocationRecord struct {
	Index         uint64
	Claimant      common.Address
	AssetContract common.Address
	AssetID       *big.Int
	Amount        *big.Int
}

// Voucher is a signed, individually authorized claim payload. It carries
// the same fields as an allocation record plus the claimant's nonce; no
// tree or root is involved.
type Voucher struct {
	Claimant      common.Address
	AssetContract common.Address
	AssetID       *big.Int
	Amount        *big.Int
	Nonce         uint64
}

// ClaimEvent is the record emitted after a successful claim, on both the
// proof path and the voucher path. ClaimIndex is the allocation index for
// Merkle claims and the consumed nonce for Signature claims.
type ClaimEvent struct {
	Module        string
	ClaimIndex    uint64
	Claimant      common.Address
	AssetContract common.Address
	AssetID       *big.Int
	Amount        *big.Int
}
