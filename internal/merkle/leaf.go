package merkle

import (
	"math/big"

	"airdrop-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// encodedRecordLen is five 32-byte slots: index, claimant, assetContract,
// assetId, amount.
const encodedRecordLen = 5 * 32

// EncodeRecord produces the canonical fixed-slot encoding of an allocation
// record. Every field occupies a full left-padded 32-byte slot; nothing is
// packed or length-prefixed, so no two distinct records share an encoding.
func EncodeRecord(rec types.AllocationRecord) []byte {
	buf := make([]byte, 0, encodedRecordLen)
	buf = append(buf, common.LeftPadBytes(new(big.Int).SetUint64(rec.Index).Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(rec.Claimant.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(rec.AssetContract.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(bigBytes(rec.AssetID), 32)...)
	buf = append(buf, common.LeftPadBytes(bigBytes(rec.Amount), 32)...)
	return buf
}

// LeafHash computes the canonical leaf digest of an allocation record:
// keccak256(keccak256(encoding)). The second hash is taken over the raw
// 32-byte inner digest, making every leaf shape-identical to an internal
// node so an internal node can never be presented as a leaf. The offline
// generator uses this exact function; any other encoding produces proofs
// that verify on one side only.
func LeafHash(rec types.AllocationRecord) common.Hash {
	inner := Keccak256(EncodeRecord(rec))
	return Keccak256Hash(inner)
}

func bigBytes(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	return v.Bytes()
}
