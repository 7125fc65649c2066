package merkle

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultMaxProofDepth bounds the number of sibling digests a proof may
// carry. 32 levels cover 2^32 leaves, far beyond any realistic
// distribution; anything longer is adversarial padding.
const DefaultMaxProofDepth = 32

// PairHash combines two node digests into their parent. The two values are
// sorted numerically before concatenation, which removes left/right
// ambiguity: proof generation never needs to track branch direction.
func PairHash(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return Keccak256Hash(a[:], b[:])
}

// Fold recomputes a root candidate from a leaf and an ordered sibling list.
func Fold(leaf common.Hash, siblings []common.Hash) common.Hash {
	node := leaf
	for _, sib := range siblings {
		node = PairHash(node, sib)
	}
	return node
}

// VerifyProof reports whether the sibling path proves that leaf belongs
// under root. Any incorrect, missing, or reordered sibling diverges the
// fold and the comparison fails. Callers enforcing a depth bound must do
// so before calling; Fold performs one hash per sibling.
func VerifyProof(root, leaf common.Hash, siblings []common.Hash) bool {
	return Fold(leaf, siblings) == root
}
