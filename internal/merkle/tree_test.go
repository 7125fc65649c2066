package merkle

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLeaves(n int) []common.Hash {
	leaves := make([]common.Hash, n)
	for i := range leaves {
		leaves[i] = Keccak256Hash([]byte(fmt.Sprintf("leaf-%d", i)))
	}
	return leaves
}

func TestNewTreeEmpty(t *testing.T) {
	_, err := NewTree(nil)
	assert.ErrorIs(t, err, ErrEmptyTree)
}

func TestSingleLeafTree(t *testing.T) {
	leaves := testLeaves(1)
	tree, err := NewTree(leaves)
	require.NoError(t, err)

	assert.Equal(t, leaves[0], tree.Root())
	assert.Equal(t, 0, tree.Depth())

	proof, err := tree.Prove(0)
	require.NoError(t, err)
	assert.Empty(t, proof)
	assert.True(t, VerifyProof(tree.Root(), leaves[0], proof))
}

func TestPairHashOrderIndependent(t *testing.T) {
	a := Keccak256Hash([]byte("a"))
	b := Keccak256Hash([]byte("b"))
	assert.Equal(t, PairHash(a, b), PairHash(b, a))
	assert.NotEqual(t, PairHash(a, b), PairHash(a, a))
}

func TestProveAndVerifyAllSizes(t *testing.T) {
	for n := 1; n <= 17; n++ {
		t.Run(fmt.Sprintf("%d_leaves", n), func(t *testing.T) {
			leaves := testLeaves(n)
			tree, err := NewTree(leaves)
			require.NoError(t, err)
			root := tree.Root()

			for i := 0; i < n; i++ {
				proof, err := tree.Prove(i)
				require.NoError(t, err)
				assert.LessOrEqual(t, len(proof), tree.Depth())
				assert.True(t, VerifyProof(root, leaves[i], proof),
					"leaf %d of %d must verify", i, n)
			}
		})
	}
}

func TestProveIndexOutOfRange(t *testing.T) {
	tree, err := NewTree(testLeaves(4))
	require.NoError(t, err)

	_, err = tree.Prove(-1)
	assert.Error(t, err)
	_, err = tree.Prove(4)
	assert.Error(t, err)
}

func TestVerifyRejectsTamperedProofs(t *testing.T) {
	leaves := testLeaves(8)
	tree, err := NewTree(leaves)
	require.NoError(t, err)
	root := tree.Root()

	proof, err := tree.Prove(3)
	require.NoError(t, err)
	require.Len(t, proof, 3)

	t.Run("flipped sibling byte", func(t *testing.T) {
		bad := append([]common.Hash(nil), proof...)
		bad[1][0] ^= 0xff
		assert.False(t, VerifyProof(root, leaves[3], bad))
	})

	t.Run("truncated", func(t *testing.T) {
		assert.False(t, VerifyProof(root, leaves[3], proof[:2]))
	})

	t.Run("reordered", func(t *testing.T) {
		bad := []common.Hash{proof[1], proof[0], proof[2]}
		assert.False(t, VerifyProof(root, leaves[3], bad))
	})

	t.Run("wrong leaf", func(t *testing.T) {
		assert.False(t, VerifyProof(root, leaves[4], proof))
	})

	t.Run("foreign root", func(t *testing.T) {
		other, err := NewTree(testLeaves(5))
		require.NoError(t, err)
		assert.False(t, VerifyProof(other.Root(), leaves[3], proof))
	})
}

func TestCarriedOddNodeHasNoSibling(t *testing.T) {
	// With 5 leaves the last leaf is carried up alone twice, so its proof
	// is shorter than the tree depth.
	leaves := testLeaves(5)
	tree, err := NewTree(leaves)
	require.NoError(t, err)

	proof, err := tree.Prove(4)
	require.NoError(t, err)
	assert.Less(t, len(proof), tree.Depth())
	assert.True(t, VerifyProof(tree.Root(), leaves[4], proof))
}
