package merkle

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrEmptyTree is returned when building a tree over zero leaves.
var ErrEmptyTree = errors.New("merkle: tree requires at least one leaf")

// Tree is the offline side of the inclusion-proof contract: it commits an
// ordered leaf list under a single root using the same sorted-pair rule the
// verifier folds with. An odd node at any level is carried up unchanged.
type Tree struct {
	// levels[0] is the leaf level; the last level holds the single root.
	levels [][]common.Hash
}

// NewTree builds a commitment tree over the given leaves.
func NewTree(leaves []common.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	levels := [][]common.Hash{append([]common.Hash(nil), leaves...)}
	for cur := levels[0]; len(cur) > 1; {
		next := make([]common.Hash, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			if i+1 < len(cur) {
				next = append(next, PairHash(cur[i], cur[i+1]))
			} else {
				next = append(next, cur[i])
			}
		}
		levels = append(levels, next)
		cur = next
	}
	return &Tree{levels: levels}, nil
}

// Root returns the commitment root.
func (t *Tree) Root() common.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Prove returns the ordered sibling path for the leaf at index i. Carried
// odd nodes contribute no sibling at their level.
func (t *Tree) Prove(i int) ([]common.Hash, error) {
	if i < 0 || i >= len(t.levels[0]) {
		return nil, errors.New("merkle: leaf index out of range")
	}
	var siblings []common.Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sib := i ^ 1
		if sib < len(level) {
			siblings = append(siblings, level[sib])
		}
		i /= 2
	}
	return siblings, nil
}

// Depth returns the number of levels above the leaves, which is the
// maximum proof length this tree can produce.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}
