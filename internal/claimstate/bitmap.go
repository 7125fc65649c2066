package claimstate

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"
)

// AlreadyClaimedError reports a set-once violation on the claim bitmap.
type AlreadyClaimedError struct {
	Index uint64
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("allocation %d already claimed", e.Index)
}

// Bitmap is a dense set of claimed flags, one bit per allocation index,
// packed into 256-bit words keyed by index/256. Bits default to unset and,
// outside of dispatch-failure rollback, are never cleared: a set bit means
// the allocation was dispatched exactly once.
type Bitmap struct {
	mu    sync.RWMutex
	words map[uint64]*uint256.Int
}

// NewBitmap creates an empty claim bitmap.
func NewBitmap() *Bitmap {
	return &Bitmap{words: make(map[uint64]*uint256.Int)}
}

// IsSet reports whether the bit for index is set.
func (b *Bitmap) IsSet(index uint64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	word, ok := b.words[index/256]
	if !ok {
		return false
	}
	return !new(uint256.Int).And(word, bitMask(index)).IsZero()
}

// SetIfUnset atomically checks and sets the bit for index. If the bit is
// already set it returns an AlreadyClaimedError and applies no mutation.
func (b *Bitmap) SetIfUnset(index uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	word, ok := b.words[index/256]
	if !ok {
		word = new(uint256.Int)
		b.words[index/256] = word
	}
	mask := bitMask(index)
	if !new(uint256.Int).And(word, mask).IsZero() {
		return &AlreadyClaimedError{Index: index}
	}
	word.Or(word, mask)
	return nil
}

// Rollback clears the bit for index. It exists solely so a failed asset
// dispatch can undo the mark applied in the same claim attempt; nothing
// else may clear a bit.
func (b *Bitmap) Rollback(index uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	word, ok := b.words[index/256]
	if !ok {
		return
	}
	word.And(word, new(uint256.Int).Not(bitMask(index)))
}

// Count returns the number of set bits, used for startup reporting.
func (b *Bitmap) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, word := range b.words {
		for _, limb := range word {
			for ; limb != 0; limb &= limb - 1 {
				n++
			}
		}
	}
	return n
}

func bitMask(index uint64) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), uint(index%256))
}
