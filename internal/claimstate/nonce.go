package claimstate

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// InvalidNonceError reports a voucher nonce that does not match the
// claimant's current counter. The counter is not advanced on mismatch.
type InvalidNonceError struct {
	Expected uint64
	Provided uint64
}

func (e *InvalidNonceError) Error() string {
	return fmt.Sprintf("invalid nonce: expected %d, provided %d", e.Expected, e.Provided)
}

// NonceTracker keeps a monotonically increasing counter per identity,
// starting at zero. Consuming a nonce is a single atomic read-and-increment
// so two concurrent vouchers can never both pass with the same value.
type NonceTracker struct {
	mu       sync.Mutex
	counters map[common.Address]uint64
}

// NewNonceTracker creates an empty nonce tracker.
func NewNonceTracker() *NonceTracker {
	return &NonceTracker{counters: make(map[common.Address]uint64)}
}

// Current returns the identity's current counter value without mutating it.
func (t *NonceTracker) Current(identity common.Address) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters[identity]
}

// ConsumeExpected compares provided against the identity's current counter.
// On match it increments the counter and returns the pre-increment value;
// on mismatch it returns an InvalidNonceError and applies no mutation.
func (t *NonceTracker) ConsumeExpected(identity common.Address, provided uint64) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	current := t.counters[identity]
	if provided != current {
		return 0, &InvalidNonceError{Expected: current, Provided: provided}
	}
	t.counters[identity] = current + 1
	return current, nil
}

// Rollback undoes the most recent consume for identity. It exists solely
// so a claim attempt that fails after consuming its nonce can leave the
// counter unchanged overall.
func (t *NonceTracker) Rollback(identity common.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counters[identity] > 0 {
		t.counters[identity]--
	}
}

// Restore seeds the identity's counter during startup rehydration. The
// counter only ever moves forward.
func (t *NonceTracker) Restore(identity common.Address, nonce uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if nonce > t.counters[identity] {
		t.counters[identity] = nonce
	}
}

// Size returns the number of identities with a nonzero counter.
func (t *NonceTracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.counters)
}
