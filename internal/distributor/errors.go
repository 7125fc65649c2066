package distributor

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Every error below is a rejected claim attempt. None of them leave any
// state behind; the caller resubmits with corrected input or walks away.
var (
	// ErrInvalidProof means the recomputed leaf folded with the supplied
	// siblings does not reach the commitment root.
	ErrInvalidProof = errors.New("invalid inclusion proof")

	// ErrInvalidAllocation marks a fungible allocation with a zero amount;
	// such records are never dispatched.
	ErrInvalidAllocation = errors.New("invalid allocation: zero-amount fungible asset")

	// ErrReentrantCall rejects a nested re-entry of a claim entry point
	// while a dispatch is in flight.
	ErrReentrantCall = errors.New("reentrant claim call")
)

// ProofTooLongError rejects a proof exceeding the configured depth bound.
// The check runs before any hashing work so adversarially long proofs cost
// nothing to refuse.
type ProofTooLongError struct {
	Length int
	Max    int
}

func (e *ProofTooLongError) Error() string {
	return fmt.Sprintf("proof too long: %d siblings, maximum %d", e.Length, e.Max)
}

// NotClaimantError reports a proof claim submitted by an effective sender
// other than the record's claimant.
type NotClaimantError struct {
	Expected common.Address
	Actual   common.Address
}

func (e *NotClaimantError) Error() string {
	return fmt.Sprintf("sender is not the claimant: expected %s, got %s",
		e.Expected.Hex(), e.Actual.Hex())
}

// TransferFailedError wraps an asset dispatch failure. The replay state
// marked earlier in the same attempt has already been rolled back when
// this is returned.
type TransferFailedError struct {
	Err error
}

func (e *TransferFailedError) Error() string {
	return fmt.Sprintf("asset transfer failed: %v", e.Err)
}

func (e *TransferFailedError) Unwrap() error { return e.Err }
